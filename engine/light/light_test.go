package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	l := NewLight()
	assert.Equal(t, [3]float32{0, 10, 0}, l.Position())
	assert.Equal(t, [3]float32{0, -1, 0}, l.Direction())
	assert.Equal(t, float32(0.2), l.Ambient())
	assert.True(t, l.CastsShadows())
}

func TestBuilderAndSetters(t *testing.T) {
	l := NewLight(
		WithPosition(4, 10, 3),
		WithTarget(0, 0, 0),
		WithColor(1, 0.9, 0.8),
		WithIntensity(2),
		WithAmbient(0.15),
		WithCastsShadows(false),
	)
	assert.Equal(t, [3]float32{1, 0.9, 0.8}, l.Color())
	assert.Equal(t, float32(2), l.Intensity())
	assert.Equal(t, float32(0.15), l.Ambient())
	assert.False(t, l.CastsShadows())

	l.SetCastsShadows(true)
	l.SetPosition(0, 5, 0)
	l.SetIntensity(0.5)
	assert.True(t, l.CastsShadows())
	assert.Equal(t, [3]float32{0, -1, 0}, l.Direction())
	assert.Equal(t, float32(0.5), l.Intensity())
}

func TestViewMatrixLooksAtTarget(t *testing.T) {
	tests := []struct {
		name string
		l    Light
	}{
		{"oblique", NewLight(WithPosition(4, 10, 3))},
		// Up parallel to the direction must fall back to another axis.
		{"straight down with up Y", NewLight(WithUp(0, 1, 0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := make([]float32, 16)
			tt.l.ViewMatrix(view)
			p := common.TransformPoint(view, tt.l.Target())
			d := common.Sub3(tt.l.Target(), tt.l.Position())
			dist := float32(0)
			for _, v := range d {
				dist += v * v
			}
			assert.InDelta(t, 0, p[0], 1e-5)
			assert.InDelta(t, 0, p[1], 1e-5)
			assert.InDelta(t, dist, p[2]*p[2], 1e-3)
			assert.Less(t, p[2], float32(0))
			for _, v := range view {
				assert.False(t, v != v, "NaN in view matrix")
			}
		})
	}
}
