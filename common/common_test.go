package common

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func project(m []float32, p [3]float32) [3]float32 {
	c := TransformPoint(m, p)
	return [3]float32{c[0] / c[3], c[1] / c[3], c[2] / c[3]}
}

func TestPerspectiveMapsClipRangeToUnitDepth(t *testing.T) {
	proj := make([]float32, 16)
	Perspective(proj, math32.Pi/2, 1, 0.5, 50)

	assert.InDelta(t, 0, project(proj, [3]float32{0, 0, -0.5})[2], 1e-6)
	assert.InDelta(t, 1, project(proj, [3]float32{0, 0, -50})[2], 1e-5)

	// 90 degree field of view: the frustum edge sits at x = -z.
	assert.InDelta(t, 1, project(proj, [3]float32{3, 0, -3})[0], 1e-6)
}

func TestOrthoMapsBoxToClipSpace(t *testing.T) {
	m := make([]float32, 16)
	Ortho(m, -2, 2, -1, 1, 1, 11)

	tests := []struct {
		in   [3]float32
		want [3]float32
	}{
		{[3]float32{-2, -1, -1}, [3]float32{-1, -1, 0}},
		{[3]float32{2, 1, -11}, [3]float32{1, 1, 1}},
		{[3]float32{0, 0, -6}, [3]float32{0, 0, 0.5}},
	}
	for _, tt := range tests {
		got := project(m, tt.in)
		for i := range got {
			assert.InDelta(t, tt.want[i], got[i], 1e-6)
		}
	}
}

func TestLookAtAndMul4(t *testing.T) {
	view := make([]float32, 16)
	LookAt(view, 0, 0, 5, 0, 0, 0, 0, 1, 0)
	got := project(view, [3]float32{0, 0, 0})
	assert.InDelta(t, -5, got[2], 1e-6)
	assert.InDelta(t, 0, got[0], 1e-6)

	id := make([]float32, 16)
	Identity(id)
	out := make([]float32, 16)
	Mul4(out, id, view)
	assert.Equal(t, view, out)

	// out may alias an input.
	Mul4(view, view, id)
	assert.Equal(t, out, view)
}

func TestShadowBiasMatrixMapsClipToUV(t *testing.T) {
	m := make([]float32, 16)
	ShadowBiasMatrix(m)

	topLeft := TransformPoint(m, [3]float32{-1, 1, 0.3})
	assert.InDelta(t, 0, topLeft[0], 1e-6)
	assert.InDelta(t, 0, topLeft[1], 1e-6)
	assert.InDelta(t, 0.3, topLeft[2], 1e-6)

	bottomRight := TransformPoint(m, [3]float32{1, -1, 0})
	assert.InDelta(t, 1, bottomRight[0], 1e-6)
	assert.InDelta(t, 1, bottomRight[1], 1e-6)
}

func TestVectorHelpers(t *testing.T) {
	assert.Equal(t, [3]float32{0, 0, 1}, Cross3([3]float32{1, 0, 0}, [3]float32{0, 1, 0}))
	assert.Equal(t, float32(32), Dot3([3]float32{1, 2, 3}, [3]float32{4, 5, 6}))
	assert.Equal(t, [3]float32{0, 0, 0}, Normalize3([3]float32{}))

	n := Normalize3([3]float32{3, 0, 4})
	assert.InDelta(t, 0.6, n[0], 1e-6)
	assert.InDelta(t, 0.8, n[2], 1e-6)

	assert.Equal(t, float32(0), Clamp(-1, 0, 1))
	assert.Equal(t, float32(1), Clamp(3, 0, 1))
	assert.Equal(t, float32(0.25), Clamp(0.25, 0, 1))
}

func TestPackRGBA(t *testing.T) {
	assert.Equal(t, uint32(0x800000FF), PackRGBA(RGBA(1, 0, 0, 0.5)))
	assert.Equal(t, uint32(0xFF00FF00), PackRGBA(RGBA(-2, 7, 0, 1)), "channels are clamped")

	c := RGBA(0.2, 0.4, 0.6, 0.8)
	back := UnpackRGBA(PackRGBA(c))
	for i := range c {
		assert.InDelta(t, c[i], back[i], 0.5/255)
	}
}

func TestPremultiplied(t *testing.T) {
	assert.Equal(t, RGBA(0.25, 0.5, 0, 0.5), RGBA(0.5, 1, 0, 0.5).Premultiplied())
}

func TestFrustumContainsAnyPoint(t *testing.T) {
	view, proj, vp := make([]float32, 16), make([]float32, 16), make([]float32, 16)
	LookAt(view, 0, 0, 5, 0, 0, 0, 0, 1, 0)
	Perspective(proj, math32.Pi/4, 1, 0.1, 20)
	Mul4(vp, proj, view)
	f := ExtractFrustumFromMatrix(vp)

	assert.True(t, f.ContainsAnyPoint([3]float32{0, 0, 0}))
	assert.False(t, f.ContainsAnyPoint([3]float32{0, 0, 10}), "behind the camera")
	assert.False(t, f.ContainsAnyPoint([3]float32{0, 0, -30}), "beyond the far plane")
	assert.False(t, f.ContainsAnyPoint([3]float32{50, 0, 0}, [3]float32{60, 1, 0}))
	assert.True(t, f.ContainsAnyPoint([3]float32{-50, 0, 0}, [3]float32{50, 0, 0}), "straddling triangle is kept")
}

func TestLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError), "silent by default")

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("hello", "n", 1)
	require.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "n=1")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}
