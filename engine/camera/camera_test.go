package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, [3]float32{0, 0, 5}, c.Position())
	assert.Equal(t, [3]float32{0, 0, 0}, c.Target())
	assert.InDelta(t, math32.Pi/4, c.Fov(), 1e-6)
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())
}

func TestViewProjectionPutsTargetAtScreenCentre(t *testing.T) {
	c := NewCamera(
		WithPosition(3, 4, 5),
		WithTarget(1, 0, -1),
		WithAspect(16.0/9.0),
		WithClip(0.5, 50),
	)
	vp := c.ViewProjectionMatrix()
	p := common.TransformPoint(vp[:], [3]float32{1, 0, -1})
	assert.InDelta(t, 0, p[0]/p[3], 1e-5)
	assert.InDelta(t, 0, p[1]/p[3], 1e-5)
	z := p[2] / p[3]
	assert.Greater(t, z, float32(0))
	assert.Less(t, z, float32(1))
}

func TestOrbitKeepsDistanceAndHeight(t *testing.T) {
	c := NewCamera(WithPosition(0, 2, 4), WithTarget(0, 0, 0))
	c.Orbit(math32.Pi / 2)
	p := c.Position()
	assert.InDelta(t, 4, p[0], 1e-5)
	assert.InDelta(t, 2, p[1], 1e-6)
	assert.InDelta(t, 0, p[2], 1e-5)

	c.Orbit(-math32.Pi / 2)
	p = c.Position()
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 4, p[2], 1e-5)
}

func TestSetAspectUpdatesProjection(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()
	c.SetAspect(2)
	after := c.ProjectionMatrix()
	assert.InDelta(t, before[0]/2, after[0], 1e-6)
	assert.Equal(t, before[5], after[5])
}

func TestGPUCameraUniform(t *testing.T) {
	c := NewCamera(WithPosition(1, 2, 3))
	u := NewGPUCameraUniform(c)
	assert.Equal(t, 80, u.Size())
	buf := u.Marshal()
	require.Len(t, buf, 80)
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[64:])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[72:])))
}
