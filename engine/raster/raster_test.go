package raster

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity() []float32 {
	m := make([]float32, 16)
	common.Identity(m)
	return m
}

func TestRasterizeFullScreenQuadCoversEachPixelOnce(t *testing.T) {
	const w, h = 8, 8
	hits := make([]int, w*h)
	total := 0
	for _, tri := range Quad(0, 0, 0.5, 1, 1, common.RGBA(1, 0, 0, 1)) {
		total += Rasterize(tri, identity(), w, h, CullBack, func(f Fragment) {
			hits[f.Y*w+f.X]++
		})
	}

	assert.Equal(t, w*h, total)
	for i, n := range hits {
		assert.Equalf(t, 1, n, "pixel %d covered %d times", i, n)
	}
}

func TestRasterizeCulling(t *testing.T) {
	front := Quad(0, 0, 0.5, 1, 1, common.RGBA(1, 1, 1, 1))
	// Mirror the winding by swapping two vertices.
	back := make([]Triangle, len(front))
	for i, tri := range front {
		back[i] = Triangle{V: [3]Vertex{tri.V[0], tri.V[2], tri.V[1]}}
	}

	count := func(tris []Triangle, cull CullMode) int {
		n := 0
		for _, tri := range tris {
			n += Rasterize(tri, identity(), 4, 4, cull, func(Fragment) {})
		}
		return n
	}

	tests := []struct {
		name string
		tris []Triangle
		cull CullMode
		want int
	}{
		{"front with back culling", front, CullBack, 16},
		{"back with back culling", back, CullBack, 0},
		{"front with front culling", front, CullFront, 0},
		{"back with front culling", back, CullFront, 16},
		{"back with no culling", back, CullNone, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, count(tt.tris, tt.cull))
		})
	}
}

func TestRasterizeInterpolatesDepthAndColor(t *testing.T) {
	var frags []Fragment
	for _, tri := range Quad(0, 0, 0.25, 1, 1, common.RGBA(0, 0.5, 1, 0.5)) {
		Rasterize(tri, identity(), 2, 2, CullNone, func(f Fragment) {
			frags = append(frags, f)
		})
	}

	require.Len(t, frags, 4)
	for _, f := range frags {
		assert.InDelta(t, 0.25, f.Depth, 1e-6)
		assert.InDelta(t, 0.5, f.Color.G(), 1e-6)
		assert.InDelta(t, 0.5, f.Color.A(), 1e-6)
		assert.InDelta(t, 1.0, f.Normal[2], 1e-6)
	}
}

func TestRasterizeRejectsOutOfRangeDepth(t *testing.T) {
	n := 0
	for _, tri := range Quad(0, 0, 1.5, 1, 1, common.RGBA(1, 1, 1, 1)) {
		n += Rasterize(tri, identity(), 4, 4, CullNone, func(Fragment) {})
	}
	assert.Zero(t, n)
}

func TestBoxIsClosedAndOutwardFacing(t *testing.T) {
	tris := Box([3]float32{0, 0, 0}, [3]float32{1, 2, 3}, common.RGBA(1, 1, 1, 1))
	require.Len(t, tris, 12)
	for _, tri := range tris {
		e1 := common.Sub3(tri.V[1].Position, tri.V[0].Position)
		e2 := common.Sub3(tri.V[2].Position, tri.V[0].Position)
		n := common.Cross3(e1, e2)
		centroid := [3]float32{
			(tri.V[0].Position[0] + tri.V[1].Position[0] + tri.V[2].Position[0]) / 3,
			(tri.V[0].Position[1] + tri.V[1].Position[1] + tri.V[2].Position[1]) / 3,
			(tri.V[0].Position[2] + tri.V[1].Position[2] + tri.V[2].Position[2]) / 3,
		}
		assert.Greater(t, common.Dot3(n, centroid), float32(0), "triangle winding must face away from the centre")
	}
}
