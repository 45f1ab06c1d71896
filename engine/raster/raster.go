// Package raster is the small software rasterizer that feeds every CPU pass
// in this module: the opaque colour pass, the OIT fragment stream and the
// light-space depth capture. Triangles are counter-clockwise front-facing in
// NDC, depth follows the WebGPU [0, 1] convention and pixel coverage uses a
// top-left fill rule so triangles that share an edge never cover the same
// pixel twice.
package raster

import (
	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/chewxy/math32"
)

// CullMode selects which triangle facing is discarded before rasterization.
type CullMode int

const (
	// CullNone rasterizes both front and back faces.
	CullNone CullMode = iota

	// CullBack discards clockwise (back-facing) triangles.
	CullBack

	// CullFront discards counter-clockwise (front-facing) triangles.
	// Used by the shadow depth pass to push stored depth onto back faces.
	CullFront
)

// String returns the lower-case name of the cull mode.
func (c CullMode) String() string {
	switch c {
	case CullBack:
		return "back"
	case CullFront:
		return "front"
	default:
		return "none"
	}
}

// Vertex is a single triangle corner in world space.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    common.Color
}

// Triangle is three vertices in counter-clockwise order when viewed from the front.
type Triangle struct {
	V [3]Vertex
}

// Fragment is one covered pixel centre produced by Rasterize.
type Fragment struct {
	X, Y   int
	Depth  float32 // window-space depth in [0, 1]
	Color  common.Color
	World  [3]float32
	Normal [3]float32
}

// FragmentFunc receives each fragment produced by Rasterize.
type FragmentFunc func(f Fragment)

type screenVertex struct {
	x, y, z float32
	invW    float32
}

// Rasterize scan-converts a single world-space triangle into a target of the
// given size. Triangles with any vertex behind the eye (w <= 0) are rejected
// whole; scenes in this module never straddle the eye plane. Fragments
// outside the [0, 1] depth range are discarded.
//
// Parameters:
//   - tri: the triangle to rasterize
//   - viewProj: column-major view-projection matrix
//   - width, height: target size in pixels
//   - cull: which facing to discard
//   - fn: callback invoked for each covered pixel centre
//
// Returns:
//   - int: the number of fragments emitted
func Rasterize(tri Triangle, viewProj []float32, width, height int, cull CullMode, fn FragmentFunc) int {
	if width <= 0 || height <= 0 {
		return 0
	}

	var sv [3]screenVertex
	var ndc [3][2]float32
	for i := range 3 {
		clip := common.TransformPoint(viewProj, tri.V[i].Position)
		if clip[3] <= 0 {
			return 0
		}
		invW := 1 / clip[3]
		ndc[i] = [2]float32{clip[0] * invW, clip[1] * invW}
		sv[i] = screenVertex{
			x:    (ndc[i][0] + 1) * 0.5 * float32(width),
			y:    (1 - ndc[i][1]) * 0.5 * float32(height),
			z:    clip[2] * invW,
			invW: invW,
		}
	}

	ndcArea := (ndc[1][0]-ndc[0][0])*(ndc[2][1]-ndc[0][1]) - (ndc[2][0]-ndc[0][0])*(ndc[1][1]-ndc[0][1])
	if ndcArea == 0 {
		return 0
	}
	frontFacing := ndcArea > 0
	if (cull == CullBack && !frontFacing) || (cull == CullFront && frontFacing) {
		return 0
	}

	// Normalize to positive screen-space area so a single inclusion test works.
	order := [3]int{0, 1, 2}
	if edge(sv[0], sv[1], sv[2].x, sv[2].y) < 0 {
		order = [3]int{0, 2, 1}
	}
	a, b, c := sv[order[0]], sv[order[1]], sv[order[2]]
	va, vb, vc := tri.V[order[0]], tri.V[order[1]], tri.V[order[2]]
	area := edge(a, b, c.x, c.y)

	minX := max(0, int(math32.Floor(min(a.x, b.x, c.x))))
	maxX := min(width-1, int(math32.Ceil(max(a.x, b.x, c.x))))
	minY := max(0, int(math32.Floor(min(a.y, b.y, c.y))))
	maxY := min(height-1, int(math32.Ceil(max(a.y, b.y, c.y))))

	tlA := topLeft(b, c)
	tlB := topLeft(c, a)
	tlC := topLeft(a, b)

	emitted := 0
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5

			w0 := edge(b, c, px, py)
			w1 := edge(c, a, px, py)
			w2 := edge(a, b, px, py)
			if !covers(w0, tlA) || !covers(w1, tlB) || !covers(w2, tlC) {
				continue
			}

			l0, l1, l2 := w0/area, w1/area, w2/area
			z := l0*a.z + l1*b.z + l2*c.z
			if z < 0 || z > 1 {
				continue
			}

			// Perspective-correct weights for attributes.
			p0, p1, p2 := l0*a.invW, l1*b.invW, l2*c.invW
			inv := 1 / (p0 + p1 + p2)
			p0, p1, p2 = p0*inv, p1*inv, p2*inv

			fn(Fragment{
				X:      x,
				Y:      y,
				Depth:  z,
				Color:  lerpColor(va.Color, vb.Color, vc.Color, p0, p1, p2),
				World:  lerp3(va.Position, vb.Position, vc.Position, p0, p1, p2),
				Normal: common.Normalize3(lerp3(va.Normal, vb.Normal, vc.Normal, p0, p1, p2)),
			})
			emitted++
		}
	}
	return emitted
}

// edge is the 2D edge function of (a -> b) evaluated at (px, py). Positive
// values lie to the right of the edge in y-down screen space.
func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// topLeft reports whether the edge a -> b is a top or left edge for a
// triangle with positive edge-function area in y-down screen space.
func topLeft(a, b screenVertex) bool {
	dx := b.x - a.x
	dy := b.y - a.y
	return (dy == 0 && dx > 0) || dy < 0
}

func covers(w float32, tl bool) bool {
	return w > 0 || (w == 0 && tl)
}

func lerp3(a, b, c [3]float32, wa, wb, wc float32) [3]float32 {
	return [3]float32{
		a[0]*wa + b[0]*wb + c[0]*wc,
		a[1]*wa + b[1]*wb + c[1]*wc,
		a[2]*wa + b[2]*wb + c[2]*wc,
	}
}

func lerpColor(a, b, c common.Color, wa, wb, wc float32) common.Color {
	return common.Color{
		a[0]*wa + b[0]*wb + c[0]*wc,
		a[1]*wa + b[1]*wb + c[1]*wc,
		a[2]*wa + b[2]*wb + c[2]*wc,
		a[3]*wa + b[3]*wb + c[3]*wc,
	}
}
