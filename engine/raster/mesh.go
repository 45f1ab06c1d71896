package raster

import "github.com/Carmen-Shannon/oxy-passes/common"

// QuadFace builds two counter-clockwise triangles spanning center ± u ± v.
// The face normal is normalize(u × v) and the winding is counter-clockwise
// when viewed from the side the normal points to.
//
// Parameters:
//   - center: world-space centre of the quad
//   - u: half-extent vector along the first edge
//   - v: half-extent vector along the second edge
//   - color: vertex color applied to all four corners
//
// Returns:
//   - []Triangle: the two triangles of the quad
func QuadFace(center, u, v [3]float32, color common.Color) []Triangle {
	n := common.Normalize3(common.Cross3(u, v))
	corner := func(su, sv float32) Vertex {
		return Vertex{
			Position: [3]float32{
				center[0] + u[0]*su + v[0]*sv,
				center[1] + u[1]*su + v[1]*sv,
				center[2] + u[2]*su + v[2]*sv,
			},
			Normal: n,
			Color:  color,
		}
	}
	c0, c1, c2, c3 := corner(-1, -1), corner(1, -1), corner(1, 1), corner(-1, 1)
	return []Triangle{
		{V: [3]Vertex{c0, c1, c2}},
		{V: [3]Vertex{c0, c2, c3}},
	}
}

// Quad builds an axis-aligned quad in the XY plane facing +Z.
//
// Parameters:
//   - cx, cy: centre of the quad
//   - z: the quad's Z coordinate
//   - halfW, halfH: half width and half height
//   - color: quad color (alpha is preserved for transparent geometry)
//
// Returns:
//   - []Triangle: the two triangles of the quad
func Quad(cx, cy, z, halfW, halfH float32, color common.Color) []Triangle {
	return QuadFace([3]float32{cx, cy, z}, [3]float32{halfW, 0, 0}, [3]float32{0, halfH, 0}, color)
}

// Plane builds a horizontal square at height y facing +Y.
//
// Parameters:
//   - y: the plane height
//   - halfExtent: half the side length
//   - color: plane color
//
// Returns:
//   - []Triangle: the two triangles of the plane
func Plane(y, halfExtent float32, color common.Color) []Triangle {
	return QuadFace([3]float32{0, y, 0}, [3]float32{0, 0, halfExtent}, [3]float32{halfExtent, 0, 0}, color)
}

// Box builds a closed axis-aligned box with outward-facing triangles.
//
// Parameters:
//   - center: the box centre
//   - half: half extents along X, Y and Z
//   - color: box color
//
// Returns:
//   - []Triangle: the twelve triangles of the box
func Box(center, half [3]float32, color common.Color) []Triangle {
	x := [3]float32{half[0], 0, 0}
	y := [3]float32{0, half[1], 0}
	z := [3]float32{0, 0, half[2]}
	neg := func(v [3]float32) [3]float32 { return [3]float32{-v[0], -v[1], -v[2]} }
	add := func(a, b [3]float32) [3]float32 { return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }

	tris := make([]Triangle, 0, 12)
	tris = append(tris, QuadFace(add(center, x), y, z, color)...)      // +X
	tris = append(tris, QuadFace(add(center, neg(x)), z, y, color)...) // -X
	tris = append(tris, QuadFace(add(center, y), z, x, color)...)      // +Y
	tris = append(tris, QuadFace(add(center, neg(y)), x, z, color)...) // -Y
	tris = append(tris, QuadFace(add(center, z), x, y, color)...)      // +Z
	tris = append(tris, QuadFace(add(center, neg(z)), y, x, color)...) // -Z
	return tris
}
