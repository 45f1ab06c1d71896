package frame

import (
	"github.com/Carmen-Shannon/oxy-passes/engine/camera"
	"github.com/Carmen-Shannon/oxy-passes/engine/light"
	"github.com/Carmen-Shannon/oxy-passes/engine/raster"
	"github.com/Carmen-Shannon/oxy-passes/engine/shadow"
)

// Mesh is a named batch of world-space triangles.
type Mesh struct {
	Name        string
	Triangles   []raster.Triangle
	CastsShadow bool
}

// Scene is everything one frame draws. Opaque meshes are depth-tested and
// lit; transparent meshes go through the OIT accumulation and resolve passes
// in slice order (or reversed, see Config.FlipDrawOrder).
type Scene struct {
	Camera camera.Camera

	// Light is optional. Without one the opaque pass is unlit and no shadow
	// pass runs.
	Light light.Light

	// ShadowHalfExtent, ShadowNear and ShadowFar size the light's
	// orthographic frustum. Zero values fall back to the shadow defaults.
	ShadowHalfExtent float32
	ShadowNear       float32
	ShadowFar        float32

	Opaque      []Mesh
	Transparent []Mesh
}

// LightSpace returns the light transforms for this frame.
//
// Returns:
//   - shadow.LightSpace: the light space, zero value if the scene has no light
//   - bool: false if the scene has no light
func (s *Scene) LightSpace() (shadow.LightSpace, bool) {
	if s.Light == nil {
		return shadow.LightSpace{}, false
	}
	halfExtent := s.ShadowHalfExtent
	if halfExtent == 0 {
		halfExtent = shadow.DefaultHalfExtent
	}
	near := s.ShadowNear
	if near == 0 {
		near = shadow.DefaultNear
	}
	far := s.ShadowFar
	if far == 0 {
		far = shadow.DefaultFar
	}
	return shadow.FromLight(s.Light, halfExtent, near, far), true
}

// casters returns the triangles of every mesh that casts a shadow.
func (s *Scene) casters() []raster.Triangle {
	var tris []raster.Triangle
	for _, m := range s.Opaque {
		if m.CastsShadow {
			tris = append(tris, m.Triangles...)
		}
	}
	for _, m := range s.Transparent {
		if m.CastsShadow {
			tris = append(tris, m.Triangles...)
		}
	}
	return tris
}
