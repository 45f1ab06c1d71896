package shadow

import (
	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/light"
	"github.com/chewxy/math32"
)

// LightSpace holds the light's view and orthographic projection for one
// frame, together with the bias-remapped matrix the sampler uses to turn a
// world position into depth map UV and depth. All matrices are column-major.
type LightSpace struct {
	View         [16]float32
	Proj         [16]float32
	ViewProj     [16]float32 // Proj × View, used by the capture pass
	BiasViewProj [16]float32 // Bias × Proj × View, used by the sampler

	HalfExtent float32
	Near       float32
	Far        float32
}

// NewLightSpace builds a light space looking from position toward target with
// a square orthographic frustum.
//
// Parameters:
//   - position: world-space light position
//   - target: world-space point the light looks at
//   - up: preferred up vector (replaced by +X when parallel to the view direction)
//   - halfExtent: orthographic half-size in world units
//   - near, far: clip plane distances along the view direction
//
// Returns:
//   - LightSpace: the computed transforms
func NewLightSpace(position, target, up [3]float32, halfExtent, near, far float32) LightSpace {
	ls := LightSpace{HalfExtent: halfExtent, Near: near, Far: far}
	dir := common.Normalize3(common.Sub3(target, position))
	if math32.Abs(common.Dot3(dir, common.Normalize3(up))) > 0.99 {
		up = [3]float32{1, 0, 0}
	}
	common.LookAt(ls.View[:],
		position[0], position[1], position[2],
		target[0], target[1], target[2],
		up[0], up[1], up[2],
	)
	ls.finish()
	return ls
}

// DirectionalLightSpace fits an orthographic frustum around center for a
// light shining along dir. The eye is placed half the far distance behind
// center, opposite the light direction.
//
// Parameters:
//   - dir: normalized direction the light travels (from light toward scene)
//   - center: world-space center of the shadow frustum
//   - halfExtent: orthographic half-size in world units
//   - near, far: clip plane distances
//
// Returns:
//   - LightSpace: the computed transforms
func DirectionalLightSpace(dir, center [3]float32, halfExtent, near, far float32) LightSpace {
	eye := [3]float32{
		center[0] - dir[0]*far*0.5,
		center[1] - dir[1]*far*0.5,
		center[2] - dir[2]*far*0.5,
	}
	return NewLightSpace(eye, center, [3]float32{0, 1, 0}, halfExtent, near, far)
}

// FromLight builds the light space of a positioned light.
//
// Parameters:
//   - l: the shadow-casting light
//   - halfExtent: orthographic half-size in world units
//   - near, far: clip plane distances
//
// Returns:
//   - LightSpace: the computed transforms
func FromLight(l light.Light, halfExtent, near, far float32) LightSpace {
	ls := LightSpace{HalfExtent: halfExtent, Near: near, Far: far}
	l.ViewMatrix(ls.View[:])
	ls.finish()
	return ls
}

// finish derives the projection, view-projection and bias matrices from View.
func (ls *LightSpace) finish() {
	h := ls.HalfExtent
	common.Ortho(ls.Proj[:], -h, h, -h, h, ls.Near, ls.Far)
	common.Mul4(ls.ViewProj[:], ls.Proj[:], ls.View[:])

	var bias [16]float32
	common.ShadowBiasMatrix(bias[:])
	common.Mul4(ls.BiasViewProj[:], bias[:], ls.ViewProj[:])
}

// Project maps a world position to depth map UV and light-space depth.
//
// Parameters:
//   - world: world-space position
//
// Returns:
//   - u, v: texture coordinates, [0, 1] inside the light frustum
//   - depth: window-space depth in [0, 1] inside the light frustum
func (ls *LightSpace) Project(world [3]float32) (u, v, depth float32) {
	p := common.TransformPoint(ls.BiasViewProj[:], world)
	if p[3] != 0 && p[3] != 1 {
		inv := 1 / p[3]
		return p[0] * inv, p[1] * inv, p[2] * inv
	}
	return p[0], p[1], p[2]
}

// TexelWorldSize returns the world-space width covered by one texel of a
// map of the given resolution.
func (ls *LightSpace) TexelWorldSize(resolution int) float32 {
	return 2 * ls.HalfExtent / float32(resolution)
}
