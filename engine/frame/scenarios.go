package frame

import (
	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/camera"
	"github.com/Carmen-Shannon/oxy-passes/engine/light"
	"github.com/Carmen-Shannon/oxy-passes/engine/raster"
)

// Scenario names accepted by ScenarioByName.
const (
	ScenarioOIT     = "oit"
	ScenarioShadows = "shadows"
)

// Colors used by the built-in scenarios.
var (
	ScenarioRed   = common.RGBA(1, 0, 0, 1)
	ScenarioGreen = common.RGBA(0, 1, 0, 0.5)
	ScenarioBlue  = common.RGBA(0, 0, 1, 0.5)
	ScenarioFloor = common.RGBA(0.8, 0.8, 0.8, 1)
	ScenarioCrate = common.RGBA(0.9, 0.55, 0.2, 1)
)

// OITScenario builds the transparency test scene: an opaque red quad in
// front, a blue translucent quad behind it and a green translucent quad
// behind the blue one. The translucent quads overlap each other and are
// partly hidden by the red quad. Transparent meshes are listed green first
// (back to front); the renderer's FlipDrawOrder reverses submission.
//
// Parameters:
//   - aspect: viewport width / height
//
// Returns:
//   - *Scene: the scene
func OITScenario(aspect float32) *Scene {
	return &Scene{
		Camera: camera.NewCamera(
			camera.WithPosition(0, 0, 5),
			camera.WithAspect(aspect),
		),
		Opaque: []Mesh{
			{Name: "red", Triangles: raster.Quad(-0.5, 0.1, 0.5, 0.6, 0.6, ScenarioRed)},
		},
		Transparent: []Mesh{
			{Name: "green", Triangles: raster.Quad(0.3, 0.3, -0.5, 0.9, 0.9, ScenarioGreen)},
			{Name: "blue", Triangles: raster.Quad(0.6, -0.1, 0, 0.9, 0.9, ScenarioBlue)},
		},
	}
}

// ShadowScenario builds the shadow test scene: a floor plane and a crate lit
// by a single shadow-casting light from above and to the side.
//
// Parameters:
//   - aspect: viewport width / height
//
// Returns:
//   - *Scene: the scene
func ShadowScenario(aspect float32) *Scene {
	return &Scene{
		Camera: camera.NewCamera(
			camera.WithPosition(-5, 7, -7),
			camera.WithTarget(0, 0.5, 0),
			camera.WithAspect(aspect),
		),
		Light: light.NewLight(
			light.WithPosition(4, 10, 3),
			light.WithTarget(0, 0, 0),
			light.WithAmbient(0.15),
		),
		ShadowHalfExtent: 8,
		ShadowNear:       0.1,
		ShadowFar:        30,
		Opaque: []Mesh{
			{Name: "floor", Triangles: raster.Plane(0, 6, ScenarioFloor), CastsShadow: true},
			{Name: "crate", Triangles: raster.Box([3]float32{0, 1, 0}, [3]float32{0.75, 1, 0.75}, ScenarioCrate), CastsShadow: true},
		},
	}
}

// ScenarioByName returns a built-in scenario.
//
// Parameters:
//   - name: ScenarioOIT or ScenarioShadows
//   - aspect: viewport width / height
//
// Returns:
//   - *Scene: the scene
//   - bool: false for an unknown name
func ScenarioByName(name string, aspect float32) (*Scene, bool) {
	switch name {
	case ScenarioOIT:
		return OITScenario(aspect), true
	case ScenarioShadows:
		return ShadowScenario(aspect), true
	}
	return nil, false
}
