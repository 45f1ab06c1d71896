package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-passes/engine/frame"
	"github.com/Carmen-Shannon/oxy-passes/engine/renderer"
	"github.com/Carmen-Shannon/oxy-passes/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithWindow attaches the window whose input drives the engine and whose
// message loop Run blocks in.
//
// Parameters:
//   - w: an opened Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the software frame renderer.
func WithRenderer(r frame.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.frameRenderer = r
	}
}

// WithPresenter puts every rendered frame on the presenter's surface.
func WithPresenter(p renderer.Presenter) EngineBuilderOption {
	return func(e *engine) {
		e.presenter = p
	}
}

// WithGPUResources keeps a device-side mirror in step with each frame.
// Only used together with WithPresenter.
func WithGPUResources(g *renderer.GPUResources) EngineBuilderOption {
	return func(e *engine) {
		e.gpu = g
	}
}

// WithConfig sets the starting frame configuration. Invalid values are
// rejected later by RenderFrame.
func WithConfig(cfg frame.Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
	}
}

// WithTickRate sets the tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithOrbitSpeed sets the automatic camera orbit speed in radians per second.
func WithOrbitSpeed(radiansPerSecond float32) EngineBuilderOption {
	return func(e *engine) {
		e.orbitSpeed = radiansPerSecond
	}
}

// WithTickCallback registers a function called after every tick.
func WithTickCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}
