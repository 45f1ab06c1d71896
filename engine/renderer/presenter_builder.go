package renderer

import "github.com/cogentcore/webgpu/wgpu"

// PresenterBuilderOption is a functional option for configuring a presenterImpl.
type PresenterBuilderOption func(p *presenterImpl)

// WithVSync selects FIFO presentation when enabled, immediate otherwise.
//
// Parameters:
//   - enabled: true to wait for vertical sync
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithVSync(enabled bool) PresenterBuilderOption {
	return func(p *presenterImpl) {
		if enabled {
			p.presentMode = wgpu.PresentModeFifo
		} else {
			p.presentMode = wgpu.PresentModeImmediate
		}
	}
}

// WithForceFallbackAdapter requests the software fallback adapter.
func WithForceFallbackAdapter(force bool) PresenterBuilderOption {
	return func(p *presenterImpl) {
		p.forceFallbackAdapter = force
	}
}
