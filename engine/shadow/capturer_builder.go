package shadow

import "github.com/Carmen-Shannon/automation/tools/worker"

// CapturerBuilderOption is a function that configures a Capturer during construction.
type CapturerBuilderOption func(*capturerImpl)

// WithCapturerPool is an option builder that rasterizes caster batches on the
// given worker pool. Without a pool casters are drawn on the calling goroutine.
//
// Parameters:
//   - pool: the worker pool to submit triangle batches to
//
// Returns:
//   - CapturerBuilderOption: a function that applies the pool option
func WithCapturerPool(pool worker.DynamicWorkerPool) CapturerBuilderOption {
	return func(c *capturerImpl) {
		c.pool = pool
	}
}

// WithFrustumCulling is an option builder that enables or disables rejecting
// caster triangles that lie entirely outside the light frustum. Enabled by default.
//
// Parameters:
//   - enabled: true to cull against the light frustum
//
// Returns:
//   - CapturerBuilderOption: a function that applies the culling option
func WithFrustumCulling(enabled bool) CapturerBuilderOption {
	return func(c *capturerImpl) {
		c.frustumCulling = enabled
	}
}
