package frame

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-passes/engine/profiler"
)

// RendererBuilderOption is a function that configures a Renderer during construction.
type RendererBuilderOption func(*rendererImpl)

// WithWorkers is an option builder that sets how many workers the renderer's
// own pool gets. Values of 0 or 1 run every pass on the calling goroutine.
// Ignored when WithWorkerPool is also given.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker count
func WithWorkers(n int) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.workers = n
	}
}

// WithWorkerPool is an option builder that shares an existing worker pool.
// The renderer never stops a pool it did not create.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - RendererBuilderOption: a function that applies the pool
func WithWorkerPool(pool worker.DynamicWorkerPool) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.pool = pool
	}
}

// WithResourceGroup is an option builder that renders into an existing
// resource group, e.g. one a GPU mirror already listens to.
//
// Parameters:
//   - group: the resource group
//
// Returns:
//   - RendererBuilderOption: a function that applies the group
func WithResourceGroup(group *ResourceGroup) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.group = group
	}
}

// WithProfiler is an option builder that records pass timings into p and
// ticks it once per frame.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - RendererBuilderOption: a function that applies the profiler
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.profiler = p
	}
}
