package oit

import "github.com/Carmen-Shannon/automation/tools/worker"

// AccumulatorBuilderOption is a function that configures an Accumulator during construction.
type AccumulatorBuilderOption func(*accumulatorImpl)

// WithOverdraw is an option builder that sets the average expected number of
// translucent fragments per pixel. The arena capacity becomes
// overdraw × width × height.
//
// Parameters:
//   - overdraw: average fragments per pixel (values below 1 are treated as 1)
//
// Returns:
//   - AccumulatorBuilderOption: a function that applies the overdraw option
func WithOverdraw(overdraw int) AccumulatorBuilderOption {
	return func(a *accumulatorImpl) {
		a.overdraw = overdraw
	}
}

// WithCapacity is an option builder that sets the node arena capacity
// directly, overriding the overdraw-derived size.
//
// Parameters:
//   - capacity: number of node slots
//
// Returns:
//   - AccumulatorBuilderOption: a function that applies the capacity option
func WithCapacity(capacity uint32) AccumulatorBuilderOption {
	return func(a *accumulatorImpl) {
		a.capacity = capacity
	}
}

// ResolverBuilderOption is a function that configures a Resolver during construction.
type ResolverBuilderOption func(*resolverImpl)

// WithMaxFragments is an option builder that sets how many fragments per
// pixel the resolver collects before truncating. Clamped to
// [1, MaxResolveFragments].
//
// Parameters:
//   - n: the per-pixel fragment cap
//
// Returns:
//   - ResolverBuilderOption: a function that applies the cap
func WithMaxFragments(n int) ResolverBuilderOption {
	return func(r *resolverImpl) {
		r.maxFragments = min(max(n, 1), MaxResolveFragments)
	}
}

// WithResolverPool is an option builder that runs the resolve pass on the
// given worker pool in row bands. Without a pool rows are resolved on the
// calling goroutine.
//
// Parameters:
//   - pool: the worker pool to submit row bands to
//
// Returns:
//   - ResolverBuilderOption: a function that applies the pool option
func WithResolverPool(pool worker.DynamicWorkerPool) ResolverBuilderOption {
	return func(r *resolverImpl) {
		r.pool = pool
	}
}
