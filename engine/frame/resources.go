package frame

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/oit"
	"github.com/Carmen-Shannon/oxy-passes/engine/shadow"
)

// ErrInvalidSize is returned when a rebuild is requested for an empty surface.
var ErrInvalidSize = errors.New("frame: surface size must be positive")

// Resources is one immutable generation of every size-dependent object the
// passes use. A published Resources is never modified in place; a rebuild
// creates a new one. Render passes hold a single snapshot for a whole frame,
// so they can never see a depth map from one generation and a sampler from
// another.
type Resources struct {
	Generation uint64

	Width    int
	Height   int
	Overdraw int

	Color *ColorTarget
	Depth *DepthTarget

	Accumulator oit.Accumulator

	ShadowResolution int
	ShadowMap        *shadow.DepthMap
	Capturer         shadow.Capturer
	Sampler          *shadow.Sampler

	surface []surfel
}

// surfel is the nearest opaque surface at a pixel, shaded after the depth pass.
type surfel struct {
	albedo common.Color
	world  [3]float32
	normal [3]float32
	valid  bool
}

// ResourceGroup owns the current Resources and swaps in whole new
// generations atomically.
type ResourceGroup struct {
	mu         sync.Mutex
	current    atomic.Pointer[Resources]
	generation atomic.Uint64
	pool       worker.DynamicWorkerPool
	listeners  []func(*Resources)
}

// NewResourceGroup creates an empty group. Acquire returns nil until the
// first Rebuild.
//
// Parameters:
//   - pool: worker pool handed to the shadow capturer, or nil
//
// Returns:
//   - *ResourceGroup: the new group
func NewResourceGroup(pool worker.DynamicWorkerPool) *ResourceGroup {
	return &ResourceGroup{pool: pool}
}

// Acquire returns the current generation. The result stays valid and
// consistent even if a rebuild happens while it is in use.
//
// Returns:
//   - *Resources: the current generation, or nil before the first Rebuild
func (g *ResourceGroup) Acquire() *Resources {
	return g.current.Load()
}

// OnRebuild registers a callback invoked with every newly published
// generation. GPU mirrors use it to rebuild alongside the CPU group.
//
// Parameters:
//   - fn: the callback
func (g *ResourceGroup) OnRebuild(fn func(*Resources)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Rebuild allocates every surface- and shadow-dependent resource for the
// given size and configuration and publishes them as one new generation.
//
// Parameters:
//   - width, height: surface size in pixels
//   - cfg: the frame configuration (overdraw and shadow resolution are used)
//
// Returns:
//   - *Resources: the newly published generation
//   - error: ErrInvalidSize or a shadow parameter error
func (g *ResourceGroup) Rebuild(width, height int, cfg Config) (*Resources, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if !shadow.IsSupportedResolution(cfg.Shadow.Resolution) {
		return nil, fmt.Errorf("%w: %d", shadow.ErrUnsupportedResolution, cfg.Shadow.Resolution)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	res := &Resources{
		Width:       width,
		Height:      height,
		Overdraw:    max(cfg.Overdraw, 1),
		Color:       NewColorTarget(width, height),
		Depth:       NewDepthTarget(width, height),
		Accumulator: oit.NewAccumulator(width, height, oit.WithOverdraw(max(cfg.Overdraw, 1))),
		surface:     make([]surfel, width*height),
	}
	g.attachShadow(res, cfg.Shadow.Resolution)
	g.publish(res, "full")
	return res, nil
}

// RebuildShadow replaces the depth map, capturer and sampler together at a
// new resolution. Surface resources are shared with the previous generation.
//
// Parameters:
//   - resolution: the new shadow map resolution (one of shadow.SupportedResolutions)
//
// Returns:
//   - *Resources: the newly published generation
//   - error: if there is no current generation or the resolution is unsupported
func (g *ResourceGroup) RebuildShadow(resolution int) (*Resources, error) {
	if !shadow.IsSupportedResolution(resolution) {
		return nil, fmt.Errorf("%w: %d", shadow.ErrUnsupportedResolution, resolution)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.current.Load()
	if prev == nil {
		return nil, errors.New("frame: shadow rebuild before initial rebuild")
	}
	res := *prev
	g.attachShadow(&res, resolution)
	g.publish(&res, "shadow")
	return &res, nil
}

// Ensure returns the current generation, rebuilding first if the size,
// overdraw or shadow resolution no longer match.
//
// Parameters:
//   - width, height: the surface size this frame
//   - cfg: the frame configuration
//
// Returns:
//   - *Resources: a generation matching the request
//   - bool: true if a rebuild happened
//   - error: any rebuild error
func (g *ResourceGroup) Ensure(width, height int, cfg Config) (*Resources, bool, error) {
	res := g.Acquire()
	switch {
	case res == nil || res.Width != width || res.Height != height || res.Overdraw != max(cfg.Overdraw, 1):
		res, err := g.Rebuild(width, height, cfg)
		return res, true, err
	case res.ShadowResolution != cfg.Shadow.Resolution:
		res, err := g.RebuildShadow(cfg.Shadow.Resolution)
		return res, true, err
	}
	return res, false, nil
}

// attachShadow fills the shadow trio of res. Caller must hold the mutex.
func (g *ResourceGroup) attachShadow(res *Resources, resolution int) {
	res.ShadowResolution = resolution
	res.ShadowMap = shadow.NewDepthMap(resolution)
	var opts []shadow.CapturerBuilderOption
	if g.pool != nil {
		opts = append(opts, shadow.WithCapturerPool(g.pool))
	}
	res.Capturer = shadow.NewCapturer(res.ShadowMap, opts...)
	res.Sampler = shadow.NewSampler(res.ShadowMap)
}

// publish stamps a generation number, swaps res in and notifies listeners.
// Caller must hold the mutex.
func (g *ResourceGroup) publish(res *Resources, kind string) {
	res.Generation = g.generation.Add(1)
	g.current.Store(res)
	common.Logger().Info("frame: resources rebuilt",
		"kind", kind,
		"generation", res.Generation,
		"width", res.Width,
		"height", res.Height,
		"shadow_resolution", res.ShadowResolution,
		"arena_capacity", res.Accumulator.Capacity(),
	)
	for _, fn := range g.listeners {
		fn(res)
	}
}
