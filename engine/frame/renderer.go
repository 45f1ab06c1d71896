// Package frame drives one complete frame of the software pipeline: the
// light-space depth capture, the opaque pass with shadowed lighting, and the
// OIT accumulation and resolve passes, all over a rebuildable resource group.
package frame

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/oit"
	"github.com/Carmen-Shannon/oxy-passes/engine/profiler"
	"github.com/Carmen-Shannon/oxy-passes/engine/raster"
	"github.com/Carmen-Shannon/oxy-passes/engine/shadow"
)

// shadeRowsPerTask is the height of the row band shaded by one worker task.
const shadeRowsPerTask = 16

var (
	// ErrNoScene is returned when RenderFrame is called without a scene or camera.
	ErrNoScene = errors.New("frame: scene and camera are required")
)

// Stats reports what happened during one RenderFrame call.
type Stats struct {
	Generation       uint64
	Rebuilt          bool
	Width, Height    int
	ShadowResolution int

	ShadowSkipped   bool
	ShadowCapture   shadow.CaptureStats
	OpaqueFragments int
	Accumulate      oit.PassStats
	Resolved        int

	ShadowPass     time.Duration
	OpaquePass     time.Duration
	ShadePass      time.Duration
	AccumulatePass time.Duration
	ResolvePass    time.Duration
}

// rendererImpl is the implementation of the Renderer interface.
type rendererImpl struct {
	mu sync.Mutex

	width, height int

	workers  int
	pool     worker.DynamicWorkerPool
	ownsPool bool

	group    *ResourceGroup
	profiler *profiler.Profiler
	last     *Resources
}

// Renderer renders scenes into the color target of its resource group.
// RenderFrame calls are serialized.
type Renderer interface {
	// RenderFrame renders one frame.
	//
	// Parameters:
	//   - scene: what to draw
	//   - cfg: the parameters for this frame
	//
	// Returns:
	//   - *Stats: per-pass counters and timings
	//   - error: a validation, resource or capture-state error
	RenderFrame(scene *Scene, cfg Config) (*Stats, error)

	// Resize sets the surface size used by the next frame. The resource
	// group is rebuilt lazily by that frame.
	//
	// Parameters:
	//   - width, height: new size in pixels
	Resize(width, height int)

	// Size returns the current surface size.
	Size() (width, height int)

	// Resources returns the rebuildable resource group.
	Resources() *ResourceGroup

	// Output returns the color target of the last rendered frame, or nil.
	Output() *ColorTarget

	// Close stops the worker pool if the renderer created it.
	Close()
}

var _ Renderer = &rendererImpl{}

// NewRenderer creates a Renderer for a surface of the given size.
//
// Parameters:
//   - width, height: initial surface size in pixels
//   - opts: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: a new Renderer
func NewRenderer(width, height int, opts ...RendererBuilderOption) Renderer {
	r := &rendererImpl{
		width:  width,
		height: height,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pool == nil && r.workers > 1 {
		r.pool = worker.NewDynamicWorkerPool(r.workers, 256, time.Second)
		r.ownsPool = true
	}
	if r.group == nil {
		r.group = NewResourceGroup(r.pool)
	}
	return r
}

func (r *rendererImpl) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
}

func (r *rendererImpl) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *rendererImpl) Resources() *ResourceGroup {
	return r.group
}

func (r *rendererImpl) Output() *ColorTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	return r.last.Color
}

func (r *rendererImpl) Close() {
	if r.ownsPool && r.pool != nil {
		r.pool.Stop()
	}
}

func (r *rendererImpl) RenderFrame(scene *Scene, cfg Config) (*Stats, error) {
	if scene == nil || scene.Camera == nil {
		return nil, ErrNoScene
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, rebuilt, err := r.group.Ensure(r.width, r.height, cfg)
	if err != nil {
		return nil, fmt.Errorf("frame: acquire resources: %w", err)
	}
	stats := &Stats{
		Generation:       res.Generation,
		Rebuilt:          rebuilt,
		Width:            res.Width,
		Height:           res.Height,
		ShadowResolution: res.ShadowResolution,
	}

	ls, hasLight := scene.LightSpace()
	shadowParams := cfg.Shadow
	shadowParams.Enabled = hasLight && cfg.Shadow.Enabled && scene.Light.CastsShadows()

	start := time.Now()
	if shadowParams.Enabled {
		if err := r.shadowPass(res, scene, ls, shadowParams); err != nil {
			return nil, err
		}
		stats.ShadowCapture = res.Capturer.Stats()
	} else {
		stats.ShadowSkipped = true
	}
	stats.ShadowPass = time.Since(start)

	start = time.Now()
	viewProj := scene.Camera.ViewProjectionMatrix()
	stats.OpaqueFragments = r.opaquePass(res, scene, viewProj[:], cfg.ClearColor)
	stats.OpaquePass = time.Since(start)

	start = time.Now()
	r.shadePass(res, scene, shadowParams)
	stats.ShadePass = time.Since(start)

	start = time.Now()
	res.Accumulator.Reset()
	frags := r.translucentFragments(res, scene, viewProj[:], cfg)
	stats.Accumulate = oit.AccumulatePass(res.Accumulator, frags, res.Depth, r.pool)
	stats.AccumulatePass = time.Since(start)

	start = time.Now()
	resolverOpts := []oit.ResolverBuilderOption{oit.WithMaxFragments(cfg.MaxResolveFragments)}
	if r.pool != nil {
		resolverOpts = append(resolverOpts, oit.WithResolverPool(r.pool))
	}
	stats.Resolved = oit.NewResolver(resolverOpts...).Resolve(res.Accumulator, res.Color, cfg.Premultiplied)
	stats.ResolvePass = time.Since(start)

	r.last = res
	if r.profiler != nil {
		r.profiler.RecordPass("shadow", stats.ShadowPass)
		r.profiler.RecordPass("opaque", stats.OpaquePass)
		r.profiler.RecordPass("shade", stats.ShadePass)
		r.profiler.RecordPass("accumulate", stats.AccumulatePass)
		r.profiler.RecordPass("resolve", stats.ResolvePass)
		r.profiler.Tick()
	}
	common.Logger().Debug("frame: rendered",
		"generation", stats.Generation,
		"rebuilt", stats.Rebuilt,
		"shadow_skipped", stats.ShadowSkipped,
		"shadow_written", stats.ShadowCapture.Written,
		"opaque_fragments", stats.OpaqueFragments,
		"oit_inserted", stats.Accumulate.Inserted,
		"oit_rejected", stats.Accumulate.DepthRejected,
		"oit_dropped", stats.Accumulate.Dropped,
		"resolved", stats.Resolved,
	)
	return stats, nil
}

// shadowPass runs the depth capture for every caster in the scene.
func (r *rendererImpl) shadowPass(res *Resources, scene *Scene, ls shadow.LightSpace, p shadow.Params) error {
	if err := res.Capturer.Begin(ls, p); err != nil {
		return fmt.Errorf("frame: shadow pass: %w", err)
	}
	if _, err := res.Capturer.Draw(scene.casters()); err != nil {
		return fmt.Errorf("frame: shadow pass: %w", err)
	}
	if _, err := res.Capturer.End(); err != nil {
		return fmt.Errorf("frame: shadow pass: %w", err)
	}
	return nil
}

// opaquePass clears the attachments and depth-tests opaque geometry,
// keeping the nearest surface per pixel for shading.
func (r *rendererImpl) opaquePass(res *Resources, scene *Scene, viewProj []float32, clearColor common.Color) int {
	res.Color.Clear(clearColor)
	res.Depth.Clear(1.0)
	clear(res.surface)

	n := 0
	for _, m := range scene.Opaque {
		for _, tri := range m.Triangles {
			n += raster.Rasterize(tri, viewProj, res.Width, res.Height, raster.CullBack, func(f raster.Fragment) {
				if res.Depth.TestAndStore(f.X, f.Y, f.Depth) {
					res.surface[f.Y*res.Width+f.X] = surfel{
						albedo: f.Color,
						world:  f.World,
						normal: f.Normal,
						valid:  true,
					}
				}
			})
		}
	}
	return n
}

// shadePass lights every covered pixel, multiplying the direct term by the
// shadow visibility.
func (r *rendererImpl) shadePass(res *Resources, scene *Scene, p shadow.Params) {
	shadeRows := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < res.Width; x++ {
				s := &res.surface[y*res.Width+x]
				if !s.valid {
					continue
				}
				res.Color.Store(x, y, shade(s, scene, res.Sampler, p))
			}
		}
	}

	if r.pool == nil {
		shadeRows(0, res.Height)
		return
	}

	var wg sync.WaitGroup
	taskID := 0
	for y0 := 0; y0 < res.Height; y0 += shadeRowsPerTask {
		lo, hi := y0, min(y0+shadeRowsPerTask, res.Height)
		wg.Add(1)
		id := taskID
		taskID++
		r.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				shadeRows(lo, hi)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// shade applies ambient plus Lambert lighting. Without a light the albedo is
// returned unchanged.
func shade(s *surfel, scene *Scene, sampler *shadow.Sampler, p shadow.Params) common.Color {
	if scene.Light == nil {
		return common.RGBA(s.albedo.R(), s.albedo.G(), s.albedo.B(), 1)
	}
	l := scene.Light
	dir := l.Direction()
	ndotl := max(-common.Dot3(s.normal, dir), 0)
	vis := float32(1)
	if ndotl > 0 {
		vis = sampler.Visibility(s.world, s.normal, dir, p)
	}
	direct := ndotl * vis * l.Intensity()
	lc := l.Color()
	ambient := l.Ambient()
	return common.RGBA(
		s.albedo.R()*(ambient+lc[0]*direct),
		s.albedo.G()*(ambient+lc[1]*direct),
		s.albedo.B()*(ambient+lc[2]*direct),
		1,
	)
}

// translucentFragments rasterizes the transparent meshes in submission order,
// or reversed when FlipDrawOrder is set. Both faces are drawn.
func (r *rendererImpl) translucentFragments(res *Resources, scene *Scene, viewProj []float32, cfg Config) []oit.Fragment {
	meshes := scene.Transparent
	if cfg.FlipDrawOrder {
		meshes = slices.Clone(meshes)
		slices.Reverse(meshes)
	}

	var frags []oit.Fragment
	for _, m := range meshes {
		tris := m.Triangles
		if cfg.FlipDrawOrder {
			tris = slices.Clone(tris)
			slices.Reverse(tris)
		}
		for _, tri := range tris {
			raster.Rasterize(tri, viewProj, res.Width, res.Height, raster.CullNone, func(f raster.Fragment) {
				c := f.Color
				if cfg.Premultiplied {
					c = c.Premultiplied()
				}
				frags = append(frags, oit.Fragment{X: f.X, Y: f.Y, Color: c, Depth: f.Depth})
			})
		}
	}
	return frags
}
