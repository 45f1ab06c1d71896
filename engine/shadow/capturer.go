package shadow

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/raster"
)

// captureBatchSize is the number of triangles rasterized by one worker task.
const captureBatchSize = 64

var (
	// ErrNotCapturing is returned by Draw and End outside a Begin/End pair.
	ErrNotCapturing = errors.New("shadow: capture not in progress")

	// ErrAlreadyCapturing is returned by Begin while a capture is open.
	ErrAlreadyCapturing = errors.New("shadow: capture already in progress")
)

// CaptureState is the position of a Capturer in its per-frame state machine.
type CaptureState int

const (
	// StateIdle means no capture has run since construction or Reset.
	StateIdle CaptureState = iota

	// StateCapturing means Begin was called and casters may be drawn.
	StateCapturing

	// StateDone means End was called and the depth map is ready to sample.
	StateDone
)

// String returns the lower-case name of the state.
func (s CaptureState) String() string {
	switch s {
	case StateCapturing:
		return "capturing"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

// CaptureStats summarizes one capture pass.
type CaptureStats struct {
	Triangles int
	Culled    int
	Fragments int
	Written   int
}

// capturerImpl is the implementation of the Capturer interface.
type capturerImpl struct {
	mu    sync.Mutex
	depth *DepthMap
	pool  worker.DynamicWorkerPool

	frustumCulling bool

	state   CaptureState
	ls      LightSpace
	frustum common.Frustum
	cull    raster.CullMode
	stats   CaptureStats
}

// Capturer renders shadow casters from the light's point of view into a
// depth map. The depth attachment is cleared to 1.0 on Begin, compared with
// Less and written on pass. No color is produced.
//
// A Capturer moves Idle → Capturing → Done each frame. Begin is accepted
// from Idle or Done; Draw and End only while Capturing.
type Capturer interface {
	// State returns the current state.
	State() CaptureState

	// DepthMap returns the depth target the capturer renders into.
	DepthMap() *DepthMap

	// Begin opens a capture: records the light space on the depth map,
	// clears it to 1.0 and selects the cull mode from params.
	//
	// Parameters:
	//   - ls: the light transforms for this frame
	//   - params: shadow parameters (CullFront selects front-face culling)
	//
	// Returns:
	//   - error: ErrAlreadyCapturing if a capture is open
	Begin(ls LightSpace, params Params) error

	// Draw rasterizes caster triangles into the depth map.
	//
	// Parameters:
	//   - tris: world-space caster triangles
	//
	// Returns:
	//   - int: the number of texels updated
	//   - error: ErrNotCapturing outside Begin/End
	Draw(tris []raster.Triangle) (int, error)

	// End closes the capture.
	//
	// Returns:
	//   - *DepthMap: the captured depth map, ready to sample
	//   - error: ErrNotCapturing outside Begin/End
	End() (*DepthMap, error)

	// Reset returns the capturer to Idle and clears the depth map.
	Reset()

	// Stats returns the counters of the current or last capture.
	Stats() CaptureStats
}

var _ Capturer = &capturerImpl{}

// NewCapturer creates a Capturer bound to a depth map. The capturer and the
// map are rebuilt together whenever the resolution changes.
//
// Parameters:
//   - depth: the depth target
//   - opts: variadic list of CapturerBuilderOption functions
//
// Returns:
//   - Capturer: a new Capturer in StateIdle
func NewCapturer(depth *DepthMap, opts ...CapturerBuilderOption) Capturer {
	if depth == nil {
		panic("shadow: capturer requires a depth map")
	}
	c := &capturerImpl{
		depth:          depth,
		frustumCulling: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *capturerImpl) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *capturerImpl) DepthMap() *DepthMap {
	return c.depth
}

func (c *capturerImpl) Begin(ls LightSpace, params Params) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCapturing {
		return ErrAlreadyCapturing
	}

	c.ls = ls
	c.frustum = common.ExtractFrustumFromMatrix(ls.ViewProj[:])
	c.cull = raster.CullBack
	if params.CullFront {
		c.cull = raster.CullFront
	}
	c.stats = CaptureStats{}

	c.depth.lightSpace = ls
	c.depth.Clear(1.0)
	c.state = StateCapturing
	return nil
}

func (c *capturerImpl) Draw(tris []raster.Triangle) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateCapturing {
		return 0, ErrNotCapturing
	}

	var fragments, written, culled atomic.Int64
	res := c.depth.resolution
	run := func(batch []raster.Triangle) {
		var f, w, cu int64
		for _, tri := range batch {
			if c.frustumCulling && !c.frustum.ContainsAnyPoint(tri.V[0].Position, tri.V[1].Position, tri.V[2].Position) {
				cu++
				continue
			}
			f += int64(raster.Rasterize(tri, c.ls.ViewProj[:], res, res, c.cull, func(fr raster.Fragment) {
				if c.depth.TestAndStore(fr.X, fr.Y, fr.Depth) {
					w++
				}
			}))
		}
		fragments.Add(f)
		written.Add(w)
		culled.Add(cu)
	}

	if c.pool == nil || len(tris) <= captureBatchSize {
		run(tris)
	} else {
		var wg sync.WaitGroup
		taskID := 0
		for lo := 0; lo < len(tris); lo += captureBatchSize {
			batch := tris[lo:min(lo+captureBatchSize, len(tris))]
			wg.Add(1)
			id := taskID
			taskID++
			c.pool.SubmitTask(worker.Task{
				ID: id,
				Do: func() (any, error) {
					defer wg.Done()
					run(batch)
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	c.stats.Triangles += len(tris)
	c.stats.Culled += int(culled.Load())
	c.stats.Fragments += int(fragments.Load())
	c.stats.Written += int(written.Load())
	return int(written.Load()), nil
}

func (c *capturerImpl) End() (*DepthMap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateCapturing {
		return nil, ErrNotCapturing
	}
	c.state = StateDone
	common.Logger().Debug("shadow: capture complete",
		"resolution", c.depth.resolution,
		"triangles", c.stats.Triangles,
		"culled", c.stats.Culled,
		"written", c.stats.Written,
	)
	return c.depth, nil
}

func (c *capturerImpl) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.stats = CaptureStats{}
	c.depth.Clear(1.0)
}

func (c *capturerImpl) Stats() CaptureStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
