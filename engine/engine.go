package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/controls"
	"github.com/Carmen-Shannon/oxy-passes/engine/frame"
	"github.com/Carmen-Shannon/oxy-passes/engine/renderer"
	"github.com/Carmen-Shannon/oxy-passes/engine/window"
)

// engine implements the Engine interface.
// Coordinates the tick goroutine, the render goroutine and the window thread.
type engine struct {
	mu sync.Mutex

	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once

	window    window.Window
	presenter renderer.Presenter
	gpu       *renderer.GPUResources

	frameRenderer frame.Renderer
	scene         *frame.Scene
	cfg           frame.Config

	paused      bool
	orbitSpeed  float32 // radians per second
	dragRadians float32 // radians per dragged pixel

	engineTickRate   time.Duration
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	tickCallback     func(deltaTime float32)

	lastStats *frame.Stats
}

// Engine runs the interactive viewer: a fixed-rate tick that orbits the
// camera, an uncapped render loop and the window's message loop. The frame
// configuration is only changed between frames; every frame renders from
// a snapshot of it.
type Engine interface {
	// Run starts the tick and render goroutines and blocks in the window
	// message loop until the window closes.
	//
	// Returns:
	//   - error: error if no window was configured
	Run() error

	// Quit signals all engine goroutines to stop. Safe to call multiple times.
	Quit()

	// Config returns the current frame configuration.
	Config() frame.Config

	// SetConfig validates and installs a new configuration for the next frame.
	//
	// Parameters:
	//   - cfg: the configuration
	//
	// Returns:
	//   - error: a frame.ErrInvalidConfig error
	SetConfig(cfg frame.Config) error

	// HandleKey applies the key's control binding. Space pauses the orbit.
	//
	// Parameters:
	//   - key: GLFW key code
	//
	// Returns:
	//   - bool: true if the key changed anything
	HandleKey(key uint32) bool

	// Tick advances the camera orbit by dt seconds unless paused.
	Tick(dt float32)

	// RenderOnce renders, mirrors and presents a single frame.
	//
	// Returns:
	//   - *frame.Stats: the frame statistics
	//   - error: a render or present error
	RenderOnce() (*frame.Stats, error)

	// Renderer returns the software frame renderer.
	Renderer() frame.Renderer

	// Scene returns the scene being rendered.
	Scene() *frame.Scene

	// LastStats returns the statistics of the most recent frame, or nil.
	LastStats() *frame.Stats
}

var _ Engine = &engine{}

// NewEngine creates an engine for a scene. WithRenderer is required unless
// the default 1280x720 renderer is acceptable.
//
// Parameters:
//   - scene: the scene to render (must have a camera)
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(scene *frame.Scene, options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel:    make(chan struct{}),
		scene:          scene,
		cfg:            frame.DefaultConfig(),
		orbitSpeed:     0.3,
		dragRadians:    0.005,
		engineTickRate: time.Second / 60,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.frameRenderer == nil {
		e.frameRenderer = frame.NewRenderer(1280, 720, frame.WithWorkers(e.cfg.Workers))
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
		e.window.SetKeyDownCallback(func(key uint32) { e.HandleKey(key) })
		e.window.SetDragCallback(func(dx, _ float32) {
			if e.scene != nil && e.scene.Camera != nil {
				e.scene.Camera.Orbit(-dx * e.dragRadians)
			}
		})
		e.window.SetTitle(e.title())
	}
	return e
}

func (e *engine) Run() error {
	if e.window == nil {
		return fmt.Errorf("engine: Run requires a window")
	}
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
	e.window.ProcessMessages()
	e.Quit()
	e.wg.Wait()
	return nil
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Config() frame.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

func (e *engine) SetConfig(cfg frame.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
	return nil
}

func (e *engine) HandleKey(key uint32) bool {
	e.mu.Lock()
	if key == common.KeySpace {
		e.paused = !e.paused
		e.mu.Unlock()
		return true
	}
	cfg, ok := controls.Apply(e.cfg, key)
	if ok {
		e.cfg = cfg
	}
	e.mu.Unlock()

	if ok {
		common.Logger().Info("engine: config changed", "key", key, "config", controls.Summary(cfg))
		if e.window != nil {
			e.window.SetTitle(e.title())
		}
	}
	return ok
}

func (e *engine) Tick(dt float32) {
	e.mu.Lock()
	paused := e.paused
	e.mu.Unlock()
	if !paused && e.scene != nil && e.scene.Camera != nil {
		e.scene.Camera.Orbit(dt * e.orbitSpeed)
	}
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
}

func (e *engine) RenderOnce() (*frame.Stats, error) {
	cfg := e.Config()
	stats, err := e.frameRenderer.RenderFrame(e.scene, cfg)
	if err != nil {
		return nil, err
	}

	if e.gpu != nil && e.presenter != nil {
		if err := e.mirror(cfg, stats); err != nil {
			return stats, err
		}
	}
	if e.presenter != nil {
		if out := e.frameRenderer.Output(); out != nil {
			if err := e.presenter.Present(out.Image()); err != nil {
				return stats, err
			}
		}
	}

	e.mu.Lock()
	e.lastStats = stats
	e.mu.Unlock()
	return stats, nil
}

func (e *engine) Renderer() frame.Renderer {
	return e.frameRenderer
}

func (e *engine) Scene() *frame.Scene {
	return e.scene
}

func (e *engine) LastStats() *frame.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastStats
}

// mirror records the device-side head reset, clears the shadow texture when
// no map was captured, then uploads the frame's lists, shadow texels and
// uniforms.
func (e *engine) mirror(cfg frame.Config, stats *frame.Stats) error {
	res := e.frameRenderer.Resources().Acquire()
	if res == nil {
		return nil
	}
	encoder, err := e.presenter.Device().CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("engine: create command encoder: %w", err)
	}
	defer encoder.Release()

	e.gpu.ResetHeads(encoder)
	if stats.ShadowSkipped {
		e.gpu.ClearShadow(encoder)
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("engine: finish command encoder: %w", err)
	}
	e.presenter.Queue().Submit(cmd)
	cmd.Release()

	return e.gpu.Upload(res, e.scene, cfg, stats)
}

// resize runs on the window thread.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.frameRenderer.Resize(width, height)
	if e.scene != nil && e.scene.Camera != nil {
		e.scene.Camera.SetAspect(float32(width) / float32(height))
	}
	if e.presenter != nil {
		if err := e.presenter.Configure(width, height); err != nil {
			common.Logger().Error("engine: surface configure failed", "error", err)
		}
	}
}

func (e *engine) title() string {
	return "oxy-passes | " + controls.Summary(e.Config())
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			e.Tick(float32(now.Sub(lastTick).Seconds()))
			lastTick = now
		}
	}
}

// handleRender runs the render loop in its own goroutine. A panic stops the
// engine instead of crashing the process.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("engine: render goroutine recovered from panic", "panic", r)
			e.Quit()
		}
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		start := time.Now()
		if _, err := e.RenderOnce(); err != nil {
			common.Logger().Warn("engine: frame failed", "error", err)
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}
