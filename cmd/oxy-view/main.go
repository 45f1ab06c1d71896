// Command oxy-view opens a window and renders a scenario interactively.
// The camera orbits on its own; drag with the left mouse button to turn it,
// Space pauses the orbit and Escape quits. The remaining keys adjust the
// shadow and transparency parameters (see engine/controls).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/config"
	"github.com/Carmen-Shannon/oxy-passes/engine"
	"github.com/Carmen-Shannon/oxy-passes/engine/controls"
	"github.com/Carmen-Shannon/oxy-passes/engine/frame"
	"github.com/Carmen-Shannon/oxy-passes/engine/profiler"
	"github.com/Carmen-Shannon/oxy-passes/engine/renderer"
	"github.com/Carmen-Shannon/oxy-passes/engine/window"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "oxy-view:", err)
		os.Exit(1)
	}
}

func run() error {
	scenario := flag.String("scenario", frame.ScenarioShadows, "scenario to show ("+frame.ScenarioOIT+" or "+frame.ScenarioShadows+")")
	configPath := flag.String("config", "", "TOML preset overriding the default configuration")
	width := flag.Int("width", 1280, "initial window width")
	height := flag.Int("height", 720, "initial window height")
	vsync := flag.Bool("vsync", true, "wait for vertical sync when presenting")
	fallback := flag.Bool("fallback-adapter", false, "force the software WebGPU adapter")
	verbose := flag.Bool("v", false, "log per-frame statistics")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := frame.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	win, err := window.NewWindow(
		window.WithTitle("oxy-passes"),
		window.WithSize(*width, *height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	presenter, err := renderer.NewPresenter(win.SurfaceDescriptor(),
		renderer.WithVSync(*vsync),
		renderer.WithForceFallbackAdapter(*fallback),
	)
	if err != nil {
		return err
	}
	defer presenter.Release()
	if err := presenter.Configure(win.Width(), win.Height()); err != nil {
		return err
	}

	scene, ok := frame.ScenarioByName(strings.ToLower(*scenario), float32(win.Width())/float32(win.Height()))
	if !ok {
		return fmt.Errorf("unknown scenario %q", *scenario)
	}

	fr := frame.NewRenderer(win.Width(), win.Height(),
		frame.WithWorkers(cfg.Workers),
		frame.WithProfiler(profiler.NewProfiler()),
	)
	defer fr.Close()

	gpu, err := renderer.NewGPUResources(presenter.Device(), presenter.Queue())
	if err != nil {
		return err
	}
	defer gpu.Release()
	if err := gpu.Attach(fr.Resources()); err != nil {
		return err
	}

	for _, b := range controls.Bindings {
		common.Logger().Info("key", "key", b.Name, "action", b.Description)
	}

	eng := engine.NewEngine(scene,
		engine.WithWindow(win),
		engine.WithRenderer(fr),
		engine.WithPresenter(presenter),
		engine.WithGPUResources(gpu),
		engine.WithConfig(cfg),
		engine.WithTickRate(60),
	)
	return eng.Run()
}
