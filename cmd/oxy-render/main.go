// Command oxy-render renders one of the built-in scenarios with the
// software pipeline and writes the result as a PNG.
//
//	oxy-render -scenario shadows -config soft.toml -frames 3 -scale 4 -out shadows.png
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/config"
	"github.com/Carmen-Shannon/oxy-passes/engine/frame"
	"github.com/Carmen-Shannon/oxy-passes/engine/profiler"
	"golang.org/x/image/draw"
)

type options struct {
	scenario  string
	config    string
	width     int
	height    int
	frames    int
	scale     int
	out       string
	shadowOut string
	verbose   bool
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "oxy-render:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("oxy-render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.scenario, "scenario", frame.ScenarioOIT, "scenario to render ("+frame.ScenarioOIT+" or "+frame.ScenarioShadows+")")
	fs.StringVar(&o.config, "config", "", "TOML preset overriding the default configuration")
	fs.IntVar(&o.width, "width", 320, "render width in pixels")
	fs.IntVar(&o.height, "height", 240, "render height in pixels")
	fs.IntVar(&o.frames, "frames", 1, "number of frames to render (the last one is written)")
	fs.IntVar(&o.scale, "scale", 1, "nearest-neighbour upscale factor for the PNG")
	fs.StringVar(&o.out, "out", "", "output PNG (default <scenario>.png)")
	fs.StringVar(&o.shadowOut, "shadow-out", "", "optional PNG dump of the shadow depth map")
	fs.BoolVar(&o.verbose, "v", false, "log per-frame statistics")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	var errs []error
	if o.width <= 0 || o.height <= 0 {
		errs = append(errs, fmt.Errorf("size %dx%d must be positive", o.width, o.height))
	}
	if o.frames < 1 {
		errs = append(errs, fmt.Errorf("frames %d must be at least 1", o.frames))
	}
	if o.scale < 1 {
		errs = append(errs, fmt.Errorf("scale %d must be at least 1", o.scale))
	}
	if o.out == "" {
		o.out = o.scenario + ".png"
	}
	return o, errors.Join(errs...)
}

func run(args []string, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer common.SetLogger(nil)

	cfg := frame.DefaultConfig()
	if o.config != "" {
		if cfg, err = config.Load(o.config); err != nil {
			return err
		}
	}

	scene, ok := frame.ScenarioByName(strings.ToLower(o.scenario), float32(o.width)/float32(o.height))
	if !ok {
		return fmt.Errorf("unknown scenario %q", o.scenario)
	}

	r := frame.NewRenderer(o.width, o.height,
		frame.WithWorkers(cfg.Workers),
		frame.WithProfiler(profiler.NewProfiler()),
	)
	defer r.Close()

	var stats *frame.Stats
	for i := 0; i < o.frames; i++ {
		if stats, err = r.RenderFrame(scene, cfg); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	common.Logger().Info("rendered",
		"scenario", o.scenario,
		"frames", o.frames,
		"oit_inserted", stats.Accumulate.Inserted,
		"oit_dropped", stats.Accumulate.Dropped,
		"resolved", stats.Resolved,
		"shadow_written", stats.ShadowCapture.Written,
	)

	if err := writePNG(o.out, upscale(r.Output().Image(), o.scale)); err != nil {
		return err
	}
	if o.shadowOut != "" {
		res := r.Resources().Acquire()
		if res == nil || stats.ShadowSkipped {
			return errors.New("no shadow map was captured")
		}
		if err := writePNG(o.shadowOut, res.ShadowMap.Image()); err != nil {
			return err
		}
	}
	return nil
}

// upscale enlarges img by an integer factor without filtering, so single
// pixels of the low-resolution render stay crisp.
func upscale(img *image.RGBA, scale int) image.Image {
	if scale <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	common.Logger().Info("wrote", "path", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return nil
}
