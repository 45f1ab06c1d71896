package frame

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/oit"
	"github.com/Carmen-Shannon/oxy-passes/engine/shadow"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pixelOf projects a world point to the pixel it lands in.
func pixelOf(scene *Scene, w, h int, p [3]float32) (int, int) {
	vp := scene.Camera.ViewProjectionMatrix()
	clip := common.TransformPoint(vp[:], p)
	nx, ny := clip[0]/clip[3], clip[1]/clip[3]
	return int(math32.Floor((nx + 1) * 0.5 * float32(w))), int(math32.Floor((1 - ny) * 0.5 * float32(h)))
}

func quantized(c common.Color) common.Color {
	return common.UnpackRGBA(common.PackRGBA(c))
}

func assertColorInDelta(t *testing.T, want, got common.Color, delta float64, msg string) {
	t.Helper()
	for i := 0; i < 4; i++ {
		assert.InDeltaf(t, want[i], got[i], delta, "%s channel %d: want %v got %v", msg, i, want, got)
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MaxResolveFragments = 64
	cfg.Overdraw = 0
	cfg.Shadow.Resolution = 100
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, shadow.ErrUnsupportedResolution)
}

func TestRenderFrameRequiresScene(t *testing.T) {
	r := NewRenderer(8, 8)
	_, err := r.RenderFrame(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoScene)
}

func TestResourceGroupRebuildPublishesNewGeneration(t *testing.T) {
	g := NewResourceGroup(nil)
	assert.Nil(t, g.Acquire())

	var seen []uint64
	g.OnRebuild(func(r *Resources) { seen = append(seen, r.Generation) })

	cfg := DefaultConfig()
	cfg.Shadow.Resolution = 512
	first, err := g.Rebuild(16, 8, cfg)
	require.NoError(t, err)
	assert.Same(t, first, g.Acquire())
	assert.Equal(t, uint32(16*8*cfg.Overdraw), first.Accumulator.Capacity())
	for _, h := range first.Accumulator.Heads() {
		assert.Equal(t, oit.Sentinel, h)
	}

	second, err := g.RebuildShadow(1024)
	require.NoError(t, err)
	assert.Greater(t, second.Generation, first.Generation)
	assert.Same(t, first.Color, second.Color, "surface resources are shared by a shadow-only rebuild")
	assert.NotSame(t, first.ShadowMap, second.ShadowMap)
	assert.Equal(t, 512, first.ShadowMap.Resolution(), "published generations are never mutated")
	assert.Equal(t, 1024, second.ShadowMap.Resolution())
	assert.Same(t, second.ShadowMap, second.Capturer.DepthMap())
	assert.Same(t, second.ShadowMap, second.Sampler.DepthMap())
	assert.Equal(t, []uint64{first.Generation, second.Generation}, seen)

	_, err = g.RebuildShadow(999)
	assert.ErrorIs(t, err, shadow.ErrUnsupportedResolution)
	_, err = g.Rebuild(0, 10, cfg)
	assert.ErrorIs(t, err, ErrInvalidSize)
	assert.Same(t, second, g.Acquire(), "failed rebuilds leave the current generation in place")
}

func TestResourceGroupEnsure(t *testing.T) {
	g := NewResourceGroup(nil)
	cfg := DefaultConfig()
	cfg.Shadow.Resolution = 512

	res, rebuilt, err := g.Ensure(8, 8, cfg)
	require.NoError(t, err)
	assert.True(t, rebuilt)

	same, rebuilt, err := g.Ensure(8, 8, cfg)
	require.NoError(t, err)
	assert.False(t, rebuilt)
	assert.Same(t, res, same)

	cfg.Overdraw = 2
	res, rebuilt, err = g.Ensure(8, 8, cfg)
	require.NoError(t, err)
	assert.True(t, rebuilt)
	assert.Equal(t, uint32(2*8*8), res.Accumulator.Capacity())
}

func renderOIT(t *testing.T, r Renderer, flip, premultiplied bool) (*Scene, *ColorTarget, *Stats) {
	t.Helper()
	w, h := r.Size()
	scene := OITScenario(float32(w) / float32(h))
	cfg := DefaultConfig()
	cfg.FlipDrawOrder = flip
	cfg.Premultiplied = premultiplied
	stats, err := r.RenderFrame(scene, cfg)
	require.NoError(t, err)
	out := NewColorTarget(w, h)
	copy(out.pixels, r.Output().pixels)
	return scene, out, stats
}

func TestOITScenarioIsOrderIndependent(t *testing.T) {
	const w, h = 96, 96
	pool := worker.NewDynamicWorkerPool(4, 256, time.Second)
	defer pool.Stop()
	r := NewRenderer(w, h, WithWorkerPool(pool))

	scene, forward, stats := renderOIT(t, r, false, false)
	_, flipped, _ := renderOIT(t, r, true, false)
	assert.Equal(t, forward.pixels, flipped.pixels, "submission order must not change the composite")
	assert.Positive(t, stats.Accumulate.DepthRejected, "translucent fragments behind the red quad are discarded")
	assert.Zero(t, stats.Accumulate.Dropped)
	assert.True(t, stats.ShadowSkipped)

	clearColor := DefaultConfig().ClearColor
	green := quantized(ScenarioGreen)
	blue := quantized(ScenarioBlue)

	tests := []struct {
		name  string
		world [3]float32
		want  common.Color
	}{
		{"blue over green", [3]float32{0.8, 0.3, 0}, oit.BlendOver(blue, oit.BlendOver(green, clearColor))},
		{"red occludes both", [3]float32{-0.1, 0.2, 0.5}, ScenarioRed},
		{"green only", [3]float32{-0.5, 1.0, -0.5}, oit.BlendOver(green, clearColor)},
		{"background", [3]float32{-1.8, -1.2, 0}, clearColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := pixelOf(scene, w, h, tt.world)
			assertColorInDelta(t, tt.want, forward.Load(x, y), 1e-5, tt.name)
		})
	}
}

func TestOITScenarioPremultiplied(t *testing.T) {
	const w, h = 64, 64
	r := NewRenderer(w, h)
	scene, straight, _ := renderOIT(t, r, false, false)
	_, premul, _ := renderOIT(t, r, false, true)

	x, y := pixelOf(scene, w, h, [3]float32{0.8, 0.3, 0})
	// Both conventions describe the same blend; they differ only by 8-bit packing.
	assertColorInDelta(t, straight.Load(x, y), premul.Load(x, y), 2.0/255, "premultiplied")
}

func TestOITScenarioTruncationUnderTinyArena(t *testing.T) {
	const w, h = 32, 32
	r := NewRenderer(w, h)
	cfg := DefaultConfig()
	cfg.Overdraw = 1
	stats, err := r.RenderFrame(OITScenario(1), cfg)
	require.NoError(t, err)
	// One slot per pixel cannot hold two overlapping quads everywhere, but
	// overflow is never an error.
	assert.LessOrEqual(t, stats.Accumulate.Inserted, w*h)
	assert.Equal(t, stats.Accumulate.Submitted-stats.Accumulate.DepthRejected, stats.Accumulate.Inserted+stats.Accumulate.Dropped)
}

func TestShadowResolutionChangeRebuildsWithoutStaleViews(t *testing.T) {
	const w, h = 96, 96
	r := NewRenderer(w, h, WithWorkers(4))
	defer r.Close()
	scene := ShadowScenario(1)
	cfg := DefaultConfig()
	cfg.Shadow.Resolution = 512

	stats, err := r.RenderFrame(scene, cfg)
	require.NoError(t, err)
	require.False(t, stats.ShadowSkipped)
	before := r.Resources().Acquire()
	require.Equal(t, 512, before.ShadowMap.Resolution())

	cfg.Shadow.Resolution = 1024
	stats, err = r.RenderFrame(scene, cfg)
	require.NoError(t, err)
	assert.True(t, stats.Rebuilt)
	assert.Equal(t, 1024, stats.ShadowResolution)

	after := r.Resources().Acquire()
	assert.Greater(t, after.Generation, before.Generation)
	assert.NotSame(t, before.ShadowMap, after.ShadowMap)
	assert.Same(t, after.ShadowMap, after.Capturer.DepthMap())
	assert.Same(t, after.ShadowMap, after.Sampler.DepthMap())
	assert.Equal(t, shadow.StateDone, after.Capturer.State())
	assert.Positive(t, stats.ShadowCapture.Written, "the new map must hold captured depth")

	// Behind the crate, as seen from the light, versus open floor.
	shadowed := [3]float32{-1.15, 0, -0.95}
	lit := [3]float32{2, 0, -2}
	up := [3]float32{0, 1, 0}
	dir := scene.Light.Direction()
	assert.Equal(t, float32(0), after.Sampler.Visibility(shadowed, up, dir, cfg.Shadow))
	assert.Equal(t, float32(1), after.Sampler.Visibility(lit, up, dir, cfg.Shadow))

	out := r.Output()
	sx, sy := pixelOf(scene, w, h, shadowed)
	lx, ly := pixelOf(scene, w, h, lit)
	assert.Less(t, out.Load(sx, sy).R(), out.Load(lx, ly).R(), "shadowed floor must be darker than lit floor")
	assert.Greater(t, out.Load(sx, sy).R(), float32(0), "ambient keeps shadows from going black")
}

func TestShadowsDisabledSkipsCapture(t *testing.T) {
	r := NewRenderer(32, 32)
	cfg := DefaultConfig()
	cfg.Shadow.Enabled = false
	stats, err := r.RenderFrame(ShadowScenario(1), cfg)
	require.NoError(t, err)
	assert.True(t, stats.ShadowSkipped)
	assert.Equal(t, shadow.StateIdle, r.Resources().Acquire().Capturer.State())
}

func TestResizeRebuildsOnNextFrame(t *testing.T) {
	r := NewRenderer(16, 16)
	scene := OITScenario(1)
	_, err := r.RenderFrame(scene, DefaultConfig())
	require.NoError(t, err)

	r.Resize(24, 12)
	stats, err := r.RenderFrame(scene, DefaultConfig())
	require.NoError(t, err)
	assert.True(t, stats.Rebuilt)
	assert.Equal(t, 24, r.Output().Width())
	assert.Equal(t, 12, r.Output().Image().Bounds().Dy())
}
