package oit

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceTarget struct {
	w, h   int
	pixels []common.Color
	stores atomic.Int32
}

func newSliceTarget(w, h int, fill common.Color) *sliceTarget {
	t := &sliceTarget{w: w, h: h, pixels: make([]common.Color, w*h)}
	for i := range t.pixels {
		t.pixels[i] = fill
	}
	return t
}

func (t *sliceTarget) Width() int                     { return t.w }
func (t *sliceTarget) Height() int                    { return t.h }
func (t *sliceTarget) Load(x, y int) common.Color     { return t.pixels[y*t.w+x] }
func (t *sliceTarget) Store(x, y int, c common.Color) { t.pixels[y*t.w+x] = c; t.stores.Add(1) }

func assertColorInDelta(t *testing.T, want, got common.Color, delta float64) {
	t.Helper()
	for i := 0; i < 4; i++ {
		assert.InDeltaf(t, want[i], got[i], delta, "channel %d: want %v got %v", i, want, got)
	}
}

func TestBlendOverSingleFragment(t *testing.T) {
	src := common.RGBA(0.2, 0.4, 0.6, 0.25)
	bg := common.RGBA(1, 0.5, 0, 1)
	got := BlendOver(src, bg)
	want := common.RGBA(
		0.2*0.25+1*0.75,
		0.4*0.25+0.5*0.75,
		0.6*0.25+0*0.75,
		1,
	)
	assertColorInDelta(t, want, got, 1e-5)
}

func TestBlendPremultipliedSingleFragment(t *testing.T) {
	src := common.RGBA(0.2, 0.4, 0.6, 0.25) // already premultiplied
	bg := common.RGBA(1, 0.5, 0, 1)
	got := BlendPremultiplied(src, bg)
	want := common.RGBA(0.2+0.75, 0.4+0.375, 0.6, 1)
	assertColorInDelta(t, want, got, 1e-5)
}

func TestResolvePixelEmptyListLeavesPixelUnchanged(t *testing.T) {
	acc := NewAccumulator(1, 1)
	bg := common.RGBA(0.3, 0.3, 0.3, 1)
	got, n := NewResolver().ResolvePixel(acc, 0, 0, bg, false)
	assert.Zero(t, n)
	assert.Equal(t, bg, got)
}

func TestResolvePixelCompositesBackToFront(t *testing.T) {
	green := common.RGBA(0, 1, 0, 0.6)
	blue := common.RGBA(0, 0, 1, 0.6)
	bg := common.RGBA(0, 0, 0, 1)

	// Expected: green is farther, so it is blended first.
	want := BlendOver(common.UnpackRGBA(common.PackRGBA(blue)),
		BlendOver(common.UnpackRGBA(common.PackRGBA(green)), bg))

	orders := [][]Fragment{
		{{Color: green, Depth: 0.8}, {Color: blue, Depth: 0.2}},
		{{Color: blue, Depth: 0.2}, {Color: green, Depth: 0.8}},
	}
	for _, order := range orders {
		acc := NewAccumulator(1, 1)
		for _, f := range order {
			require.True(t, acc.Insert(0, 0, f.Color, f.Depth))
		}
		got, n := NewResolver().ResolvePixel(acc, 0, 0, bg, false)
		assert.Equal(t, 2, n)
		assertColorInDelta(t, want, got, 1e-6)
	}
}

func TestResolvePixelFarthestFragmentBlendsFirst(t *testing.T) {
	// A fully opaque fragment hides everything composited before it, so the
	// output reveals which fragment was blended last.
	acc := NewAccumulator(1, 1)
	acc.Insert(0, 0, common.RGBA(1, 0, 0, 1), 0.9) // far
	acc.Insert(0, 0, common.RGBA(0, 1, 0, 1), 0.1) // near
	acc.Insert(0, 0, common.RGBA(0, 0, 1, 1), 0.5) // middle

	got, _ := NewResolver().ResolvePixel(acc, 0, 0, common.RGBA(0, 0, 0, 1), false)
	assertColorInDelta(t, common.RGBA(0, 1, 0, 1), got, 1e-6)
}

func TestResolvePixelEqualDepthsBlendMostRecentUnderneath(t *testing.T) {
	red := common.RGBA(1, 0, 0, 0.5)
	blue := common.RGBA(0, 0, 1, 0.5)
	bg := common.RGBA(0, 0, 0, 1)
	q := func(c common.Color) common.Color { return common.UnpackRGBA(common.PackRGBA(c)) }

	acc := NewAccumulator(1, 1)
	acc.Insert(0, 0, red, 0.5)
	acc.Insert(0, 0, blue, 0.5)
	got, n := NewResolver().ResolvePixel(acc, 0, 0, bg, false)
	require.Equal(t, 2, n)
	// Ties keep list order, head first, so the older red lands on top.
	assertColorInDelta(t, BlendOver(q(red), BlendOver(q(blue), bg)), got, 1e-6)
	assert.InDelta(t, 0.502, got.R(), 1e-3)
	assert.InDelta(t, 0.250, got.B(), 1e-3)
}

func TestResolvePixelTruncationKeepsMostRecentlyInserted(t *testing.T) {
	acc := NewAccumulator(1, 1)
	// Nearest fragment inserted first: it is last in list order and gets evicted.
	acc.Insert(0, 0, common.RGBA(0, 1, 0, 1), 0.05)
	for i := 0; i < 4; i++ {
		acc.Insert(0, 0, common.RGBA(1, 0, 0, 1), 0.5+float32(i)*0.1)
	}

	r := NewResolver(WithMaxFragments(4))
	got, n := r.ResolvePixel(acc, 0, 0, common.RGBA(0, 0, 0, 1), false)
	assert.Equal(t, 4, n)
	assertColorInDelta(t, common.RGBA(1, 0, 0, 1), got, 1e-6)

	r = NewResolver(WithMaxFragments(5))
	got, n = r.ResolvePixel(acc, 0, 0, common.RGBA(0, 0, 0, 1), false)
	assert.Equal(t, 5, n)
	assertColorInDelta(t, common.RGBA(0, 1, 0, 1), got, 1e-6)
}

func TestWithMaxFragmentsClamps(t *testing.T) {
	assert.Equal(t, MaxResolveFragments, NewResolver(WithMaxFragments(1000)).MaxFragments())
	assert.Equal(t, 1, NewResolver(WithMaxFragments(0)).MaxFragments())
	assert.Equal(t, DefaultMaxResolveFragments, NewResolver().MaxFragments())
}

func TestResolveStoresOnlyNonEmptyPixels(t *testing.T) {
	acc := NewAccumulator(4, 4)
	acc.Insert(1, 2, common.RGBA(1, 1, 1, 0.5), 0.5)
	target := newSliceTarget(4, 4, common.RGBA(0, 0, 0, 1))

	n := NewResolver().Resolve(acc, target, false)

	assert.Equal(t, 1, n)
	assert.Equal(t, int32(1), target.stores.Load())
	assert.InDelta(t, 128.0/255.0, target.Load(1, 2).R(), 1e-6)
	assert.Equal(t, common.RGBA(0, 0, 0, 1), target.Load(0, 0))
}

func TestResolveWithPoolMatchesSerial(t *testing.T) {
	const w, h = 40, 40
	acc := NewAccumulator(w, h, WithOverdraw(2))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc.Insert(x, y, common.RGBA(float32(x)/w, 0, float32(y)/h, 0.5), 0.7)
			acc.Insert(x, y, common.RGBA(0, 1, 0, 0.25), 0.3)
		}
	}

	serial := newSliceTarget(w, h, common.RGBA(0.1, 0.1, 0.1, 1))
	parallel := newSliceTarget(w, h, common.RGBA(0.1, 0.1, 0.1, 1))

	nSerial := NewResolver().Resolve(acc, serial, false)
	pool := worker.NewDynamicWorkerPool(4, 256, time.Second)
	defer pool.Stop()
	nParallel := NewResolver(WithResolverPool(pool)).Resolve(acc, parallel, false)

	assert.Equal(t, nSerial, nParallel)
	assert.Equal(t, serial.pixels, parallel.pixels)
}
