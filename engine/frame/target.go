package frame

import (
	"image"
	"image/color"
	"math"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/oit"
)

// ColorTarget is a software RGBA color attachment.
type ColorTarget struct {
	width, height int
	pixels        []common.Color
}

var _ oit.ColorTarget = &ColorTarget{}

// NewColorTarget allocates a color target cleared to transparent black.
//
// Parameters:
//   - width, height: size in pixels
//
// Returns:
//   - *ColorTarget: the new target
func NewColorTarget(width, height int) *ColorTarget {
	return &ColorTarget{width: width, height: height, pixels: make([]common.Color, width*height)}
}

func (t *ColorTarget) Width() int  { return t.width }
func (t *ColorTarget) Height() int { return t.height }

// Load returns the color at a pixel.
func (t *ColorTarget) Load(x, y int) common.Color {
	return t.pixels[y*t.width+x]
}

// Store writes the color at a pixel.
func (t *ColorTarget) Store(x, y int, c common.Color) {
	t.pixels[y*t.width+x] = c
}

// Clear fills the target with c.
func (t *ColorTarget) Clear(c common.Color) {
	for i := range t.pixels {
		t.pixels[i] = c
	}
}

// Image converts the target to an 8-bit image. Colors are clamped to [0, 1]
// and premultiplied by their alpha to match image.RGBA.
//
// Returns:
//   - *image.RGBA: the converted image
func (t *ColorTarget) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			c := t.pixels[y*t.width+x]
			a := common.Clamp(c.A(), 0, 1)
			img.SetRGBA(x, y, color.RGBA{
				R: to8(c.R() * a),
				G: to8(c.G() * a),
				B: to8(c.B() * a),
				A: to8(a),
			})
		}
	}
	return img
}

func to8(v float32) uint8 {
	return uint8(common.Clamp(v, 0, 1)*255 + 0.5)
}

// DepthTarget is a software depth attachment with WebGPU [0, 1] depth.
type DepthTarget struct {
	width, height int
	depth         []uint32
}

var _ oit.DepthReader = &DepthTarget{}

// NewDepthTarget allocates a depth target cleared to 1.0.
//
// Parameters:
//   - width, height: size in pixels
//
// Returns:
//   - *DepthTarget: the new target
func NewDepthTarget(width, height int) *DepthTarget {
	t := &DepthTarget{width: width, height: height, depth: make([]uint32, width*height)}
	t.Clear(1.0)
	return t
}

func (t *DepthTarget) Width() int  { return t.width }
func (t *DepthTarget) Height() int { return t.height }

// Depth returns the stored depth, 1.0 outside the target.
func (t *DepthTarget) Depth(x, y int) float32 {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return 1
	}
	return math.Float32frombits(atomic.LoadUint32(&t.depth[y*t.width+x]))
}

// Clear fills the target with d.
func (t *DepthTarget) Clear(d float32) {
	bits := math.Float32bits(d)
	for i := range t.depth {
		t.depth[i] = bits
	}
}

// TestAndStore applies the Less depth test and writes d when it passes.
//
// Parameters:
//   - x, y: pixel coordinate
//   - d: incoming depth in [0, 1]
//
// Returns:
//   - bool: true if the depth was written
func (t *DepthTarget) TestAndStore(x, y int, d float32) bool {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return false
	}
	p := &t.depth[y*t.width+x]
	bits := math.Float32bits(d)
	for {
		old := atomic.LoadUint32(p)
		if bits >= old {
			return false
		}
		if atomic.CompareAndSwapUint32(p, old, bits) {
			return true
		}
	}
}
