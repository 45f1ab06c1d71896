package shadow

import (
	"image"
	"image/color"
	"math"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-passes/common"
)

// depthMapGeneration numbers depth maps so samplers can tell a rebuilt map
// from the one they were created for.
var depthMapGeneration atomic.Uint64

// DepthMap is a square single-channel depth target. Texels hold the IEEE bits
// of non-negative depths so an unsigned compare-and-swap minimum is a valid
// depth test; Store and TestAndStore are safe for concurrent use.
type DepthMap struct {
	resolution int
	generation uint64
	texels     []uint32
	lightSpace LightSpace
}

// NewDepthMap allocates a depth map cleared to 1.0.
//
// Parameters:
//   - resolution: width and height in texels (must be positive)
//
// Returns:
//   - *DepthMap: the new depth map
func NewDepthMap(resolution int) *DepthMap {
	if resolution <= 0 {
		panic("shadow: depth map resolution must be positive")
	}
	d := &DepthMap{
		resolution: resolution,
		generation: depthMapGeneration.Add(1),
		texels:     make([]uint32, resolution*resolution),
	}
	d.Clear(1.0)
	return d
}

// Resolution returns the width and height of the map in texels.
func (d *DepthMap) Resolution() int {
	return d.resolution
}

// Generation returns the map's unique allocation number.
func (d *DepthMap) Generation() uint64 {
	return d.generation
}

// TexelSize returns 1 / resolution, the UV extent of one texel.
func (d *DepthMap) TexelSize() float32 {
	return 1 / float32(d.resolution)
}

// LightSpace returns the transform the map was last captured with.
func (d *DepthMap) LightSpace() LightSpace {
	return d.lightSpace
}

// Clear sets every texel to depth.
//
// Parameters:
//   - depth: the clear value, 1.0 for a far-plane clear
func (d *DepthMap) Clear(depth float32) {
	bits := math.Float32bits(depth)
	for i := range d.texels {
		d.texels[i] = bits
	}
}

// At returns the stored depth with clamp-to-edge addressing.
//
// Parameters:
//   - x, y: texel coordinate
//
// Returns:
//   - float32: the stored depth
func (d *DepthMap) At(x, y int) float32 {
	x = min(max(x, 0), d.resolution-1)
	y = min(max(y, 0), d.resolution-1)
	return math.Float32frombits(atomic.LoadUint32(&d.texels[y*d.resolution+x]))
}

// Store writes depth unconditionally. Out-of-range coordinates are ignored.
//
// Parameters:
//   - x, y: texel coordinate
//   - depth: the depth to store
func (d *DepthMap) Store(x, y int, depth float32) {
	if x < 0 || y < 0 || x >= d.resolution || y >= d.resolution {
		return
	}
	atomic.StoreUint32(&d.texels[y*d.resolution+x], math.Float32bits(depth))
}

// TestAndStore applies the Less depth test and writes depth when it passes.
// Depth must be in [0, 1].
//
// Parameters:
//   - x, y: texel coordinate
//   - depth: the incoming depth
//
// Returns:
//   - bool: true if the texel was updated
func (d *DepthMap) TestAndStore(x, y int, depth float32) bool {
	if x < 0 || y < 0 || x >= d.resolution || y >= d.resolution {
		return false
	}
	p := &d.texels[y*d.resolution+x]
	bits := math.Float32bits(depth)
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

// Image renders the map as an 8-bit grayscale image, white at the far plane.
//
// Returns:
//   - *image.Gray: the depth visualization
func (d *DepthMap) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, d.resolution, d.resolution))
	for y := 0; y < d.resolution; y++ {
		for x := 0; x < d.resolution; x++ {
			v := common.Clamp(d.At(x, y), 0, 1)
			img.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	return img
}
