package common

// Color is a linear RGBA color with float32 channels in [0, 1].
type Color [4]float32

// RGBA returns a Color from the given channel values.
func RGBA(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// R returns the red channel.
func (c Color) R() float32 { return c[0] }

// G returns the green channel.
func (c Color) G() float32 { return c[1] }

// B returns the blue channel.
func (c Color) B() float32 { return c[2] }

// A returns the alpha channel.
func (c Color) A() float32 { return c[3] }

// Premultiplied returns the color with RGB scaled by alpha.
//
// Returns:
//   - Color: (r*a, g*a, b*a, a)
func (c Color) Premultiplied() Color {
	return Color{c[0] * c[3], c[1] * c[3], c[2] * c[3], c[3]}
}

// PackRGBA packs a color into a 32-bit unorm RGBA word. Red occupies the
// low byte and alpha the high byte, matching WGSL pack4x8unorm.
//
// Parameters:
//   - c: the color to pack (channels are clamped to [0, 1])
//
// Returns:
//   - uint32: the packed color
func PackRGBA(c Color) uint32 {
	var out uint32
	for i := 0; i < 4; i++ {
		v := uint32(Clamp(c[i], 0, 1)*255 + 0.5)
		out |= v << (8 * i)
	}
	return out
}

// UnpackRGBA is the inverse of PackRGBA (unpack4x8unorm).
//
// Parameters:
//   - v: the packed color
//
// Returns:
//   - Color: the unpacked color with channels in [0, 1]
func UnpackRGBA(v uint32) Color {
	var c Color
	for i := 0; i < 4; i++ {
		c[i] = float32((v>>(8*i))&0xFF) / 255
	}
	return c
}
