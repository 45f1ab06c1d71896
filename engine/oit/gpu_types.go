package oit

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUNode is one record of the node arena. The layout matches the storage
// buffer element the accumulation fragment shader writes.
// Size: 16 bytes (std430 / WGSL aligned).
//
// Layout:
//
//	u32 next   (4 bytes, offset  0)
//	u32 color  (4 bytes, offset  4) pack4x8unorm RGBA
//	f32 depth  (4 bytes, offset  8)
//	u32 _pad   (4 bytes, offset 12)
type GPUNode struct {
	Next  uint32  // index of the next node in the pixel's list, or Sentinel
	Color uint32  // packed RGBA, red in the low byte
	Depth float32 // window-space depth in [0, 1]
	_pad  uint32
}

// Size returns the size of the GPUNode struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (n *GPUNode) Size() int {
	return int(unsafe.Sizeof(*n))
}

// Marshal serializes the GPUNode into a 16-byte little-endian buffer.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (n *GPUNode) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], n.Next)
	binary.LittleEndian.PutUint32(buf[4:8], n.Color)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(n.Depth))
	binary.LittleEndian.PutUint32(buf[12:16], 0) // padding
	return buf
}

// GPUOITUniforms is the uniform block shared by the accumulation and resolve
// passes. Size: 16 bytes.
//
// Layout:
//
//	u32 width          (4 bytes, offset  0)
//	u32 height         (4 bytes, offset  4)
//	u32 max_fragments  (4 bytes, offset  8)
//	u32 premultiplied  (4 bytes, offset 12) 1 = premultiplied blending
type GPUOITUniforms struct {
	Width         uint32
	Height        uint32
	MaxFragments  uint32
	Premultiplied uint32
}

// Size returns the size of the GPUOITUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (u *GPUOITUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes GPUOITUniforms into a 16-byte little-endian buffer.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (u *GPUOITUniforms) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], u.Width)
	binary.LittleEndian.PutUint32(buf[4:8], u.Height)
	binary.LittleEndian.PutUint32(buf[8:12], u.MaxFragments)
	binary.LittleEndian.PutUint32(buf[12:16], u.Premultiplied)
	return buf
}

// NewSentinelStaging returns a head-table image with every entry set to
// Sentinel. It is built once per surface size and copied over the live head
// table at the start of each frame.
//
// Parameters:
//   - pixels: number of head entries (width × height)
//
// Returns:
//   - []uint32: the all-Sentinel staging image
func NewSentinelStaging(pixels int) []uint32 {
	s := make([]uint32, pixels)
	for i := range s {
		s[i] = Sentinel
	}
	return s
}
