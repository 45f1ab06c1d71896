package shadow

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUShadowData is the GPU-aligned shadow block read by the main color pass.
// Size: 96 bytes (WGSL aligned).
//
// Layout:
//
//	mat4x4<f32> bias_light_vp      (64 bytes, offset 0)
//	vec2<f32>   texel_size         ( 8 bytes, offset 64)
//	f32         bias               ( 4 bytes, offset 72)
//	f32         slope_bias         ( 4 bytes, offset 76)
//	u32         slope_bias_enabled ( 4 bytes, offset 80)
//	u32         filter_mode        ( 4 bytes, offset 84)
//	u32         enabled            ( 4 bytes, offset 88)
//	u32         _pad               ( 4 bytes, offset 92)
type GPUShadowData struct {
	BiasLightVP      [16]float32
	TexelSize        [2]float32
	Bias             float32
	SlopeBias        float32
	SlopeBiasEnabled uint32
	FilterMode       uint32
	Enabled          uint32
	_pad             uint32
}

// NewGPUShadowData fills the shadow block from a light space and the
// per-frame parameters.
//
// Parameters:
//   - ls: the light transforms
//   - p: shadow parameters (Resolution sets the texel size)
//
// Returns:
//   - GPUShadowData: the filled block
func NewGPUShadowData(ls LightSpace, p Params) GPUShadowData {
	texel := float32(0)
	if p.Resolution > 0 {
		texel = 1 / float32(p.Resolution)
	}
	return GPUShadowData{
		BiasLightVP:      ls.BiasViewProj,
		TexelSize:        [2]float32{texel, texel},
		Bias:             p.Bias,
		SlopeBias:        p.SlopeBias,
		SlopeBiasEnabled: boolToUint32(p.SlopeBiasEnabled),
		FilterMode:       uint32(p.Filter),
		Enabled:          boolToUint32(p.Enabled),
	}
}

// Size returns the size of the GPUShadowData struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (s *GPUShadowData) Size() int {
	return int(unsafe.Sizeof(*s))
}

// Marshal serializes the GPUShadowData struct into a byte buffer suitable for
// GPU uniform upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload
func (s *GPUShadowData) Marshal() []byte {
	buf := make([]byte, s.Size())
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(s.BiasLightVP[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:68], math.Float32bits(s.TexelSize[0]))
	binary.LittleEndian.PutUint32(buf[68:72], math.Float32bits(s.TexelSize[1]))
	binary.LittleEndian.PutUint32(buf[72:76], math.Float32bits(s.Bias))
	binary.LittleEndian.PutUint32(buf[76:80], math.Float32bits(s.SlopeBias))
	binary.LittleEndian.PutUint32(buf[80:84], s.SlopeBiasEnabled)
	binary.LittleEndian.PutUint32(buf[84:88], s.FilterMode)
	binary.LittleEndian.PutUint32(buf[88:92], s.Enabled)
	return buf
}

// GPUShadowUniform is the vertex uniform of the depth capture pass holding
// only the light view-projection matrix.
// Size: 64 bytes (mat4x4<f32>).
type GPUShadowUniform struct {
	LightVP [16]float32
}

// Size returns the size of the GPUShadowUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (u *GPUShadowUniform) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the GPUShadowUniform struct into a byte buffer suitable for
// GPU uniform upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (u *GPUShadowUniform) Marshal() []byte {
	buf := make([]byte, 64)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(u.LightVP[i]))
	}
	return buf
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
