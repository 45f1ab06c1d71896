package renderer

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/oit"
	"github.com/Carmen-Shannon/oxy-passes/engine/shadow"
	"github.com/cogentcore/webgpu/wgpu"
)

// ShadowDepthAttachment is the depth attachment of a shadow capture pass:
// cleared to the far plane and stored so the color pass can sample it.
//
// Parameters:
//   - view: the shadow depth texture view
//
// Returns:
//   - *wgpu.RenderPassDepthStencilAttachment: the attachment
func ShadowDepthAttachment(view *wgpu.TextureView) *wgpu.RenderPassDepthStencilAttachment {
	return &wgpu.RenderPassDepthStencilAttachment{
		View:            view,
		DepthLoadOp:     wgpu.LoadOpClear,
		DepthStoreOp:    wgpu.StoreOpStore,
		DepthClearValue: 1.0,
	}
}

// shadowTexelSize is the byte size of one Depth16Unorm texel.
const shadowTexelSize = 2

// shadowTextureDescriptor describes the device copy of the shadow map.
// Depth16Unorm is the depth format that accepts queue writes while still
// binding as a comparison-sampled depth texture.
func shadowTextureDescriptor(resolution int) *wgpu.TextureDescriptor {
	return &wgpu.TextureDescriptor{
		Label: "shadow depth",
		Size: wgpu.Extent3D{
			Width:              uint32(resolution),
			Height:             uint32(resolution),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth16Unorm,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	}
}

// comparisonSamplerDescriptor describes one of the two comparison samplers.
// Both clamp to the edge and pass when the reference is less than or equal
// to the stored depth.
func comparisonSamplerDescriptor(linear bool) *wgpu.SamplerDescriptor {
	filter, label := wgpu.FilterModeNearest, "shadow compare nearest"
	if linear {
		filter, label = wgpu.FilterModeLinear, "shadow compare linear"
	}
	return &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLessEqual,
		MaxAnisotropy: 1,
	}
}

func sentinelBytes(pixels int) []byte {
	buf := make([]byte, pixels*4)
	for i := range buf {
		buf[i] = 0xFF
	}
	return buf
}

func headBytes(heads []uint32) []byte {
	buf := make([]byte, len(heads)*4)
	for i, h := range heads {
		binary.LittleEndian.PutUint32(buf[i*4:], h)
	}
	return buf
}

// nodeBytes serializes the live part of the arena.
func nodeBytes(acc oit.Accumulator) []byte {
	count := acc.Count()
	var n oit.GPUNode
	size := n.Size()
	buf := make([]byte, 0, int(count)*size)
	for i := uint32(0); i < count; i++ {
		n = acc.Node(i)
		buf = append(buf, n.Marshal()...)
	}
	return buf
}

// depthTexelBytes quantizes a depth map to Depth16Unorm texels, row-major
// from the top row, reusing dst when it is large enough.
func depthTexelBytes(dst []byte, m *shadow.DepthMap) []byte {
	res := m.Resolution()
	n := res * res * shadowTexelSize
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			d := common.Clamp(m.At(x, y), 0, 1)
			binary.LittleEndian.PutUint16(dst[(y*res+x)*shadowTexelSize:], uint16(d*65535+0.5))
		}
	}
	return dst
}

func u32Bytes(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
