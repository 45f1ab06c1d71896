// Package renderer is the WebGPU side of the frame pipeline: it presents
// the software-rendered frame on a window surface and keeps a device-side
// mirror of the per-pixel list buffers, the shadow depth texture and the
// comparison samplers in step with the CPU resource group.
package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/camera"
	"github.com/Carmen-Shannon/oxy-passes/engine/frame"
	"github.com/Carmen-Shannon/oxy-passes/engine/oit"
	"github.com/Carmen-Shannon/oxy-passes/engine/shadow"
	"github.com/cogentcore/webgpu/wgpu"
)

// counterSize is the byte size of the atomic node counter buffer.
const counterSize = 4

// bufferWrite is one pending queue write.
type bufferWrite struct {
	buf  *wgpu.Buffer
	data []byte
}

// GPUResources mirrors one frame.Resources generation on a device. Rebuild
// releases and replaces the whole set so buffers and textures from two
// generations are never bound together.
type GPUResources struct {
	mu     sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	generation uint64
	width      int
	height     int
	capacity   uint32
	resolution int

	heads    *wgpu.Buffer
	nodes    *wgpu.Buffer
	counter  *wgpu.Buffer
	sentinel *wgpu.Buffer

	oitUniforms    *wgpu.Buffer
	shadowData     *wgpu.Buffer
	shadowUniform  *wgpu.Buffer
	cameraUniform  *wgpu.Buffer
	shadowTexture  *wgpu.Texture
	shadowView     *wgpu.TextureView
	nearestSampler *wgpu.Sampler
	linearSampler  *wgpu.Sampler
	activeSampler  *wgpu.Sampler

	shadowStaging []byte
}

// NewGPUResources creates the comparison samplers, which live for the whole
// device lifetime. Size-dependent buffers are created by Rebuild.
//
// Parameters:
//   - device: the logical device
//   - queue: the device queue
//
// Returns:
//   - *GPUResources: the empty mirror
//   - error: error if a sampler could not be created
func NewGPUResources(device *wgpu.Device, queue *wgpu.Queue) (*GPUResources, error) {
	g := &GPUResources{device: device, queue: queue}
	var err error
	if g.nearestSampler, err = device.CreateSampler(comparisonSamplerDescriptor(false)); err != nil {
		return nil, fmt.Errorf("renderer: nearest comparison sampler: %w", err)
	}
	if g.linearSampler, err = device.CreateSampler(comparisonSamplerDescriptor(true)); err != nil {
		g.nearestSampler.Release()
		return nil, fmt.Errorf("renderer: linear comparison sampler: %w", err)
	}
	return g, nil
}

// Attach rebuilds the mirror for every generation the group publishes and
// for the current one, if any. The returned error reports the initial
// rebuild only; later failures are logged.
//
// Parameters:
//   - group: the CPU resource group to follow
//
// Returns:
//   - error: error from the initial rebuild
func (g *GPUResources) Attach(group *frame.ResourceGroup) error {
	group.OnRebuild(func(res *frame.Resources) {
		if err := g.Rebuild(res); err != nil {
			common.Logger().Error("renderer: gpu rebuild failed", "generation", res.Generation, "error", err)
		}
	})
	if res := group.Acquire(); res != nil {
		return g.Rebuild(res)
	}
	return nil
}

// Generation returns the CPU generation the mirror was last built for.
func (g *GPUResources) Generation() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generation
}

// Rebuild releases every size-dependent buffer and texture and creates new
// ones sized for res. The sentinel staging buffer is filled once here.
//
// Parameters:
//   - res: the CPU generation to mirror
//
// Returns:
//   - error: error if any allocation fails (the mirror is left empty)
func (g *GPUResources) Rebuild(res *frame.Resources) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.releaseSized()

	pixels := res.Width * res.Height
	headBytes := uint64(pixels * 4)
	node := oit.GPUNode{}
	nodeBytes := uint64(res.Accumulator.Capacity()) * uint64(node.Size())

	var err error
	create := func(label string, size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
		if err != nil {
			return nil
		}
		var buf *wgpu.Buffer
		buf, err = g.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  size,
			Usage: usage,
		})
		if err != nil {
			err = fmt.Errorf("renderer: create %s: %w", label, err)
		}
		return buf
	}

	g.heads = create("oit heads", headBytes, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	g.nodes = create("oit nodes", max(nodeBytes, 16), wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	g.counter = create("oit counter", counterSize, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	g.oitUniforms = create("oit uniforms", uint64((&oit.GPUOITUniforms{}).Size()), wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	g.shadowData = create("shadow data", uint64((&shadow.GPUShadowData{}).Size()), wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	g.shadowUniform = create("shadow light", uint64((&shadow.GPUShadowUniform{}).Size()), wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	g.cameraUniform = create("camera", uint64((&camera.GPUCameraUniform{}).Size()), wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	if err != nil {
		g.releaseSized()
		return err
	}

	g.sentinel, err = g.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "oit sentinel staging",
		Contents: sentinelBytes(pixels),
		Usage:    wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		g.releaseSized()
		return fmt.Errorf("renderer: create sentinel staging: %w", err)
	}

	g.shadowTexture, err = g.device.CreateTexture(shadowTextureDescriptor(res.ShadowResolution))
	if err != nil {
		g.releaseSized()
		return fmt.Errorf("renderer: create shadow depth texture: %w", err)
	}
	g.shadowView, err = g.shadowTexture.CreateView(nil)
	if err != nil {
		g.releaseSized()
		return fmt.Errorf("renderer: create shadow depth view: %w", err)
	}

	g.generation = res.Generation
	g.width, g.height = res.Width, res.Height
	g.capacity = res.Accumulator.Capacity()
	g.resolution = res.ShadowResolution
	common.Logger().Debug("renderer: gpu resources rebuilt",
		"generation", g.generation,
		"head_bytes", headBytes,
		"node_bytes", nodeBytes,
		"shadow_resolution", g.resolution,
	)
	return nil
}

// ResetHeads records the per-frame head reset: a full copy of the sentinel
// staging buffer over the head table and a zeroed node counter. Upload only
// overwrites the table when the frame produced fragments.
//
// Parameters:
//   - encoder: the frame's command encoder
func (g *GPUResources) ResetHeads(encoder *wgpu.CommandEncoder) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.heads == nil {
		return
	}
	encoder.CopyBufferToBuffer(g.sentinel, 0, g.heads, 0, uint64(g.width*g.height*4))
	encoder.ClearBuffer(g.counter, 0, counterSize)
}

// ClearShadow records a depth-only pass that clears the shadow texture to
// the far plane, so every lookup reads lit. Used for frames whose shadow
// pass was skipped; captured frames upload their texels in Upload.
//
// Parameters:
//   - encoder: the frame's command encoder
func (g *GPUResources) ClearShadow(encoder *wgpu.CommandEncoder) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.shadowView == nil {
		return
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:                  "shadow clear",
		DepthStencilAttachment: ShadowDepthAttachment(g.shadowView),
	})
	pass.End()
}

// Upload writes the frame's uniforms and, when res is the mirrored
// generation, the accumulated lists and the captured shadow map. A stale res
// (rebuild still pending) is skipped. It also selects the device comparison
// sampler matching cfg.Shadow.Filter.
//
// Parameters:
//   - res: the generation the frame was rendered with
//   - scene: the rendered scene
//   - cfg: the frame configuration
//   - stats: the frame's stats, used to tell whether a shadow map was captured
//
// Returns:
//   - error: error if a buffer write fails
func (g *GPUResources) Upload(res *frame.Resources, scene *frame.Scene, cfg frame.Config, stats *frame.Stats) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.heads == nil || res.Generation != g.generation {
		return nil
	}

	uniforms := oit.GPUOITUniforms{
		Width:         uint32(res.Width),
		Height:        uint32(res.Height),
		MaxFragments:  uint32(cfg.MaxResolveFragments),
		Premultiplied: boolToUint32(cfg.Premultiplied),
	}
	writes := []bufferWrite{
		{g.oitUniforms, uniforms.Marshal()},
	}
	// An empty frame keeps the table ResetHeads left behind.
	if count := res.Accumulator.Count(); count > 0 {
		writes = append(writes,
			bufferWrite{g.heads, headBytes(res.Accumulator.Heads())},
			bufferWrite{g.nodes, nodeBytes(res.Accumulator)},
			bufferWrite{g.counter, u32Bytes(count)},
		)
	}
	if scene.Camera != nil {
		cu := camera.NewGPUCameraUniform(scene.Camera)
		writes = append(writes, bufferWrite{g.cameraUniform, cu.Marshal()})
	}
	if ls, ok := scene.LightSpace(); ok {
		sd := shadow.NewGPUShadowData(ls, cfg.Shadow)
		su := shadow.GPUShadowUniform{LightVP: ls.ViewProj}
		writes = append(writes,
			bufferWrite{g.shadowData, sd.Marshal()},
			bufferWrite{g.shadowUniform, su.Marshal()},
		)
	}

	for _, w := range writes {
		if len(w.data) == 0 {
			continue
		}
		if err := g.queue.WriteBuffer(w.buf, 0, w.data); err != nil {
			return fmt.Errorf("renderer: write buffer: %w", err)
		}
	}

	if stats != nil && !stats.ShadowSkipped && res.ShadowMap != nil && res.ShadowMap.Resolution() == g.resolution {
		g.uploadShadowMap(res.ShadowMap)
	}
	if res.Sampler != nil {
		variant := res.Sampler.Variant(cfg.Shadow.Filter)
		if s := g.ComparisonSampler(variant); s != g.activeSampler {
			g.activeSampler = s
			common.Logger().Debug("renderer: comparison sampler selected", "variant", variant.Name(), "filter", cfg.Shadow.Filter)
		}
	}
	return nil
}

// uploadShadowMap copies the captured depth texels into the shadow texture.
func (g *GPUResources) uploadShadowMap(m *shadow.DepthMap) {
	res := m.Resolution()
	g.shadowStaging = depthTexelBytes(g.shadowStaging, m)
	g.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  g.shadowTexture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectDepthOnly,
		},
		g.shadowStaging,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(res * shadowTexelSize),
			RowsPerImage: uint32(res),
		},
		&wgpu.Extent3D{
			Width:              uint32(res),
			Height:             uint32(res),
			DepthOrArrayLayers: 1,
		},
	)
}

// ActiveSampler returns the comparison sampler Upload last selected, or nil
// before the first upload.
func (g *GPUResources) ActiveSampler() *wgpu.Sampler {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activeSampler
}

// ComparisonSampler returns the device sampler matching a CPU comparison
// sampler variant.
//
// Parameters:
//   - v: the variant chosen by shadow.Sampler.Variant
//
// Returns:
//   - *wgpu.Sampler: the nearest or linear comparison sampler
func (g *GPUResources) ComparisonSampler(v *shadow.ComparisonSampler) *wgpu.Sampler {
	if v.Linear() {
		return g.linearSampler
	}
	return g.nearestSampler
}

// Release frees every device object.
func (g *GPUResources) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.releaseSized()
	g.activeSampler = nil
	if g.nearestSampler != nil {
		g.nearestSampler.Release()
		g.nearestSampler = nil
	}
	if g.linearSampler != nil {
		g.linearSampler.Release()
		g.linearSampler = nil
	}
}

func (g *GPUResources) releaseSized() {
	for _, b := range []**wgpu.Buffer{
		&g.heads, &g.nodes, &g.counter, &g.sentinel,
		&g.oitUniforms, &g.shadowData, &g.shadowUniform, &g.cameraUniform,
	} {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
	if g.shadowView != nil {
		g.shadowView.Release()
		g.shadowView = nil
	}
	if g.shadowTexture != nil {
		g.shadowTexture.Release()
		g.shadowTexture = nil
	}
}
