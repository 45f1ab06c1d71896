package renderer

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoSurfaceFormat is returned when the adapter reports no usable surface format.
var ErrNoSurfaceFormat = errors.New("renderer: surface reports no formats")

// presenterImpl is the implementation of the Presenter interface.
type presenterImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	format      wgpu.TextureFormat
	alphaMode   wgpu.CompositeAlphaMode
	presentMode wgpu.PresentMode

	forceFallbackAdapter bool

	width   int
	height  int
	staging []byte
}

// Presenter owns the WebGPU device and the window surface and puts finished
// CPU frames on screen. The surface is configured with copy-dst usage so a
// frame is uploaded straight into the swapchain texture.
type Presenter interface {
	// Device returns the logical device shared with the GPU resource mirror.
	Device() *wgpu.Device

	// Queue returns the device queue.
	Queue() *wgpu.Queue

	// Format returns the configured surface format.
	Format() wgpu.TextureFormat

	// Configure (re)configures the surface for the given framebuffer size.
	//
	// Parameters:
	//   - width, height: framebuffer size in pixels
	//
	// Returns:
	//   - error: error if the surface has no usable format
	Configure(width, height int) error

	// Present uploads img into the current surface texture and presents it.
	// Pixels outside the configured size are ignored.
	//
	// Parameters:
	//   - img: the frame, non-premultiplied RGBA
	//
	// Returns:
	//   - error: error if the surface texture could not be acquired
	Present(img *image.RGBA) error

	// Release frees the surface and device.
	Release()
}

var _ Presenter = &presenterImpl{}

// NewPresenter creates the instance, adapter, device and surface for a
// window. Must be called on the thread that owns the window.
//
// Parameters:
//   - surfaceDescriptor: the window's surface descriptor
//   - opts: variadic list of PresenterBuilderOption functions
//
// Returns:
//   - Presenter: the presenter (surface not yet configured)
//   - error: error if no adapter or device could be obtained
func NewPresenter(surfaceDescriptor *wgpu.SurfaceDescriptor, opts ...PresenterBuilderOption) (Presenter, error) {
	runtime.LockOSThread()
	p := &presenterImpl{
		mu:          &sync.Mutex{},
		presentMode: wgpu.PresentModeFifo,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.instance = wgpu.CreateInstance(nil)
	p.surface = p.instance.CreateSurface(surfaceDescriptor)

	a, err := p.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: p.forceFallbackAdapter,
		CompatibleSurface:    p.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: request adapter: %w", err)
	}
	p.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "oxy-passes device",
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: request device: %w", err)
	}
	p.device = d
	p.queue = d.GetQueue()
	return p, nil
}

func (p *presenterImpl) Device() *wgpu.Device {
	return p.device
}

func (p *presenterImpl) Queue() *wgpu.Queue {
	return p.queue
}

func (p *presenterImpl) Format() wgpu.TextureFormat {
	return p.format
}

func (p *presenterImpl) Configure(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	capabilities := p.surface.GetCapabilities(p.adapter)
	if len(capabilities.Formats) == 0 {
		return ErrNoSurfaceFormat
	}
	p.format = pickSurfaceFormat(capabilities.Formats)
	p.alphaMode = capabilities.AlphaModes[0]
	p.width, p.height = max(width, 1), max(height, 1)

	p.surface.Configure(p.adapter, p.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopyDst,
		Format:      p.format,
		Width:       uint32(p.width),
		Height:      uint32(p.height),
		PresentMode: p.presentMode,
		AlphaMode:   p.alphaMode,
	})
	common.Logger().Info("renderer: surface configured",
		"width", p.width, "height", p.height, "format", p.format)
	return nil
}

func (p *presenterImpl) Present(img *image.RGBA) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tex, err := p.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("renderer: acquire surface texture: %w", err)
	}
	defer tex.Release()

	w := min(img.Rect.Dx(), p.width)
	h := min(img.Rect.Dy(), p.height)
	if w <= 0 || h <= 0 {
		return nil
	}
	p.staging = surfaceBytes(p.staging, img, w, h, swapsRedBlue(p.format))

	p.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		p.staging,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(w * 4),
			RowsPerImage: uint32(h),
		},
		&wgpu.Extent3D{
			Width:              uint32(w),
			Height:             uint32(h),
			DepthOrArrayLayers: 1,
		},
	)
	p.surface.Present()
	return nil
}

func (p *presenterImpl) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.surface != nil {
		p.surface.Release()
		p.surface = nil
	}
	if p.device != nil {
		p.device.Release()
		p.device = nil
	}
	if p.adapter != nil {
		p.adapter.Release()
		p.adapter = nil
	}
	if p.instance != nil {
		p.instance.Release()
		p.instance = nil
	}
}

// pickSurfaceFormat prefers a plain 8-bit unorm format: the CPU frame is
// already in display space.
func pickSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range formats {
		if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
			return f
		}
	}
	return formats[0]
}

func swapsRedBlue(f wgpu.TextureFormat) bool {
	return f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatBGRA8UnormSrgb
}

// surfaceBytes packs the top-left w×h region of img tightly into dst,
// swapping red and blue for BGRA surfaces.
func surfaceBytes(dst []byte, img *image.RGBA, w, h int, swapRB bool) []byte {
	n := w * h * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		row := dst[y*w*4 : (y+1)*w*4]
		copy(row, src)
		if swapRB {
			for i := 0; i < len(row); i += 4 {
				row[i], row[i+2] = row[i+2], row[i]
			}
		}
	}
	return dst
}
