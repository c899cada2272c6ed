//go:build !nogpu

package canvas

import (
	"log/slog"

	"github.com/gogpu/canvas/internal/gpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

type (
	// Device is an opened GPU device and queue.
	Device = gpu.Device

	// Surface is a presentable target; see gpu.Surface.
	Surface = gpu.Surface

	// SurfaceRenderer owns the surface-sized GPU resources and renders
	// frames. It implements Renderer.
	SurfaceRenderer = gpu.SurfaceRenderer

	// OffscreenSurface is a Surface backed by a device texture.
	OffscreenSurface = gpu.OffscreenSurface
)

// Errors surfaced from the GPU layer.
var (
	ErrNoAdapter     = gpu.ErrNoAdapter
	ErrFrameSkipped  = gpu.ErrFrameSkipped
	ErrNotConfigured = gpu.ErrNotConfigured
	ErrGPUTimeout    = gpu.ErrGPUTimeout
)

func setGPULogger(l *slog.Logger) { gpu.SetLogger(l) }

// OpenDevice opens a device on the given backend, preferring a discrete
// or integrated GPU. Failure here is fatal for the caller.
func OpenDevice(backend gputypes.Backend) (*Device, error) {
	return gpu.OpenDevice(backend)
}

// OpenInstance opens a device on an instance the caller created, such as
// the noop backend used for headless runs.
func OpenInstance(instance hal.Instance) (*Device, error) {
	return gpu.OpenInstance(instance)
}

// DeviceFromProvider adopts the device of a host application.
func DeviceFromProvider(p gpucontext.DeviceProvider) (*Device, error) {
	return gpu.FromProvider(p)
}

// NewOffscreenSurface returns a texture-backed surface on d.
func NewOffscreenSurface(d *Device) *OffscreenSurface {
	return gpu.NewOffscreenSurface(d.Device, gputypes.TextureFormatBGRA8Unorm)
}

// NewSurfaceRenderer creates a renderer drawing into surface. It honours
// WithSampleCount, WithMaxDimension, WithClearColor and
// WithAcquireRetryDelay.
func NewSurfaceRenderer(d *Device, surface Surface, opts ...Option) *SurfaceRenderer {
	o := applyOptions(opts)
	c := o.clearColor.Premultiplied()
	return gpu.NewSurfaceRenderer(d, surface, gpu.Config{
		SampleCount:       o.sampleCount,
		MaxDimension:      o.maxDimension,
		ClearColor:        gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])},
		AcquireRetryDelay: o.acquireRetryDelay,
	})
}
