//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/canvas/mesh"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Surface is the presentable target the renderer draws into. Windowing
// hosts implement it over their swap chain; OffscreenSurface implements it
// over a plain texture.
type Surface interface {
	// Configure (re)sizes the swap chain.
	Configure(width, height uint32) error

	// Acquire returns the view of the next presentable texture.
	Acquire() (hal.TextureView, error)

	// Present shows the most recently acquired texture.
	Present() error

	// Discard releases an acquired texture without presenting it.
	Discard()

	// Format returns the color format of the surface textures.
	Format() gputypes.TextureFormat
}

// Default configuration values.
const (
	DefaultSampleCount       = 4
	DefaultMaxDimension      = 2048
	DefaultAcquireRetryDelay = 16 * time.Millisecond

	// fenceTimeout bounds the wait for a submitted frame.
	fenceTimeout = 5 * time.Second
)

// Config controls a SurfaceRenderer. Zero fields take the defaults.
type Config struct {
	// SampleCount is the multisample count of the color and depth targets.
	SampleCount uint32

	// MaxDimension caps both surface dimensions. It is further limited by
	// the device's maximum 2D texture dimension.
	MaxDimension uint32

	// ClearColor is the color the surface is cleared to each frame.
	ClearColor gputypes.Color

	// AcquireRetryDelay is the pause before the single acquire retry.
	AcquireRetryDelay time.Duration
}

func (c Config) withDefaults(limits gputypes.Limits) Config {
	if c.SampleCount == 0 {
		c.SampleCount = DefaultSampleCount
	}
	if c.MaxDimension == 0 {
		c.MaxDimension = DefaultMaxDimension
	}
	if limits.MaxTextureDimension2D > 0 && c.MaxDimension > limits.MaxTextureDimension2D {
		c.MaxDimension = limits.MaxTextureDimension2D
	}
	if c.AcquireRetryDelay <= 0 {
		c.AcquireRetryDelay = DefaultAcquireRetryDelay
	}
	return c
}

// SurfaceRenderer owns the GPU resources that depend on the surface size
// and records one render pass per frame.
//
// SurfaceRenderer is not safe for concurrent use. All calls must come from
// the goroutine that drives frames.
type SurfaceRenderer struct {
	device  hal.Device
	queue   hal.Queue
	surface Surface
	cfg     Config

	width  uint32
	height uint32

	targets  targetSet
	pipeline meshPipeline
	frame    frameResources
	staging  []byte

	frames    uint64
	skipped   uint64
	destroyed bool
}

// NewSurfaceRenderer creates a renderer for the given device and surface.
// The renderer stays unconfigured until the first Resize with positive
// dimensions.
func NewSurfaceRenderer(d *Device, surface Surface, cfg Config) *SurfaceRenderer {
	return &SurfaceRenderer{
		device:  d.Device,
		queue:   d.Queue,
		surface: surface,
		cfg:     cfg.withDefaults(d.Limits),
	}
}

// Resize configures the surface for the given physical dimensions.
//
// Non-positive dimensions are ignored. Dimensions are clamped to the
// maximum texture dimension; when the clamped size equals the current
// configuration nothing is recreated. Otherwise the surface is reconfigured
// and both the multisample and depth-stencil targets are rebuilt.
// It reports whether the configuration changed.
func (r *SurfaceRenderer) Resize(width, height int) (bool, error) {
	if r.destroyed {
		return false, ErrDestroyed
	}
	if width <= 0 || height <= 0 {
		return false, nil
	}
	w := min(uint32(width), r.cfg.MaxDimension)   //nolint:gosec // positive, checked above
	h := min(uint32(height), r.cfg.MaxDimension) //nolint:gosec // positive, checked above
	if w == r.width && h == r.height && r.targets.ready() {
		return false, nil
	}

	if err := r.surface.Configure(w, h); err != nil {
		return false, fmt.Errorf("configure surface %dx%d: %w", w, h, err)
	}
	if err := r.targets.ensure(r.device, w, h, r.surface.Format(), r.cfg.SampleCount); err != nil {
		r.width, r.height = 0, 0
		return false, err
	}
	r.width, r.height = w, h
	slogger().Debug("surface resized", "width", w, "height", h,
		"requested_width", width, "requested_height", height)
	return true, nil
}

// Size returns the configured physical dimensions, or zeros when
// unconfigured.
func (r *SurfaceRenderer) Size() (uint32, uint32) {
	return r.width, r.height
}

// MaxDimension returns the effective dimension clamp.
func (r *SurfaceRenderer) MaxDimension() uint32 {
	return r.cfg.MaxDimension
}

// Recreations returns how many times the target pair has been created.
func (r *SurfaceRenderer) Recreations() int {
	return r.targets.recreations
}

// Frames returns the number of presented frames.
func (r *SurfaceRenderer) Frames() uint64 { return r.frames }

// Skipped returns the number of frames dropped by acquire failures.
func (r *SurfaceRenderer) Skipped() uint64 { return r.skipped }

// Prepare uploads the frame's geometry and viewport uniform ahead of Render.
// The viewport must match the configured surface size.
func (r *SurfaceRenderer) Prepare(meshes []mesh.Mesh, vp mesh.Viewport) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if !r.targets.ready() {
		return ErrNotConfigured
	}
	if vp.Width != r.width || vp.Height != r.height {
		return fmt.Errorf("%w: viewport %dx%d, surface %dx%d",
			ErrViewportMismatch, vp.Width, vp.Height, r.width, r.height)
	}
	if err := r.pipeline.ensure(r.device, r.surface.Format(), r.cfg.SampleCount); err != nil {
		return err
	}
	if err := r.frame.ensureUniform(r.device, r.pipeline.uniformLayout); err != nil {
		return err
	}
	if err := r.queue.WriteBuffer(r.frame.uniformBuf, 0, makeViewportUniform(vp.Width, vp.Height)); err != nil {
		r.frame.vertCount = 0
		return fmt.Errorf("upload viewport uniform: %w", err)
	}

	r.staging = mesh.Encode(r.staging, meshes)
	r.frame.vertCount = uint32(len(r.staging) / mesh.VertexStride) //nolint:gosec // bounded by buffer size
	if r.frame.vertCount == 0 {
		return nil
	}
	if err := r.frame.ensureVertexCapacity(r.device, uint64(len(r.staging))); err != nil {
		r.frame.vertCount = 0
		return err
	}
	if err := r.queue.WriteBuffer(r.frame.vertBuf, 0, r.staging); err != nil {
		r.frame.vertCount = 0
		return fmt.Errorf("upload vertices: %w", err)
	}
	return nil
}

// Render records the frame's single render pass, submits it and presents.
//
// If the next surface texture cannot be acquired, the surface is
// reconfigured and acquisition retried once after the configured delay.
// A second failure drops the frame and returns an error wrapping
// ErrFrameSkipped; the renderer remains usable.
func (r *SurfaceRenderer) Render() error {
	if r.destroyed {
		return ErrDestroyed
	}
	if !r.targets.ready() {
		return ErrNotConfigured
	}
	view, err := r.acquire()
	if err != nil {
		r.skipped++
		return err
	}
	if err := r.encodeSubmit(view); err != nil {
		r.surface.Discard()
		return err
	}
	if err := r.surface.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	r.frames++
	return nil
}

func (r *SurfaceRenderer) acquire() (hal.TextureView, error) {
	view, err := r.surface.Acquire()
	if err == nil {
		return view, nil
	}
	slogger().Warn("acquire surface texture failed, retrying", "err", err, "delay", r.cfg.AcquireRetryDelay)
	time.Sleep(r.cfg.AcquireRetryDelay)
	if cerr := r.surface.Configure(r.width, r.height); cerr != nil {
		return nil, fmt.Errorf("%w: reconfigure: %w", ErrFrameSkipped, errors.Join(err, cerr))
	}
	view, err = r.surface.Acquire()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire: %w", ErrFrameSkipped, err)
	}
	return view, nil
}

func (r *SurfaceRenderer) encodeSubmit(view hal.TextureView) error {
	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "surface_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("surface_frame"); err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("begin encoding: %w", err)
	}

	color := hal.RenderPassColorAttachment{
		View:       view,
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: r.cfg.ClearColor,
	}
	if r.targets.msaaView != nil {
		color.View = r.targets.msaaView
		color.ResolveTarget = view
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "surface_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{color},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              r.targets.depthView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	})
	if r.frame.vertCount > 0 && r.pipeline.pipeline != nil {
		rp.SetPipeline(r.pipeline.pipeline)
		rp.SetBindGroup(0, r.frame.bindGroup, nil)
		rp.SetVertexBuffer(0, r.frame.vertBuf, 0)
		rp.Draw(r.frame.vertCount, 1, 0, 0)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	// The pass must complete before the surface is presented.
	fenceOK, err := r.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		return fmt.Errorf("%w after %v", ErrGPUTimeout, fenceTimeout)
	}
	return nil
}

// Destroy releases every resource owned by the renderer. The device,
// queue and surface belong to the caller. Safe to call more than once.
func (r *SurfaceRenderer) Destroy() {
	if r.destroyed {
		return
	}
	r.frame.destroy(r.device)
	r.pipeline.destroy()
	r.targets.destroy(r.device)
	r.width, r.height = 0, 0
	r.destroyed = true
}
