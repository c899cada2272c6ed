//go:build !nogpu

package gpu

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/canvas/mesh"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice opens a device on the noop backend for testing.
// Returns the device and a cleanup function.
func createNoopDevice(t *testing.T) (*Device, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	d, err := OpenInstance(instance)
	if err != nil {
		instance.Destroy()
		t.Fatalf("OpenInstance failed: %v", err)
	}
	return d, d.Close
}

func newTestRenderer(t *testing.T, cfg Config) (*SurfaceRenderer, *OffscreenSurface, func()) {
	t.Helper()
	d, cleanup := createNoopDevice(t)
	surface := NewOffscreenSurface(d.Device, gputypes.TextureFormatBGRA8Unorm)
	r := NewSurfaceRenderer(d, surface, cfg)
	return r, surface, func() {
		r.Destroy()
		surface.Destroy()
		cleanup()
	}
}

// flakySurface fails the next failures acquisitions.
type flakySurface struct {
	*OffscreenSurface
	failures   int
	configures int
}

func (s *flakySurface) Configure(w, h uint32) error {
	s.configures++
	return s.OffscreenSurface.Configure(w, h)
}

func (s *flakySurface) Acquire() (hal.TextureView, error) {
	if s.failures > 0 {
		s.failures--
		return nil, errors.New("surface outdated")
	}
	return s.OffscreenSurface.Acquire()
}

func TestSurfaceRendererStartsUnconfigured(t *testing.T) {
	r, _, cleanup := newTestRenderer(t, Config{})
	defer cleanup()

	w, h := r.Size()
	if w != 0 || h != 0 {
		t.Errorf("Size() = (%d, %d), want (0, 0)", w, h)
	}
	if err := r.Render(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Render() before Resize = %v, want ErrNotConfigured", err)
	}
	if err := r.Prepare(nil, mesh.Viewport{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Prepare() before Resize = %v, want ErrNotConfigured", err)
	}
}

func TestSurfaceRendererResize(t *testing.T) {
	r, surface, cleanup := newTestRenderer(t, Config{})
	defer cleanup()

	changed, err := r.Resize(800, 600)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if !changed {
		t.Error("first Resize should report a change")
	}
	if w, h := r.Size(); w != 800 || h != 600 {
		t.Errorf("Size() = (%d, %d), want (800, 600)", w, h)
	}
	if w, h := surface.Size(); w != 800 || h != 600 {
		t.Errorf("surface size = (%d, %d), want (800, 600)", w, h)
	}
	if r.targets.msaaTex == nil || r.targets.depthTex == nil {
		t.Error("expected MSAA and depth targets after Resize")
	}
	if r.Recreations() != 1 {
		t.Errorf("Recreations() = %d, want 1", r.Recreations())
	}
}

func TestSurfaceRendererResizeSameSizeIsNoop(t *testing.T) {
	r, _, cleanup := newTestRenderer(t, Config{})
	defer cleanup()

	if _, err := r.Resize(640, 480); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	msaa, depth := r.targets.msaaTex, r.targets.depthTex

	changed, err := r.Resize(640, 480)
	if err != nil {
		t.Fatalf("second Resize failed: %v", err)
	}
	if changed {
		t.Error("same-size Resize reported a change")
	}
	if r.Recreations() != 1 {
		t.Errorf("Recreations() = %d, want 1", r.Recreations())
	}
	if r.targets.msaaTex != msaa || r.targets.depthTex != depth {
		t.Error("targets were recreated on same-size Resize")
	}
}

func TestSurfaceRendererResizeDegenerate(t *testing.T) {
	r, _, cleanup := newTestRenderer(t, Config{})
	defer cleanup()

	if _, err := r.Resize(320, 240); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}

	tests := []struct {
		name string
		w, h int
	}{
		{"zero", 0, 0},
		{"zero width", 0, 100},
		{"zero height", 100, 0},
		{"negative", -5, -5},
		{"negative width", -1, 240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed, err := r.Resize(tt.w, tt.h)
			if err != nil {
				t.Fatalf("Resize(%d, %d) error: %v", tt.w, tt.h, err)
			}
			if changed {
				t.Errorf("Resize(%d, %d) reported a change", tt.w, tt.h)
			}
			if w, h := r.Size(); w != 320 || h != 240 {
				t.Errorf("Size() = (%d, %d), want (320, 240)", w, h)
			}
		})
	}
	if r.Recreations() != 1 {
		t.Errorf("Recreations() = %d, want 1", r.Recreations())
	}
}

func TestSurfaceRendererResizeClamps(t *testing.T) {
	r, _, cleanup := newTestRenderer(t, Config{MaxDimension: 1024})
	defer cleanup()

	if _, err := r.Resize(4000, 500); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if w, h := r.Size(); w != 1024 || h != 500 {
		t.Errorf("Size() = (%d, %d), want (1024, 500)", w, h)
	}

	// A request that clamps to the current size recreates nothing.
	changed, err := r.Resize(5000, 500)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if changed || r.Recreations() != 1 {
		t.Errorf("clamped-equal Resize: changed=%v recreations=%d, want false/1", changed, r.Recreations())
	}
}

func TestSurfaceRendererMaxDimensionDefault(t *testing.T) {
	r, _, cleanup := newTestRenderer(t, Config{})
	defer cleanup()

	if got := r.MaxDimension(); got != DefaultMaxDimension {
		t.Errorf("MaxDimension() = %d, want %d", got, DefaultMaxDimension)
	}
}

func TestSurfaceRendererSingleSample(t *testing.T) {
	r, _, cleanup := newTestRenderer(t, Config{SampleCount: 1})
	defer cleanup()

	if _, err := r.Resize(100, 100); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if r.targets.msaaTex != nil {
		t.Error("single-sample renderer should not create an MSAA target")
	}
	if r.targets.depthTex == nil {
		t.Error("expected depth target")
	}
}

func quad(x, y, w, h, depth float32, c [4]float32) mesh.Mesh {
	v := func(px, py float32) mesh.Vertex { return mesh.Vertex{X: px, Y: py, Depth: depth, Color: c} }
	return mesh.Mesh{Vertices: []mesh.Vertex{
		v(x, y), v(x+w, y), v(x, y+h),
		v(x+w, y), v(x+w, y+h), v(x, y+h),
	}}
}

func TestSurfaceRendererFrame(t *testing.T) {
	r, surface, cleanup := newTestRenderer(t, Config{})
	defer cleanup()

	if _, err := r.Resize(200, 100); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	meshes := []mesh.Mesh{
		quad(0, 0, 200, 100, 1, [4]float32{1, 1, 1, 1}),
		quad(10, 10, 50, 50, 0.5, [4]float32{0, 0, 0, 1}),
	}
	vp := mesh.Viewport{Width: 200, Height: 100, LogicalWidth: 100, LogicalHeight: 50}
	if err := r.Prepare(meshes, vp); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if r.frame.vertCount != 12 {
		t.Errorf("vertCount = %d, want 12", r.frame.vertCount)
	}
	if err := r.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if surface.Presented() != 1 || r.Frames() != 1 {
		t.Errorf("presented=%d frames=%d, want 1/1", surface.Presented(), r.Frames())
	}
}

func TestSurfaceRendererEmptyFrame(t *testing.T) {
	r, _, cleanup := newTestRenderer(t, Config{})
	defer cleanup()

	if _, err := r.Resize(64, 64); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if err := r.Prepare(nil, mesh.Viewport{Width: 64, Height: 64}); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := r.Render(); err != nil {
		t.Fatalf("Render of empty frame failed: %v", err)
	}
}

func TestSurfaceRendererVertexBufferGrows(t *testing.T) {
	r, _, cleanup := newTestRenderer(t, Config{})
	defer cleanup()

	if _, err := r.Resize(64, 64); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	vp := mesh.Viewport{Width: 64, Height: 64}
	small := []mesh.Mesh{quad(0, 0, 1, 1, 0, [4]float32{})}
	if err := r.Prepare(small, vp); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	firstCap := r.frame.vertCap

	big := make([]mesh.Mesh, 200)
	for i := range big {
		big[i] = quad(0, 0, 1, 1, 0, [4]float32{})
	}
	if err := r.Prepare(big, vp); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if r.frame.vertCap <= firstCap {
		t.Errorf("vertex capacity %d did not grow past %d", r.frame.vertCap, firstCap)
	}
	if r.frame.vertCount != 1200 {
		t.Errorf("vertCount = %d, want 1200", r.frame.vertCount)
	}
}

func TestSurfaceRendererViewportMismatch(t *testing.T) {
	r, _, cleanup := newTestRenderer(t, Config{})
	defer cleanup()

	if _, err := r.Resize(800, 600); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	err := r.Prepare(nil, mesh.Viewport{Width: 400, Height: 300})
	if !errors.Is(err, ErrViewportMismatch) {
		t.Errorf("Prepare() = %v, want ErrViewportMismatch", err)
	}
}

func TestSurfaceRendererAcquireRetry(t *testing.T) {
	d, cleanup := createNoopDevice(t)
	defer cleanup()

	surface := &flakySurface{OffscreenSurface: NewOffscreenSurface(d.Device, gputypes.TextureFormatBGRA8Unorm)}
	defer surface.Destroy()
	r := NewSurfaceRenderer(d, surface, Config{AcquireRetryDelay: time.Millisecond})
	defer r.Destroy()

	if _, err := r.Resize(32, 32); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}

	// One failure is absorbed by the retry.
	surface.failures = 1
	configures := surface.configures
	if err := r.Render(); err != nil {
		t.Fatalf("Render with one acquire failure: %v", err)
	}
	if surface.configures != configures+1 {
		t.Errorf("surface reconfigured %d times, want 1", surface.configures-configures)
	}

	// Two failures skip the frame without breaking the renderer.
	surface.failures = 2
	err := r.Render()
	if !errors.Is(err, ErrFrameSkipped) {
		t.Fatalf("Render() = %v, want ErrFrameSkipped", err)
	}
	if r.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", r.Skipped())
	}
	if err := r.Render(); err != nil {
		t.Errorf("Render after skipped frame: %v", err)
	}
	if r.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", r.Frames())
	}
}

func TestSurfaceRendererDestroy(t *testing.T) {
	r, _, cleanup := newTestRenderer(t, Config{})
	defer cleanup()

	if _, err := r.Resize(16, 16); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	r.Destroy()
	// Double-destroy should be safe.
	r.Destroy()

	if _, err := r.Resize(32, 32); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Resize after Destroy = %v, want ErrDestroyed", err)
	}
	if err := r.Render(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Render after Destroy = %v, want ErrDestroyed", err)
	}
}

// failingQueue rejects every buffer upload.
type failingQueue struct{ hal.Queue }

func (failingQueue) WriteBuffer(hal.Buffer, uint64, []byte) error {
	return errors.New("upload rejected")
}

func TestSurfaceRendererPrepareUploadError(t *testing.T) {
	d, cleanup := createNoopDevice(t)
	defer cleanup()
	surface := NewOffscreenSurface(d.Device, gputypes.TextureFormatBGRA8Unorm)
	defer surface.Destroy()
	r := NewSurfaceRenderer(&Device{Device: d.Device, Queue: failingQueue{d.Queue}, Limits: d.Limits}, surface, Config{})
	defer r.Destroy()

	if _, err := r.Resize(64, 64); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	err := r.Prepare([]mesh.Mesh{quad(0, 0, 8, 8, 0, [4]float32{1, 1, 1, 1})}, mesh.Viewport{Width: 64, Height: 64})
	if err == nil {
		t.Fatal("Prepare should report a failed upload")
	}
	if r.frame.vertCount != 0 {
		t.Errorf("vertCount = %d after failed upload, want 0", r.frame.vertCount)
	}
}

// faultyDevice injects encoder and fence failures into a working device.
type faultyDevice struct {
	hal.Device
	beginErr error
	endErr   error
	stalled  bool
	discards int
}

func (d *faultyDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &faultyEncoder{CommandEncoder: enc, device: d}, nil
}

func (d *faultyDevice) Wait(fence hal.Fence, value uint64, timeout time.Duration) (bool, error) {
	if d.stalled {
		return false, nil
	}
	return d.Device.Wait(fence, value, timeout)
}

type faultyEncoder struct {
	hal.CommandEncoder
	device *faultyDevice
}

func (e *faultyEncoder) BeginEncoding(label string) error {
	if e.device.beginErr != nil {
		return e.device.beginErr
	}
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *faultyEncoder) EndEncoding() (hal.CommandBuffer, error) {
	if e.device.endErr != nil {
		return nil, e.device.endErr
	}
	return e.CommandEncoder.EndEncoding()
}

func (e *faultyEncoder) DiscardEncoding() {
	e.device.discards++
	e.CommandEncoder.DiscardEncoding()
}

func newFaultyRenderer(t *testing.T, fd *faultyDevice) (*SurfaceRenderer, *OffscreenSurface) {
	t.Helper()
	d, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	fd.Device = d.Device
	surface := NewOffscreenSurface(d.Device, gputypes.TextureFormatBGRA8Unorm)
	t.Cleanup(surface.Destroy)
	r := NewSurfaceRenderer(&Device{Device: fd, Queue: d.Queue, Limits: d.Limits}, surface, Config{})
	t.Cleanup(r.Destroy)
	if _, err := r.Resize(64, 64); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if err := r.Prepare(nil, mesh.Viewport{Width: 64, Height: 64}); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	return r, surface
}

func TestSurfaceRendererDiscardsFailedEncoder(t *testing.T) {
	tests := []struct {
		name string
		dev  faultyDevice
	}{
		{"begin", faultyDevice{beginErr: errors.New("begin failed")}},
		{"end", faultyDevice{endErr: errors.New("end failed")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd := tt.dev
			r, surface := newFaultyRenderer(t, &fd)

			if err := r.Render(); err == nil {
				t.Fatal("Render should fail")
			}
			if fd.discards != 1 {
				t.Errorf("DiscardEncoding called %d times, want 1", fd.discards)
			}
			if surface.Presented() != 0 {
				t.Errorf("presented %d frames, want 0", surface.Presented())
			}
		})
	}
}

func TestSurfaceRendererFenceTimeout(t *testing.T) {
	fd := &faultyDevice{stalled: true}
	r, _ := newFaultyRenderer(t, fd)

	err := r.Render()
	if !errors.Is(err, ErrGPUTimeout) {
		t.Errorf("Render() = %v, want ErrGPUTimeout", err)
	}
	if r.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", r.Frames())
	}
}
