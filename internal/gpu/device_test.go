//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// limitedInstance reports a reduced texture dimension on every adapter and
// records the limits each device is opened with.
type limitedInstance struct {
	hal.Instance
	maxDimension uint32
	opened       *gputypes.Limits
}

func (i *limitedInstance) EnumerateAdapters(s hal.Surface) []hal.ExposedAdapter {
	adapters := i.Instance.EnumerateAdapters(s)
	for k := range adapters {
		adapters[k].Capabilities.Limits.MaxTextureDimension2D = i.maxDimension
		adapters[k].Adapter = &recordingAdapter{Adapter: adapters[k].Adapter, opened: i.opened}
	}
	return adapters
}

type recordingAdapter struct {
	hal.Adapter
	opened *gputypes.Limits
}

func (a *recordingAdapter) Open(features gputypes.Features, limits gputypes.Limits) (hal.OpenDevice, error) {
	*a.opened = limits
	return a.Adapter.Open(features, limits)
}

func openLimited(t *testing.T, maxDimension uint32) (*Device, gputypes.Limits) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	var opened gputypes.Limits
	d, err := OpenInstance(&limitedInstance{Instance: instance, maxDimension: maxDimension, opened: &opened})
	if err != nil {
		instance.Destroy()
		t.Fatalf("OpenInstance failed: %v", err)
	}
	t.Cleanup(d.Close)
	return d, opened
}

func TestOpenInstanceUsesAdapterLimits(t *testing.T) {
	d, opened := openLimited(t, 1024)

	if d.Limits.MaxTextureDimension2D != 1024 {
		t.Errorf("Limits.MaxTextureDimension2D = %d, want 1024", d.Limits.MaxTextureDimension2D)
	}
	if opened.MaxTextureDimension2D != 1024 {
		t.Errorf("device opened with MaxTextureDimension2D = %d, want 1024", opened.MaxTextureDimension2D)
	}
}

func TestResizeClampedToAdapterLimit(t *testing.T) {
	d, _ := openLimited(t, 1024)
	surface := NewOffscreenSurface(d.Device, gputypes.TextureFormatBGRA8Unorm)
	defer surface.Destroy()
	r := NewSurfaceRenderer(d, surface, Config{MaxDimension: 4096})
	defer r.Destroy()

	if got := r.MaxDimension(); got != 1024 {
		t.Errorf("MaxDimension() = %d, want 1024", got)
	}
	if _, err := r.Resize(1600, 1200); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if w, h := r.Size(); w != 1024 || h != 1024 {
		t.Errorf("Size() = (%d, %d), want (1024, 1024)", w, h)
	}
	if w, h := surface.Size(); w != 1024 || h != 1024 {
		t.Errorf("surface configured at %dx%d, want 1024x1024", w, h)
	}
}

func TestOpenInstanceWithoutReportedLimits(t *testing.T) {
	d, opened := openLimited(t, 0)

	want := gputypes.DownlevelLimits().MaxTextureDimension2D
	if d.Limits.MaxTextureDimension2D != want || opened.MaxTextureDimension2D != want {
		t.Errorf("limits = %d (opened %d), want downlevel %d",
			d.Limits.MaxTextureDimension2D, opened.MaxTextureDimension2D, want)
	}
}

// hostProvider hands a noop device to FromProvider the way a windowing
// host would.
type hostProvider struct {
	device hal.Device
	queue  hal.Queue
	limits *gputypes.Limits
}

func (p hostProvider) Device() gpucontext.Device             { return p.device }
func (p hostProvider) Queue() gpucontext.Queue               { return p.queue }
func (p hostProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (p hostProvider) Adapter() gpucontext.Adapter           { return nil }
func (p hostProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{Name: "host"} }
func (p hostProvider) HalDevice() any                        { return p.device }
func (p hostProvider) HalQueue() any                         { return p.queue }

type limitedHostProvider struct{ hostProvider }

func (p limitedHostProvider) Limits() gputypes.Limits { return *p.limits }

func TestFromProviderLimits(t *testing.T) {
	owner, cleanup := createNoopDevice(t)
	defer cleanup()
	base := hostProvider{device: owner.Device, queue: owner.Queue}

	d, err := FromProvider(base)
	if err != nil {
		t.Fatalf("FromProvider failed: %v", err)
	}
	if want := gputypes.DownlevelLimits().MaxTextureDimension2D; d.Limits.MaxTextureDimension2D != want {
		t.Errorf("provider without limits: MaxTextureDimension2D = %d, want %d", d.Limits.MaxTextureDimension2D, want)
	}

	limits := gputypes.DefaultLimits()
	limits.MaxTextureDimension2D = 512
	base.limits = &limits
	d, err = FromProvider(limitedHostProvider{base})
	if err != nil {
		t.Fatalf("FromProvider failed: %v", err)
	}
	if d.Limits.MaxTextureDimension2D != 512 {
		t.Errorf("MaxTextureDimension2D = %d, want 512", d.Limits.MaxTextureDimension2D)
	}
	d.Close()
	if owner.Device == nil {
		t.Error("closing a provided device must not release the host's handles")
	}
}

func TestFromProviderRejectsNonHAL(t *testing.T) {
	_, err := FromProvider(struct{ gpucontext.DeviceProvider }{})
	if !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("FromProvider() = %v, want ErrInvalidProvider", err)
	}
}
