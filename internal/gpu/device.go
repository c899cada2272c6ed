//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device is an opened GPU device and its queue.
type Device struct {
	Device hal.Device
	Queue  hal.Queue
	Limits gputypes.Limits
	Name   string

	instance hal.Instance
	external bool
}

// OpenDevice creates an instance of the given HAL backend and opens a
// device on the best adapter: the first discrete or integrated GPU, or the
// first adapter when neither kind is present.
func OpenDevice(backendType gputypes.Backend) (*Device, error) {
	backend, ok := hal.GetBackend(backendType)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, backendType)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	d, err := OpenInstance(instance)
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	return d, nil
}

// OpenInstance opens a device on the preferred adapter of an existing
// instance. The returned Device takes ownership of instance.
func OpenInstance(instance hal.Instance) (*Device, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	limits := adapterLimits(selected.Capabilities.Limits)
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		return nil, fmt.Errorf("open device on %q: %w", selected.Info.Name, err)
	}
	slogger().Info("GPU adapter selected", "name", selected.Info.Name, "type", selected.Info.DeviceType,
		"max_texture_dimension", limits.MaxTextureDimension2D)
	return &Device{
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Limits:   limits,
		Name:     selected.Info.Name,
		instance: instance,
	}, nil
}

// adapterLimits returns the limits a device is opened with: the adapter's
// own, or the downlevel set when the adapter reports none.
func adapterLimits(reported gputypes.Limits) gputypes.Limits {
	if reported.MaxTextureDimension2D == 0 {
		return gputypes.DownlevelLimits()
	}
	return reported
}

// FromProvider wraps a device shared by a host application. The provider
// must also expose HalDevice() and HalQueue() returning hal.Device and
// hal.Queue. Limits are taken from an optional Limits() gputypes.Limits
// method; without one the downlevel limits are assumed. The returned
// Device does not own the handles: Close leaves them alive.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrInvalidProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrInvalidProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrInvalidProvider)
	}
	var limits gputypes.Limits
	if lp, ok := provider.(interface{ Limits() gputypes.Limits }); ok {
		limits = lp.Limits()
	}
	return &Device{
		Device:   device,
		Queue:    queue,
		Limits:   adapterLimits(limits),
		Name:     "external",
		external: true,
	}, nil
}

// Close destroys the device and instance if this Device owns them.
func (d *Device) Close() {
	if d.external {
		return
	}
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
