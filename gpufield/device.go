package gpufield

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

var (
	// ErrNoAdapter is returned when no GPU device can be opened.
	ErrNoAdapter = errors.New("gpufield: no GPU adapter available")

	// ErrNoHAL is returned when a device provider does not expose its HAL
	// device and queue.
	ErrNoHAL = errors.New("gpufield: provider does not expose HAL types")

	// ErrNilDevice is returned by New without a device.
	ErrNilDevice = errors.New("gpufield: nil device")
)

// Device is an open HAL device and its queue.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
	owned    bool // false for devices shared by a provider
	closed   bool
}

// instanceCreator is a HAL backend, such as the registered Vulkan backend
// or noop.API.
type instanceCreator interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Open opens the first discrete or integrated GPU on the Vulkan backend,
// or the first adapter when there is neither. Every failure wraps
// ErrNoAdapter.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not registered", ErrNoAdapter)
	}
	return OpenBackend(backend)
}

// OpenBackend opens a device on backend.
func OpenBackend(backend instanceCreator) (*Device, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoAdapter, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
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
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open %s: %w", ErrNoAdapter, selected.Info.Name, err)
	}
	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
		owned:    true,
	}, nil
}

// FromProvider shares the device of a host such as a gogpu window. The
// provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue. Closing the result leaves the
// host's device alone.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return &Device{device: device, queue: queue, name: "shared"}, nil
}

// Name returns the adapter name.
func (d *Device) Name() string {
	return d.name
}

// Close destroys the device and instance when d opened them. It is
// idempotent.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if !d.owned {
		return
	}
	if d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
}
