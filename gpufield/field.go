package gpufield

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/field"
	"github.com/splashos/glowtext/paint"
	"github.com/splashos/glowtext/shader"
)

// fenceTimeout bounds the wait for one dispatch.
const fenceTimeout = 5 * time.Second

// Options configures a Field. Zero values take the field.NoiseField
// defaults.
type Options struct {
	Speed    float64
	CellSize float64
}

// Field is a field.Field rendering domain-warped noise with a compute
// shader. It is not safe for concurrent use.
type Field struct {
	dev      *Device
	cpu      *field.NoiseField // time and sampling
	cellSize float64
	palette  paint.Palette
	ready    bool
	closed   bool

	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	// Per-size resources, recreated when the target size changes.
	uniforms   hal.Buffer
	pixels     hal.Buffer
	staging    hal.Buffer
	bindGroup  hal.BindGroup
	bufW, bufH int
	readback   []byte
}

var _ field.Field = (*Field)(nil)

// New compiles the compute program and builds its pipeline on dev. The
// field owns dev from then on and closes it in Close, also when New
// fails.
func New(dev *Device, opts Options) (*Field, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if opts.CellSize <= 0 {
		opts.CellSize = field.DefaultCellSize
	}
	f := &Field{
		dev:      dev,
		cpu:      field.NewNoiseField(field.NoiseOptions{Speed: opts.Speed, CellSize: opts.CellSize, Workers: 1}),
		cellSize: opts.CellSize,
	}
	if err := f.createPipeline(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func (f *Field) createPipeline() error {
	spirv, err := shader.CompileNoiseCompute()
	if err != nil {
		return err
	}
	dev := f.dev.device

	f.module, err = dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "noise_compute",
		Source: hal.ShaderSource{SPIRV: shader.Words(spirv)},
	})
	if err != nil {
		return fmt.Errorf("gpufield: create shader module: %w", err)
	}

	f.bindLayout, err = dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "noise_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpufield: create bind group layout: %w", err)
	}

	f.pipeLayout, err = dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "noise_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{f.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpufield: create pipeline layout: %w", err)
	}

	f.pipeline, err = dev.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "noise_pipeline",
		Layout:  f.pipeLayout,
		Compute: hal.ComputeState{Module: f.module, EntryPoint: shader.ComputeEntryPoint},
	})
	if err != nil {
		return fmt.Errorf("gpufield: create compute pipeline: %w", err)
	}
	return nil
}

// Tau returns the current noise time.
func (f *Field) Tau() float64 {
	return f.cpu.Tau()
}

// Reset implements field.Field.
func (f *Field) Reset(width, height float64, palette paint.Palette) {
	if f.closed {
		return
	}
	f.cpu.Reset(width, height, palette)
	f.palette = palette
	f.ready = true
}

// Step implements field.Field.
func (f *Field) Step(fr clock.Frame) {
	if f.closed {
		return
	}
	f.cpu.Step(fr)
}

// Sample implements field.Field on the CPU.
func (f *Field) Sample(x, y float64) paint.RGBA {
	if f.closed {
		return paint.Transparent
	}
	return f.cpu.Sample(x, y)
}

// Render implements field.Field with one compute dispatch and a blocking
// readback.
func (f *Field) Render(dst *paint.Pixmap, scale float64) error {
	if f.closed {
		return field.ErrClosed
	}
	if !f.ready {
		dst.Clear(paint.Transparent)
		return nil
	}
	w, h := dst.Width(), dst.Height()
	if err := f.ensureBuffers(w, h); err != nil {
		return err
	}

	params := shader.NewParams(w, h, scale, f.cellSize, f.cpu.Tau(), f.palette)
	f.dev.queue.WriteBuffer(f.uniforms, 0, params.Bytes())

	if err := f.dispatch(w, h); err != nil {
		return err
	}
	// packed little-endian RGBA8 with red low has the pixmap's byte order
	copy(dst.Data(), f.readback)
	return nil
}

func (f *Field) dispatch(w, h int) error {
	dev, queue := f.dev.device, f.dev.queue
	size := uint64(len(f.readback))

	encoder, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "noise_encoder"})
	if err != nil {
		return fmt.Errorf("gpufield: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("noise"); err != nil {
		return fmt.Errorf("gpufield: begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "noise_pass"})
	pass.SetPipeline(f.pipeline)
	pass.SetBindGroup(0, f.bindGroup, nil)
	pass.Dispatch(shader.WorkgroupCount(w), shader.WorkgroupCount(h), 1)
	pass.End()
	encoder.CopyBufferToBuffer(f.pixels, f.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpufield: end encoding: %w", err)
	}
	defer dev.FreeCommandBuffer(cmdBuf)

	fence, err := dev.CreateFence()
	if err != nil {
		return fmt.Errorf("gpufield: create fence: %w", err)
	}
	defer dev.DestroyFence(fence)
	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpufield: submit: %w", err)
	}
	ok, err := dev.Wait(fence, 1, fenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("gpufield: wait for GPU: ok=%v err=%w", ok, err)
	}
	if err := queue.ReadBuffer(f.staging, 0, f.readback); err != nil {
		return fmt.Errorf("gpufield: readback: %w", err)
	}
	return nil
}

// ensureBuffers sizes the uniform, storage and staging buffers and their
// bind group to a w x h target.
func (f *Field) ensureBuffers(w, h int) error {
	if f.bindGroup != nil && f.bufW == w && f.bufH == h {
		return nil
	}
	f.releaseBuffers()
	dev := f.dev.device
	size := uint64(w) * uint64(h) * 4 //nolint:gosec // pixmap dimensions are positive

	var err error
	f.uniforms, err = dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "noise_params", Size: shader.ParamsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpufield: create uniform buffer: %w", err)
	}
	f.pixels, err = dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "noise_pixels", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpufield: create storage buffer: %w", err)
	}
	f.staging, err = dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "noise_staging", Size: size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpufield: create staging buffer: %w", err)
	}
	f.bindGroup, err = dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "noise_bind", Layout: f.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: f.uniforms.NativeHandle(), Offset: 0, Size: shader.ParamsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: f.pixels.NativeHandle(), Offset: 0, Size: size}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpufield: create bind group: %w", err)
	}
	f.bufW, f.bufH = w, h
	f.readback = make([]byte, size)
	return nil
}

func (f *Field) releaseBuffers() {
	dev := f.dev.device
	if f.bindGroup != nil {
		dev.DestroyBindGroup(f.bindGroup)
	}
	for _, b := range []hal.Buffer{f.uniforms, f.pixels, f.staging} {
		if b != nil {
			dev.DestroyBuffer(b)
		}
	}
	f.bindGroup = nil
	f.uniforms, f.pixels, f.staging = nil, nil, nil
	f.bufW, f.bufH = 0, 0
	f.readback = nil
}

// Close releases the buffers, the pipeline and the device. It is
// idempotent.
func (f *Field) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.ready = false
	_ = f.cpu.Close()

	dev := f.dev.device
	if dev != nil {
		f.releaseBuffers()
		if f.pipeline != nil {
			dev.DestroyComputePipeline(f.pipeline)
		}
		if f.pipeLayout != nil {
			dev.DestroyPipelineLayout(f.pipeLayout)
		}
		if f.bindLayout != nil {
			dev.DestroyBindGroupLayout(f.bindLayout)
		}
		if f.module != nil {
			dev.DestroyShaderModule(f.module)
		}
	}
	f.pipeline, f.pipeLayout, f.bindLayout, f.module = nil, nil, nil, nil
	f.dev.Close()
	return nil
}
