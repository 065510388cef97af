// Package shader carries the GPU version of the noise color field.
//
// The WGSL programs evaluate the same noise function as field.NoiseField.
// They are compiled to SPIR-V with naga (pure Go) so GPU hosts can load
// them without a system shader toolchain.
//
// The render program stencils the field with the text mask in one pass:
//
//	@group(0) @binding(0)  uniform Params (160 bytes, see Params.Bytes)
//	@group(0) @binding(1)  texture_2d<f32> text mask (coverage in .r)
//	@group(0) @binding(2)  sampler
//
// Its entry points are vs_main, a full-screen triangle drawn with 3
// vertices, and fs_main, which writes premultiplied color.
//
// The compute program writes the field alone:
//
//	@group(0) @binding(0)  uniform Params
//	@group(0) @binding(1)  storage array<u32>, RGBA8 packed, red low
//
// Its entry point cs_main runs in 8x8 workgroups; dispatch
// WorkgroupCount(width) x WorkgroupCount(height).
package shader

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/naga"

	"github.com/splashos/glowtext/field"
	"github.com/splashos/glowtext/paint"
)

var (
	//go:embed noise_lib.wgsl
	noiseLibWGSL string

	//go:embed noise_field.wgsl
	noiseFieldMainWGSL string

	//go:embed noise_compute.wgsl
	noiseComputeMainWGSL string

	noiseFieldWGSL   = noiseLibWGSL + "\n" + noiseFieldMainWGSL
	noiseComputeWGSL = noiseLibWGSL + "\n" + noiseComputeMainWGSL
)

// MaxPaletteColors is the palette capacity of the uniform block. Longer
// palettes are truncated.
const MaxPaletteColors = 8

// ParamsSize is the byte size of the uniform block.
const ParamsSize = 32 + MaxPaletteColors*16

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203

// WorkgroupSize is the edge of the compute program's square workgroup.
const WorkgroupSize = 8

// ComputeEntryPoint is the compute program's entry point.
const ComputeEntryPoint = "cs_main"

// NoiseFieldWGSL returns the render program source.
func NoiseFieldWGSL() string {
	return noiseFieldWGSL
}

// NoiseComputeWGSL returns the compute program source.
func NoiseComputeWGSL() string {
	return noiseComputeWGSL
}

// WorkgroupCount returns the workgroups needed to cover n pixels.
func WorkgroupCount(n int) uint32 {
	return uint32((max(n, 0) + WorkgroupSize - 1) / WorkgroupSize) //nolint:gosec // n is a pixmap dimension
}

var compileNoiseField = sync.OnceValues(func() ([]byte, error) {
	spirv, err := naga.Compile(noiseFieldWGSL)
	if err != nil {
		return nil, fmt.Errorf("shader: failed to compile noise field: %w", err)
	}
	return spirv, nil
})

var compileNoiseCompute = sync.OnceValues(func() ([]byte, error) {
	spirv, err := naga.Compile(noiseComputeWGSL)
	if err != nil {
		return nil, fmt.Errorf("shader: failed to compile noise compute: %w", err)
	}
	return spirv, nil
})

// CompileNoiseField compiles the render program to SPIR-V bytes. The
// result is computed once and shared; callers must not modify it.
func CompileNoiseField() ([]byte, error) {
	return compileNoiseField()
}

// CompileNoiseCompute compiles the compute program to SPIR-V bytes, once.
func CompileNoiseCompute() ([]byte, error) {
	return compileNoiseCompute()
}

// Words converts SPIR-V bytes to little-endian 32-bit words.
func Words(spirv []byte) []uint32 {
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words
}

// Params mirrors the WGSL uniform block.
type Params struct {
	// Width and Height are the render target size in pixels.
	Width, Height float32

	// Scale is raster pixels per logical pixel.
	Scale float32

	// CellSize is logical pixels per noise unit.
	CellSize float32

	// Tau is the noise time, as reported by field.NoiseField.Tau.
	Tau float32

	Palette []paint.RGBA
}

// NewParams fills a uniform block for a w x h pixel target. A zero
// cellSize takes the field default.
func NewParams(w, h int, scale, cellSize, tau float64, palette paint.Palette) Params {
	if scale <= 0 {
		scale = 1
	}
	if cellSize <= 0 {
		cellSize = field.DefaultCellSize
	}
	return Params{
		Width:    float32(w),
		Height:   float32(h),
		Scale:    float32(scale),
		CellSize: float32(cellSize),
		Tau:      float32(tau),
		Palette:  palette.Colors(),
	}
}

// Bytes packs p with std140 layout, ready for a uniform buffer.
func (p Params) Bytes() []byte {
	buf := make([]byte, ParamsSize)
	putF := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	}
	putF(0, p.Width)
	putF(4, p.Height)
	putF(8, p.Scale)
	putF(12, p.CellSize)
	putF(16, p.Tau)

	colors := p.Palette
	if len(colors) > MaxPaletteColors {
		colors = colors[:MaxPaletteColors]
	}
	binary.LittleEndian.PutUint32(buf[20:], uint32(len(colors))) //nolint:gosec // bounded by MaxPaletteColors

	for i, c := range colors {
		off := 32 + i*16
		putF(off, float32(c.R))
		putF(off+4, float32(c.G))
		putF(off+8, float32(c.B))
		putF(off+12, float32(c.A))
	}
	return buf
}
