package shader

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/splashos/glowtext/paint"
)

// TestNoiseFieldCompilation tests that the WGSL shader compiles to SPIR-V.
func TestNoiseFieldCompilation(t *testing.T) {
	if NoiseFieldWGSL() == "" {
		t.Fatal("noise field shader source is empty")
	}

	spirv, err := CompileNoiseField()
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "not yet implemented") || strings.Contains(errStr, "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		if strings.Contains(errStr, "lowering error") {
			t.Skipf("Skipping: naga lowering limitation: %v", err)
		}
		t.Fatalf("failed to compile noise field shader: %v", err)
	}

	if len(spirv) < 4 || len(spirv)%4 != 0 {
		t.Fatalf("SPIR-V length %d is not a positive multiple of 4", len(spirv))
	}
	words := Words(spirv)
	if words[0] != SPIRVMagic {
		t.Errorf("invalid SPIR-V magic: 0x%08X, want 0x%08X", words[0], SPIRVMagic)
	}
	if len(words) != len(spirv)/4 {
		t.Errorf("Words() returned %d words for %d bytes", len(words), len(spirv))
	}

	again, _ := CompileNoiseField()
	if &again[0] != &spirv[0] {
		t.Error("CompileNoiseField should reuse the compiled module")
	}

	t.Logf("Noise field shader compiled to %d bytes of SPIR-V", len(spirv))
}

func TestNoiseFieldSourceMatchesCPU(t *testing.T) {
	src := NoiseFieldWGSL()
	for _, want := range []string{
		"fn vs_main", "fn fs_main",
		"127.1, 311.7", "43758.5453",
		"i < 5", "0.96875", "0.18",
		"array<vec4<f32>, 8>",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("shader source missing %q", want)
		}
	}
}

func TestParamsBytes(t *testing.T) {
	palette := paint.NewPalette(paint.MustHex("#FF0000"), paint.MustHex("#0000FF"))
	p := NewParams(320, 200, 2, 0, 1.25, palette)
	buf := p.Bytes()

	if len(buf) != ParamsSize || ParamsSize != 160 {
		t.Fatalf("len(Bytes()) = %d, ParamsSize = %d, want 160", len(buf), ParamsSize)
	}

	f32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	tests := []struct {
		name string
		off  int
		want float32
	}{
		{"width", 0, 320},
		{"height", 4, 200},
		{"scale", 8, 2},
		{"cell size default", 12, 180},
		{"tau", 16, 1.25},
		{"first red", 32, 1},
		{"first alpha", 44, 1},
		{"second blue", 56, 1},
		{"second red", 48, 0},
	}
	for _, tt := range tests {
		if got := f32(tt.off); got != tt.want {
			t.Errorf("%s at %d = %v, want %v", tt.name, tt.off, got, tt.want)
		}
	}
	if n := binary.LittleEndian.Uint32(buf[20:]); n != 2 {
		t.Errorf("palette_len = %d, want 2", n)
	}
}

func TestParamsTruncatesPalette(t *testing.T) {
	colors := make([]paint.RGBA, 12)
	for i := range colors {
		colors[i] = paint.White
	}
	buf := NewParams(1, 1, 1, 1, 0, paint.NewPalette(colors...)).Bytes()
	if n := binary.LittleEndian.Uint32(buf[20:]); n != MaxPaletteColors {
		t.Errorf("palette_len = %d, want %d", n, MaxPaletteColors)
	}
}

func TestNoiseComputeCompilation(t *testing.T) {
	src := NoiseComputeWGSL()
	for _, want := range []string{"fn " + ComputeEntryPoint, "@workgroup_size(8, 8, 1)", "fn field_value", "var<storage, read_write>"} {
		if !strings.Contains(src, want) {
			t.Errorf("compute source missing %q", want)
		}
	}
	if strings.Contains(src, "fn fs_main") {
		t.Error("compute source should not carry the render entry points")
	}

	spirv, err := CompileNoiseCompute()
	if err != nil {
		if strings.Contains(err.Error(), "not yet implemented") || strings.Contains(err.Error(), "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		t.Fatalf("failed to compile noise compute shader: %v", err)
	}
	if words := Words(spirv); len(words) == 0 || words[0] != SPIRVMagic {
		t.Errorf("invalid SPIR-V module of %d bytes", len(spirv))
	}
}

func TestWorkgroupCount(t *testing.T) {
	tests := []struct {
		n    int
		want uint32
	}{
		{0, 0},
		{-3, 0},
		{1, 1},
		{8, 1},
		{9, 2},
		{640, 80},
	}
	for _, tt := range tests {
		if got := WorkgroupCount(tt.n); got != tt.want {
			t.Errorf("WorkgroupCount(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
