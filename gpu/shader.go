package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/glyph.wgsl
var glyphShaderSource string

// Entry points of the glyph shader.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// GlyphShaderSource returns the WGSL source of the glyph shader.
func GlyphShaderSource() string {
	return glyphShaderSource
}

// CompileGlyphShader compiles the glyph shader to SPIR-V words.
func CompileGlyphShader() ([]uint32, error) {
	spirvBytes, err := naga.Compile(glyphShaderSource)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile glyph shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// CreateGlyphShaderModule compiles the glyph shader and creates a shader
// module on device. The caller destroys it with device.DestroyShaderModule.
func CreateGlyphShaderModule(device hal.Device) (hal.ShaderModule, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	spirv, err := CompileGlyphShader()
	if err != nil {
		return nil, err
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: "glyph_shader",
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create glyph shader module: %w", err)
	}
	return module, nil
}
