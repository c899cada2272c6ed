//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// meshShaderSource draws colored triangles given in physical pixels.
// The viewport uniform maps pixels to clip space; depth passes through.
const meshShaderSource = `
struct Viewport {
    size: vec2<f32>,
    pad: vec2<f32>,
}

@group(0) @binding(0) var<uniform> viewport: Viewport;

struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) color: vec4<f32>,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    let x = in.position.x / viewport.size.x * 2.0 - 1.0;
    let y = 1.0 - in.position.y / viewport.size.y * 2.0;
    out.position = vec4<f32>(x, y, in.position.z, 1.0);
    out.color = in.color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
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

// createShaderModule builds a shader module from WGSL. The source is
// compiled ahead of time to SPIR-V; if the offline compiler rejects it the
// WGSL text is handed to the backend unchanged.
func createShaderModule(device hal.Device, label, wgslSource string) (hal.ShaderModule, error) {
	source := hal.ShaderSource{WGSL: wgslSource}
	if words, err := compileSPIRV(wgslSource); err == nil {
		source = hal.ShaderSource{SPIRV: words}
	} else {
		slogger().Warn("offline shader compile failed, using WGSL", "shader", label, "err", err)
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return module, nil
}
