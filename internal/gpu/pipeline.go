//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/canvas/mesh"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// viewportUniformSize is the byte size of the viewport uniform:
// size (vec2<f32>) + padding (vec2<f32>).
const viewportUniformSize = 16

// meshPipeline renders premultiplied colored triangles with depth testing.
type meshPipeline struct {
	device hal.Device

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline

	format      gputypes.TextureFormat
	sampleCount uint32
}

// ensure creates the pipeline for the given color format and sample count.
// A pipeline built for a different format or sample count is replaced.
func (p *meshPipeline) ensure(device hal.Device, format gputypes.TextureFormat, sampleCount uint32) error {
	if p.pipeline != nil && p.format == format && p.sampleCount == sampleCount {
		return nil
	}
	p.destroy()
	p.device = device

	shader, err := createShaderModule(device, "mesh_shader", meshShaderSource)
	if err != nil {
		return err
	}
	p.shader = shader

	uniformLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "mesh_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("create mesh uniform layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "mesh_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("create mesh pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "mesh_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    meshVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLessEqual,
			StencilFront:      keep,
			StencilBack:       keep,
			StencilReadMask:   0x00,
			StencilWriteMask:  0x00,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("create mesh pipeline: %w", err)
	}
	p.pipeline = pipeline
	p.format = format
	p.sampleCount = sampleCount
	return nil
}

// destroy releases all pipeline resources in reverse creation order.
func (p *meshPipeline) destroy() {
	if p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// meshVertexLayout returns the vertex buffer layout matching mesh.Vertex.
func meshVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: mesh.VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position + depth
				{Format: gputypes.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1}, // color
			},
		},
	}
}

// makeViewportUniform encodes the viewport size in physical pixels.
func makeViewportUniform(w, h uint32) []byte {
	buf := make([]byte, viewportUniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(w)))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(h)))
	return buf
}

// frameResources holds the buffers reused across frames. The vertex buffer
// grows on demand and is never shrunk.
type frameResources struct {
	vertBuf    hal.Buffer
	vertCap    uint64
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup
	vertCount  uint32
}

// ensureUniform creates the uniform buffer and bind group on first use.
func (r *frameResources) ensureUniform(device hal.Device, layout hal.BindGroupLayout) error {
	if r.bindGroup != nil {
		return nil
	}
	uniformBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mesh_viewport_uniform",
		Size:  viewportUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create viewport uniform: %w", err)
	}
	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "mesh_bind",
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: viewportUniformSize,
			}},
		},
	})
	if err != nil {
		device.DestroyBuffer(uniformBuf)
		return fmt.Errorf("create mesh bind group: %w", err)
	}
	r.uniformBuf = uniformBuf
	r.bindGroup = bindGroup
	return nil
}

// ensureVertexCapacity makes sure the vertex buffer holds at least n bytes.
func (r *frameResources) ensureVertexCapacity(device hal.Device, n uint64) error {
	if r.vertBuf != nil && r.vertCap >= n {
		return nil
	}
	if r.vertBuf != nil {
		device.DestroyBuffer(r.vertBuf)
		r.vertBuf = nil
		r.vertCap = 0
	}
	capacity := uint64(mesh.VertexStride * 3 * 64)
	for capacity < n {
		capacity *= 2
	}
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mesh_vertices",
		Size:  capacity,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create vertex buffer (%d bytes): %w", capacity, err)
	}
	r.vertBuf = buf
	r.vertCap = capacity
	return nil
}

func (r *frameResources) destroy(device hal.Device) {
	if r.bindGroup != nil {
		device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.uniformBuf != nil {
		device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	if r.vertBuf != nil {
		device.DestroyBuffer(r.vertBuf)
		r.vertBuf = nil
	}
	r.vertCap = 0
	r.vertCount = 0
}
