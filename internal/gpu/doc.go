//go:build !nogpu

// Package gpu manages the GPU surface used by the canvas runtime.
//
// It owns the device, queue, swap surface, multisample color target and
// depth-stencil target, and exposes the per-frame Resize, Prepare and Render
// operations on top of the gogpu/wgpu HAL (zero CGO; Vulkan, Metal, DX12 and
// a noop backend for tests).
//
// # Surface lifecycle
//
// A SurfaceRenderer starts unconfigured. The first Resize with positive
// dimensions configures the surface and creates the multisample and
// depth-stencil targets. Later resizes only take effect when the clamped
// dimensions differ from the current configuration, and both targets are
// always rebuilt together:
//
//	Unconfigured --Resize(w,h>0)--> Configured(w,h) --Resize(w',h')--> Configured(w',h')
//
// # Frame
//
// Each frame encodes exactly one render pass. The multisample color target
// resolves into the acquired surface view, depth is cleared to 1.0 and
// tested with less-or-equal, so meshes submitted later at equal depth are
// never hidden by earlier ones.
//
// # Shaders
//
// The mesh shader is written in WGSL and compiled to SPIR-V with
// gogpu/naga when the pipeline is first needed.
package gpu
