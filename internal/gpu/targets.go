//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// depthFormat is the format of the depth-stencil target.
const depthFormat = gputypes.TextureFormatDepth24PlusStencil8

// targetSet holds the multisample color target and the depth-stencil target
// for one surface configuration. The two are created and destroyed as a
// pair so they always share the surface dimensions.
//
//   - MSAA color: sampleCount samples, surface format, RenderAttachment
//   - Depth/stencil: sampleCount samples, Depth24PlusStencil8, RenderAttachment
type targetSet struct {
	msaaTex   hal.Texture
	msaaView  hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView
	width     uint32
	height    uint32

	// recreations counts completed pair creations.
	recreations int
}

// ready reports whether the targets exist. The depth target is created
// last, so its presence implies the color target when one is needed.
func (ts *targetSet) ready() bool {
	return ts.depthView != nil
}

// ensure creates or recreates both targets if the requested dimensions
// differ from the current size. If dimensions match and the targets exist,
// this is a no-op. With sampleCount 1 no color target is created and the
// surface view is rendered to directly.
func (ts *targetSet) ensure(device hal.Device, w, h uint32, format gputypes.TextureFormat, sampleCount uint32) error {
	if ts.width == w && ts.height == h && ts.depthTex != nil {
		return nil
	}
	ts.destroy(device)

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	if sampleCount > 1 {
		msaaTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         "surface_msaa_color",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   sampleCount,
			Dimension:     gputypes.TextureDimension2D,
			Format:        format,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("create MSAA color texture: %w", err)
		}
		ts.msaaTex = msaaTex

		msaaView, err := device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
			Label: "surface_msaa_color_view",
		})
		if err != nil {
			ts.destroy(device)
			return fmt.Errorf("create MSAA color view: %w", err)
		}
		ts.msaaView = msaaView
	}

	depthTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "surface_depth_stencil",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		ts.destroy(device)
		return fmt.Errorf("create depth/stencil texture: %w", err)
	}
	ts.depthTex = depthTex

	depthView, err := device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label: "surface_depth_stencil_view",
	})
	if err != nil {
		ts.destroy(device)
		return fmt.Errorf("create depth/stencil view: %w", err)
	}
	ts.depthView = depthView

	ts.width = w
	ts.height = h
	ts.recreations++
	slogger().Debug("surface targets created",
		"width", w, "height", h, "samples", sampleCount, "generation", ts.recreations)
	return nil
}

// destroy releases both targets and resets dimensions.
func (ts *targetSet) destroy(device hal.Device) {
	if ts.depthView != nil {
		device.DestroyTextureView(ts.depthView)
		ts.depthView = nil
	}
	if ts.depthTex != nil {
		device.DestroyTexture(ts.depthTex)
		ts.depthTex = nil
	}
	if ts.msaaView != nil {
		device.DestroyTextureView(ts.msaaView)
		ts.msaaView = nil
	}
	if ts.msaaTex != nil {
		device.DestroyTexture(ts.msaaTex)
		ts.msaaTex = nil
	}
	ts.width = 0
	ts.height = 0
}
