//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// errOffscreenUnconfigured is returned by Acquire before Configure.
var errOffscreenUnconfigured = errors.New("gpu: offscreen surface not configured")

// OffscreenSurface is a Surface backed by a single device texture. It is
// used for headless runs and tests.
type OffscreenSurface struct {
	device hal.Device
	format gputypes.TextureFormat

	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32

	acquired  bool
	presented int
}

// NewOffscreenSurface returns an unconfigured offscreen surface.
// A zero format defaults to BGRA8Unorm.
func NewOffscreenSurface(device hal.Device, format gputypes.TextureFormat) *OffscreenSurface {
	var unset gputypes.TextureFormat
	if format == unset {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	return &OffscreenSurface{device: device, format: format}
}

// Configure implements Surface.
func (s *OffscreenSurface) Configure(width, height uint32) error {
	if s.tex != nil && s.width == width && s.height == height {
		return nil
	}
	s.release()
	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "offscreen_color",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        s.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create offscreen texture: %w", err)
	}
	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "offscreen_color_view"})
	if err != nil {
		s.device.DestroyTexture(tex)
		return fmt.Errorf("create offscreen view: %w", err)
	}
	s.tex, s.view = tex, view
	s.width, s.height = width, height
	return nil
}

// Acquire implements Surface.
func (s *OffscreenSurface) Acquire() (hal.TextureView, error) {
	if s.view == nil {
		return nil, errOffscreenUnconfigured
	}
	s.acquired = true
	return s.view, nil
}

// Present implements Surface.
func (s *OffscreenSurface) Present() error {
	if !s.acquired {
		return errors.New("gpu: present without acquire")
	}
	s.acquired = false
	s.presented++
	return nil
}

// Discard implements Surface.
func (s *OffscreenSurface) Discard() { s.acquired = false }

// Format implements Surface.
func (s *OffscreenSurface) Format() gputypes.TextureFormat { return s.format }

// Size returns the configured dimensions.
func (s *OffscreenSurface) Size() (uint32, uint32) { return s.width, s.height }

// Presented returns the number of presented frames.
func (s *OffscreenSurface) Presented() int { return s.presented }

// Texture returns the backing texture, for readback by the caller.
func (s *OffscreenSurface) Texture() hal.Texture { return s.tex }

// Destroy releases the backing texture.
func (s *OffscreenSurface) Destroy() { s.release() }

func (s *OffscreenSurface) release() {
	if s.view != nil {
		s.device.DestroyTextureView(s.view)
		s.view = nil
	}
	if s.tex != nil {
		s.device.DestroyTexture(s.tex)
		s.tex = nil
	}
	s.width, s.height = 0, 0
}

var _ Surface = (*OffscreenSurface)(nil)
