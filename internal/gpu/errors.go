//go:build !nogpu

package gpu

import "errors"

var (
	// ErrNoAdapter is returned when no GPU adapter can be enumerated.
	ErrNoAdapter = errors.New("gpu: no GPU adapter available")

	// ErrBackendUnavailable is returned when the requested HAL backend
	// is not compiled in or not supported on this platform.
	ErrBackendUnavailable = errors.New("gpu: backend not available")

	// ErrInvalidProvider is returned when a device provider does not expose
	// HAL device and queue handles.
	ErrInvalidProvider = errors.New("gpu: provider does not expose HAL device and queue")

	// ErrNotConfigured is returned by Render and Prepare before the first
	// successful Resize.
	ErrNotConfigured = errors.New("gpu: surface not configured")

	// ErrViewportMismatch is returned by Prepare when the viewport does not
	// match the configured surface dimensions.
	ErrViewportMismatch = errors.New("gpu: viewport does not match surface configuration")

	// ErrFrameSkipped is returned by Render when the next surface texture
	// could not be acquired even after a retry. The frame is dropped; the
	// renderer stays usable.
	ErrFrameSkipped = errors.New("gpu: frame skipped")

	// ErrGPUTimeout is returned by Render when a submitted frame does not
	// complete within the fence timeout.
	ErrGPUTimeout = errors.New("gpu: timed out waiting for frame")

	// ErrDestroyed is returned by operations on a destroyed renderer.
	ErrDestroyed = errors.New("gpu: renderer destroyed")
)
