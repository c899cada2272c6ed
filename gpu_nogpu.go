//go:build nogpu

package canvas

import (
	"errors"
	"log/slog"
)

// ErrFrameSkipped is returned by a Renderer whose surface texture could not
// be acquired. The Runner logs it and carries on.
var ErrFrameSkipped = errors.New("canvas: frame skipped")

func setGPULogger(*slog.Logger) {}
