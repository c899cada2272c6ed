package canvas

import "errors"

var (
	// ErrInvalidFont is returned when font data cannot be parsed.
	ErrInvalidFont = errors.New("canvas: invalid font data")

	// ErrClosed is returned by operations on a closed Runner.
	ErrClosed = errors.New("canvas: runner closed")

	// ErrNoApplication is returned when the application constructor
	// returns neither an application nor an error.
	ErrNoApplication = errors.New("canvas: application constructor returned nil")

	// ErrInvalidConfig is returned when a configuration file holds values
	// outside their valid range.
	ErrInvalidConfig = errors.New("canvas: invalid configuration")
)
