package canvas

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Size is the canvas size in physical pixels together with the device
// pixel ratio. Logical dimensions are derived once, when the Size is built,
// as round(physical / ratio) with halves rounded away from zero. Every
// conversion uses the same rounding, so a physical pixel maps to the same
// logical pixel for as long as the Size is current.
//
// Size is an immutable value. A resize produces a new Size.
type Size struct {
	width, height int
	ratio         float32

	logicalWidth, logicalHeight float32
}

// NewSize builds a Size. Negative dimensions become zero; a ratio that is
// not a positive finite number becomes 1.
func NewSize(width, height int, ratio float64) Size {
	r := float32(ratio)
	if !(r > 0) || math32.IsInf(r, 0) {
		r = 1
	}
	s := Size{width: max(width, 0), height: max(height, 0), ratio: r}
	s.logicalWidth = s.ToLogical(float32(s.width))
	s.logicalHeight = s.ToLogical(float32(s.height))
	return s
}

// Physical returns the dimensions in physical pixels.
func (s Size) Physical() (int, int) { return s.width, s.height }

// Logical returns the dimensions in logical pixels.
func (s Size) Logical() (float32, float32) { return s.logicalWidth, s.logicalHeight }

// Ratio returns the device pixel ratio.
func (s Size) Ratio() float32 { return s.ratio }

// ToLogical converts a physical length or coordinate to logical pixels.
func (s Size) ToLogical(v float32) float32 {
	return math32.Round(v / s.ratio)
}

// ToPhysical converts a logical length or coordinate to physical pixels.
// The result is not rounded; fractional physical positions are meaningful
// to the rasterizer.
func (s Size) ToPhysical(v float32) float32 {
	return v * s.ratio
}

// PointToLogical converts a physical point to logical pixels.
func (s Size) PointToLogical(x, y float32) (float32, float32) {
	return s.ToLogical(x), s.ToLogical(y)
}

// Equal reports whether two sizes describe the same configuration.
func (s Size) Equal(o Size) bool {
	return s.width == o.width && s.height == o.height && s.ratio == o.ratio
}

// IsZero reports whether either physical dimension is zero.
func (s Size) IsZero() bool { return s.width == 0 || s.height == 0 }

func (s Size) String() string {
	return fmt.Sprintf("%dx%d@%g (%gx%g)", s.width, s.height, s.ratio, s.logicalWidth, s.logicalHeight)
}
