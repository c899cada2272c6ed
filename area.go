package canvas

import "math"

// MaxZ is the depth of the background pushed by Context.Clear. Higher Z is
// further back.
const MaxZ = math.MaxUint16

// Area is where an item is drawn, in logical pixels. An Area without an
// extent covers the rest of the canvas from its origin.
type Area struct {
	X, Y          float32
	Width, Height float32

	sized bool
	z     uint16
	hasZ  bool
}

// At returns an Area with the given origin and no extent.
func At(x, y float32) Area {
	return Area{X: x, Y: y}
}

// Bounds returns an Area with origin and extent.
func Bounds(x, y, width, height float32) Area {
	return Area{X: x, Y: y, Width: width, Height: height, sized: true}
}

// Fullscreen returns an Area covering the whole canvas.
func Fullscreen() Area {
	return Area{}
}

// WithZ returns a copy of a that is drawn at an explicit depth instead of
// the one implied by draw order.
func (a Area) WithZ(z uint16) Area {
	a.z, a.hasZ = z, true
	return a
}

// Sized reports whether the Area carries an explicit extent.
func (a Area) Sized() bool { return a.sized }

// Rect is an Area resolved to physical pixels with a depth.
type Rect struct {
	X, Y          float32
	Width, Height float32
	Z             uint16
}

// Depth returns Z normalized to [0, 1].
func (r Rect) Depth() float32 {
	return float32(r.Z) / MaxZ
}

// Empty reports whether the rectangle has no positive extent.
func (r Rect) Empty() bool {
	return !(r.Width > 0) || !(r.Height > 0)
}

// resolve converts a to physical pixels. z is used unless the Area
// carries an explicit depth. Degenerate extents are kept as they are.
func (a Area) resolve(s Size, z uint16) Rect {
	w, h := a.Width, a.Height
	if !a.sized {
		lw, lh := s.Logical()
		w, h = lw-a.X, lh-a.Y
	}
	if a.hasZ {
		z = a.z
	}
	return Rect{
		X:      s.ToPhysical(a.X),
		Y:      s.ToPhysical(a.Y),
		Width:  s.ToPhysical(w),
		Height: s.ToPhysical(h),
		Z:      z,
	}
}
