package canvas

import "golang.org/x/text/unicode/norm"

// Drawable is one of Shape, Text or Image.
type Drawable interface {
	// resolve returns a copy with every length converted to physical pixels.
	resolve(s Size) Drawable
}

// Item is a drawable placed on the canvas, in physical pixels. Items are
// produced by Context.Draw and Context.Clear and consumed by the atlas in
// the same frame.
type Item struct {
	Rect     Rect
	Drawable Drawable
}

// ShapeKind selects the outline of a Shape.
type ShapeKind uint8

const (
	ShapeRectangle ShapeKind = iota
	ShapeRoundedRectangle
	ShapeEllipse
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRectangle:
		return "rectangle"
	case ShapeRoundedRectangle:
		return "rounded-rectangle"
	case ShapeEllipse:
		return "ellipse"
	default:
		return "unknown"
	}
}

// Shape is a solid or stroked geometric shape.
// A zero Width or Height fills the corresponding extent of the area.
type Shape struct {
	Kind          ShapeKind
	Width, Height float32
	Stroke        float32 // outline width; 0 fills the shape
	Radius        float32 // corner radius for rounded rectangles
	Color         Color
}

// Rectangle returns a filled rectangle covering its area.
func Rectangle(c Color) Shape {
	return Shape{Kind: ShapeRectangle, Color: c}
}

// RoundedRectangle returns a filled rectangle with rounded corners.
func RoundedRectangle(radius float32, c Color) Shape {
	return Shape{Kind: ShapeRoundedRectangle, Radius: radius, Color: c}
}

// Ellipse returns a filled ellipse inscribed in its area.
func Ellipse(c Color) Shape {
	return Shape{Kind: ShapeEllipse, Color: c}
}

// Stroked returns s drawn as an outline of the given width.
func (s Shape) Stroked(width float32) Shape {
	s.Stroke = width
	return s
}

// Sized returns s with an explicit extent.
func (s Shape) Sized(width, height float32) Shape {
	s.Width, s.Height = width, height
	return s
}

func (s Shape) resolve(sz Size) Drawable {
	s.Width = sz.ToPhysical(s.Width)
	s.Height = sz.ToPhysical(s.Height)
	s.Stroke = sz.ToPhysical(s.Stroke)
	s.Radius = sz.ToPhysical(s.Radius)
	return s
}

// Text is a run of text set in a registered font.
type Text struct {
	Text       string
	Font       *Font
	Size       float32 // font size in logical pixels
	LineHeight float32 // 0 means 1.25 × Size
	MaxWidth   float32 // wrap width; 0 wraps at the area edge
	Color      Color
}

// NewText returns a Text with the default line height.
func NewText(text string, font *Font, size float32, c Color) Text {
	return Text{Text: text, Font: font, Size: size, Color: c}
}

func (t Text) resolve(sz Size) Drawable {
	if t.LineHeight == 0 {
		t.LineHeight = t.Size * 1.25
	}
	t.Text = norm.NFC.String(t.Text)
	t.Size = sz.ToPhysical(t.Size)
	t.LineHeight = sz.ToPhysical(t.LineHeight)
	t.MaxWidth = sz.ToPhysical(t.MaxWidth)
	return t
}

// Image draws a registered bitmap scaled to its area, or to Width × Height
// when both are set.
type Image struct {
	Bitmap        *Bitmap
	Width, Height float32
}

// NewImage returns an Image that fills its area.
func NewImage(b *Bitmap) Image {
	return Image{Bitmap: b}
}

func (i Image) resolve(sz Size) Drawable {
	i.Width = sz.ToPhysical(i.Width)
	i.Height = sz.ToPhysical(i.Height)
	return i
}
