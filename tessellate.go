package canvas

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/canvas/mesh"
)

type point struct{ x, y float32 }

// Segment bounds for curved outlines.
const (
	minArcSegments = 16
	maxArcSegments = 128
)

// tessellateShape turns a resolved shape into triangles. Shapes with no
// positive extent produce an empty mesh.
func tessellateShape(s Shape, r Rect) mesh.Mesh {
	w, h := s.Width, s.Height
	if w == 0 {
		w = r.Width
	}
	if h == 0 {
		h = r.Height
	}
	if !(w > 0) || !(h > 0) {
		return mesh.Mesh{}
	}
	color := s.Color.Premultiplied()
	depth := r.Depth()
	radius := math32.Min(math32.Max(s.Radius, 0), math32.Min(w, h)/2)

	segments := arcSegments(s.Kind, w, h, radius)
	outer := outline(s.Kind, r.X, r.Y, w, h, radius, segments)

	if s.Stroke <= 0 || s.Stroke*2 >= math32.Min(w, h) {
		return fan(outer, depth, color)
	}
	st := s.Stroke
	inner := outline(s.Kind, r.X+st, r.Y+st, w-2*st, h-2*st, math32.Max(radius-st, 0), segments)
	return ring(outer, inner, depth, color)
}

// arcSegments picks how many segments approximate a full turn.
func arcSegments(kind ShapeKind, w, h, radius float32) int {
	var r float32
	switch kind {
	case ShapeEllipse:
		r = math32.Max(w, h) / 2
	case ShapeRoundedRectangle:
		r = radius
	default:
		return 0
	}
	n := int(math32.Ceil(2 * math32.Pi * r / 4))
	return min(max(n, minArcSegments), maxArcSegments)
}

// outline returns the convex outline of a shape, clockwise in screen
// space. Outlines built with the same kind and segment count have the same
// number of points.
func outline(kind ShapeKind, x, y, w, h, radius float32, segments int) []point {
	switch kind {
	case ShapeEllipse:
		cx, cy := x+w/2, y+h/2
		pts := make([]point, segments)
		for i := range pts {
			a := 2 * math32.Pi * float32(i) / float32(segments)
			pts[i] = point{cx + math32.Cos(a)*w/2, cy + math32.Sin(a)*h/2}
		}
		return pts
	case ShapeRoundedRectangle:
		per := max(segments/4, 1)
		corners := [4]struct {
			cx, cy float32
			start  float32
		}{
			{x + w - radius, y + h - radius, 0},
			{x + radius, y + h - radius, math32.Pi / 2},
			{x + radius, y + radius, math32.Pi},
			{x + w - radius, y + radius, 3 * math32.Pi / 2},
		}
		pts := make([]point, 0, 4*(per+1))
		for _, c := range corners {
			for i := 0; i <= per; i++ {
				a := c.start + (math32.Pi/2)*float32(i)/float32(per)
				pts = append(pts, point{c.cx + math32.Cos(a)*radius, c.cy + math32.Sin(a)*radius})
			}
		}
		return pts
	default:
		return []point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	}
}

// fan fills a convex outline with triangles around its centroid.
func fan(pts []point, depth float32, color [4]float32) mesh.Mesh {
	n := len(pts)
	if n < 3 {
		return mesh.Mesh{}
	}
	var c point
	for _, p := range pts {
		c.x += p.x
		c.y += p.y
	}
	c.x /= float32(n)
	c.y /= float32(n)

	verts := make([]mesh.Vertex, 0, n*3)
	for i := range n {
		a, b := pts[i], pts[(i+1)%n]
		verts = append(verts, vtx(c, depth, color), vtx(a, depth, color), vtx(b, depth, color))
	}
	return mesh.Mesh{Vertices: verts}
}

// ring fills the band between two outlines of equal length.
func ring(outer, inner []point, depth float32, color [4]float32) mesh.Mesh {
	n := len(outer)
	if n < 3 || len(inner) != n {
		return mesh.Mesh{}
	}
	verts := make([]mesh.Vertex, 0, n*6)
	for i := range n {
		j := (i + 1) % n
		o0, o1, i0, i1 := outer[i], outer[j], inner[i], inner[j]
		verts = append(verts,
			vtx(o0, depth, color), vtx(o1, depth, color), vtx(i0, depth, color),
			vtx(o1, depth, color), vtx(i1, depth, color), vtx(i0, depth, color),
		)
	}
	return mesh.Mesh{Vertices: verts}
}

func vtx(p point, depth float32, color [4]float32) mesh.Vertex {
	return mesh.Vertex{X: p.x, Y: p.y, Depth: depth, Color: color}
}

// quad appends the two triangles of an axis-aligned rectangle.
func quad(verts []mesh.Vertex, x0, y0, x1, y1, depth float32, color [4]float32) []mesh.Vertex {
	a, b, c, d := point{x0, y0}, point{x1, y0}, point{x1, y1}, point{x0, y1}
	return append(verts,
		vtx(a, depth, color), vtx(b, depth, color), vtx(d, depth, color),
		vtx(b, depth, color), vtx(c, depth, color), vtx(d, depth, color),
	)
}
