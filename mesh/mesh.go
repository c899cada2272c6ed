// Package mesh defines the GPU-ready geometry exchanged between the canvas
// atlas and the surface renderer.
//
// Vertices are expressed in physical pixels with the origin at the top-left
// corner of the surface. Depth is normalized to [0, 1], where 1 is the
// furthest plane (the cleared depth value).
package mesh

import (
	"encoding/binary"
	"math"
)

// VertexStride is the byte stride of an encoded Vertex.
//
//	position (vec3<f32>) = 12 bytes (location 0)
//	color    (vec4<f32>) = 16 bytes (location 1)
const VertexStride = 28

// Vertex is a single colored vertex. Color is premultiplied RGBA.
type Vertex struct {
	X, Y  float32
	Depth float32
	Color [4]float32
}

// Mesh is an indexed-free triangle list. Every three vertices form
// one triangle.
type Mesh struct {
	Vertices []Vertex
}

// Triangles returns the number of complete triangles in the mesh.
func (m Mesh) Triangles() int {
	return len(m.Vertices) / 3
}

// Viewport describes the surface a set of meshes is drawn into.
// Width and Height are physical; LogicalWidth and LogicalHeight are the
// application-facing dimensions for the same surface.
type Viewport struct {
	Width, Height               uint32
	LogicalWidth, LogicalHeight float32
}

// VertexCount returns the number of whole-triangle vertices across meshes.
func VertexCount(meshes []Mesh) int {
	n := 0
	for i := range meshes {
		n += meshes[i].Triangles() * 3
	}
	return n
}

// Encode writes the vertices of all meshes into dst, growing it when
// needed, and returns the encoded slice. Trailing vertices that do not
// complete a triangle are skipped.
func Encode(dst []byte, meshes []Mesh) []byte {
	needed := VertexCount(meshes) * VertexStride
	if cap(dst) < needed {
		dst = make([]byte, needed)
	} else {
		dst = dst[:needed]
	}
	off := 0
	for i := range meshes {
		verts := meshes[i].Vertices
		verts = verts[:len(verts)-len(verts)%3]
		for j := range verts {
			putVertex(dst[off:], &verts[j])
			off += VertexStride
		}
	}
	return dst
}

func putVertex(buf []byte, v *Vertex) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Depth))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.Color[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.Color[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.Color[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(v.Color[3]))
}
