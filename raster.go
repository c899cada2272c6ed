package canvas

import (
	"image"
	"strings"

	"github.com/chewxy/math32"
	xdraw "golang.org/x/image/draw"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/canvas/mesh"
)

// maxRasterDimension bounds the scratch images used for text and bitmaps.
const maxRasterDimension = 4096

// span is a horizontal run of equal color on one raster row. Text spans
// carry coverage in all four channels so that multiplying by a
// premultiplied tint yields the final color.
type span struct {
	x0, x1, y int
	rgba      [4]float32
}

// raster is the cached result of rasterizing one text or image item.
type raster struct {
	spans []span
	frame uint64
	err   error
}

// spanMesh places spans at r and multiplies each by tint.
func spanMesh(spans []span, r Rect, tint [4]float32) mesh.Mesh {
	if len(spans) == 0 {
		return mesh.Mesh{}
	}
	depth := r.Depth()
	verts := make([]mesh.Vertex, 0, len(spans)*6)
	for _, s := range spans {
		var c [4]float32
		for i := range c {
			c[i] = tint[i] * s.rgba[i]
		}
		y := r.Y + float32(s.y)
		verts = quad(verts, r.X+float32(s.x0), y, r.X+float32(s.x1), y+1, depth, c)
	}
	return mesh.Mesh{Vertices: verts}
}

// rasterExtent converts a physical extent to a scratch image size.
func rasterExtent(w, h float32) (int, int, bool) {
	if !(w > 0) || !(h > 0) {
		return 0, 0, false
	}
	iw := int(math32.Ceil(math32.Min(w, maxRasterDimension)))
	ih := int(math32.Ceil(math32.Min(h, maxRasterDimension)))
	return iw, ih, true
}

// wrapText breaks text into lines no wider than maxWidth. Explicit line
// breaks are kept; a single word wider than maxWidth gets its own line.
func wrapText(f *Font, text string, size, maxWidth float32) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if maxWidth > 0 && f.Advance(candidate, size) > maxWidth {
				lines = append(lines, line)
				line = w
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

// rasterizeText draws t into a coverage mask the size of the item and
// returns its spans.
func rasterizeText(t Text, font *Font, w, h float32) ([]span, error) {
	iw, ih, ok := rasterExtent(w, h)
	if !ok || t.Size <= 0 || t.Text == "" {
		return nil, nil
	}
	face, err := font.newFace(t.Size)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	wrap := t.MaxWidth
	if wrap <= 0 {
		wrap = float32(iw)
	}
	mask := image.NewAlpha(image.Rect(0, 0, iw, ih))
	d := &xfont.Drawer{Dst: mask, Src: image.Opaque, Face: face}

	ascent := face.Metrics().Ascent
	baseline := ascent
	step := fixed.Int26_6(t.LineHeight * 64)
	for _, line := range wrapText(font, t.Text, t.Size, wrap) {
		if (baseline - ascent).Ceil() >= ih {
			break
		}
		d.Dot = fixed.Point26_6{X: 0, Y: baseline}
		d.DrawString(line)
		baseline += step
	}
	return alphaSpans(mask), nil
}

// alphaSpans collects runs of equal quantized coverage.
func alphaSpans(mask *image.Alpha) []span {
	b := mask.Bounds()
	var spans []span
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[(y-b.Min.Y)*mask.Stride:]
		x := 0
		for x < b.Dx() {
			a := quantize(row[x])
			if a == 0 {
				x++
				continue
			}
			start := x
			for x < b.Dx() && quantize(row[x]) == a {
				x++
			}
			c := float32(a) / 255
			spans = append(spans, span{x0: start, x1: x, y: y - b.Min.Y, rgba: [4]float32{c, c, c, c}})
		}
	}
	return spans
}

// rasterizeImage scales the bitmap to w × h and returns its color spans.
func rasterizeImage(b *Bitmap, w, h float32) []span {
	iw, ih, ok := rasterExtent(w, h)
	if !ok || b.img.Bounds().Empty() {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, iw, ih))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), b.img, b.img.Bounds(), xdraw.Src, nil)

	var spans []span
	for y := range ih {
		row := dst.Pix[y*dst.Stride:]
		x := 0
		for x < iw {
			px := quantizePixel(row[x*4:])
			if px[3] == 0 {
				x++
				continue
			}
			start := x
			for x < iw && quantizePixel(row[x*4:]) == px {
				x++
			}
			spans = append(spans, span{x0: start, x1: x, y: y, rgba: [4]float32{
				float32(px[0]) / 255, float32(px[1]) / 255, float32(px[2]) / 255, float32(px[3]) / 255,
			}})
		}
	}
	return spans
}

// quantize drops the low bits of a channel so near-equal pixels merge
// into one span.
func quantize(v uint8) uint8 {
	if v < 8 {
		return 0
	}
	return v | 0x07
}

func quantizePixel(p []uint8) [4]uint8 {
	return [4]uint8{quantize(p[0]), quantize(p[1]), quantize(p[2]), quantize(p[3])}
}
