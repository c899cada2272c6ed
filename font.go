package canvas

import (
	"bytes"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/canvas/internal/cache"
)

var resourceIDs atomic.Uint64

// advanceCacheSize bounds the memoized advance widths per font.
const advanceCacheSize = 4096

type advanceKey struct {
	text string
	size float32
}

// Font is a parsed TrueType or OpenType font.
//
// Font is safe for concurrent use. Shaping and rasterization create
// short-lived faces per call because faces carry mutable caches.
type Font struct {
	id     uint64
	shape  *gotext.Font
	raster *opentype.Font

	shapers  sync.Pool
	advances *cache.LRU[advanceKey, float32]
}

// ParseFont parses font data.
func ParseFont(data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidFont)
	}
	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFont, err)
	}
	raster, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFont, err)
	}
	f := &Font{
		id:       resourceIDs.Add(1),
		shape:    face.Font,
		raster:   raster,
		advances: cache.New[advanceKey, float32](advanceCacheSize),
	}
	f.shapers.New = func() any { return &shaping.HarfbuzzShaper{} }
	return f, nil
}

var (
	defaultFontOnce sync.Once
	defaultFont     *Font
)

// DefaultFont returns the Go Regular font.
func DefaultFont() *Font {
	defaultFontOnce.Do(func() {
		f, err := ParseFont(goregular.TTF)
		if err != nil {
			panic(fmt.Sprintf("canvas: parse embedded font: %v", err))
		}
		defaultFont = f
	})
	return defaultFont
}

// Advance returns the shaped width of text at the given pixel size.
// Results are memoized per font.
func (f *Font) Advance(text string, size float32) float32 {
	if text == "" || size <= 0 {
		return 0
	}
	return f.advances.GetOrCreate(advanceKey{text, size}, func() float32 {
		return f.shapeAdvance([]rune(text), size)
	})
}

func (f *Font) shapeAdvance(runes []rune, size float32) float32 {
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gotext.NewFace(f.shape),
		Size:      fixed.Int26_6(size * 64),
		Script:    scriptOf(runes),
		Language:  language.NewLanguage("en"),
	}
	shaper := f.shapers.Get().(*shaping.HarfbuzzShaper)
	out := shaper.Shape(input)
	f.shapers.Put(shaper)

	var adv fixed.Int26_6
	for _, g := range out.Glyphs {
		adv += g.Advance
	}
	return float32(adv) / 64
}

// scriptOf guesses the script from the first non-space rune.
func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// newFace returns a rasterizing face at the given pixel size. The caller
// must Close it.
func (f *Font) newFace(size float32) (xfont.Face, error) {
	return opentype.NewFace(f.raster, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
}

// Bitmap is a registered raster image.
type Bitmap struct {
	id  uint64
	img image.Image
}

// NewBitmap wraps img. The image must not be modified afterwards.
func NewBitmap(img image.Image) *Bitmap {
	return &Bitmap{id: resourceIDs.Add(1), img: img}
}

// Bounds returns the image bounds.
func (b *Bitmap) Bounds() image.Rectangle { return b.img.Bounds() }
