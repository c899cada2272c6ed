package canvas

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gogpu/canvas/internal/cache"
	"github.com/gogpu/canvas/internal/parallel"
	"github.com/gogpu/canvas/mesh"
)

// Atlas turns a frame's items into meshes. Fonts and bitmaps must be
// registered before items referencing them are meshed.
//
// Mesh is called once per frame from the frame goroutine. The returned
// meshes are in item order and are only read until the next call.
type Atlas interface {
	RegisterFont(f *Font)
	RegisterBitmap(b *Bitmap)
	Mesh(items []Item, size Size) ([]mesh.Mesh, error)
}

// rasterKey identifies one rasterization. Items that resolve to the same
// key share a cache entry across frames.
type rasterKey struct {
	resource uint64
	text     string
	size     float32
	line     float32
	wrap     float32
	w, h     float32
}

// DefaultAtlas tessellates shapes directly and rasterizes text and images
// into spans on a worker pool. Rasterizations are cached until a frame
// no longer uses them.
type DefaultAtlas struct {
	pool *parallel.Pool

	mu      sync.Mutex
	fonts   map[uint64]*Font
	bitmaps map[uint64]*Bitmap

	cache map[rasterKey]*raster
	frame uint64
}

// NewAtlas returns an atlas rasterizing on the given number of workers.
// Zero or negative means GOMAXPROCS. The default font is registered.
func NewAtlas(workers int) *DefaultAtlas {
	a := &DefaultAtlas{
		pool:    parallel.NewPool(workers),
		fonts:   make(map[uint64]*Font),
		bitmaps: make(map[uint64]*Bitmap),
		cache:   make(map[rasterKey]*raster),
	}
	a.RegisterFont(DefaultFont())
	return a
}

// RegisterFont makes f available to Text items.
func (a *DefaultAtlas) RegisterFont(f *Font) {
	if f == nil {
		return
	}
	a.mu.Lock()
	a.fonts[f.id] = f
	a.mu.Unlock()
}

// RegisterBitmap makes b available to Image items.
func (a *DefaultAtlas) RegisterBitmap(b *Bitmap) {
	if b == nil {
		return
	}
	a.mu.Lock()
	a.bitmaps[b.id] = b
	a.mu.Unlock()
}

func (a *DefaultAtlas) hasFont(f *Font) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fonts[f.id] == f
}

func (a *DefaultAtlas) hasBitmap(b *Bitmap) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bitmaps[b.id] == b
}

// Cached returns the number of cached rasterizations.
func (a *DefaultAtlas) Cached() int { return len(a.cache) }

// pending is a raster item waiting for its spans.
type pending struct {
	index int
	key   rasterKey
	tint  [4]float32
}

// Mesh implements Atlas. Items with an empty rectangle, an unregistered
// resource or an unknown drawable are skipped.
func (a *DefaultAtlas) Mesh(items []Item, _ Size) ([]mesh.Mesh, error) {
	a.frame++
	out := make([]mesh.Mesh, len(items))
	var waiting []pending
	var jobs []func()
	var (
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	for i, it := range items {
		if it.Rect.Empty() {
			continue
		}
		switch d := it.Drawable.(type) {
		case Shape:
			out[i] = tessellateShape(d, it.Rect)

		case Text:
			font := d.Font
			if font == nil {
				font = DefaultFont()
			}
			if !a.hasFont(font) {
				Logger().Warn("canvas: text uses unregistered font", "item", i)
				continue
			}
			key := rasterKey{
				resource: font.id, text: d.Text, size: d.Size, line: d.LineHeight,
				wrap: d.MaxWidth, w: it.Rect.Width, h: it.Rect.Height,
			}
			if r := a.lookup(key); r == nil {
				r = &raster{frame: a.frame}
				a.cache[key] = r
				jobs = append(jobs, func() {
					spans, err := rasterizeText(d, font, key.w, key.h)
					if err != nil {
						r.err = err
						fail(err)
						return
					}
					r.spans = spans
				})
			}
			waiting = append(waiting, pending{index: i, key: key, tint: d.Color.Premultiplied()})

		case Image:
			if d.Bitmap == nil || !a.hasBitmap(d.Bitmap) {
				Logger().Warn("canvas: image uses unregistered bitmap", "item", i)
				continue
			}
			w, h := d.Width, d.Height
			if w <= 0 || h <= 0 {
				w, h = it.Rect.Width, it.Rect.Height
			}
			key := rasterKey{resource: d.Bitmap.id, w: w, h: h}
			if r := a.lookup(key); r == nil {
				r = &raster{frame: a.frame}
				a.cache[key] = r
				bm := d.Bitmap
				jobs = append(jobs, func() {
					r.spans = rasterizeImage(bm, key.w, key.h)
				})
			}
			waiting = append(waiting, pending{index: i, key: key, tint: [4]float32{1, 1, 1, 1}})

		default:
			Logger().Warn("canvas: unknown drawable", "item", i)
		}
	}

	if len(jobs) > 0 {
		a.pool.ExecuteAll(jobs)
	}
	for _, p := range waiting {
		out[p.index] = spanMesh(a.cache[p.key].spans, items[p.index].Rect, p.tint)
	}
	a.evict()
	a.logStats(len(jobs))

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// lookup returns the cached raster for key and marks it used this frame.
func (a *DefaultAtlas) lookup(key rasterKey) *raster {
	r := a.cache[key]
	if r != nil {
		r.frame = a.frame
	}
	return r
}

// evict drops rasterizations the current frame did not use, and failed
// ones so they are retried.
func (a *DefaultAtlas) evict() {
	for k, r := range a.cache {
		if r.frame != a.frame || r.err != nil {
			delete(a.cache, k)
		}
	}
}

// logStats reports raster cache occupancy and advance-width memoization
// across the registered fonts.
func (a *DefaultAtlas) logStats(rasterized int) {
	l := Logger()
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	var advances cache.Stats
	a.mu.Lock()
	for _, f := range a.fonts {
		st := f.advances.Stats()
		advances.Len += st.Len
		advances.Hits += st.Hits
		advances.Misses += st.Misses
		advances.Evictions += st.Evictions
	}
	a.mu.Unlock()
	l.Debug("atlas",
		"frame", a.frame,
		"rasterized", rasterized,
		"cached", len(a.cache),
		"advances", advances.Len,
		"advance_evictions", advances.Evictions,
		"advance_hit_rate", advances.HitRate())
}

// Close stops the rasterization workers.
func (a *DefaultAtlas) Close() error {
	a.pool.Close()
	return nil
}
