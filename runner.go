package canvas

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gogpu/canvas/mesh"
)

// Renderer draws the meshes of a frame. *SurfaceRenderer implements it.
type Renderer interface {
	// Resize configures the target for the given physical size and
	// reports whether the configuration changed. The applied size, which
	// may be clamped, is reported by Size.
	Resize(width, height int) (bool, error)

	// Size returns the configured physical size.
	Size() (uint32, uint32)

	// Prepare uploads the frame's geometry.
	Prepare(meshes []mesh.Mesh, vp mesh.Viewport) error

	// Render draws and presents the prepared frame.
	Render() error
}

// Runner drives frames: it owns the Context, the State, the Scheduler and
// the event queue, and calls the Application in a fixed order. A Runner
// is driven from a single goroutine; only Enqueue may be called from
// others.
type Runner struct {
	renderer Renderer
	atlas    Atlas
	ownAtlas bool

	app    Application
	ctx    *Context
	state  *State
	sched  *Scheduler
	events EventQueue

	size   Size
	frames uint64
	closed bool
}

// NewRunner configures renderer for the initial physical size, creates
// the Context and builds the application with newApp.
func NewRunner(renderer Renderer, newApp NewFunc, width, height int, ratio float64, opts ...Option) (*Runner, error) {
	o := applyOptions(opts)
	if o.logger != nil {
		SetLogger(o.logger)
	}

	r := &Runner{
		renderer: renderer,
		atlas:    o.atlas,
		state:    NewState(),
		sched:    NewScheduler(o.workers, o.taskTimeout),
	}
	if r.atlas == nil {
		r.atlas = NewAtlas(o.workers)
		r.ownAtlas = true
	}

	size, err := r.resize(width, height, ratio)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.size = size
	r.ctx = newContext(size, r.state, r.sched, r.atlas)

	lw, lh := size.Logical()
	app, err := newApp(r.ctx, lw, lh)
	if err == nil && app == nil {
		err = ErrNoApplication
	}
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("create application: %w", err)
	}
	r.app = app
	return r, nil
}

// resize applies a requested physical size to the renderer and returns
// the Size the renderer actually holds. A degenerate request leaves the
// renderer as it is.
func (r *Runner) resize(width, height int, ratio float64) (Size, error) {
	if _, err := r.renderer.Resize(width, height); err != nil {
		return Size{}, fmt.Errorf("resize to %dx%d: %w", width, height, err)
	}
	w, h := r.renderer.Size()
	return NewSize(int(w), int(h), ratio), nil
}

// Frame runs one frame for the given physical window size and ratio:
//
//  1. resize, and OnResize when the size changed; a zero or negative
//     width or height skips this step
//  2. queued events
//  3. scheduled callbacks
//  4. OnTick
//  5. mesh and render the items drawn since the previous frame
//
// A frame whose surface texture could not be acquired is logged and
// dropped without error. Any other error is returned.
func (r *Runner) Frame(width, height int, ratio float64) error {
	if r.closed {
		return ErrClosed
	}
	start := time.Now()

	// A degenerate request keeps the current configuration, ratio included.
	if width > 0 && height > 0 {
		size, err := r.resize(width, height, ratio)
		if err != nil {
			return err
		}
		if !size.Equal(r.size) {
			r.size = size
			r.ctx.size = size
			lw, lh := size.Logical()
			r.app.OnResize(r.ctx, lw, lh)
		}
	}

	events := r.dispatch()
	callbacks := r.sched.apply(r.state)
	r.app.OnTick(r.ctx)
	items := r.ctx.drain()

	meshes, err := r.atlas.Mesh(items, r.size)
	if err != nil {
		return fmt.Errorf("mesh frame: %w", err)
	}

	if !r.size.IsZero() {
		pw, ph := r.size.Physical()
		lw, lh := r.size.Logical()
		vp := mesh.Viewport{
			Width:         uint32(pw), //nolint:gosec // non-negative by construction
			Height:        uint32(ph), //nolint:gosec // non-negative by construction
			LogicalWidth:  lw,
			LogicalHeight: lh,
		}
		if err := r.renderer.Prepare(meshes, vp); err != nil {
			return fmt.Errorf("prepare frame: %w", err)
		}
		if err := r.renderer.Render(); err != nil {
			if !errors.Is(err, ErrFrameSkipped) {
				return fmt.Errorf("render frame: %w", err)
			}
			Logger().Warn("frame skipped", "err", err)
		}
	}

	r.frames++
	Logger().Debug("frame",
		"n", r.frames,
		"size", r.size.String(),
		"events", events,
		"callbacks", callbacks,
		"items", len(items),
		"vertices", mesh.VertexCount(meshes),
		"elapsed", time.Since(start))
	return nil
}

// dispatch delivers the queued events and returns how many there were.
func (r *Runner) dispatch() int {
	events := r.events.drain()
	for _, ev := range events {
		switch e := ev.(type) {
		case MouseEvent:
			e = e.logical(r.size)
			r.ctx.pointerX, r.ctx.pointerY = e.X, e.Y
			r.app.OnMouse(r.ctx, e)
		case KeyboardEvent:
			r.app.OnKeyboard(r.ctx, e)
		}
	}
	return len(events)
}

// Enqueue queues ev for the next frame. It is safe to call from any
// goroutine. Mouse positions are in physical pixels.
func (r *Runner) Enqueue(ev Event) { r.events.Enqueue(ev) }

// Events returns the event queue.
func (r *Runner) Events() *EventQueue { return &r.events }

// Context returns the application context.
func (r *Runner) Context() *Context { return r.ctx }

// State returns the shared store.
func (r *Runner) State() *State { return r.state }

// Scheduler returns the task scheduler.
func (r *Runner) Scheduler() *Scheduler { return r.sched }

// Size returns the current canvas size.
func (r *Runner) Size() Size { return r.size }

// Frames returns the number of completed frames.
func (r *Runner) Frames() uint64 { return r.frames }

// Close stops the scheduler and releases the atlas the Runner created.
// The renderer belongs to the caller. Close is safe to call more than once.
func (r *Runner) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.sched.Close()
	if r.ownAtlas {
		if c, ok := r.atlas.(io.Closer); ok {
			_ = c.Close()
		}
	}
}
