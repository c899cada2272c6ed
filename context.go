package canvas

import (
	"image"
	"time"
)

// Context is the application's handle to the canvas. It accumulates the
// items of the current frame and gives access to the shared State, the
// scheduler and resource registration.
//
// Context belongs to the frame goroutine and is not safe for concurrent
// use. Scheduled tasks must not call it; they return callbacks instead.
type Context struct {
	size  Size
	items []Item
	draws int

	pointerX, pointerY float32

	state *State
	sched *Scheduler
	atlas Atlas
}

func newContext(size Size, state *State, sched *Scheduler, atlas Atlas) *Context {
	return &Context{size: size, state: state, sched: sched, atlas: atlas}
}

// Clear discards everything drawn so far in this frame and starts the
// frame with a full-canvas background of color c at MaxZ.
func (c *Context) Clear(col Color) {
	c.items = c.items[:0]
	c.draws = 0
	c.items = append(c.items, Item{
		Rect:     Fullscreen().resolve(c.size, MaxZ),
		Drawable: Rectangle(col).resolve(c.size),
	})
}

// Draw appends d placed at area. Each call is drawn in front of the
// previous ones: its depth is MaxZ-1 minus the number of earlier Draw
// calls this frame, saturating at 0, unless area carries an explicit Z.
// Degenerate areas are recorded unchanged.
func (c *Context) Draw(area Area, d Drawable) {
	if d == nil {
		return
	}
	z := max(MaxZ-1-c.draws, 0)
	c.draws++
	c.items = append(c.items, Item{
		Rect:     area.resolve(c.size, uint16(z)), //nolint:gosec // clamped to [0, MaxZ-1]
		Drawable: d.resolve(c.size),
	})
}

// Len returns the number of items recorded this frame.
func (c *Context) Len() int { return len(c.items) }

// drain hands over the frame's items and resets the accumulator.
func (c *Context) drain() []Item {
	items := c.items
	c.items = nil
	c.draws = 0
	return items
}

// Size returns the current canvas size.
func (c *Context) Size() Size { return c.size }

// Width returns the canvas width in logical pixels.
func (c *Context) Width() float32 {
	w, _ := c.size.Logical()
	return w
}

// Height returns the canvas height in logical pixels.
func (c *Context) Height() float32 {
	_, h := c.size.Logical()
	return h
}

// Pointer returns the last known pointer position in logical pixels.
func (c *Context) Pointer() (float32, float32) {
	return c.pointerX, c.pointerY
}

// State returns the shared store.
func (c *Context) State() *State { return c.state }

// Schedule runs task on a worker once delay has elapsed. See Task.
func (c *Context) Schedule(delay time.Duration, task Task) *Handle {
	return c.sched.Schedule(delay, task)
}

// NewFont parses font data and registers it with the atlas.
func (c *Context) NewFont(data []byte) (*Font, error) {
	f, err := ParseFont(data)
	if err != nil {
		return nil, err
	}
	c.atlas.RegisterFont(f)
	return f, nil
}

// NewImage registers img with the atlas.
func (c *Context) NewImage(img image.Image) *Bitmap {
	b := NewBitmap(img)
	c.atlas.RegisterBitmap(b)
	return b
}
