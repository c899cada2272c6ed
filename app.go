package canvas

// Application receives the frame lifecycle callbacks. All methods are
// called on the frame goroutine, one at a time.
//
// Embed BaseApplication to implement only the callbacks you need.
type Application interface {
	// OnResize is called when the canvas size changes, before the events
	// and the tick of that frame. Width and height are logical pixels.
	OnResize(ctx *Context, width, height float32)

	// OnTick is called once per frame after events and scheduled
	// callbacks. Draw the frame here.
	OnTick(ctx *Context)

	// OnMouse receives mouse events with logical coordinates.
	OnMouse(ctx *Context, ev MouseEvent)

	// OnKeyboard receives keyboard events.
	OnKeyboard(ctx *Context, ev KeyboardEvent)
}

// NewFunc builds the application once the canvas has its initial size.
type NewFunc func(ctx *Context, width, height float32) (Application, error)

// BaseApplication implements Application with no-op methods.
type BaseApplication struct{}

func (BaseApplication) OnResize(*Context, float32, float32) {}
func (BaseApplication) OnTick(*Context)                     {}
func (BaseApplication) OnMouse(*Context, MouseEvent)        {}
func (BaseApplication) OnKeyboard(*Context, KeyboardEvent)  {}
