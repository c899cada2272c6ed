package canvas

import (
	"sync"

	"github.com/gogpu/gpucontext"
)

// Event is a KeyboardEvent or a MouseEvent.
type Event interface {
	isEvent()
}

// KeyState is the transition a keyboard event reports.
type KeyState uint8

const (
	KeyPressed KeyState = iota
	KeyReleased
)

// KeyboardEvent is a key transition.
type KeyboardEvent struct {
	Key    gpucontext.Key
	Mods   gpucontext.Modifiers
	State  KeyState
	Repeat bool
	Text   string // text produced by the key, if any
}

func (KeyboardEvent) isEvent() {}

// MouseState is the kind of a mouse event.
type MouseState uint8

const (
	MouseMoved MouseState = iota
	MousePressed
	MouseReleased
	MouseScrolled
)

// MouseButton identifies the button of a press or release.
type MouseButton uint8

const (
	MouseButtonNone MouseButton = iota
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle
)

// MouseEvent is a pointer event. Producers enqueue X and Y in physical
// pixels; the application receives them in logical pixels. Scroll
// deltas are passed through as reported by the platform.
type MouseEvent struct {
	State            MouseState
	Button           MouseButton
	X, Y             float32
	ScrollX, ScrollY float32
}

func (MouseEvent) isEvent() {}

// logical returns e with its position converted to logical pixels.
func (e MouseEvent) logical(s Size) MouseEvent {
	e.X, e.Y = s.PointToLogical(e.X, e.Y)
	return e
}

// EventQueue buffers input between frames. Enqueue may be called from
// any goroutine; the Runner drains the whole buffer once per frame, so
// events enqueued while a batch is dispatched wait for the next frame.
type EventQueue struct {
	mu     sync.Mutex
	events []Event
	spare  []Event
}

// Enqueue appends ev. Nil events are ignored.
func (q *EventQueue) Enqueue(ev Event) {
	if ev == nil {
		return
	}
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

// Len returns the number of buffered events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// drain takes every buffered event in arrival order. The returned slice
// stays valid until the next drain.
func (q *EventQueue) drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = q.spare[:0]
	q.spare = out
	return out
}
