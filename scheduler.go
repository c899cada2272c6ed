package canvas

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/canvas/internal/parallel"
)

// Callback mutates the shared State. Callbacks run on the frame goroutine.
type Callback func(*State)

// Outcome is what a task run yields: an optional callback and whether,
// and after how long, the task runs again.
type Outcome struct {
	callback Callback
	again    bool
	delay    time.Duration
}

// Again schedules another run after delay and queues cb.
func Again(delay time.Duration, cb Callback) Outcome {
	return Outcome{callback: cb, again: true, delay: max(delay, 0)}
}

// Stop ends the task after queueing cb.
func Stop(cb Callback) Outcome {
	return Outcome{callback: cb}
}

// Task is a unit of background work. It runs on a worker goroutine and
// must not touch the State or the Context; it reports its effect through
// the Outcome's callback. ctx is cancelled when the scheduler closes or
// the per-run timeout expires.
type Task func(ctx context.Context) Outcome

// Scheduler runs tasks off the frame goroutine and collects their
// callbacks. A task never runs concurrently with itself: a run completes
// and queues its callback before the next run is armed.
type Scheduler struct {
	pool    *parallel.Pool
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	mu      sync.Mutex
	pending []Callback
	handles map[*Handle]struct{}
	closed  bool

	// wg counts armed timers and in-flight runs.
	wg sync.WaitGroup
}

// NewScheduler starts a scheduler with the given number of workers
// (GOMAXPROCS when workers <= 0). A positive timeout bounds each run
// through its context.
func NewScheduler(workers int, timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		pool:    parallel.NewPool(workers),
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
		handles: make(map[*Handle]struct{}),
	}
}

// Handle identifies a scheduled task.
type Handle struct {
	s    *Scheduler
	task Task

	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
	finished  bool

	runs atomic.Int64
	done chan struct{}
}

// Schedule registers task to run once delay has elapsed. After Close the
// returned handle is already done and the task never runs.
func (s *Scheduler) Schedule(delay time.Duration, task Task) *Handle {
	h := &Handle{s: s, task: task, done: make(chan struct{})}

	s.mu.Lock()
	if s.closed || task == nil {
		s.mu.Unlock()
		h.finished, h.cancelled = true, true
		close(h.done)
		return h
	}
	s.handles[h] = struct{}{}
	s.mu.Unlock()

	h.arm(max(delay, 0))
	return h
}

// arm starts the timer for the next run.
func (h *Handle) arm(delay time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		h.finishLocked()
		return
	}
	h.s.wg.Add(1)
	h.timer = time.AfterFunc(delay, func() {
		if !h.s.pool.Submit(h.run) {
			h.s.wg.Done()
			h.finish()
		}
	})
}

// run executes one invocation on a worker.
func (h *Handle) run() {
	s := h.s
	defer s.wg.Done()

	h.mu.Lock()
	cancelled := h.cancelled
	h.mu.Unlock()
	if cancelled || s.ctx.Err() != nil {
		h.finish()
		return
	}

	ctx, cancel := s.ctx, context.CancelFunc(func() {})
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(s.ctx, s.timeout)
	}
	out, err := h.invoke(ctx)
	cancel()
	if err != nil {
		Logger().Error("scheduled task failed; dropping it", "err", err, "runs", h.runs.Load())
		h.finish()
		return
	}
	h.runs.Add(1)
	if out.callback != nil {
		s.enqueue(out.callback)
	}
	if out.again {
		h.arm(out.delay)
		return
	}
	h.finish()
}

// invoke runs the task and turns a panic into an error.
func (h *Handle) invoke(ctx context.Context) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return h.task(ctx), nil
}

func (h *Handle) finish() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finishLocked()
}

func (h *Handle) finishLocked() {
	if h.finished {
		return
	}
	h.finished = true
	close(h.done)
	h.s.mu.Lock()
	delete(h.s.handles, h)
	h.s.mu.Unlock()
}

// Cancel stops future runs of the task. A run already in progress
// completes and its callback is still applied, but it is not rescheduled.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return
	}
	h.cancelled = true
	if h.timer != nil && h.timer.Stop() {
		// The timer had not fired, so no run holds the count.
		h.s.wg.Done()
		h.finishLocked()
	}
}

// Done is closed once the task will never run again.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Runs returns the number of completed runs.
func (h *Handle) Runs() int { return int(h.runs.Load()) }

func (s *Scheduler) enqueue(cb Callback) {
	s.mu.Lock()
	s.pending = append(s.pending, cb)
	s.mu.Unlock()
}

// Pending returns the number of callbacks waiting to be applied.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// drain takes every queued callback in arrival order.
func (s *Scheduler) drain() []Callback {
	s.mu.Lock()
	defer s.mu.Unlock()
	cbs := s.pending
	s.pending = nil
	return cbs
}

// apply runs the queued callbacks against st in arrival order. A panicking
// callback is logged and skipped; the rest still run.
func (s *Scheduler) apply(st *State) int {
	cbs := s.drain()
	for _, cb := range cbs {
		applyCallback(cb, st)
	}
	return len(cbs)
}

func applyCallback(cb Callback, st *State) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("state callback panicked", "panic", r)
		}
	}()
	cb(st)
}

// Close cancels every task, cancels the context of runs in progress and
// waits for them to return. Callbacks queued before Close can still be
// applied. Close is safe to call more than once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	handles := make([]*Handle, 0, len(s.handles))
	for h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	s.cancel()
	for _, h := range handles {
		h.Cancel()
	}
	s.wg.Wait()
	s.pool.Close()
}
