package canvas

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func newTestScheduler(t *testing.T, timeout time.Duration) *Scheduler {
	t.Helper()
	s := NewScheduler(2, timeout)
	t.Cleanup(s.Close)
	return s
}

func TestScheduleStopRunsOnce(t *testing.T) {
	s := newTestScheduler(t, 0)
	st := NewState()
	hits := NewField("hits", 0)

	h := s.Schedule(0, func(context.Context) Outcome {
		return Stop(func(st *State) { hits.Update(st, func(n int) int { return n + 1 }) })
	})

	select {
	case <-h.Done():
	case <-time.After(waitFor):
		t.Fatal("task did not finish")
	}
	assert.Equal(t, 1, h.Runs())
	assert.Equal(t, 1, s.apply(st))
	assert.Equal(t, 1, hits.Get(st))

	// A stopped task never runs again.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 1, h.Runs())
}

func TestScheduleAgainRespectsDelay(t *testing.T) {
	s := newTestScheduler(t, 0)
	var stamps []time.Time
	var runs atomic.Int32
	done := make(chan []time.Time, 1)

	s.Schedule(0, func(context.Context) Outcome {
		stamps = append(stamps, time.Now())
		if runs.Add(1) == 3 {
			done <- stamps
			return Stop(nil)
		}
		return Again(30*time.Millisecond, nil)
	})

	var got []time.Time
	select {
	case got = <-done:
	case <-time.After(waitFor):
		t.Fatal("task did not run three times")
	}
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].Sub(got[i-1]), 30*time.Millisecond)
	}
}

func TestCallbacksAppliedOnceInOrder(t *testing.T) {
	s := newTestScheduler(t, 0)
	st := NewState()
	log := NewField("log", []int(nil))

	// Completions are serialized through one task so the order is known.
	var n atomic.Int32
	h := s.Schedule(0, func(context.Context) Outcome {
		i := int(n.Add(1))
		cb := func(st *State) { log.Update(st, func(l []int) []int { return append(l, i) }) }
		if i == 5 {
			return Stop(cb)
		}
		return Again(time.Millisecond, cb)
	})
	select {
	case <-h.Done():
	case <-time.After(waitFor):
		t.Fatal("task did not finish")
	}

	assert.Equal(t, 5, s.apply(st))
	assert.Equal(t, 0, s.apply(st))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, log.Get(st))
}

func TestTaskDoesNotOverlapItself(t *testing.T) {
	s := newTestScheduler(t, 0)
	var active, overlaps, runs atomic.Int32

	h := s.Schedule(0, func(context.Context) Outcome {
		if active.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
		if runs.Add(1) == 10 {
			return Stop(nil)
		}
		return Again(0, nil)
	})
	select {
	case <-h.Done():
	case <-time.After(waitFor):
		t.Fatal("task did not finish")
	}
	assert.Zero(t, overlaps.Load())
}

func TestPanickingTaskIsDropped(t *testing.T) {
	s := newTestScheduler(t, 0)
	h := s.Schedule(0, func(context.Context) Outcome {
		panic("boom")
	})
	select {
	case <-h.Done():
	case <-time.After(waitFor):
		t.Fatal("panicking task was not finished")
	}
	assert.Equal(t, 0, h.Runs())

	// The scheduler keeps working.
	ok := s.Schedule(0, func(context.Context) Outcome { return Stop(func(*State) {}) })
	require.Eventually(t, func() bool { return s.Pending() == 1 }, waitFor, time.Millisecond)
	<-ok.Done()
}

func TestPanickingCallbackIsSkipped(t *testing.T) {
	s := newTestScheduler(t, 0)
	st := NewState()
	after := NewField("after", false)

	s.enqueue(func(*State) { panic("bad callback") })
	s.enqueue(func(st *State) { after.Set(st, true) })

	assert.Equal(t, 2, s.apply(st))
	assert.True(t, after.Get(st))
}

func TestCancelBeforeRun(t *testing.T) {
	s := newTestScheduler(t, 0)
	var ran atomic.Bool
	h := s.Schedule(time.Hour, func(context.Context) Outcome {
		ran.Store(true)
		return Stop(nil)
	})
	h.Cancel()

	select {
	case <-h.Done():
	case <-time.After(waitFor):
		t.Fatal("cancelled handle not done")
	}
	assert.False(t, ran.Load())
}

func TestCancelStopsRepeating(t *testing.T) {
	s := newTestScheduler(t, 0)
	h := s.Schedule(0, func(context.Context) Outcome {
		return Again(time.Millisecond, nil)
	})
	require.Eventually(t, func() bool { return h.Runs() >= 2 }, waitFor, time.Millisecond)
	h.Cancel()

	select {
	case <-h.Done():
	case <-time.After(waitFor):
		t.Fatal("cancelled handle not done")
	}
	runs := h.Runs()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, runs, h.Runs())
}

func TestTaskTimeoutCancelsContext(t *testing.T) {
	s := newTestScheduler(t, 10*time.Millisecond)
	st := NewState()
	result := NewField("result", "")

	h := s.Schedule(0, func(ctx context.Context) Outcome {
		select {
		case <-ctx.Done():
			return Stop(func(st *State) { result.Set(st, ctx.Err().Error()) })
		case <-time.After(waitFor):
			return Stop(func(st *State) { result.Set(st, "not cancelled") })
		}
	})
	<-h.Done()
	s.apply(st)
	assert.Equal(t, context.DeadlineExceeded.Error(), result.Get(st))
}

func TestCloseCancelsEverything(t *testing.T) {
	s := NewScheduler(2, 0)
	started := make(chan struct{})
	var sawCancel atomic.Bool

	running := s.Schedule(0, func(ctx context.Context) Outcome {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
		return Again(0, nil)
	})
	waiting := s.Schedule(time.Hour, func(context.Context) Outcome { return Stop(nil) })
	<-started

	s.Close()

	assert.True(t, sawCancel.Load())
	for _, h := range []*Handle{running, waiting} {
		select {
		case <-h.Done():
		default:
			t.Error("handle not done after Close")
		}
	}

	late := s.Schedule(0, func(context.Context) Outcome { return Stop(nil) })
	select {
	case <-late.Done():
	default:
		t.Error("Schedule after Close should return a done handle")
	}
	s.Close()
}
