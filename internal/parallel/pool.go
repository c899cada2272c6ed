package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of worker goroutines.
//
// Each worker owns a buffered queue and, when it runs dry, steals from the
// other queues, so one slow task does not hold back work queued behind it.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()

	// wake nudges idle workers to look for work to steal.
	wake chan struct{}

	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// inflight counts work items that have been queued but not finished.
	inflight atomic.Int64
}

// NewPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		wake:    make(chan struct{}, workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.loop(i)
	}
	return p
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case fn := <-own:
			p.exec(fn)
		default:
			if fn := p.steal(id); fn != nil {
				p.exec(fn)
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case fn := <-own:
				p.exec(fn)
			case <-p.wake:
			}
		}
	}
}

func (p *Pool) exec(fn func()) {
	if fn == nil {
		return
	}
	defer p.inflight.Add(-1)
	fn()
}

// drain runs whatever is left in a queue at shutdown.
func (p *Pool) drain(queue chan func()) {
	for {
		select {
		case fn := <-queue:
			p.exec(fn)
		default:
			return
		}
	}
}

// steal takes one item from another worker's queue, or returns nil.
func (p *Pool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case fn := <-p.queues[i]:
			return fn
		default:
		}
	}
	return nil
}

// Submit queues fn on the least loaded worker. It blocks while every queue
// is full. Submit reports whether fn was accepted; after Close it returns
// false and fn never runs.
func (p *Pool) Submit(fn func()) bool {
	if fn == nil || !p.running.Load() {
		return false
	}

	idx := 0
	shortest := len(p.queues[0])
	for i := 1; i < p.workers; i++ {
		if n := len(p.queues[i]); n < shortest {
			shortest, idx = n, i
		}
	}

	p.inflight.Add(1)
	select {
	case p.queues[idx] <- fn:
		p.notify()
		return true
	case <-p.done:
		p.inflight.Add(-1)
		return false
	}
}

// ExecuteAll runs every item on the pool and waits for all of them.
// After Close the items run on the calling goroutine instead.
func (p *Pool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() {
		for _, fn := range work {
			fn()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		item := func() {
			defer wg.Done()
			fn()
		}
		p.inflight.Add(1)
		select {
		case p.queues[i%p.workers] <- item:
			p.notify()
		case <-p.done:
			p.inflight.Add(-1)
			item()
		}
	}
	wg.Wait()
}

func (p *Pool) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting work, runs what is already queued and waits for
// the workers to exit. Close is safe to call multiple times.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return p.workers }

// IsRunning reports whether the pool accepts work.
func (p *Pool) IsRunning() bool { return p.running.Load() }

// Inflight returns the number of queued or running items.
func (p *Pool) Inflight() int { return int(p.inflight.Load()) }
