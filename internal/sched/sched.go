// Package sched provides the cooperative scheduling model of the embedding
// core: a single owning goroutine that runs all state transitions, plus
// one-shot and recurring timers whose callbacks are delivered onto that
// goroutine. Timers are explicitly stopped when no longer applicable so
// ticking never stacks.
package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer is the cancel handle of a scheduled task. Stop prevents any future
// firing; a callback already delivered to the owning goroutine but not yet
// run is suppressed as well. Stop is idempotent.
type Timer interface {
	Stop()
}

// Scheduler posts work to the owning goroutine and schedules timers whose
// callbacks run on that same goroutine.
type Scheduler interface {
	// Post queues f to run on the owning goroutine. It reports whether f
	// was accepted: a shut-down scheduler refuses work, and the caller must
	// release any resource the refused task would have handed over.
	Post(f func()) bool
	// After runs f once on the owning goroutine after d.
	After(d time.Duration, f func()) Timer
	// Every runs f on the owning goroutine every d until stopped.
	Every(d time.Duration, f func()) Timer
}

// Loop is the production Scheduler: a goroutine draining a task queue.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

var _ Scheduler = (*Loop)(nil)

// NewLoop creates a loop and starts its goroutine.
func NewLoop() *Loop {
	l := &Loop{
		tasks: make(chan func(), 256),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case f := <-l.tasks:
			f()
		case <-l.quit:
			// Drain what was already queued so Close has barrier semantics.
			for {
				select {
				case f := <-l.tasks:
					f()
				default:
					return
				}
			}
		}
	}
}

// Post queues f and reports whether it was accepted. Every accepted task
// runs, even when Close follows immediately; a refused task never does.
// Holding the lock across the send keeps the accept decision ordered
// against Close, so "accepted" is a guarantee and not a race.
func (l *Loop) Post(f func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.tasks <- f
	return true
}

// Close stops the loop after running already-queued tasks and waits for the
// goroutine to exit.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.quit)
	}
	l.mu.Unlock()
	<-l.done
}

// Wait posts f and blocks until it has run. Useful for reading loop-owned
// state from another goroutine.
func (l *Loop) Wait(f func()) {
	ran := make(chan struct{})
	l.Post(func() {
		f()
		close(ran)
	})
	select {
	case <-ran:
	case <-l.done:
	}
}

type onceTimer struct {
	stopped atomic.Bool
	t       *time.Timer
}

func (o *onceTimer) Stop() {
	o.stopped.Store(true)
	o.t.Stop()
}

func (l *Loop) After(d time.Duration, f func()) Timer {
	o := &onceTimer{}
	o.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if !o.stopped.Load() {
				f()
			}
		})
	})
	return o
}

type tickTimer struct {
	stopped atomic.Bool
	cancel  chan struct{}
	once    sync.Once
}

func (t *tickTimer) Stop() {
	t.stopped.Store(true)
	t.once.Do(func() { close(t.cancel) })
}

func (l *Loop) Every(d time.Duration, f func()) Timer {
	tt := &tickTimer{cancel: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Post(func() {
					if !tt.stopped.Load() {
						f()
					}
				})
			case <-tt.cancel:
				return
			case <-l.quit:
				return
			}
		}
	}()
	return tt
}
