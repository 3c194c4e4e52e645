package sched

import (
	"sync"
	"time"
)

// Manual is a deterministic Scheduler for tests. Time only moves when
// Advance is called, and due timers fire in deadline order during the
// advance. Posting is safe from any goroutine (off-thread creation posts
// its completion), but Advance and Flush must come from the test
// goroutine; callbacks run on it, preserving the owning-goroutine model.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	queue  []func()
	timers []*manualTimer
}

var _ Scheduler = (*Manual)(nil)

type manualTimer struct {
	deadline time.Time
	period   time.Duration // 0 for one-shot
	f        func()

	mu      sync.Mutex
	stopped bool
}

func (t *manualTimer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *manualTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// NewManual creates a manual scheduler starting at an arbitrary fixed time.
func NewManual() *Manual {
	return &Manual{now: time.Unix(1_700_000_000, 0)}
}

// Now returns the scheduler's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns how many posted tasks await a Flush or Advance.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Manual) Post(f func()) bool {
	m.mu.Lock()
	m.queue = append(m.queue, f)
	m.mu.Unlock()
	return true
}

func (m *Manual) After(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{deadline: m.now.Add(d), f: f}
	m.timers = append(m.timers, t)
	return t
}

func (m *Manual) Every(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{deadline: m.now.Add(d), period: d, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Flush runs everything posted so far, including work posted by that work.
func (m *Manual) Flush() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		f := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		f()
	}
}

// Advance moves time forward by d, firing due timers in deadline order and
// running posted work as it appears.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()
	for {
		m.Flush()
		next := m.takeDue(target)
		if next == nil {
			break
		}
		next.f()
	}
	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
	m.Flush()
}

// takeDue picks the unstopped timer with the earliest deadline <= target,
// advances the clock to it, re-arms it when periodic, and returns it.
// Stopped timers are pruned on the way.
func (m *Manual) takeDue(target time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.timers[:0]
	var next *manualTimer
	for _, t := range m.timers {
		if t.isStopped() {
			continue
		}
		kept = append(kept, t)
		if t.deadline.After(target) {
			continue
		}
		if next == nil || t.deadline.Before(next.deadline) {
			next = t
		}
	}
	m.timers = kept
	if next == nil {
		return nil
	}

	m.now = next.deadline
	if next.period > 0 {
		next.deadline = next.deadline.Add(next.period)
	} else {
		for i, t := range m.timers {
			if t == next {
				m.timers = append(m.timers[:i], m.timers[i+1:]...)
				break
			}
		}
	}
	return next
}
