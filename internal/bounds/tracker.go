// Package bounds keeps the native surface's rectangle in sync with the
// host container: it computes the parent-relative rectangle, suppresses
// updates whose value did not change, and optionally coalesces updates onto
// a fixed flush tick for platforms where native bounds calls are expensive.
package bounds

import (
	"time"

	"github.com/kestrelview/websurface/internal/sched"
	"github.com/kestrelview/websurface/surface"
)

// FlushInterval is the coalesced flush cadence, roughly one render frame.
const FlushInterval = 16 * time.Millisecond

// Compute returns the surface rectangle relative to the accepted parent.
// When the parent is an embeddable child surface the engine positions the
// surface itself, so it occupies its own full area. When the parent is a
// top-level window the host surface's origin is translated into window
// coordinates, minus the chrome insets.
func Compute(host surface.Host, parentIsWindow bool, insets surface.Insets) surface.Bounds {
	w, h := host.Size()
	if !parentIsWindow {
		return surface.Bounds{Width: w, Height: h}.Clamp()
	}
	x, y := host.LocationInWindow()
	return surface.Bounds{
		X:      x - insets.Left,
		Y:      y - insets.Top,
		Width:  w,
		Height: h,
	}.Clamp()
}

// Sink receives deduplicated bounds updates destined for the engine.
type Sink func(surface.Bounds)

// Tracker deduplicates and optionally coalesces bounds updates. All methods
// run on the owning goroutine.
type Tracker struct {
	scheduler sched.Scheduler
	send      Sink
	coalesce  bool

	last    *surface.Bounds // last value actually sent
	pending *surface.Bounds
	flush   sched.Timer
}

// New creates a tracker. With coalesce set, updates are buffered and
// flushed on a FlushInterval tick instead of being sent synchronously.
func New(scheduler sched.Scheduler, coalesce bool, send Sink) *Tracker {
	return &Tracker{scheduler: scheduler, send: send, coalesce: coalesce}
}

// Update pushes a new rectangle. Values equal to the last sent (or already
// pending) value are dropped.
func (t *Tracker) Update(b surface.Bounds) {
	b = b.Clamp()
	if t.pending != nil {
		if *t.pending == b {
			return
		}
		*t.pending = b
		return
	}
	if t.last != nil && *t.last == b {
		return
	}
	if !t.coalesce {
		t.sendNow(b)
		return
	}
	t.pending = &b
	if t.flush == nil {
		t.flush = t.scheduler.After(FlushInterval, t.flushPending)
	}
}

func (t *Tracker) flushPending() {
	t.flush = nil
	if t.pending == nil {
		return
	}
	b := *t.pending
	t.pending = nil
	if t.last != nil && *t.last == b {
		return
	}
	t.sendNow(b)
}

func (t *Tracker) sendNow(b surface.Bounds) {
	t.send(b)
	t.last = &b
}

// Reset forgets the last sent value and cancels any pending flush. Called
// when the surface is destroyed so a recreated surface always receives its
// first bounds.
func (t *Tracker) Reset() {
	if t.flush != nil {
		t.flush.Stop()
		t.flush = nil
	}
	t.pending = nil
	t.last = nil
}
