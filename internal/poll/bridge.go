// Package poll implements the bridge that drains the engine's surface
// state into host-observable fields on a fixed tick. The engine exposes no
// push callbacks for URL, title, loading, or queued messages, so polling is
// the design, not a workaround.
package poll

import (
	"log/slog"
	"time"

	"github.com/kestrelview/websurface/engine"
)

// Interval is the poll cadence.
const Interval = 250 * time.Millisecond

// Synthesized progress parameters. The engine reports loading as a boolean,
// so progress is a heuristic indicator: it starts at progressStart on a new
// load, grows by progressStep per tick, and never passes progressCap until
// the load completes.
const (
	progressStart = 0.1
	progressStep  = 0.02
	progressCap   = 0.9
)

// Status distinguishes "no surface yet" from page loading states.
type Status int

const (
	// StatusInitializing means the native surface does not exist yet.
	StatusInitializing Status = iota
	// StatusLoading means a page load is in flight.
	StatusLoading
	// StatusIdle means the current page finished loading.
	StatusIdle
)

// Snapshot is the host-observable surface state.
type Snapshot struct {
	Status       Status
	Progress     float64
	URL          string
	Title        string
	CanGoBack    bool
	CanGoForward bool
}

// Sink receives state snapshots and inbound page messages.
type Sink interface {
	// UpdateState is called whenever the observed state changes.
	UpdateState(Snapshot)
	// HandleMessage is called once per drained inbound message, in order.
	HandleMessage(msg string)
}

// Bridge polls one surface. All methods run on the owning goroutine; the
// handle is borrowed per call and never retained.
type Bridge struct {
	eng  engine.Engine
	log  *slog.Logger
	sink Sink

	snap    Snapshot
	seenURL bool
}

// New creates a bridge and pushes the initializing state to the sink.
func New(eng engine.Engine, log *slog.Logger, sink Sink) *Bridge {
	b := &Bridge{eng: eng, log: log, sink: sink}
	b.Reset()
	return b
}

// Snapshot returns the last pushed state.
func (b *Bridge) Snapshot() Snapshot {
	return b.snap
}

// Reset reverts to the initializing state, as reported while no handle
// exists. Pushed unconditionally so a recreated surface never shows stale
// page state.
func (b *Bridge) Reset() {
	b.snap = Snapshot{Status: StatusInitializing}
	b.seenURL = false
	b.sink.UpdateState(b.snap)
}

// Tick performs one poll pass against the ready handle: loading state and
// synthesized progress, URL and title adoption, navigation flags, and the
// message drain. Engine errors are logged and answered with safe defaults.
func (b *Bridge) Tick(h engine.Handle) {
	next := b.snap

	loading, err := b.eng.IsLoading(h)
	if err != nil {
		b.log.Debug("poll: loading query failed", "error", err)
		loading = false
	}
	if loading {
		if next.Status == StatusLoading {
			next.Progress = min(next.Progress+progressStep, progressCap)
		} else {
			next.Progress = progressStart
		}
		next.Status = StatusLoading
	} else {
		next.Status = StatusIdle
		next.Progress = 1.0
	}

	if url, err := b.eng.URL(h); err != nil {
		b.log.Debug("poll: url query failed", "error", err)
	} else if url != "" && (!loading || !b.seenURL) {
		// While a navigation is in flight the intermediate target is not
		// adopted over an already-known URL, so redirects don't flash.
		next.URL = url
		b.seenURL = true
	}

	if title, err := b.eng.Title(h); err != nil {
		b.log.Debug("poll: title query failed", "error", err)
	} else if title != "" {
		next.Title = title
	}

	// Navigation flags are cheap and authoritative; always overwrite.
	next.CanGoBack, err = b.eng.CanGoBack(h)
	if err != nil {
		b.log.Debug("poll: back flag query failed", "error", err)
		next.CanGoBack = false
	}
	next.CanGoForward, err = b.eng.CanGoForward(h)
	if err != nil {
		b.log.Debug("poll: forward flag query failed", "error", err)
		next.CanGoForward = false
	}

	if next != b.snap {
		b.snap = next
		b.sink.UpdateState(next)
	}

	msgs, err := b.eng.DrainMessages(h)
	if err != nil {
		b.log.Debug("poll: message drain failed", "error", err)
		return
	}
	for _, msg := range msgs {
		b.sink.HandleMessage(msg)
	}
}
