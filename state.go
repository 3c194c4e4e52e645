package websurface

import (
	"github.com/kestrelview/websurface/internal/nav"
	"github.com/kestrelview/websurface/internal/poll"
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

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusLoading:
		return "loading"
	case StatusIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the observable surface state. Progress
// is a heuristic indicator in [0, 1]; it only reaches 1 when a load
// completes.
type State struct {
	Status       Status
	Progress     float64
	URL          string
	Title        string
	CanGoBack    bool
	CanGoForward bool
}

// State returns the last published snapshot.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// OnStateChange registers fn for state snapshots. The current snapshot is
// delivered synchronously on the calling goroutine before registration
// returns; every later snapshot arrives on the view's internal goroutine.
// fn must not block, and notification order across listeners is
// unspecified. The returned function unregisters it.
func (v *View) OnStateChange(fn func(State)) (remove func()) {
	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	v.stateSub[id] = fn
	cur := v.state
	v.mu.Unlock()

	fn(cur)
	return func() {
		v.mu.Lock()
		delete(v.stateSub, id)
		v.mu.Unlock()
	}
}

// OnMessage registers fn for inbound page messages, delivered in arrival
// order. fn runs on the view's internal goroutine and must not block. The
// returned function unregisters it.
func (v *View) OnMessage(fn func(msg string)) (remove func()) {
	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	v.msgSub[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.msgSub, id)
		v.mu.Unlock()
	}
}

// viewSink adapts the view to the poll bridge without exporting its
// methods. Calls arrive on the owning goroutine.
type viewSink View

func (s *viewSink) UpdateState(sn poll.Snapshot) {
	v := (*View)(s)
	st := State{
		Status:       statusFrom(sn.Status),
		Progress:     sn.Progress,
		URL:          sn.URL,
		Title:        sn.Title,
		CanGoBack:    sn.CanGoBack,
		CanGoForward: sn.CanGoForward,
	}
	v.mu.Lock()
	v.state = st
	subs := make([]func(State), 0, len(v.stateSub))
	for _, fn := range v.stateSub {
		subs = append(subs, fn)
	}
	v.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

func (s *viewSink) HandleMessage(msg string) {
	v := (*View)(s)
	v.mu.Lock()
	subs := make([]func(string), 0, len(v.msgSub))
	for _, fn := range v.msgSub {
		subs = append(subs, fn)
	}
	v.mu.Unlock()
	for _, fn := range subs {
		fn(msg)
	}
}

func statusFrom(s poll.Status) Status {
	switch s {
	case poll.StatusLoading:
		return StatusLoading
	case poll.StatusIdle:
		return StatusIdle
	default:
		return StatusInitializing
	}
}

// ----------------------------------------------------------------------------
// Navigation policy.

// NavigationPolicy inspects a page-initiated navigation target and returns
// a verdict. Policies run on the engine's navigation-decision path and must
// return quickly; they must not call back into the view.
type NavigationPolicy func(url string) NavigationDecision

// NavigationDecision is a policy's verdict. Construct one with Allow,
// Reject, or ModifyTo; the zero value allows.
type NavigationDecision struct {
	action  nav.Action
	url     string
	headers map[string]string
}

// Allow permits the navigation.
func Allow() NavigationDecision { return NavigationDecision{} }

// Reject blocks the navigation.
func Reject() NavigationDecision { return NavigationDecision{action: nav.ActionReject} }

// ModifyTo blocks the original navigation and loads url, with the given
// extra headers, through the ordinary load path instead.
func ModifyTo(url string, headers map[string]string) NavigationDecision {
	return NavigationDecision{action: nav.ActionModify, url: url, headers: headers}
}

func (d NavigationDecision) decision() nav.Decision {
	return nav.Decision{Action: d.action, URL: d.url, Headers: d.headers}
}
