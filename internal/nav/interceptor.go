// Package nav implements the synchronous decision point the engine invokes
// before a navigation commits, translating host policy into engine action.
package nav

import (
	"log/slog"
	"sync"
)

// Action is what a policy wants done with a navigation.
type Action int

const (
	// ActionAllow permits the navigation.
	ActionAllow Action = iota
	// ActionReject blocks the navigation.
	ActionReject
	// ActionModify blocks the original navigation and loads a replacement
	// URL through the ordinary load path instead.
	ActionModify
)

// Decision is a policy's verdict. URL and Headers are only meaningful for
// ActionModify.
type Decision struct {
	Action  Action
	URL     string
	Headers map[string]string
}

// Allow permits the navigation.
func Allow() Decision { return Decision{Action: ActionAllow} }

// Reject blocks the navigation.
func Reject() Decision { return Decision{Action: ActionReject} }

// ModifyTo blocks the original navigation and loads url instead.
func ModifyTo(url string, headers map[string]string) Decision {
	return Decision{Action: ActionModify, URL: url, Headers: headers}
}

// Policy inspects a navigation target and returns a verdict. Policies run
// on the engine's navigation-decision path and must return quickly; they
// must not call back into the view.
type Policy func(url string) Decision

// Remove unregisters a previously added policy. Safe to call more than once.
type Remove func()

// Interceptor fans a navigation attempt out to the registered policies in
// registration order. The first Reject or Modify verdict wins; with no
// policies registered every navigation is allowed.
type Interceptor struct {
	log *slog.Logger

	// redirect performs the Modify follow-up (stop current load, start the
	// replacement) asynchronously; HandleNavigation never waits on it.
	redirect func(url string, headers map[string]string)

	mu       sync.Mutex
	nextID   int
	order    []int
	policies map[int]Policy
}

// New creates an interceptor. redirect is invoked for Modify verdicts.
func New(log *slog.Logger, redirect func(url string, headers map[string]string)) *Interceptor {
	return &Interceptor{
		log:      log,
		redirect: redirect,
		policies: make(map[int]Policy),
	}
}

// Add registers a policy and returns its removal handle.
func (i *Interceptor) Add(p Policy) Remove {
	i.mu.Lock()
	defer i.mu.Unlock()
	id := i.nextID
	i.nextID++
	i.order = append(i.order, id)
	i.policies[id] = p
	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		delete(i.policies, id)
		for n, other := range i.order {
			if other == id {
				i.order = append(i.order[:n], i.order[n+1:]...)
				break
			}
		}
	}
}

// HandleNavigation is the engine-facing hook: true permits the navigation.
// It runs synchronously on the engine's decision path; policies are
// evaluated outside the registration lock so they can never deadlock
// against Add/Remove from other goroutines.
func (i *Interceptor) HandleNavigation(url string) bool {
	i.mu.Lock()
	snapshot := make([]Policy, 0, len(i.order))
	for _, id := range i.order {
		if p, ok := i.policies[id]; ok {
			snapshot = append(snapshot, p)
		}
	}
	i.mu.Unlock()

	for _, p := range snapshot {
		switch d := p(url); d.Action {
		case ActionReject:
			i.log.Debug("navigation rejected", "url", url)
			return false
		case ActionModify:
			i.log.Debug("navigation rewritten", "url", url, "to", d.URL)
			if i.redirect != nil {
				i.redirect(d.URL, d.Headers)
			}
			return false
		}
	}
	return true
}
