// Package websurface embeds a native web engine surface inside a host UI
// container and keeps the two in lockstep. The host reports container
// events (attach, detach, layout); the view decides when the native surface
// may exist, which parent handle it is given, and replays the wanted
// content across destroy/recreate cycles. Page state flows back through a
// fixed-cadence poll and is published as immutable State snapshots.
//
// All exported methods are safe to call from any goroutine. Internally a
// single owning goroutine runs every state transition; commands are posted
// onto it and reads either return the last published snapshot or round-trip
// through it.
package websurface

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kestrelview/websurface/engine"
	"github.com/kestrelview/websurface/internal/lifecycle"
	"github.com/kestrelview/websurface/internal/nav"
	"github.com/kestrelview/websurface/internal/sched"
	"github.com/kestrelview/websurface/platform"
	"github.com/kestrelview/websurface/surface"
)

// Options configures a View. The zero value is usable: platform detection
// picks the provider, logging is discarded, and no initial content loads.
type Options struct {
	// Provider overrides the platform capability mapping. Nil selects the
	// build target's default provider.
	Provider platform.Provider

	// Logger receives structured diagnostics. Nil discards them.
	Logger *slog.Logger

	// InitialURL is loaded when the surface is first created, unless an
	// explicit LoadURL or LoadHTML call happened before creation.
	InitialURL string

	// UserAgent is the identity string presented to served content.
	UserAgent string

	// DestroyGrace is how long a detached surface survives before
	// destruction. RecreateDebounce collapses rapid recreation-forcing
	// changes. Both default when zero.
	DestroyGrace     time.Duration
	RecreateDebounce time.Duration
}

// View is one embedded web surface. Create it with New and release it with
// Close; a closed view drops all further commands.
type View struct {
	loop *sched.Loop
	m    *lifecycle.Machine
	log  *slog.Logger

	mu       sync.Mutex
	state    State
	nextSub  int
	stateSub map[int]func(State)
	msgSub   map[int]func(string)
	closed   bool
}

// New creates a view driving eng. The native surface is not created until
// the host reports an attached, visible container via Attached.
func New(eng engine.Engine, opts Options) *View {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	prov := opts.Provider
	if prov == nil {
		prov = platform.New(log)
	}
	v := &View{
		loop:     sched.NewLoop(),
		log:      log,
		stateSub: make(map[int]func(State)),
		msgSub:   make(map[int]func(string)),
	}
	v.m = lifecycle.New(lifecycle.Config{
		Engine:           eng,
		Provider:         prov,
		Scheduler:        v.loop,
		Log:              log,
		Sink:             (*viewSink)(v),
		InitialURL:       opts.InitialURL,
		UserAgent:        opts.UserAgent,
		DestroyGrace:     opts.DestroyGrace,
		RecreateDebounce: opts.RecreateDebounce,
	})
	return v
}

// ----------------------------------------------------------------------------
// Host container events.

// Attached reports that the host surface joined a container. Creation
// begins once the container is displayable and sized.
func (v *View) Attached(host surface.Host) {
	v.loop.Post(func() { v.m.Attach(host) })
}

// Detached reports that the host surface left its container. The native
// surface survives a short grace window so transient reparenting never
// destroys it.
func (v *View) Detached() {
	v.loop.Post(v.m.Detach)
}

// LayoutChanged reports that the host surface moved or resized.
func (v *View) LayoutChanged() {
	v.loop.Post(v.m.Layout)
}

// ----------------------------------------------------------------------------
// Content and navigation.

// LoadURL makes url the surface's content. Applied immediately when the
// surface exists, buffered and passed at creation otherwise; the last load
// call wins and survives recreation.
func (v *View) LoadURL(url string, headers map[string]string) {
	v.loop.Post(func() { v.m.LoadURL(url, headers) })
}

// LoadHTML makes the given markup the surface's content, with the same
// buffering rules as LoadURL.
func (v *View) LoadHTML(html string) {
	v.loop.Post(func() { v.m.LoadHTML(html) })
}

func (v *View) GoBack()      { v.loop.Post(v.m.GoBack) }
func (v *View) GoForward()   { v.loop.Post(v.m.GoForward) }
func (v *View) Reload()      { v.loop.Post(v.m.Reload) }
func (v *View) StopLoading() { v.loop.Post(v.m.StopLoading) }
func (v *View) Focus()       { v.loop.Post(v.m.Focus) }

// SetUserAgent changes the identity string. The surface is recreated to
// apply it; rapid successive changes collapse into one recreation.
func (v *View) SetUserAgent(ua string) {
	v.loop.Post(func() { v.m.SetUserAgent(ua) })
}

// EvaluateScript runs source in the page. onResult receives the
// JSON-serialized result on an engine-defined goroutine; without a live
// surface it receives the empty string.
func (v *View) EvaluateScript(source string, onResult func(string)) {
	v.loop.Post(func() { v.m.EvaluateScript(source, onResult) })
}

// AddNavigationPolicy registers a policy consulted before page-initiated
// navigations commit. Policies run in registration order; the first Reject
// or Modify verdict wins. The returned function unregisters it.
func (v *View) AddNavigationPolicy(p NavigationPolicy) (remove func()) {
	rm := v.m.Interceptor().Add(func(url string) nav.Decision {
		return p(url).decision()
	})
	return func() { rm() }
}

// ----------------------------------------------------------------------------
// Cookies. These round-trip through the owning goroutine and block briefly.

// CookiesForURL returns the cookies visible to url, or nil without a live
// surface.
func (v *View) CookiesForURL(url string) []engine.Cookie {
	var out []engine.Cookie
	v.loop.Wait(func() { out = v.m.CookiesForURL(url) })
	return out
}

// SetCookie stores c in the surface's cookie jar.
func (v *View) SetCookie(c engine.Cookie) {
	v.loop.Wait(func() { v.m.SetCookie(c) })
}

// ClearCookiesForURL removes the cookies scoped to url's host.
func (v *View) ClearCookiesForURL(url string) {
	v.loop.Wait(func() { v.m.ClearCookiesForURL(url) })
}

// ClearAllCookies empties the surface's cookie jar.
func (v *View) ClearAllCookies() {
	v.loop.Wait(func() { v.m.ClearAllCookies() })
}

// ----------------------------------------------------------------------------
// Teardown.

// Close destroys the native surface immediately, skipping the detach grace
// window, and stops the owning goroutine. Idempotent; commands posted after
// Close are dropped.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.loop.Wait(v.m.Close)
	v.loop.Close()
}
