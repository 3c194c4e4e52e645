// Package lifecycle owns the native surface's create/destroy state machine:
// when a surface may be created, which parent it is given, how creation
// races against teardown, and which auxiliary tickers (bounds flush, event
// pump, state poll) run in each state.
//
// Every method must run on the owning goroutine (the machine's scheduler);
// the facade posts events onto it. The surface handle lives only inside the
// machine and is borrowed per engine call.
package lifecycle

import (
	"log/slog"
	"time"

	"github.com/kestrelview/websurface/engine"
	"github.com/kestrelview/websurface/internal/bounds"
	"github.com/kestrelview/websurface/internal/nav"
	"github.com/kestrelview/websurface/internal/poll"
	"github.com/kestrelview/websurface/internal/pump"
	"github.com/kestrelview/websurface/internal/sched"
	"github.com/kestrelview/websurface/platform"
	"github.com/kestrelview/websurface/surface"
)

// State is the lifecycle position of the embedding instance.
type State int

const (
	StateUnattached State = iota
	StatePendingCreate
	StateCreating
	StateReady
	StatePendingDestroy
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StatePendingCreate:
		return "pending-create"
	case StateCreating:
		return "creating"
	case StateReady:
		return "ready"
	case StatePendingDestroy:
		return "pending-destroy"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

const (
	// DefaultDestroyGrace is how long a detached surface survives before
	// destruction; reattachment within the window cancels the teardown.
	DefaultDestroyGrace = 400 * time.Millisecond

	// DefaultRecreateDebounce collapses rapid configuration changes that
	// force recreation into a single cycle.
	DefaultRecreateDebounce = 400 * time.Millisecond
)

// Config assembles a machine.
type Config struct {
	Engine    engine.Engine
	Provider  platform.Provider
	Scheduler sched.Scheduler
	Log       *slog.Logger
	Sink      poll.Sink

	// InitialURL is loaded at creation time unless an explicit load call
	// superseded it.
	InitialURL string

	// UserAgent is the identity string presented to served content.
	// Changing it later forces recreation.
	UserAgent string

	// DestroyGrace and RecreateDebounce default when zero.
	DestroyGrace     time.Duration
	RecreateDebounce time.Duration
}

type contentKind int

const (
	contentNone contentKind = iota
	contentURL
	contentHTML
)

// content is the buffered "what the surface should show": last write wins,
// applied immediately when a handle exists and replayed after recreation.
type content struct {
	kind    contentKind
	url     string
	headers map[string]string
	html    string
}

// Machine is the lifecycle state machine for one embedding instance.
type Machine struct {
	eng  engine.Engine
	prov platform.Provider
	s    sched.Scheduler
	log  *slog.Logger

	interceptor *nav.Interceptor
	bridge      *poll.Bridge
	tracker     *bounds.Tracker
	pump        *pump.Pump

	destroyGrace     time.Duration
	recreateDebounce time.Duration

	state  State
	host   surface.Host
	handle engine.Handle
	parent surface.ParentHandle

	pending    content
	initialURL string
	userAgent  string
	nextUA     string

	// createSeq invalidates in-flight creations: a completion whose seq no
	// longer matches installs nothing and destroys its handle.
	createSeq int

	// creating is set while an engine Create call is outstanding. At most
	// one creation is ever in flight; retry ticks wait for the completion
	// handler to clear it.
	creating bool

	retryTimer    sched.Timer
	destroyTimer  sched.Timer
	recreateTimer sched.Timer
	pollTimer     sched.Timer
}

// New assembles a machine in the unattached state.
func New(cfg Config) *Machine {
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	m := &Machine{
		eng:              cfg.Engine,
		prov:             cfg.Provider,
		s:                cfg.Scheduler,
		log:              log,
		destroyGrace:     cfg.DestroyGrace,
		recreateDebounce: cfg.RecreateDebounce,
		initialURL:       cfg.InitialURL,
		userAgent:        cfg.UserAgent,
		nextUA:           cfg.UserAgent,
		state:            StateUnattached,
	}
	if m.destroyGrace <= 0 {
		m.destroyGrace = DefaultDestroyGrace
	}
	if m.recreateDebounce <= 0 {
		m.recreateDebounce = DefaultRecreateDebounce
	}
	m.interceptor = nav.New(log, m.redirect)
	m.bridge = poll.New(cfg.Engine, log, cfg.Sink)
	m.tracker = bounds.New(cfg.Scheduler, cfg.Provider.CoalescesBounds(), m.sendBounds)
	m.pump = pump.New(cfg.Scheduler, cfg.Engine)
	return m
}

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// Handle returns the live handle, or false when no surface exists.
func (m *Machine) Handle() (engine.Handle, bool) {
	return m.handle, m.handle.Valid()
}

// Interceptor exposes navigation policy registration.
func (m *Machine) Interceptor() *nav.Interceptor { return m.interceptor }

// ----------------------------------------------------------------------------
// Host container events.

// Attach begins the creation cycle for a host surface that joined its
// parent container. Reattachment during the destroy grace window cancels
// the pending teardown with no visible effect.
func (m *Machine) Attach(host surface.Host) {
	switch m.state {
	case StatePendingDestroy:
		m.host = host
		m.stopTimer(&m.destroyTimer)
		m.state = StateReady
		m.log.Debug("reattached within grace window, destroy cancelled")
	case StateUnattached, StateDestroyed:
		m.host = host
		m.toPendingCreate()
	default:
		// Already attached; just track the (possibly reparented) host.
		m.host = host
	}
}

// Detach reacts to the host surface leaving its container.
func (m *Machine) Detach() {
	switch m.state {
	case StatePendingCreate:
		m.stopTimer(&m.retryTimer)
		m.host = nil
		m.state = StateUnattached
	case StateCreating:
		// Never destroy while a creation is outstanding: invalidate it and
		// let the completion handler destroy the late handle.
		m.createSeq++
		m.host = nil
		m.state = StateUnattached
	case StateReady:
		m.state = StatePendingDestroy
		m.destroyTimer = m.s.After(m.destroyGrace, m.graceExpired)
	}
}

// Layout reacts to the host surface moving or resizing.
func (m *Machine) Layout() {
	if m.state != StateReady || m.host == nil {
		return
	}
	m.tracker.Update(m.computeBounds())
}

// Close tears the instance down immediately, skipping the destroy grace
// window. The machine returns to the unattached state.
func (m *Machine) Close() {
	m.stopTimer(&m.retryTimer)
	m.stopTimer(&m.recreateTimer)
	m.createSeq++
	if m.handle.Valid() {
		m.destroyNow()
	} else {
		m.stopTimer(&m.destroyTimer)
		m.state = StateUnattached
	}
	m.host = nil
}

// ----------------------------------------------------------------------------
// Creation.

func (m *Machine) toPendingCreate() {
	m.state = StatePendingCreate
	m.stopTimer(&m.retryTimer)
	m.retryTimer = m.s.Every(m.prov.CreateRetryInterval(), m.tryCreate)
}

// tryCreate runs on the pending-create tick. Any unmet precondition keeps
// the machine in pending-create for the next tick; none of them is an
// error.
func (m *Machine) tryCreate() {
	if m.state != StatePendingCreate || m.host == nil {
		return
	}
	if m.creating {
		// A detach/reattach cycle can land here while an earlier creation
		// is still inside the engine. Its completion handler destroys the
		// stale result; the next tick starts fresh.
		return
	}
	if !m.host.Displayable() || !m.host.Showing() {
		return
	}
	w, h := m.host.Size()
	if w <= 0 || h <= 0 {
		return
	}
	if m.prov.RequiresVisibleWindow() && !m.host.WindowVisible() {
		return
	}
	parent, ok := m.prov.ResolveParent(m.host)
	if !ok {
		return
	}

	m.stopTimer(&m.retryTimer)
	m.state = StateCreating
	m.parent = parent
	m.creating = true
	m.createSeq++
	seq := m.createSeq

	opts := engine.CreateOptions{
		Parent:    parent,
		Width:     w,
		Height:    h,
		URL:       m.createURL(),
		UserAgent: m.userAgent,
		Navigate:  m.interceptor.HandleNavigation,
	}
	m.log.Debug("creating surface",
		"parent", parent.Raw, "window", parent.IsTopLevelWindow,
		"size", [2]int{w, h}, "provider", m.prov.Name())

	if m.prov.CreatesOffThread() {
		go func() {
			handle, err := m.eng.Create(opts)
			if !m.s.Post(func() { m.finishCreate(seq, handle, err) }) {
				// The owning goroutine is gone (Close won the race), so
				// nothing will ever install or tear down this result.
				m.discardOrphan(handle)
			}
		}()
		return
	}
	handle, err := m.eng.Create(opts)
	m.finishCreate(seq, handle, err)
}

// createURL is the URL passed at creation time. An explicit load call takes
// precedence over the configured initial URL; buffered HTML is applied
// after creation instead.
func (m *Machine) createURL() string {
	if m.pending.kind == contentURL {
		return m.pending.url
	}
	return m.initialURL
}

// finishCreate installs a creation result, or destroys it when it arrived
// too late. The staleness check is the only synchronization point the
// off-thread creation path needs.
func (m *Machine) finishCreate(seq int, handle engine.Handle, err error) {
	m.creating = false
	if seq != m.createSeq || m.state != StateCreating {
		if handle.Valid() {
			m.log.Debug("late creation result discarded", "seq", seq)
			if derr := m.eng.Destroy(handle); derr != nil {
				m.log.Warn("destroy of late handle failed", "error", derr)
			}
		}
		return
	}
	if err != nil {
		// Engine initialization can legitimately race window-manager
		// readiness; failure here is transient, never fatal.
		m.log.Warn("surface creation failed, retrying", "error", err)
		m.toPendingCreate()
		return
	}

	m.handle = handle
	m.state = StateReady
	m.log.Debug("surface ready", "handle", uint64(handle))

	m.applyPending()
	if m.prov.NeedsEventPump() {
		m.pump.Start()
	}
	m.tracker.Update(m.computeBounds())
	m.pollTimer = m.s.Every(poll.Interval, m.pollTick)
}

// discardOrphan destroys a creation result whose completion could not be
// delivered to the owning goroutine. Runs on the worker goroutine, so it
// touches only the engine, never machine state.
func (m *Machine) discardOrphan(handle engine.Handle) {
	if !handle.Valid() {
		return
	}
	m.log.Debug("orphaned creation result discarded", "handle", uint64(handle))
	if err := m.eng.Destroy(handle); err != nil {
		m.log.Warn("destroy of orphaned handle failed", "error", err)
	}
}

func (m *Machine) pollTick() {
	if m.handle.Valid() {
		m.bridge.Tick(m.handle)
	}
}

// ----------------------------------------------------------------------------
// Destruction.

// graceExpired fires when the host stayed detached for the whole grace
// window.
func (m *Machine) graceExpired() {
	m.destroyNow()
	m.host = nil
}

// destroyNow tears the surface down: timers and pumps first, then the
// native destroy. Idempotent; with no live handle nothing touches the
// engine.
func (m *Machine) destroyNow() {
	m.stopTimer(&m.destroyTimer)
	m.stopTimer(&m.pollTimer)
	m.pump.Stop()
	m.tracker.Reset()

	if m.handle.Valid() {
		m.state = StateDestroyed
		if err := m.eng.Destroy(m.handle); err != nil {
			m.log.Warn("surface destroy failed", "error", err)
		}
		m.handle = engine.None
		m.parent = surface.ParentHandle{}
		m.bridge.Reset()
	}
	// Unattached again so a future attach restarts the cycle.
	m.state = StateUnattached
}

// ----------------------------------------------------------------------------
// Content.

// LoadURL buffers url as the surface's content and applies it immediately
// when the surface exists. Last write wins.
func (m *Machine) LoadURL(url string, headers map[string]string) {
	m.pending = content{kind: contentURL, url: url, headers: headers}
	if m.hasSurface() {
		if err := m.eng.LoadURL(m.handle, url, headers); err != nil {
			m.log.Warn("load url failed", "url", url, "error", err)
		}
	}
}

// LoadHTML buffers markup as the surface's content and applies it
// immediately when the surface exists. Last write wins.
func (m *Machine) LoadHTML(html string) {
	m.pending = content{kind: contentHTML, html: html}
	if m.hasSurface() {
		if err := m.eng.LoadHTML(m.handle, html); err != nil {
			m.log.Warn("load html failed", "error", err)
		}
	}
}

func (m *Machine) applyPending() {
	switch m.pending.kind {
	case contentURL:
		// The URL itself rode along at creation time, but creation cannot
		// attach request headers; a header-carrying load is replayed
		// through the ordinary load path.
		if len(m.pending.headers) > 0 {
			if err := m.eng.LoadURL(m.handle, m.pending.url, m.pending.headers); err != nil {
				m.log.Warn("applying buffered url failed", "url", m.pending.url, "error", err)
			}
		}
	case contentHTML:
		if err := m.eng.LoadHTML(m.handle, m.pending.html); err != nil {
			m.log.Warn("applying buffered html failed", "error", err)
		}
	}
}

// redirect is the interceptor's Modify follow-up: stop the blocked load,
// then run the replacement through the ordinary load path. Posted because
// the interceptor runs on the engine's navigation-decision path.
func (m *Machine) redirect(url string, headers map[string]string) {
	m.s.Post(func() {
		if m.hasSurface() {
			if err := m.eng.StopLoading(m.handle); err != nil {
				m.log.Warn("stop before redirect failed", "error", err)
			}
		}
		m.LoadURL(url, headers)
	})
}

// ----------------------------------------------------------------------------
// Forced recreation.

// SetUserAgent schedules a recreation with the new identity string. Rapid
// successive changes collapse into one recreation using the final value; a
// change back to the current value before the debounce fires is a no-op.
func (m *Machine) SetUserAgent(ua string) {
	m.nextUA = ua
	m.stopTimer(&m.recreateTimer)
	m.recreateTimer = m.s.After(m.recreateDebounce, m.applyUserAgent)
}

func (m *Machine) applyUserAgent() {
	m.recreateTimer = nil
	if m.nextUA == m.userAgent {
		return
	}
	m.userAgent = m.nextUA
	m.log.Debug("user agent changed, recreating surface")

	switch m.state {
	case StateReady, StatePendingDestroy:
		attached := m.state == StateReady
		m.destroyNow()
		if attached && m.host != nil {
			m.toPendingCreate()
		}
	case StateCreating:
		m.createSeq++
		m.toPendingCreate()
	}
	// Unattached and pending-create pick the new value up at creation.
}

// ----------------------------------------------------------------------------
// Surface operations. All guard on a live handle and degrade to a logged
// no-op (or zero value) when none exists.

func (m *Machine) hasSurface() bool {
	return (m.state == StateReady || m.state == StatePendingDestroy) && m.handle.Valid()
}

func (m *Machine) GoBack() {
	if !m.hasSurface() {
		return
	}
	if err := m.eng.GoBack(m.handle); err != nil {
		m.log.Warn("go back failed", "error", err)
	}
}

func (m *Machine) GoForward() {
	if !m.hasSurface() {
		return
	}
	if err := m.eng.GoForward(m.handle); err != nil {
		m.log.Warn("go forward failed", "error", err)
	}
}

func (m *Machine) Reload() {
	if !m.hasSurface() {
		return
	}
	if err := m.eng.Reload(m.handle); err != nil {
		m.log.Warn("reload failed", "error", err)
	}
}

func (m *Machine) StopLoading() {
	if !m.hasSurface() {
		return
	}
	if err := m.eng.StopLoading(m.handle); err != nil {
		m.log.Warn("stop loading failed", "error", err)
	}
}

func (m *Machine) Focus() {
	if !m.hasSurface() {
		return
	}
	if err := m.eng.Focus(m.handle); err != nil {
		m.log.Warn("focus failed", "error", err)
	}
}

// EvaluateScript runs source in the page. Without a surface the callback
// receives the empty result immediately.
func (m *Machine) EvaluateScript(source string, onResult func(string)) {
	if !m.hasSurface() {
		if onResult != nil {
			onResult("")
		}
		return
	}
	if err := m.eng.EvaluateScript(m.handle, source, onResult); err != nil {
		m.log.Warn("evaluate script failed", "error", err)
		if onResult != nil {
			onResult("")
		}
	}
}

// CookiesForURL returns the cookies visible to url, or nil without a
// surface.
func (m *Machine) CookiesForURL(url string) []engine.Cookie {
	if !m.hasSurface() {
		return nil
	}
	cookies, err := m.eng.CookiesForURL(m.handle, url)
	if err != nil {
		m.log.Warn("cookie query failed", "url", url, "error", err)
		return nil
	}
	return cookies
}

func (m *Machine) SetCookie(c engine.Cookie) {
	if !m.hasSurface() {
		return
	}
	if err := m.eng.SetCookie(m.handle, c); err != nil {
		m.log.Warn("set cookie failed", "name", c.Name, "error", err)
	}
}

func (m *Machine) ClearCookiesForURL(url string) {
	if !m.hasSurface() {
		return
	}
	if err := m.eng.ClearCookiesForURL(m.handle, url); err != nil {
		m.log.Warn("clear cookies failed", "url", url, "error", err)
	}
}

func (m *Machine) ClearAllCookies() {
	if !m.hasSurface() {
		return
	}
	if err := m.eng.ClearAllCookies(m.handle); err != nil {
		m.log.Warn("clear all cookies failed", "error", err)
	}
}

// ----------------------------------------------------------------------------
// Helpers.

func (m *Machine) computeBounds() surface.Bounds {
	return bounds.Compute(m.host, m.parent.IsTopLevelWindow, m.prov.WindowInsets(m.host))
}

func (m *Machine) sendBounds(b surface.Bounds) {
	if !m.handle.Valid() {
		return
	}
	if err := m.eng.SetBounds(m.handle, b); err != nil {
		m.log.Warn("set bounds failed", "error", err)
	}
}

func (m *Machine) stopTimer(t *sched.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
