// Package headless implements engine.Engine entirely in process. No pixels
// are produced; the engine keeps per-surface state (URL, title, history,
// cookies, queued messages) and records every call in a journal.
//
// It backs the demo commands and the test suites of the embedding core,
// which only depend on the engine's observable contract.
package headless

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/kestrelview/websurface/engine"
	"github.com/kestrelview/websurface/surface"
)

// ErrDeadHandle is returned for any call against an unknown or destroyed
// handle.
var ErrDeadHandle = fmt.Errorf("headless: dead handle")

type page struct {
	url       string
	title     string
	loading   bool
	back      []string
	forward   []string
	messages  []string
	cookies   []engine.Cookie
	userAgent string
	navigate  engine.NavigationFunc
	bounds    surface.Bounds
}

// Engine is an in-process engine.Engine. The zero value is not usable;
// call New.
type Engine struct {
	// AutoFinish, when positive, flips a surface out of the loading state
	// that long after each load begins. Used by the demo shell; tests drive
	// loading explicitly instead.
	AutoFinish time.Duration

	mu        sync.Mutex
	nextID    engine.Handle
	pages     map[engine.Handle]*page
	journal   []string
	createErr error
	pumpCount int
}

var _ engine.Engine = (*Engine)(nil)

// New returns an empty headless engine.
func New() *Engine {
	return &Engine{nextID: 1, pages: make(map[engine.Handle]*page)}
}

func (e *Engine) record(format string, args ...any) {
	e.journal = append(e.journal, fmt.Sprintf(format, args...))
}

// Journal returns a copy of every call recorded so far, in order.
func (e *Engine) Journal() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.journal))
	copy(out, e.journal)
	return out
}

// Live returns the number of live surfaces.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pages)
}

// FailCreates makes subsequent Create calls return err until called again
// with nil.
func (e *Engine) FailCreates(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.createErr = err
}

// PumpCount returns how many times PumpEvents has been called.
func (e *Engine) PumpCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pumpCount
}

func (e *Engine) Create(opts engine.CreateOptions) (engine.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Create(parent=%#x window=%v size=%dx%d url=%s)",
		opts.Parent.Raw, opts.Parent.IsTopLevelWindow, opts.Width, opts.Height, opts.URL)
	if e.createErr != nil {
		return engine.None, e.createErr
	}
	if !opts.Parent.Valid() {
		return engine.None, fmt.Errorf("headless: invalid parent handle")
	}
	h := e.nextID
	e.nextID++
	p := &page{
		userAgent: opts.UserAgent,
		navigate:  opts.Navigate,
		bounds:    surface.Bounds{Width: opts.Width, Height: opts.Height}.Clamp(),
	}
	e.pages[h] = p
	e.beginLoadLocked(h, p, opts.URL)
	return h, nil
}

func (e *Engine) Destroy(h engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Destroy(%d)", h)
	if _, ok := e.pages[h]; !ok {
		return ErrDeadHandle
	}
	delete(e.pages, h)
	return nil
}

func (e *Engine) page(h engine.Handle) (*page, error) {
	p, ok := e.pages[h]
	if !ok {
		return nil, ErrDeadHandle
	}
	return p, nil
}

func (e *Engine) SetBounds(h engine.Handle, b surface.Bounds) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("SetBounds(%d, %d,%d %dx%d)", h, b.X, b.Y, b.Width, b.Height)
	p, err := e.page(h)
	if err != nil {
		return err
	}
	p.bounds = b.Clamp()
	return nil
}

// beginLoadLocked starts a load without consulting the navigation handler;
// explicit host loads bypass policy, as in the real engine.
func (e *Engine) beginLoadLocked(h engine.Handle, p *page, target string) {
	if p.url != "" && p.url != target {
		p.back = append(p.back, p.url)
		p.forward = nil
	}
	p.url = target
	p.loading = true
	if e.AutoFinish > 0 {
		go func(d time.Duration) {
			time.Sleep(d)
			e.FinishLoad(h)
		}(e.AutoFinish)
	}
}

func (e *Engine) LoadURL(h engine.Handle, target string, headers map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(headers) > 0 {
		e.record("LoadURL(%d, %s, %d headers)", h, target, len(headers))
	} else {
		e.record("LoadURL(%d, %s)", h, target)
	}
	p, err := e.page(h)
	if err != nil {
		return err
	}
	e.beginLoadLocked(h, p, target)
	return nil
}

func (e *Engine) LoadHTML(h engine.Handle, html string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("LoadHTML(%d, %d bytes)", h, len(html))
	p, err := e.page(h)
	if err != nil {
		return err
	}
	e.beginLoadLocked(h, p, "about:blank")
	return nil
}

func (e *Engine) GoBack(h engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("GoBack(%d)", h)
	p, err := e.page(h)
	if err != nil {
		return err
	}
	if n := len(p.back); n > 0 {
		p.forward = append(p.forward, p.url)
		p.url = p.back[n-1]
		p.back = p.back[:n-1]
		p.loading = true
	}
	return nil
}

func (e *Engine) GoForward(h engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("GoForward(%d)", h)
	p, err := e.page(h)
	if err != nil {
		return err
	}
	if n := len(p.forward); n > 0 {
		p.back = append(p.back, p.url)
		p.url = p.forward[n-1]
		p.forward = p.forward[:n-1]
		p.loading = true
	}
	return nil
}

func (e *Engine) Reload(h engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Reload(%d)", h)
	p, err := e.page(h)
	if err != nil {
		return err
	}
	p.loading = true
	return nil
}

func (e *Engine) StopLoading(h engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("StopLoading(%d)", h)
	p, err := e.page(h)
	if err != nil {
		return err
	}
	p.loading = false
	return nil
}

func (e *Engine) EvaluateScript(h engine.Handle, source string, onResult func(string)) error {
	e.mu.Lock()
	e.record("EvaluateScript(%d, %d bytes)", h, len(source))
	_, err := e.page(h)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if onResult != nil {
		// Results arrive asynchronously, as with the real engine.
		go onResult("null")
	}
	return nil
}

func (e *Engine) Focus(h engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Focus(%d)", h)
	_, err := e.page(h)
	return err
}

func (e *Engine) URL(h engine.Handle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page(h)
	if err != nil {
		return "", err
	}
	return p.url, nil
}

func (e *Engine) Title(h engine.Handle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page(h)
	if err != nil {
		return "", err
	}
	return p.title, nil
}

func (e *Engine) IsLoading(h engine.Handle) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page(h)
	if err != nil {
		return false, err
	}
	return p.loading, nil
}

func (e *Engine) CanGoBack(h engine.Handle) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page(h)
	if err != nil {
		return false, err
	}
	return len(p.back) > 0, nil
}

func (e *Engine) CanGoForward(h engine.Handle) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page(h)
	if err != nil {
		return false, err
	}
	return len(p.forward) > 0, nil
}

func (e *Engine) DrainMessages(h engine.Handle) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page(h)
	if err != nil {
		return nil, err
	}
	out := p.messages
	p.messages = nil
	return out, nil
}

func (e *Engine) CookiesForURL(h engine.Handle, target string) ([]engine.Cookie, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page(h)
	if err != nil {
		return nil, err
	}
	host := hostOf(target)
	var out []engine.Cookie
	for _, c := range p.cookies {
		if c.Domain == "" || c.Domain == host {
			out = append(out, c)
		}
	}
	return out, nil
}

func (e *Engine) SetCookie(h engine.Handle, c engine.Cookie) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("SetCookie(%d, %s)", h, c.Name)
	p, err := e.page(h)
	if err != nil {
		return err
	}
	for i := range p.cookies {
		if p.cookies[i].Name == c.Name && p.cookies[i].Domain == c.Domain {
			p.cookies[i] = c
			return nil
		}
	}
	p.cookies = append(p.cookies, c)
	return nil
}

func (e *Engine) ClearCookiesForURL(h engine.Handle, target string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("ClearCookiesForURL(%d, %s)", h, target)
	p, err := e.page(h)
	if err != nil {
		return err
	}
	host := hostOf(target)
	kept := p.cookies[:0]
	for _, c := range p.cookies {
		if c.Domain != "" && c.Domain != host {
			kept = append(kept, c)
		}
	}
	p.cookies = kept
	return nil
}

func (e *Engine) ClearAllCookies(h engine.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("ClearAllCookies(%d)", h)
	p, err := e.page(h)
	if err != nil {
		return err
	}
	p.cookies = nil
	return nil
}

func (e *Engine) PumpEvents() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pumpCount++
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// ----------------------------------------------------------------------------
// Simulation hooks. These stand in for events the real engine raises from its
// own event loop.

// Navigate simulates a page-initiated navigation: the surface's navigation
// handler is consulted and, when it allows, the load commits.
func (e *Engine) Navigate(h engine.Handle, target string) bool {
	e.mu.Lock()
	p, err := e.page(h)
	if err != nil {
		e.mu.Unlock()
		return false
	}
	navigate := p.navigate
	e.mu.Unlock()

	if navigate != nil && !navigate(target) {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if p, err := e.page(h); err == nil {
		e.beginLoadLocked(h, p, target)
	}
	return true
}

// FinishLoad flips the surface out of the loading state and synthesizes a
// title from the current URL when none is set.
func (e *Engine) FinishLoad(h engine.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page(h)
	if err != nil {
		return
	}
	p.loading = false
	if p.title == "" {
		if host := hostOf(p.url); host != "" {
			p.title = host
		}
	}
}

// SetTitle sets the document title, as a title-changed event would.
func (e *Engine) SetTitle(h engine.Handle, title string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, err := e.page(h); err == nil {
		p.title = title
	}
}

// PushMessage queues an inbound async message from page script.
func (e *Engine) PushMessage(h engine.Handle, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, err := e.page(h); err == nil {
		p.messages = append(p.messages, msg)
	}
}

// Bounds returns the last bounds accepted for the surface.
func (e *Engine) Bounds(h engine.Handle) surface.Bounds {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, err := e.page(h); err == nil {
		return p.bounds
	}
	return surface.Bounds{}
}

// UserAgent returns the identity string the surface was created with.
func (e *Engine) UserAgent(h engine.Handle) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, err := e.page(h); err == nil {
		return p.userAgent
	}
	return ""
}
