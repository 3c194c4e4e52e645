// Package engine declares the capability surface of the external native
// web engine. The embedding core only ever talks to the engine through the
// Engine interface; production builds plug in the generated native bindings,
// while development and tests use the headless implementation.
package engine

import "github.com/kestrelview/websurface/surface"

// Handle is an opaque, engine-allocated identifier for a created surface.
// The zero value means "no surface". A Handle is exclusively owned by the
// lifecycle machine; other components borrow it per call.
type Handle uint64

// None is the absent handle.
const None Handle = 0

// Valid reports whether h refers to a live surface.
func (h Handle) Valid() bool {
	return h != None
}

// NavigationFunc is consulted synchronously by the engine before a
// navigation commits. Returning false blocks the navigation. It may be
// invoked from an engine-owned thread and must return quickly.
type NavigationFunc func(url string) bool

// CreateOptions carries everything a creation call needs. Parent is the
// resolved native parent; Width/Height are the initial surface size.
// UserAgent selects the creation variant with an explicit identity string
// when non-empty. Navigate may be nil, in which case every navigation is
// allowed.
type CreateOptions struct {
	Parent    surface.ParentHandle
	Width     int
	Height    int
	URL       string
	UserAgent string
	Navigate  NavigationFunc
}

// SameSite is the cookie same-site policy.
type SameSite int

const (
	SameSiteDefault SameSite = iota
	SameSiteNone
	SameSiteLax
	SameSiteStrict
)

// Cookie mirrors the engine's cookie record. Optional attributes use
// pointer fields so "unset" is distinguishable from a zero value.
type Cookie struct {
	Name          string
	Value         string
	Domain        string
	Path          string
	ExpiresUnixMS int64 // 0 when unset
	SessionOnly   bool
	MaxAgeSec     *int64
	SameSite      SameSite
	Secure        *bool
	HTTPOnly      *bool
}

// Engine is the consumed surface of the native web engine. Every call
// against a Handle is best-effort: the embedding core catches a returned
// error, logs it, and substitutes a safe default instead of propagating. A
// failing call does not invalidate the handle.
//
// Create may be slow and, on platforms whose provider reports off-thread
// creation, is invoked from a dedicated worker goroutine; all other methods
// are invoked from the owning UI goroutine and are expected to return
// quickly.
type Engine interface {
	// Create realizes a surface under opts.Parent and begins loading
	// opts.URL. It returns the new handle or an error; errors are treated
	// as transient by the caller.
	Create(opts CreateOptions) (Handle, error)

	// Destroy releases the surface. The handle is dead afterwards.
	Destroy(h Handle) error

	// SetBounds positions the surface relative to its accepted parent.
	SetBounds(h Handle, b surface.Bounds) error

	// LoadURL navigates to url. headers may be nil; when non-nil they are
	// attached to the initial request.
	LoadURL(h Handle, url string, headers map[string]string) error

	// LoadHTML replaces the document with the given markup.
	LoadHTML(h Handle, html string) error

	GoBack(h Handle) error
	GoForward(h Handle) error
	Reload(h Handle) error
	StopLoading(h Handle) error

	// EvaluateScript runs source in the page and delivers the serialized
	// result asynchronously. onResult may be invoked from an engine thread.
	EvaluateScript(h Handle, source string, onResult func(result string)) error

	// Focus gives the surface keyboard focus.
	Focus(h Handle) error

	URL(h Handle) (string, error)
	Title(h Handle) (string, error)
	IsLoading(h Handle) (bool, error)
	CanGoBack(h Handle) (bool, error)
	CanGoForward(h Handle) (bool, error)

	// DrainMessages removes and returns all queued inbound async messages
	// in arrival order. Each message is returned at most once.
	DrainMessages(h Handle) ([]string, error)

	CookiesForURL(h Handle, url string) ([]Cookie, error)
	SetCookie(h Handle, c Cookie) error
	ClearCookiesForURL(h Handle, url string) error
	ClearAllCookies(h Handle) error

	// PumpEvents services the platform message loop that keeps a parented
	// foreign surface responsive. A no-op on platforms that pump themselves.
	PumpEvents()
}
