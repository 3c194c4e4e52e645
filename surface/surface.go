// Package surface defines the types shared between the embedding engine and
// the host toolkit: parent-relative geometry, native parent handles, and the
// Host abstraction over whatever rendering surface the host UI provides.
package surface

// Bounds describes the embedded surface's rectangle in parent-relative
// coordinates. Width and height are floored at 1 so the native engine never
// sees a degenerate rectangle.
type Bounds struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Clamp returns a copy of b with width and height floored at 1.
func (b Bounds) Clamp() Bounds {
	if b.Width < 1 {
		b.Width = 1
	}
	if b.Height < 1 {
		b.Height = 1
	}
	return b
}

// Insets describes window chrome thickness around a content area.
type Insets struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// ParentHandle identifies the native parent a surface is embedded into.
// Raw is a platform pointer or window ID; IsTopLevelWindow reports whether
// the handle names a whole window rather than an embeddable child surface.
//
// A ParentHandle is immutable once resolved for a creation attempt and is
// re-resolved on every attempt, since the host surface may have been
// reparented in between.
type ParentHandle struct {
	Raw              uintptr
	IsTopLevelWindow bool
}

// Valid reports whether the handle refers to an actual native object.
func (p ParentHandle) Valid() bool {
	return p.Raw != 0
}

// Host abstracts the host toolkit's rendering surface that the web surface
// is parented into. Implementations wrap whatever the host UI framework
// exposes (an AWT canvas, a GTK widget, a raw HWND owner, ...).
//
// All accessors are called on the owning UI goroutine. Handle accessors
// return 0 while the underlying object is not realized; geometry accessors
// may return zeros in that state.
type Host interface {
	// ContentHandle returns the embeddable child-surface handle, where the
	// toolkit differentiates one from the window handle. 0 if unavailable.
	ContentHandle() uintptr

	// WindowHandle returns the nearest ancestor top-level window's native
	// handle. 0 if the ancestor window is not realized.
	WindowHandle() uintptr

	// Displayable reports whether the surface is connected to a realized
	// native hierarchy.
	Displayable() bool

	// Showing reports whether the surface and all its ancestors are visible.
	Showing() bool

	// WindowVisible reports whether the ancestor top-level window itself is
	// visible. On some platforms window visibility lags surface visibility,
	// and creation must wait for it.
	WindowVisible() bool

	// Size returns the surface's current width and height in pixels.
	Size() (width, height int)

	// LocationInWindow returns the surface's origin translated into the
	// ancestor window's content coordinate space.
	LocationInWindow() (x, y int)

	// WindowInsets returns the ancestor window's chrome insets, used when
	// the surface is positioned relative to a top-level window handle.
	WindowInsets() Insets
}
