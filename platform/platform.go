// Package platform resolves the per-OS capabilities of the native engine
// embedding: how a parent handle is derived from the host surface, whether
// an event pump must be serviced, whether creation may run on the UI
// goroutine, and how fast creation retries should tick.
//
// The lifecycle machine depends only on the Provider interface; one variant
// per platform is selected at build time.
package platform

import (
	"time"

	"github.com/kestrelview/websurface/surface"
)

// Provider describes a platform's embedding capabilities. Resolved once per
// embedding instance, not per tick.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// ResolveParent derives the native parent handle for a creation
	// attempt. ok is false while no usable handle exists yet; callers
	// treat that as "retry later", never as failure.
	ResolveParent(host surface.Host) (handle surface.ParentHandle, ok bool)

	// WindowInsets returns the chrome insets of the host's ancestor
	// window, used when the surface is positioned in window coordinates.
	WindowInsets(host surface.Host) surface.Insets

	// RequiresVisibleWindow reports whether creation must additionally
	// wait for the ancestor top-level window itself to be visible.
	RequiresVisibleWindow() bool

	// NeedsEventPump reports whether a parented foreign surface needs its
	// platform message loop serviced by the host.
	NeedsEventPump() bool

	// CreatesOffThread reports whether the engine's creation call must run
	// on a dedicated worker instead of the UI goroutine.
	CreatesOffThread() bool

	// CoalescesBounds reports whether bounds updates are coalesced onto a
	// fixed tick instead of being sent synchronously per layout pass.
	CoalescesBounds() bool

	// CreateRetryInterval is the PendingCreate tick interval.
	CreateRetryInterval() time.Duration
}

// Static is a fixed-capability Provider, used by tests and by embedders
// that supply their own platform mapping.
type Static struct {
	ProviderName  string
	Resolve       func(surface.Host) (surface.ParentHandle, bool)
	Insets        func(surface.Host) surface.Insets
	VisibleWindow bool
	Pump          bool
	OffThread     bool
	Coalesce      bool
	RetryInterval time.Duration
}

var _ Provider = (*Static)(nil)

func (s *Static) Name() string {
	if s.ProviderName == "" {
		return "static"
	}
	return s.ProviderName
}

func (s *Static) ResolveParent(host surface.Host) (surface.ParentHandle, bool) {
	if s.Resolve != nil {
		return s.Resolve(host)
	}
	return selectContentDefault(host.ContentHandle(), host.WindowHandle())
}

func (s *Static) WindowInsets(host surface.Host) surface.Insets {
	if s.Insets != nil {
		return s.Insets(host)
	}
	return host.WindowInsets()
}

func (s *Static) RequiresVisibleWindow() bool { return s.VisibleWindow }
func (s *Static) NeedsEventPump() bool        { return s.Pump }
func (s *Static) CreatesOffThread() bool      { return s.OffThread }
func (s *Static) CoalescesBounds() bool       { return s.Coalesce }

func (s *Static) CreateRetryInterval() time.Duration {
	if s.RetryInterval <= 0 {
		return 50 * time.Millisecond
	}
	return s.RetryInterval
}
