//go:build darwin

package platform

import (
	"log/slog"
	"time"

	"github.com/kestrelview/websurface/surface"
)

// darwinProvider targets AppKit. The engine accepts NSView handles and
// extracts a window's contentView itself, so a distinct content handle is
// preferred. Bounds changes are dispatched to the main queue by the engine;
// coalescing them onto a render tick avoids flooding it during live
// resizes. AppKit realizes windows promptly, so the retry tick is short.
type darwinProvider struct {
	log *slog.Logger
}

// New resolves the macOS capability provider.
func New(log *slog.Logger) Provider {
	return &darwinProvider{log: log}
}

func (p *darwinProvider) Name() string { return "darwin-appkit" }

func (p *darwinProvider) ResolveParent(host surface.Host) (surface.ParentHandle, bool) {
	return selectContentPreferred(host.ContentHandle(), host.WindowHandle())
}

func (p *darwinProvider) WindowInsets(host surface.Host) surface.Insets {
	return host.WindowInsets()
}

func (p *darwinProvider) RequiresVisibleWindow() bool { return false }
func (p *darwinProvider) NeedsEventPump() bool        { return false }
func (p *darwinProvider) CreatesOffThread() bool      { return false }
func (p *darwinProvider) CoalescesBounds() bool       { return true }

func (p *darwinProvider) CreateRetryInterval() time.Duration {
	return 50 * time.Millisecond
}
