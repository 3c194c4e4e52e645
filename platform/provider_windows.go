//go:build windows

package platform

import (
	"log/slog"
	"time"

	"github.com/kestrelview/websurface/surface"
)

// windowsProvider targets Win32. The engine accepts any HWND, so the child
// content handle is preferred and creation runs on the UI goroutine, but
// the parented surface's message loop is not serviced by the host toolkit
// and must be pumped.
type windowsProvider struct {
	log *slog.Logger
}

// New resolves the Windows capability provider.
func New(log *slog.Logger) Provider {
	return &windowsProvider{log: log}
}

func (p *windowsProvider) Name() string { return "windows-win32" }

func (p *windowsProvider) ResolveParent(host surface.Host) (surface.ParentHandle, bool) {
	return selectContentDefault(host.ContentHandle(), host.WindowHandle())
}

func (p *windowsProvider) WindowInsets(host surface.Host) surface.Insets {
	return host.WindowInsets()
}

func (p *windowsProvider) RequiresVisibleWindow() bool { return false }
func (p *windowsProvider) NeedsEventPump() bool        { return true }
func (p *windowsProvider) CreatesOffThread() bool      { return false }
func (p *windowsProvider) CoalescesBounds() bool       { return false }

func (p *windowsProvider) CreateRetryInterval() time.Duration {
	return 50 * time.Millisecond
}
