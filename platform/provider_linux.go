//go:build linux

package platform

import (
	"log/slog"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/kestrelview/websurface/internal/x11"
	"github.com/kestrelview/websurface/surface"
)

// linuxProvider targets X11. The engine embeds through a GTK thread that
// only accepts window-class handles, so the enclosing window identity wins
// and creation waits for the window to be fully visible. The GTK thread
// pumps its own loop, but creation calls marshaled onto it can block, so
// they run off the UI goroutine. Window realization under X can lag the
// host toolkit noticeably; the retry tick is the slowest of the platforms.
type linuxProvider struct {
	probe *x11.Probe
	log   *slog.Logger
}

// New resolves the Linux capability provider. The X probe is optional:
// without a usable DISPLAY the provider still works off the host toolkit's
// reported handles alone.
func New(log *slog.Logger) Provider {
	p := &linuxProvider{log: log}
	probe, err := x11.NewProbe()
	if err != nil {
		log.Warn("x11 probe unavailable, using toolkit handles only", "error", err)
	} else {
		p.probe = probe
	}
	return p
}

func (p *linuxProvider) Name() string { return "linux-x11" }

func (p *linuxProvider) ResolveParent(host surface.Host) (surface.ParentHandle, bool) {
	window := host.WindowHandle()
	if window == 0 && p.probe != nil {
		// The toolkit has no window handle yet; try walking up from the
		// content handle to the top-level X ancestor.
		if content := host.ContentHandle(); content != 0 {
			if top, err := p.probe.TopLevelAncestor(xproto.Window(content)); err == nil {
				window = uintptr(top)
			}
		}
	}
	handle, ok := selectWindowFirst(host.ContentHandle(), window)
	if !ok {
		return surface.ParentHandle{}, false
	}
	if p.probe != nil && !p.probe.IsViewable(xproto.Window(handle.Raw)) {
		// Mapped-but-not-viewable windows reject child embedding; retry.
		return surface.ParentHandle{}, false
	}
	return handle, true
}

func (p *linuxProvider) WindowInsets(host surface.Host) surface.Insets {
	if p.probe != nil {
		if window := host.WindowHandle(); window != 0 {
			return p.probe.FrameExtents(xproto.Window(window))
		}
	}
	return host.WindowInsets()
}

func (p *linuxProvider) RequiresVisibleWindow() bool { return true }
func (p *linuxProvider) NeedsEventPump() bool        { return false }
func (p *linuxProvider) CreatesOffThread() bool      { return true }
func (p *linuxProvider) CoalescesBounds() bool       { return false }

func (p *linuxProvider) CreateRetryInterval() time.Duration {
	return 100 * time.Millisecond
}
