//go:build !linux && !darwin && !windows

package platform

import (
	"log/slog"
	"time"

	"github.com/kestrelview/websurface/surface"
)

// otherProvider is the conservative fallback for platforms without a
// dedicated variant.
type otherProvider struct {
	log *slog.Logger
}

// New resolves the fallback capability provider.
func New(log *slog.Logger) Provider {
	return &otherProvider{log: log}
}

func (p *otherProvider) Name() string { return "generic" }

func (p *otherProvider) ResolveParent(host surface.Host) (surface.ParentHandle, bool) {
	return selectContentDefault(host.ContentHandle(), host.WindowHandle())
}

func (p *otherProvider) WindowInsets(host surface.Host) surface.Insets {
	return host.WindowInsets()
}

func (p *otherProvider) RequiresVisibleWindow() bool { return false }
func (p *otherProvider) NeedsEventPump() bool        { return false }
func (p *otherProvider) CreatesOffThread() bool      { return false }
func (p *otherProvider) CoalescesBounds() bool       { return false }

func (p *otherProvider) CreateRetryInterval() time.Duration {
	return 50 * time.Millisecond
}
