// Package x11 provides the X11 queries the Linux capability provider needs
// to validate and resolve parent handles: ancestor walks, viewability
// checks, and frame extents for window chrome insets.
package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/kestrelview/websurface/surface"
)

// Probe holds an X11 connection used for read-only window queries.
type Probe struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// NewProbe connects to the X server named by DISPLAY.
func NewProbe() (*Probe, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X11: %w", err)
	}
	return &Probe{XUtil: xu, Root: xu.RootWin()}, nil
}

// Close disconnects from the X server.
func (p *Probe) Close() {
	p.XUtil.Conn().Close()
}

// IsViewable reports whether the window is mapped and all its ancestors are
// mapped. An unmapped or destroyed window is not a usable embedding parent.
func (p *Probe) IsViewable(win xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(p.XUtil.Conn(), win).Reply()
	if err != nil {
		return false
	}
	return attrs.MapState == xproto.MapStateViewable
}

// TopLevelAncestor walks the window tree upward and returns the ancestor
// whose parent is the root window, i.e. the top-level window containing win.
// win itself is returned when it is already top-level.
func (p *Probe) TopLevelAncestor(win xproto.Window) (xproto.Window, error) {
	current := win
	for {
		tree, err := xproto.QueryTree(p.XUtil.Conn(), current).Reply()
		if err != nil {
			return 0, fmt.Errorf("query tree for %#x: %w", uint32(current), err)
		}
		if tree.Parent == tree.Root || tree.Parent == 0 {
			return current, nil
		}
		current = tree.Parent
	}
}

// FrameExtents returns the window-manager decoration sizes around win.
// Windows without the EWMH property report zero insets; that is not an
// error, some window managers never set it.
func (p *Probe) FrameExtents(win xproto.Window) surface.Insets {
	extents, err := ewmh.FrameExtentsGet(p.XUtil, win)
	if err != nil {
		return surface.Insets{}
	}
	return surface.Insets{
		Left:   int(extents.Left),
		Right:  int(extents.Right),
		Top:    int(extents.Top),
		Bottom: int(extents.Bottom),
	}
}
