package platform

import "github.com/kestrelview/websurface/surface"

// Handle-selection policies, pure so they stay testable on every platform.
// Which policy a platform uses depends on what handle class its engine
// embedding API accepts.

// selectWindowFirst prefers the enclosing top-level window's identity over
// any child surface identity. Used where the embedding API only accepts
// window-class handles.
func selectWindowFirst(content, window uintptr) (surface.ParentHandle, bool) {
	if window != 0 {
		return surface.ParentHandle{Raw: window, IsTopLevelWindow: true}, true
	}
	return surface.ParentHandle{}, false
}

// selectContentPreferred prefers a distinct child content handle over the
// window handle when both exist and differ, then falls back to the window
// handle, then to the content handle even when it equals the window handle.
func selectContentPreferred(content, window uintptr) (surface.ParentHandle, bool) {
	switch {
	case content != 0 && content != window:
		return surface.ParentHandle{Raw: content, IsTopLevelWindow: false}, true
	case window != 0:
		return surface.ParentHandle{Raw: window, IsTopLevelWindow: true}, true
	case content != 0:
		return surface.ParentHandle{Raw: content, IsTopLevelWindow: false}, true
	default:
		return surface.ParentHandle{}, false
	}
}

// selectContentDefault prefers the content handle, falling back to the
// window handle, marking whichever is not a window-class handle.
func selectContentDefault(content, window uintptr) (surface.ParentHandle, bool) {
	switch {
	case content != 0:
		return surface.ParentHandle{Raw: content, IsTopLevelWindow: false}, true
	case window != 0:
		return surface.ParentHandle{Raw: window, IsTopLevelWindow: true}, true
	default:
		return surface.ParentHandle{}, false
	}
}
