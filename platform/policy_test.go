package platform

import (
	"testing"

	"github.com/kestrelview/websurface/surface"
)

func TestSelectWindowFirst(t *testing.T) {
	cases := []struct {
		name            string
		content, window uintptr
		want            surface.ParentHandle
		ok              bool
	}{
		{"window available", 0x10, 0x20, surface.ParentHandle{Raw: 0x20, IsTopLevelWindow: true}, true},
		{"content ignored", 0x10, 0, surface.ParentHandle{}, false},
		{"nothing realized", 0, 0, surface.ParentHandle{}, false},
	}
	for _, tc := range cases {
		got, ok := selectWindowFirst(tc.content, tc.window)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: got %+v ok=%v, want %+v ok=%v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSelectContentPreferred(t *testing.T) {
	cases := []struct {
		name            string
		content, window uintptr
		want            surface.ParentHandle
		ok              bool
	}{
		{"distinct content wins", 0x10, 0x20, surface.ParentHandle{Raw: 0x10, IsTopLevelWindow: false}, true},
		{"equal handles fall to window", 0x20, 0x20, surface.ParentHandle{Raw: 0x20, IsTopLevelWindow: true}, true},
		{"window only", 0, 0x20, surface.ParentHandle{Raw: 0x20, IsTopLevelWindow: true}, true},
		{"content only", 0x10, 0, surface.ParentHandle{Raw: 0x10, IsTopLevelWindow: false}, true},
		{"nothing realized", 0, 0, surface.ParentHandle{}, false},
	}
	for _, tc := range cases {
		got, ok := selectContentPreferred(tc.content, tc.window)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: got %+v ok=%v, want %+v ok=%v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSelectContentDefault(t *testing.T) {
	cases := []struct {
		name            string
		content, window uintptr
		want            surface.ParentHandle
		ok              bool
	}{
		{"content preferred", 0x10, 0x20, surface.ParentHandle{Raw: 0x10, IsTopLevelWindow: false}, true},
		{"window fallback", 0, 0x20, surface.ParentHandle{Raw: 0x20, IsTopLevelWindow: true}, true},
		{"nothing realized", 0, 0, surface.ParentHandle{}, false},
	}
	for _, tc := range cases {
		got, ok := selectContentDefault(tc.content, tc.window)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: got %+v ok=%v, want %+v ok=%v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStaticDefaults(t *testing.T) {
	s := &Static{}
	if s.Name() != "static" {
		t.Fatalf("Name() = %q", s.Name())
	}
	if s.CreateRetryInterval() <= 0 {
		t.Fatalf("retry interval must be positive")
	}
	h, ok := s.ResolveParent(stubHost{content: 0x44})
	if !ok || h.Raw != 0x44 || h.IsTopLevelWindow {
		t.Fatalf("default resolve = %+v ok=%v", h, ok)
	}
}

type stubHost struct {
	content, window uintptr
}

func (s stubHost) ContentHandle() uintptr       { return s.content }
func (s stubHost) WindowHandle() uintptr        { return s.window }
func (s stubHost) Displayable() bool            { return true }
func (s stubHost) Showing() bool                { return true }
func (s stubHost) WindowVisible() bool          { return true }
func (s stubHost) Size() (int, int)             { return 100, 100 }
func (s stubHost) LocationInWindow() (int, int) { return 0, 0 }
func (s stubHost) WindowInsets() surface.Insets { return surface.Insets{} }
