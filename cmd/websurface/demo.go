package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	websurface "github.com/kestrelview/websurface"
	"github.com/kestrelview/websurface/engine/headless"
	"github.com/kestrelview/websurface/internal/tui"
	"github.com/kestrelview/websurface/platform"
	"github.com/kestrelview/websurface/surface"
)

// demoHost stands in for a real UI container: always attached, visible,
// and of a fixed size. The demo exercises the full lifecycle against it.
type demoHost struct{}

func (demoHost) ContentHandle() uintptr       { return 0x1 }
func (demoHost) WindowHandle() uintptr        { return 0x2 }
func (demoHost) Displayable() bool            { return true }
func (demoHost) Showing() bool                { return true }
func (demoHost) WindowVisible() bool          { return true }
func (demoHost) Size() (int, int)             { return 1280, 800 }
func (demoHost) LocationInWindow() (int, int) { return 0, 0 }
func (demoHost) WindowInsets() surface.Insets { return surface.Insets{} }

func runDemo(args []string) int {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: standard location)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: websurface demo [--config path]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open the interactive demo shell against the in-process headless")
		fmt.Fprintln(os.Stderr, "engine. Page loads are simulated; lifecycle, navigation rules, and")
		fmt.Fprintln(os.Stderr, "state polling behave as with a real engine.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "demo takes no arguments")
		fs.Usage()
		return 2
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "demo requires an interactive terminal (stdin/stdout must be TTYs)")
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := newLogger(cfg)

	eng := headless.New()
	eng.AutoFinish = 1200 * time.Millisecond

	view := websurface.New(eng, websurface.Options{
		Provider:         &platform.Static{RetryInterval: 20 * time.Millisecond},
		Logger:           log,
		InitialURL:       cfg.Homepage,
		UserAgent:        cfg.UserAgent,
		DestroyGrace:     cfg.DestroyGrace,
		RecreateDebounce: cfg.RecreateDebounce,
	})
	defer view.Close()
	installNavigationRules(view, cfg)
	view.Attached(demoHost{})

	if err := tui.Run(view); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
