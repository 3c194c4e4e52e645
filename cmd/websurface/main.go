package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	websurface "github.com/kestrelview/websurface"
	"github.com/kestrelview/websurface/internal/config"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "demo":
		os.Exit(runDemo(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "version":
		fmt.Println(version)
		os.Exit(0)
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: websurface <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  demo                Open the interactive demo shell (headless engine)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print effective configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  version             Print version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'websurface <command> --help' for command-specific options.")
}

// loadConfig reads the configuration at path, or the default location when
// path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// newLogger builds the structured logger the configuration asks for. All
// output goes to stderr; with the MCP transport on stdout that is the only
// safe stream.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Logging.Level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// installNavigationRules turns the declarative config rules into one
// registered policy. Block wins over rewrite.
func installNavigationRules(view *websurface.View, cfg *config.Config) {
	rules := cfg.Navigation
	if len(rules.Block) == 0 && len(rules.Rewrite) == 0 {
		return
	}
	view.AddNavigationPolicy(func(url string) websurface.NavigationDecision {
		for _, prefix := range rules.Block {
			if strings.HasPrefix(url, prefix) {
				return websurface.Reject()
			}
		}
		for prefix, target := range rules.Rewrite {
			if strings.HasPrefix(url, prefix) {
				return websurface.ModifyTo(target, nil)
			}
		}
		return websurface.Allow()
	})
}
