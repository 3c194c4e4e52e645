package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	websurface "github.com/kestrelview/websurface"
	"github.com/kestrelview/websurface/engine/headless"
	"github.com/kestrelview/websurface/internal/mcp"
	"github.com/kestrelview/websurface/platform"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: websurface mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'websurface mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs := flag.NewFlagSet("mcp serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: standard location)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: websurface mcp serve [--config path]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start the MCP server on stdio, driving an in-process headless")
		fmt.Fprintln(os.Stderr, "surface. Designed to be invoked by MCP clients.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "mcp serve takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := newLogger(cfg)

	eng := headless.New()
	eng.AutoFinish = 500 * time.Millisecond

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

	server := mcp.NewServer(view, log)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		log.Error("mcp server exited", "error", err)
		return 1
	}
	return 0
}
