package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: websurface config <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  validate    Validate configuration and report errors")
	fmt.Fprintln(w, "  print       Print the effective configuration as YAML")
}

func runConfig(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:])
	case "print":
		return runConfigPrint(args[1:])
	case "help", "-h", "--help":
		printConfigUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n\n", args[0])
		printConfigUsage(os.Stderr)
		return 2
	}
}

func parseConfigFlags(name string, args []string) (path string, ok bool, code int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: standard location)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: websurface config %s [--config path]\n", name)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return "", false, 0
		}
		return "", false, 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "config %s takes no arguments\n", name)
		fs.Usage()
		return "", false, 2
	}
	return *configPath, true, 0
}

func runConfigValidate(args []string) int {
	path, ok, code := parseConfigFlags("validate", args)
	if !ok {
		return code
	}
	if _, err := loadConfig(path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("configuration is valid")
	return 0
}

// printableConfig is the YAML shape emitted by config print, matching the
// file format field names.
type printableConfig struct {
	Homepage           string            `yaml:"homepage"`
	UserAgent          string            `yaml:"user_agent,omitempty"`
	DestroyGraceMS     int64             `yaml:"destroy_grace_ms"`
	RecreateDebounceMS int64             `yaml:"recreate_debounce_ms"`
	NavigationBlock    []string          `yaml:"navigation_block,omitempty"`
	NavigationRewrite  map[string]string `yaml:"navigation_rewrite,omitempty"`
	LogLevel           string            `yaml:"log_level"`
	LogFormat          string            `yaml:"log_format"`
}

func runConfigPrint(args []string) int {
	path, ok, code := parseConfigFlags("print", args)
	if !ok {
		return code
	}
	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	out := printableConfig{
		Homepage:           cfg.Homepage,
		UserAgent:          cfg.UserAgent,
		DestroyGraceMS:     cfg.DestroyGrace.Milliseconds(),
		RecreateDebounceMS: cfg.RecreateDebounce.Milliseconds(),
		NavigationBlock:    cfg.Navigation.Block,
		NavigationRewrite:  cfg.Navigation.Rewrite,
		LogLevel:           cfg.Logging.Level.String(),
		LogFormat:          cfg.Logging.Format,
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	os.Stdout.Write(data)
	return 0
}
