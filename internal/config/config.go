// Package config loads the host-side configuration of the embedding: what
// to show first, how the surface identifies itself, lifecycle timing knobs,
// and declarative navigation rules. Files are YAML with strict field
// checking so typos fail loudly instead of being ignored.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// Config is the effective, validated configuration.
type Config struct {
	// Homepage is loaded when the surface is first created.
	Homepage string

	// UserAgent is the identity string presented to served content; empty
	// keeps the engine default.
	UserAgent string

	// DestroyGrace is how long a detached surface survives before
	// destruction. RecreateDebounce collapses rapid recreation-forcing
	// changes into one cycle.
	DestroyGrace     time.Duration
	RecreateDebounce time.Duration

	Navigation NavigationConfig
	Logging    LoggingConfig
}

// NavigationConfig declares URL-prefix rules applied to page-initiated
// navigations. Block wins over Rewrite when both match.
type NavigationConfig struct {
	// Block lists URL prefixes whose navigations are rejected.
	Block []string

	// Rewrite maps URL prefixes to replacement URLs.
	Rewrite map[string]string
}

// LoggingConfig controls the structured log output.
type LoggingConfig struct {
	Level  slog.Level
	Format string // "text" or "json"
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Homepage:         "about:blank",
		DestroyGrace:     400 * time.Millisecond,
		RecreateDebounce: 400 * time.Millisecond,
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: "text",
		},
	}
}

// ValidationError points at the offending YAML path.
type ValidationError struct {
	Path string
	Msg  string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func validationErrorf(path string, format string, args ...any) error {
	return &ValidationError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks the effective configuration.
func (c *Config) Validate() error {
	if c.Homepage != "" {
		if err := checkURL(c.Homepage); err != nil {
			return validationErrorf("homepage", "%v", err)
		}
	}
	if c.DestroyGrace < 0 {
		return validationErrorf("destroy_grace_ms", "must not be negative")
	}
	if c.RecreateDebounce < 0 {
		return validationErrorf("recreate_debounce_ms", "must not be negative")
	}
	for i, prefix := range c.Navigation.Block {
		if prefix == "" {
			return validationErrorf("navigation.block", "entry %d is empty", i)
		}
	}
	for prefix, target := range c.Navigation.Rewrite {
		if prefix == "" {
			return validationErrorf("navigation.rewrite", "empty prefix")
		}
		if err := checkURL(target); err != nil {
			return validationErrorf("navigation.rewrite", "target for %q: %v", prefix, err)
		}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return validationErrorf("logging.format", "must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("not a valid url: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("url %q has no scheme", raw)
	}
	return nil
}
