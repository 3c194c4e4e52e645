package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	def := Default()
	if cfg.Homepage != def.Homepage || cfg.DestroyGrace != def.DestroyGrace {
		t.Fatalf("missing file did not yield defaults: %+v", cfg)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
homepage: https://example.com/start
user_agent: "agent/2.0"
destroy_grace_ms: 250
recreate_debounce_ms: 600
navigation:
  block:
    - https://tracker.example.net/
  rewrite:
    http://example.com/: https://example.com/
logging:
  level: debug
  format: json
`)
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Homepage != "https://example.com/start" || cfg.UserAgent != "agent/2.0" {
		t.Fatalf("scalars = %+v", cfg)
	}
	if cfg.DestroyGrace != 250*time.Millisecond || cfg.RecreateDebounce != 600*time.Millisecond {
		t.Fatalf("timings = %v / %v", cfg.DestroyGrace, cfg.RecreateDebounce)
	}
	if len(cfg.Navigation.Block) != 1 || cfg.Navigation.Rewrite["http://example.com/"] != "https://example.com/" {
		t.Fatalf("navigation = %+v", cfg.Navigation)
	}
	if cfg.Logging.Level != slog.LevelDebug || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "homepage: https://example.com/\n")
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.DestroyGrace != 400*time.Millisecond || cfg.Logging.Format != "text" {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "home_page: https://example.com/\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("unknown field accepted")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name, yaml, wantPath string
	}{
		{"schemeless homepage", "homepage: example.com/start\n", "homepage"},
		{"negative grace", "destroy_grace_ms: -1\n", "destroy_grace_ms"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"bad rewrite target", "navigation:\n  rewrite:\n    a/: no-scheme\n", "navigation.rewrite"},
	}
	for _, tc := range cases {
		path := writeConfig(t, tc.yaml)
		_, err := LoadFromPath(path)
		if err == nil {
			t.Fatalf("%s: accepted", tc.name)
		}
		if !strings.Contains(err.Error(), tc.wantPath) {
			t.Fatalf("%s: error %q does not name %s", tc.name, err, tc.wantPath)
		}
	}
}
