package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Raw field values are pointers so "absent" and "set to the zero value" stay
// distinguishable; absent fields keep their defaults.
type rawConfig struct {
	Homepage           *string        `yaml:"homepage"`
	UserAgent          *string        `yaml:"user_agent"`
	DestroyGraceMS     *int           `yaml:"destroy_grace_ms"`
	RecreateDebounceMS *int           `yaml:"recreate_debounce_ms"`
	Navigation         *rawNavigation `yaml:"navigation"`
	Logging            *rawLogging    `yaml:"logging"`
}

type rawNavigation struct {
	Block   []string          `yaml:"block"`
	Rewrite map[string]string `yaml:"rewrite"`
}

type rawLogging struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

// DefaultConfigPath is the standard configuration location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "websurface", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates the configuration at path. A missing
// file yields the defaults; a malformed or invalid file is an error.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}

	var raw rawConfig
	if err := decodeStrictYAML(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: failed to parse yaml: %w", path, err)
	}
	if err := applyRaw(cfg, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func applyRaw(cfg *Config, raw *rawConfig) error {
	if raw.Homepage != nil {
		cfg.Homepage = *raw.Homepage
	}
	if raw.UserAgent != nil {
		cfg.UserAgent = *raw.UserAgent
	}
	if raw.DestroyGraceMS != nil {
		cfg.DestroyGrace = time.Duration(*raw.DestroyGraceMS) * time.Millisecond
	}
	if raw.RecreateDebounceMS != nil {
		cfg.RecreateDebounce = time.Duration(*raw.RecreateDebounceMS) * time.Millisecond
	}
	if raw.Navigation != nil {
		cfg.Navigation.Block = raw.Navigation.Block
		cfg.Navigation.Rewrite = raw.Navigation.Rewrite
	}
	if raw.Logging != nil {
		if raw.Logging.Level != nil {
			level, err := parseLevel(*raw.Logging.Level)
			if err != nil {
				return validationErrorf("logging.level", "%v", err)
			}
			cfg.Logging.Level = level
		}
		if raw.Logging.Format != nil {
			cfg.Logging.Format = *raw.Logging.Format
		}
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level %q", s)
	}
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}
