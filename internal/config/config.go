package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	appName = "codexswitch"

	// EnvPrefix marks environment overrides. Nested keys use a double
	// underscore: CODEXSWITCH_USAGE__MAX_CONCURRENCY=4.
	EnvPrefix = "CODEXSWITCH_"
)

type UsageConfig struct {
	BaseURL           string  `koanf:"base_url"`
	TimeoutSeconds    int     `koanf:"timeout_seconds"`
	MaxConcurrency    int     `koanf:"max_concurrency"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

func (c UsageConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// UIConfig thresholds are fractions of a window already used.
type UIConfig struct {
	WarnThreshold float64 `koanf:"warn_threshold"`
	CritThreshold float64 `koanf:"crit_threshold"`
}

type Config struct {
	StorePath string      `koanf:"store_path"`
	CodexHome string      `koanf:"codex_home"` // overrides CODEX_HOME when set
	Debug     bool        `koanf:"debug"`
	Usage     UsageConfig `koanf:"usage"`
	UI        UIConfig    `koanf:"ui"`
}

func DefaultConfig() Config {
	return Config{
		StorePath: filepath.Join(ConfigDir(), "accounts.db"),
		Usage: UsageConfig{
			BaseURL:        "https://chatgpt.com/backend-api",
			TimeoutSeconds: 30,
		},
		UI: UIConfig{
			WarnThreshold: 0.80,
			CritThreshold: 0.95,
		},
	}
}

func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom layers defaults, the JSON settings file at path (if present) and
// CODEXSWITCH_* environment variables, in that order.
func LoadFrom(path string) (Config, error) {
	k := koanf.New(".")

	def := DefaultConfig()
	if err := k.Load(confmap.Provider(map[string]any{
		"store_path":                def.StorePath,
		"usage.base_url":            def.Usage.BaseURL,
		"usage.timeout_seconds":     def.Usage.TimeoutSeconds,
		"usage.max_concurrency":     def.Usage.MaxConcurrency,
		"usage.requests_per_second": def.Usage.RequestsPerSecond,
		"ui.warn_threshold":         def.UI.WarnThreshold,
		"ui.crit_threshold":         def.UI.CritThreshold,
	}, "."), nil); err != nil {
		return def, fmt.Errorf("loading defaults: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return def, fmt.Errorf("parsing config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return def, fmt.Errorf("reading config: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return def, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return def, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return def, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.StorePath) == "" {
		errs = append(errs, "store_path must not be empty")
	}
	if c.Usage.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Sprintf("usage.timeout_seconds must be >= 0, got %d", c.Usage.TimeoutSeconds))
	}
	if c.Usage.MaxConcurrency < 0 {
		errs = append(errs, fmt.Sprintf("usage.max_concurrency must be >= 0, got %d", c.Usage.MaxConcurrency))
	}
	if c.Usage.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Sprintf("usage.requests_per_second must be >= 0, got %g", c.Usage.RequestsPerSecond))
	}
	for name, v := range map[string]float64{
		"ui.warn_threshold": c.UI.WarnThreshold,
		"ui.crit_threshold": c.UI.CritThreshold,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be within [0, 1], got %g", name, v))
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
