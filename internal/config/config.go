// Package config loads tpcheck configuration from TOML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"tpcheck/internal/api"
)

// DefaultServerURL is the hosted analysis service.
const DefaultServerURL = "https://api.tpcheck.dev"

// Config is the full tpcheck configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Check      CheckConfig      `toml:"check"`
	Compliance ComplianceConfig `toml:"compliance"`
	Watch      WatchConfig      `toml:"watch"`
	Log        LogConfig        `toml:"log"`
}

// ServerConfig locates the remote service.
type ServerConfig struct {
	URL       string `toml:"url"`
	TimeoutMs int    `toml:"timeout_ms"`
}

// CheckConfig holds /check options.
type CheckConfig struct {
	Fix       bool `toml:"fix"`
	FixUnsafe bool `toml:"fix_unsafe"`
}

// ComplianceConfig holds /compliance rule selection.
type ComplianceConfig struct {
	Select   []string `toml:"select"`
	Ignore   []string `toml:"ignore"`
	Severity string   `toml:"severity"`
	Standard string   `toml:"standard"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	DebounceMs int      `toml:"debounce_ms"`
	Extensions []string `toml:"extensions"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			URL:       DefaultServerURL,
			TimeoutMs: 30000,
		},
		Watch: WatchConfig{
			DebounceMs: 500,
			Extensions: []string{".ls", ".tp"},
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads configuration from path, layered over the defaults. A missing
// file is not an error; the defaults apply unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), &ParseError{Path: path, Message: err.Error(), Err: err}
	}

	if err := cfg.validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url must not be empty")
	}
	if c.Server.TimeoutMs < 0 {
		return fmt.Errorf("server.timeout_ms must not be negative")
	}
	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	if c.Server.TimeoutMs <= 0 {
		return api.DefaultTimeout
	}
	return time.Duration(c.Server.TimeoutMs) * time.Millisecond
}

// Debounce returns the watch-mode quiet period.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// CheckOptions maps the check section onto request options.
func (c Config) CheckOptions() api.CheckOptions {
	opts := api.DefaultCheckOptions()
	opts.Fix = c.Check.Fix
	opts.FixUnsafe = c.Check.FixUnsafe
	return opts
}

// ComplianceOptions maps the compliance section onto request options.
func (c Config) ComplianceOptions() api.ComplianceOptions {
	opts := api.DefaultComplianceOptions()
	opts.Select = c.Compliance.Select
	opts.Ignore = c.Compliance.Ignore
	opts.Severity = c.Compliance.Severity
	opts.Standard = c.Compliance.Standard
	return opts
}

// LogLevel parses the configured level, defaulting to warn.
func (c Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
