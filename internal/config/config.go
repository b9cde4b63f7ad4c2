// Package config holds the jamcord configuration, loaded through viper from
// a YAML file, environment variables (JAMCORD_ prefix), and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete jamcord configuration
type Config struct {
	Session   SessionConfig `mapstructure:"session"`
	Display   DisplayConfig `mapstructure:"display"`
	Evaluator EvalConfig    `mapstructure:"evaluator"`
	Samples   SamplesConfig `mapstructure:"samples"`
	Logging   LoggingConfig `mapstructure:"logging"`
	Paths     PathsConfig   `mapstructure:"paths"`
}

// SessionConfig controls session and turn-loop behavior
type SessionConfig struct {
	// ConfirmEmblem is the reaction participants raise to confirm a
	// pending submission (default: "☑")
	ConfirmEmblem string `mapstructure:"confirm_emblem"`
	// JoinPromptTimeoutMinutes is how long a participant has to post their
	// first submission after being prompted (default: 5)
	JoinPromptTimeoutMinutes int `mapstructure:"join_prompt_timeout_minutes"`
	// CleanupDelaySeconds is how long to wait before purging non-protocol
	// messages from a session's room; negative disables purging (default: -1)
	CleanupDelaySeconds int `mapstructure:"cleanup_delay_seconds"`
	// KeepPatterns are glob patterns for message content exempt from
	// purging, in addition to the "*" keep marker prefix
	KeepPatterns []string `mapstructure:"keep_patterns"`
	// PageBudget is the per-page character budget of the shared console
	// (default: 1400)
	PageBudget int `mapstructure:"page_budget"`
}

// DisplayConfig controls the shared console refresh loop
type DisplayConfig struct {
	// RefreshIntervalMs is how often the supervisor polls the dirty flag
	// (default: 500)
	RefreshIntervalMs int `mapstructure:"refresh_interval_ms"`
}

// EvalConfig controls the interpreter subprocess
type EvalConfig struct {
	// DefaultKind is the interpreter started when none is named
	// (default: "foxdot")
	DefaultKind string `mapstructure:"default_kind"`
	// SettleMs is how long an evaluation waits for the interpreter to
	// print before capturing its output (default: 300)
	SettleMs int `mapstructure:"settle_ms"`
	// Commands overrides the argv used to start an interpreter kind,
	// e.g. {"foxdot": ["python3", "-m", "FoxDot", "--pipe"]}
	Commands map[string][]string `mapstructure:"commands"`
}

// SamplesConfig controls the sample library
type SamplesConfig struct {
	// Dir is where downloaded samples live; empty uses paths.data_dir/samples
	Dir string `mapstructure:"dir"`
	// OverwriteTimeoutSeconds is how long a replace-confirmation prompt
	// waits before choosing "no" (default: 45)
	OverwriteTimeoutSeconds int `mapstructure:"overwrite_timeout_seconds"`
	// FetchCommand is the argv prefix of the external audio fetcher
	// (default: yt-dlp extracting wav audio)
	FetchCommand []string `mapstructure:"fetch_command"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether file logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the log directory; empty logs to stderr
	Dir string `mapstructure:"dir"`
}

// PathsConfig controls where jamcord stores data
type PathsConfig struct {
	// DataDir is the root data directory. Empty uses the XDG data dir.
	// Supports ~ for home directory expansion.
	DataDir string `mapstructure:"data_dir"`
}

// JoinPromptTimeout returns the join prompt timeout as a time.Duration
func (c *SessionConfig) JoinPromptTimeout() time.Duration {
	return time.Duration(c.JoinPromptTimeoutMinutes) * time.Minute
}

// CleanupDelay returns the purge delay; negative means purging is disabled
func (c *SessionConfig) CleanupDelay() time.Duration {
	return time.Duration(c.CleanupDelaySeconds) * time.Second
}

// RefreshInterval returns the dirty-flag poll interval as a time.Duration
func (c *DisplayConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMs) * time.Millisecond
}

// Settle returns the evaluation settle window as a time.Duration
func (c *EvalConfig) Settle() time.Duration {
	return time.Duration(c.SettleMs) * time.Millisecond
}

// OverwriteTimeout returns the replace-confirmation window as a time.Duration
func (c *SamplesConfig) OverwriteTimeout() time.Duration {
	return time.Duration(c.OverwriteTimeoutSeconds) * time.Second
}

// ResolveDataDir returns the resolved data directory, expanding ~ and
// falling back to the XDG data dir.
func (p *PathsConfig) ResolveDataDir() string {
	path := p.DataDir
	if path == "" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "jamcord")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return ".jamcord"
		}
		return filepath.Join(home, ".local", "share", "jamcord")
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}

// ResolveSamplesDir returns the sample library directory.
func (c *Config) ResolveSamplesDir() string {
	if c.Samples.Dir != "" {
		return c.Samples.Dir
	}
	return filepath.Join(c.Paths.ResolveDataDir(), "samples")
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			ConfirmEmblem:            "☑",
			JoinPromptTimeoutMinutes: 5,
			CleanupDelaySeconds:      -1, // purging off unless asked for
			KeepPatterns:             []string{},
			PageBudget:               1400,
		},
		Display: DisplayConfig{
			RefreshIntervalMs: 500,
		},
		Evaluator: EvalConfig{
			DefaultKind: "foxdot",
			SettleMs:    300,
			Commands:    map[string][]string{},
		},
		Samples: SamplesConfig{
			Dir:                     "",
			OverwriteTimeoutSeconds: 45,
			FetchCommand: []string{
				"yt-dlp", "--extract-audio", "--audio-format", "wav",
				"--no-check-certificates", "--quiet", "--no-warnings",
				"--default-search", "auto",
			},
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Dir:     "",
		},
		Paths: PathsConfig{
			DataDir: "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("session.confirm_emblem", defaults.Session.ConfirmEmblem)
	viper.SetDefault("session.join_prompt_timeout_minutes", defaults.Session.JoinPromptTimeoutMinutes)
	viper.SetDefault("session.cleanup_delay_seconds", defaults.Session.CleanupDelaySeconds)
	viper.SetDefault("session.keep_patterns", defaults.Session.KeepPatterns)
	viper.SetDefault("session.page_budget", defaults.Session.PageBudget)

	viper.SetDefault("display.refresh_interval_ms", defaults.Display.RefreshIntervalMs)

	viper.SetDefault("evaluator.default_kind", defaults.Evaluator.DefaultKind)
	viper.SetDefault("evaluator.settle_ms", defaults.Evaluator.SettleMs)
	viper.SetDefault("evaluator.commands", defaults.Evaluator.Commands)

	viper.SetDefault("samples.dir", defaults.Samples.Dir)
	viper.SetDefault("samples.overwrite_timeout_seconds", defaults.Samples.OverwriteTimeoutSeconds)
	viper.SetDefault("samples.fetch_command", defaults.Samples.FetchCommand)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	viper.SetDefault("paths.data_dir", defaults.Paths.DataDir)
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() []error {
	var errs []error

	if c.Session.ConfirmEmblem == "" {
		errs = append(errs, fmt.Errorf("session.confirm_emblem must not be empty"))
	}
	if c.Session.PageBudget < 64 {
		errs = append(errs, fmt.Errorf("session.page_budget must be at least 64, got %d", c.Session.PageBudget))
	}
	if c.Session.JoinPromptTimeoutMinutes < 1 {
		errs = append(errs, fmt.Errorf("session.join_prompt_timeout_minutes must be at least 1, got %d", c.Session.JoinPromptTimeoutMinutes))
	}
	if c.Display.RefreshIntervalMs < 50 {
		errs = append(errs, fmt.Errorf("display.refresh_interval_ms must be at least 50, got %d", c.Display.RefreshIntervalMs))
	}
	if c.Evaluator.SettleMs < 1 {
		errs = append(errs, fmt.Errorf("evaluator.settle_ms must be positive, got %d", c.Evaluator.SettleMs))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level))
	}

	return errs
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if
// unmarshaling fails.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "jamcord")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jamcord"
	}
	return filepath.Join(home, ".config", "jamcord")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
