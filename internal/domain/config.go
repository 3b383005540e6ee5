package domain

import (
	_ "embed"
	"fmt"
	"sort"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string      `toml:"-" yaml:"-"`
	Worker   WorkerConfig  `toml:"worker" yaml:"worker"`
	Review   ReviewConfig  `toml:"review" yaml:"review"`
	Log      LogConfig     `toml:"log" yaml:"log"`
	History  HistoryConfig `toml:"history" yaml:"history"`
}

// WorkerConfig holds settings from the [worker] section.
type WorkerConfig struct {
	Executable string            `toml:"executable,omitempty" yaml:"executable,omitempty"` // Program that runs the worker (e.g., "python")
	Script     string            `toml:"script,omitempty" yaml:"script,omitempty"`         // Entry-point argument (e.g., "../worker/review.py")
	Dir        string            `toml:"dir,omitempty" yaml:"dir,omitempty"`               // Working directory for the worker
	Env        map[string]string `toml:"env,omitempty" yaml:"env,omitempty"`               // Extra environment variables
	Timeout    Duration          `toml:"timeout,omitempty" yaml:"timeout,omitempty"`       // 0 = wait until the worker exits
	WaitDelay  Duration          `toml:"wait_delay,omitempty" yaml:"wait_delay,omitempty"` // Grace period for pipes after kill/exit
}

// ReviewConfig holds settings from the [review] section.
type ReviewConfig struct {
	DefaultModel string `toml:"default_model,omitempty" yaml:"default_model,omitempty"` // Model used when --model is omitted
	APIKeyEnv    string `toml:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`     // Env var read when --api-key is omitted
}

// LogConfig holds logging settings from the [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty" yaml:"level,omitempty"` // debug, info, warn, error
}

// HistoryConfig holds invocation history settings from the [history] section.
type HistoryConfig struct {
	Enabled    *bool `toml:"enabled,omitempty" yaml:"enabled,omitempty"`         // nil = enabled
	MaxEntries int   `toml:"max_entries,omitempty" yaml:"max_entries,omitempty"` // Oldest records beyond this are pruned (0 = keep all)
}

// IsEnabled reports whether history recording is on.
func (h HistoryConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// Default configuration values.
const (
	DefaultExecutable = "python"
	DefaultScript     = "../worker/review.py"
	DefaultAPIKeyEnv  = "REVIEW_BRIDGE_API_KEY"
	DefaultLogLevel   = "info"
	DefaultMaxEntries = 200
	DefaultWaitDelay  = 5 * time.Second
)

// NewDefaultConfig returns a Config populated with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Worker: WorkerConfig{
			Executable: DefaultExecutable,
			Script:     DefaultScript,
			WaitDelay:  Duration(DefaultWaitDelay),
		},
		Review: ReviewConfig{
			APIKeyEnv: DefaultAPIKeyEnv,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		History: HistoryConfig{
			MaxEntries: DefaultMaxEntries,
		},
	}
}

// ConfigTemplate returns the commented template written by "config init".
func ConfigTemplate() string {
	return configTemplateContent
}

// WorkerEnv returns the [worker.env] table as sorted KEY=VALUE entries.
func (c *Config) WorkerEnv() []string {
	if len(c.Worker.Env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Worker.Env))
	for k := range c.Worker.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, c.Worker.Env[k]))
	}
	return env
}

// Duration is a time.Duration written as a Go duration string ("90s", "5m").
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDuration parses a Go duration string. An empty string is zero.
func ParseDuration(s string) (Duration, error) {
	if s == "" {
		return 0, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return Duration(v), nil
}
