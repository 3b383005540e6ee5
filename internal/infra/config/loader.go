// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/runoshun/review-bridge/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	projectDir    string // Directory holding .review-bridge.toml
	globalConfDir string // Path to global config directory (e.g., ~/.config/review-bridge)
}

// NewLoader creates a new Loader.
func NewLoader(projectDir string) *Loader {
	return &Loader{
		projectDir:    projectDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(projectDir, globalConfDir string) *Loader {
	return &Loader{
		projectDir:    projectDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

func (l *Loader) globalPath() string {
	if l.globalConfDir == "" {
		return ""
	}
	return filepath.Join(l.globalConfDir, domain.ConfigFileName)
}

func (l *Loader) projectPath() string {
	if l.projectDir == "" {
		return ""
	}
	return domain.ProjectConfigPath(l.projectDir)
}

// Load returns the merged configuration (default <- global <- project).
// Missing files are skipped.
func (l *Loader) Load() (*domain.Config, error) {
	cfg := domain.NewDefaultConfig()
	for _, path := range []string{l.globalPath(), l.projectPath()} {
		if err := l.applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadGlobal returns only the global configuration.
// Returns os.ErrNotExist when the file is absent.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	return l.loadOnly(l.globalPath())
}

// LoadProject returns only the project configuration.
// Returns os.ErrNotExist when the file is absent.
func (l *Loader) LoadProject() (*domain.Config, error) {
	return l.loadOnly(l.projectPath())
}

func (l *Loader) loadOnly(path string) (*domain.Config, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	cfg := &domain.Config{}
	if err := applyRaw(cfg, raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// applyFile overlays the file at path onto cfg. A missing file is not an error.
func (l *Loader) applyFile(cfg *domain.Config, path string) error {
	if path == "" {
		return nil
	}
	raw, err := readRaw(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := applyRaw(cfg, raw); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// readRaw parses a TOML file into a generic map.
func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return raw, nil
}

// applyRaw overlays the keys present in raw onto cfg.
// Unknown sections and keys, and values of the wrong type, are reported as
// warnings. Invalid durations are errors.
func applyRaw(cfg *domain.Config, raw map[string]any) error {
	var warnings []string
	warnf := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnf("unknown key: %s", section)
			continue
		}
		switch section {
		case "worker":
			if err := applyWorker(&cfg.Worker, m, warnf); err != nil {
				return err
			}
		case "review":
			for k, v := range m {
				switch k {
				case "default_model":
					setString(&cfg.Review.DefaultModel, "review", k, v, warnf)
				case "api_key_env":
					setString(&cfg.Review.APIKeyEnv, "review", k, v, warnf)
				default:
					warnf("unknown key in [review]: %s", k)
				}
			}
		case "log":
			for k, v := range m {
				switch k {
				case "level":
					setString(&cfg.Log.Level, "log", k, v, warnf)
				default:
					warnf("unknown key in [log]: %s", k)
				}
			}
		case "history":
			for k, v := range m {
				switch k {
				case "enabled":
					if b, ok := v.(bool); ok {
						cfg.History.Enabled = &b
					} else {
						warnf("invalid value for [history] enabled: %v", v)
					}
				case "max_entries":
					if n, ok := v.(int64); ok && n >= 0 {
						cfg.History.MaxEntries = int(n)
					} else {
						warnf("invalid value for [history] max_entries: %v", v)
					}
				default:
					warnf("unknown key in [history]: %s", k)
				}
			}
		default:
			warnf("unknown section: %s", section)
		}
	}

	sort.Strings(warnings)
	cfg.Warnings = append(cfg.Warnings, warnings...)
	return nil
}

func applyWorker(w *domain.WorkerConfig, m map[string]any, warnf func(string, ...any)) error {
	for k, v := range m {
		switch k {
		case "executable":
			setString(&w.Executable, "worker", k, v, warnf)
		case "script":
			setString(&w.Script, "worker", k, v, warnf)
		case "dir":
			setString(&w.Dir, "worker", k, v, warnf)
		case "timeout", "wait_delay":
			s, ok := v.(string)
			if !ok {
				warnf("invalid value for [worker] %s: %v", k, v)
				continue
			}
			d, err := domain.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("[worker] %s: %w", k, err)
			}
			if k == "timeout" {
				w.Timeout = d
			} else {
				w.WaitDelay = d
			}
		case "env":
			env, ok := v.(map[string]any)
			if !ok {
				warnf("invalid value for [worker] env: %v", v)
				continue
			}
			if w.Env == nil {
				w.Env = make(map[string]string, len(env))
			}
			for name, val := range env {
				if s, ok := val.(string); ok {
					w.Env[name] = s
				} else {
					warnf("invalid value for [worker.env] %s: %v", name, val)
				}
			}
		default:
			warnf("unknown key in [worker]: %s", k)
		}
	}
	return nil
}

func setString(dst *string, section, key string, v any, warnf func(string, ...any)) {
	s, ok := v.(string)
	if !ok {
		warnf("invalid value for [%s] %s: %v", section, key, v)
		return
	}
	*dst = s
}
