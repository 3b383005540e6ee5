package domain

import (
	"path/filepath"
	"regexp"
)

// AppName is used for config and state directory names.
const AppName = "review-bridge"

// ConfigFileName is the name of the global config file.
const ConfigFileName = "config.toml"

// ProjectConfigFileName is the name of the per-directory config file.
const ProjectConfigFileName = ".review-bridge.toml"

// shortIDLen is the number of ID characters shown in logs and listings.
const shortIDLen = 8

// GlobalConfigDir returns the global config directory under configHome.
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, AppName)
}

// StateDir returns the state directory under stateHome.
func StateDir(stateHome string) string {
	return filepath.Join(stateHome, AppName)
}

// ProjectConfigPath returns the path to the project config file in dir.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ProjectConfigFileName)
}

// GlobalLogPath returns the path to the global log file.
func GlobalLogPath(stateDir string) string {
	return filepath.Join(stateDir, "logs", "bridge.log")
}

// InvocationLogPath returns the path to the log file of one invocation.
func InvocationLogPath(stateDir, id string) string {
	return filepath.Join(stateDir, "logs", "inv-"+id+".log")
}

// HistoryStorePath returns the path to the history.json file.
func HistoryStorePath(stateDir string) string {
	return filepath.Join(stateDir, "history.json")
}

// ShortID returns the abbreviated form of an invocation ID.
func ShortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// LogScope returns the scope label used in log lines.
// Format: inv-<short id>, or "global" for an empty ID.
func LogScope(id string) string {
	if id == "" {
		return "global"
	}
	return "inv-" + ShortID(id)
}

// idPattern matches IDs and ID prefixes (hex digits and dashes).
var idPattern = regexp.MustCompile(`^[0-9a-fA-F-]+$`)

// IsValidIDPrefix reports whether s can be an invocation ID or a prefix of one.
func IsValidIDPrefix(s string) bool {
	return idPattern.MatchString(s)
}
