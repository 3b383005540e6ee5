package domain

import (
	"context"
	"time"
)

// WorkerInvoker runs an external worker process.
type WorkerInvoker interface {
	// Invoke starts the worker, drains its output and waits for it to exit.
	// diag receives each standard-error line as it arrives (may be nil).
	// Cancelling ctx kills the worker and yields a cancelled result.
	Invoke(ctx context.Context, req InvocationRequest, diag DiagnosticFunc) InvocationResult
}

// Logger writes diagnostic log entries.
// scope is an invocation ID; an empty scope logs globally only.
type Logger interface {
	Debug(scope, category, msg string)
	Info(scope, category, msg string)
	Warn(scope, category, msg string)
	Error(scope, category, msg string)
}

// NopLogger discards all entries.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(_, _, _ string) {}

// Info implements Logger.
func (NopLogger) Info(_, _, _ string) {}

// Warn implements Logger.
func (NopLogger) Warn(_, _, _ string) {}

// Error implements Logger.
func (NopLogger) Error(_, _, _ string) {}

// HistoryRepository persists invocation records.
type HistoryRepository interface {
	// Save creates or updates a record.
	Save(rec *InvocationRecord) error

	// Get retrieves a record by full ID or unique ID prefix.
	Get(id string) (*InvocationRecord, error)

	// List returns records matching the filter, newest first.
	List(filter HistoryFilter) ([]*InvocationRecord, error)

	// Prune deletes all but the newest keep records and returns the IDs it removed.
	Prune(keep int) ([]string, error)
}

// InvocationLogs manages the per-invocation log files.
type InvocationLogs interface {
	// CloseInvocation releases the log file of a finished invocation.
	CloseInvocation(id string) error

	// RemoveInvocation deletes the log file of an invocation.
	// A missing file is not an error.
	RemoveInvocation(id string) error
}

// HistoryFilter specifies criteria for listing records.
// Fields are ordered to minimize memory padding.
type HistoryFilter struct {
	State InvocationState // Empty = any state
	Limit int             // 0 = no limit
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (default <- global <- project).
	Load() (*Config, error)

	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)

	// LoadProject returns only the project configuration.
	LoadProject() (*Config, error)
}

// ConfigInfo describes a configuration file on disk.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// ConfigManager inspects and creates configuration files.
type ConfigManager interface {
	// GetGlobalConfigInfo returns information about the global config file.
	GetGlobalConfigInfo() ConfigInfo

	// GetProjectConfigInfo returns information about the project config file.
	GetProjectConfigInfo() ConfigInfo

	// InitGlobalConfig writes the config template to the global config file.
	InitGlobalConfig() error

	// InitProjectConfig writes the config template to the project config file.
	InitProjectConfig() error
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// IDGenerator returns a new unique invocation ID.
type IDGenerator func() string
