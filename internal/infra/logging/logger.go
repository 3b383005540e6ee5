// Package logging provides file-based logging for review-bridge.
// It outputs logs to both a global log file (<state>/logs/bridge.log)
// and invocation-specific log files (<state>/logs/inv-<id>.log).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/runoshun/review-bridge/internal/domain"
)

// Ensure Logger implements domain.Logger and domain.InvocationLogs.
var (
	_ domain.Logger         = (*Logger)(nil)
	_ domain.InvocationLogs = (*Logger)(nil)
)

// Logger wraps slog levels with file-based output support.
// Fields are ordered to minimize memory padding.
type Logger struct {
	mirror     io.Writer
	globalFile *os.File
	invFiles   map[string]*os.File
	stateDir   string
	mu         sync.Mutex
	level      slog.Level
}

// New creates a new Logger that writes to the state log directory.
// If stateDir is empty, file logging is disabled.
func New(stateDir string, level slog.Level) *Logger {
	return &Logger{
		stateDir: stateDir,
		level:    level,
		invFiles: make(map[string]*os.File),
	}
}

// SetMirror copies every written entry to w (nil disables).
func (l *Logger) SetMirror(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mirror = w
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureLogsDir creates the logs directory if it doesn't exist.
// Caller must hold l.mu.
func (l *Logger) ensureLogsDir() error {
	logsDir := filepath.Join(l.stateDir, "logs")
	return os.MkdirAll(logsDir, 0o750)
}

// openLog opens path for appending.
func openLog(path string) (*os.File, error) {
	// G302: Log files are append-only and need read access by the user's group
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
}

// ensureGlobalFile opens or returns the global log file.
// Caller must hold l.mu.
func (l *Logger) ensureGlobalFile() (*os.File, error) {
	if l.globalFile != nil {
		return l.globalFile, nil
	}
	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	f, err := openLog(domain.GlobalLogPath(l.stateDir))
	if err != nil {
		return nil, fmt.Errorf("open global log file: %w", err)
	}
	l.globalFile = f
	return f, nil
}

// ensureInvocationFile opens or returns the invocation log file.
// Caller must hold l.mu.
func (l *Logger) ensureInvocationFile(id string) (*os.File, error) {
	if f, ok := l.invFiles[id]; ok {
		return f, nil
	}
	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	f, err := openLog(domain.InvocationLogPath(l.stateDir, id))
	if err != nil {
		return nil, fmt.Errorf("open invocation log file: %w", err)
	}
	l.invFiles[id] = f
	return f, nil
}

// CloseInvocation closes the log file of one invocation, if open.
func (l *Logger) CloseInvocation(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.invFiles[id]
	if !ok {
		return nil
	}
	delete(l.invFiles, id)
	return f.Close()
}

// RemoveInvocation closes and deletes the log file of one invocation.
func (l *Logger) RemoveInvocation(id string) error {
	if l.stateDir == "" || !domain.IsValidIDPrefix(id) {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.invFiles[id]; ok {
		delete(l.invFiles, id)
		_ = f.Close()
	}
	err := os.Remove(domain.InvocationLogPath(l.stateDir, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove invocation log: %w", err)
	}
	return nil
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for id, f := range l.invFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.invFiles, id)
	}
	return lastErr
}

// formatLog formats a log entry.
// Format: [2025-12-30 09:32:51] [INFO] [inv-0f8b2c1e] [category] message
func formatLog(t time.Time, level slog.Level, id, category, msg string) string {
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		domain.LogScope(id),
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// log writes a log entry to the appropriate files.
// An empty id logs only to the global log. IDs that are not safe file name
// components are logged globally only.
func (l *Logger) log(level slog.Level, id, category, msg string) {
	if level < l.level {
		return
	}

	entry := formatLog(time.Now(), level, id, category, msg)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mirror != nil {
		_, _ = io.WriteString(l.mirror, entry)
	}
	if l.stateDir == "" {
		return
	}

	if gf, err := l.ensureGlobalFile(); err == nil {
		_, _ = io.WriteString(gf, entry)
	}
	if id != "" && domain.IsValidIDPrefix(id) {
		if f, err := l.ensureInvocationFile(id); err == nil {
			_, _ = io.WriteString(f, entry)
		}
	}
}

// Info logs an info message.
func (l *Logger) Info(id, category, msg string) {
	l.log(slog.LevelInfo, id, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(id, category, msg string) {
	l.log(slog.LevelDebug, id, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(id, category, msg string) {
	l.log(slog.LevelWarn, id, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(id, category, msg string) {
	l.log(slog.LevelError, id, category, msg)
}
