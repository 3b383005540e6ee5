// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/runoshun/review-bridge/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
	Step    time.Duration // Added to NowTime after every call
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	now := m.NowTime
	m.NowTime = m.NowTime.Add(m.Step)
	return now
}

// SequentialIDs returns an IDGenerator producing deterministic UUID-shaped IDs.
func SequentialIDs() domain.IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%08x-0000-4000-8000-000000000000", n)
	}
}

// LogEntry is one entry captured by MockLogger.
type LogEntry struct {
	Level    string
	Scope    string
	Category string
	Msg      string
}

// MockLogger is a test double for domain.Logger that records entries.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

func (m *MockLogger) add(level, scope, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, Scope: scope, Category: category, Msg: msg})
}

// Debug records a debug entry.
func (m *MockLogger) Debug(scope, category, msg string) { m.add("DEBUG", scope, category, msg) }

// Info records an info entry.
func (m *MockLogger) Info(scope, category, msg string) { m.add("INFO", scope, category, msg) }

// Warn records a warn entry.
func (m *MockLogger) Warn(scope, category, msg string) { m.add("WARN", scope, category, msg) }

// Error records an error entry.
func (m *MockLogger) Error(scope, category, msg string) { m.add("ERROR", scope, category, msg) }

// Messages returns the messages logged under category, in order.
func (m *MockLogger) Messages(category string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var msgs []string
	for _, e := range m.Entries {
		if e.Category == category {
			msgs = append(msgs, e.Msg)
		}
	}
	return msgs
}

// Contains reports whether any logged message contains substr.
func (m *MockLogger) Contains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if strings.Contains(e.Msg, substr) {
			return true
		}
	}
	return false
}

// MockInvoker is a test double for domain.WorkerInvoker.
// Fields are ordered to minimize memory padding.
type MockInvoker struct {
	Requests    []domain.InvocationRequest
	Diagnostics []string // Lines sent to diag before returning
	Result      domain.InvocationResult
	WaitForCtx  bool // Block until ctx is done and return a cancelled result
}

// Invoke records the request and returns the configured result.
func (m *MockInvoker) Invoke(ctx context.Context, req domain.InvocationRequest, diag domain.DiagnosticFunc) domain.InvocationResult {
	m.Requests = append(m.Requests, req)
	if diag != nil {
		for _, line := range m.Diagnostics {
			diag(line)
		}
	}
	if m.WaitForCtx {
		<-ctx.Done()
		return domain.InvocationResult{
			Err:      domain.NewInvocationError(domain.KindCancelled, fmt.Sprintf("%v: %v", domain.ErrCancelled, ctx.Err()), -1, ctx.Err()),
			State:    domain.StateCancelled,
			ExitCode: -1,
		}
	}
	return m.Result
}

// SuccessResult builds a successful InvocationResult.
func SuccessResult(output string) domain.InvocationResult {
	return domain.InvocationResult{Output: output, State: domain.StateSucceeded}
}

// FailureResult builds a worker-failure InvocationResult.
func FailureResult(stderr string, exitCode int) domain.InvocationResult {
	return domain.InvocationResult{
		Err:      domain.NewInvocationError(domain.KindWorkerFailure, domain.WorkerFailureMessage(stderr), exitCode, nil),
		State:    domain.StateFailed,
		ExitCode: exitCode,
	}
}

// MockHistoryRepository is a test double for domain.HistoryRepository.
// Fields are ordered to minimize memory padding.
type MockHistoryRepository struct {
	Records  map[string]*domain.InvocationRecord
	SaveErr  error
	GetErr   error
	ListErr  error
	PruneErr error
	Saves    int
	PruneArg int
}

// NewMockHistoryRepository creates a new MockHistoryRepository with an initialized map.
func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{
		Records:  make(map[string]*domain.InvocationRecord),
		PruneArg: -1,
	}
}

// Save stores a copy of the record.
func (m *MockHistoryRepository) Save(rec *domain.InvocationRecord) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	cp := *rec
	m.Records[rec.ID] = &cp
	return nil
}

// Get retrieves a record by exact ID or unique prefix.
func (m *MockHistoryRepository) Get(id string) (*domain.InvocationRecord, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if rec, ok := m.Records[id]; ok {
		return rec, nil
	}
	var found *domain.InvocationRecord
	for key, rec := range m.Records {
		if strings.HasPrefix(key, id) {
			if found != nil {
				return nil, domain.ErrAmbiguousID
			}
			found = rec
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

// List returns records newest first, honoring the filter.
func (m *MockHistoryRepository) List(filter domain.HistoryFilter) ([]*domain.InvocationRecord, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	recs := make([]*domain.InvocationRecord, 0, len(m.Records))
	for _, r := range m.Records {
		if filter.State != "" && r.State != filter.State {
			continue
		}
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].StartedAt.After(recs[j].StartedAt)
	})
	if filter.Limit > 0 && len(recs) > filter.Limit {
		recs = recs[:filter.Limit]
	}
	return recs, nil
}

// Prune records the argument and removes the oldest records beyond keep.
func (m *MockHistoryRepository) Prune(keep int) ([]string, error) {
	m.PruneArg = keep
	if m.PruneErr != nil {
		return nil, m.PruneErr
	}
	recs, _ := m.List(domain.HistoryFilter{})
	if len(recs) <= keep {
		return nil, nil
	}
	removed := make([]string, 0, len(recs)-keep)
	for _, r := range recs[keep:] {
		delete(m.Records, r.ID)
		removed = append(removed, r.ID)
	}
	return removed, nil
}

// MockInvocationLogs is a test double for domain.InvocationLogs.
type MockInvocationLogs struct {
	RemoveErr error
	Closed    []string
	Removed   []string
}

// CloseInvocation records the closed ID.
func (m *MockInvocationLogs) CloseInvocation(id string) error {
	m.Closed = append(m.Closed, id)
	return nil
}

// RemoveInvocation records the removed ID.
func (m *MockInvocationLogs) RemoveInvocation(id string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.Removed = append(m.Removed, id)
	return nil
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config  *domain.Config
	Global  *domain.Config
	Project *domain.Config
	LoadErr error
}

// Load returns the configured config, or defaults.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Config == nil {
		return domain.NewDefaultConfig(), nil
	}
	return m.Config, nil
}

// LoadGlobal returns the configured global config.
func (m *MockConfigLoader) LoadGlobal() (*domain.Config, error) {
	return m.Global, m.LoadErr
}

// LoadProject returns the configured project config.
func (m *MockConfigLoader) LoadProject() (*domain.Config, error) {
	return m.Project, m.LoadErr
}

// MockConfigManager is a test double for domain.ConfigManager.
type MockConfigManager struct {
	InitErr      error
	GlobalInfo   domain.ConfigInfo
	ProjectInfo  domain.ConfigInfo
	GlobalInits  int
	ProjectInits int
}

// GetGlobalConfigInfo returns the configured info.
func (m *MockConfigManager) GetGlobalConfigInfo() domain.ConfigInfo { return m.GlobalInfo }

// GetProjectConfigInfo returns the configured info.
func (m *MockConfigManager) GetProjectConfigInfo() domain.ConfigInfo { return m.ProjectInfo }

// InitGlobalConfig counts the call.
func (m *MockConfigManager) InitGlobalConfig() error {
	m.GlobalInits++
	return m.InitErr
}

// InitProjectConfig counts the call.
func (m *MockConfigManager) InitProjectConfig() error {
	m.ProjectInits++
	return m.InitErr
}

// Ensure mocks implement their interfaces.
var (
	_ domain.Clock             = (*MockClock)(nil)
	_ domain.Logger            = (*MockLogger)(nil)
	_ domain.WorkerInvoker     = (*MockInvoker)(nil)
	_ domain.HistoryRepository = (*MockHistoryRepository)(nil)
	_ domain.ConfigLoader      = (*MockConfigLoader)(nil)
	_ domain.ConfigManager     = (*MockConfigManager)(nil)
)
