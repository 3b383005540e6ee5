package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/runoshun/review-bridge/internal/domain"
)

// ShowInvocationInput contains the parameters for showing one invocation.
// Fields are ordered to minimize memory padding.
type ShowInvocationInput struct {
	ID    string // Full ID or unique prefix
	Lines int    // Number of log lines from the end (0 = all)
}

// ShowInvocationOutput contains a record and its log.
type ShowInvocationOutput struct {
	Record  *domain.InvocationRecord
	LogPath string // Path to the invocation log file
	Log     string // Log content ("" when no log file exists)
}

// ShowInvocation is the use case for inspecting a recorded invocation.
type ShowInvocation struct {
	history  domain.HistoryRepository
	stateDir string
}

// NewShowInvocation creates a new ShowInvocation use case.
func NewShowInvocation(history domain.HistoryRepository, stateDir string) *ShowInvocation {
	return &ShowInvocation{
		history:  history,
		stateDir: stateDir,
	}
}

// Execute returns the record and log of the invocation.
func (uc *ShowInvocation) Execute(_ context.Context, in ShowInvocationInput) (*ShowInvocationOutput, error) {
	if !domain.IsValidIDPrefix(in.ID) {
		return nil, fmt.Errorf("%w: invalid ID %q", domain.ErrNotFound, in.ID)
	}

	rec, err := uc.history.Get(in.ID)
	if err != nil {
		return nil, fmt.Errorf("get invocation: %w", err)
	}

	logPath := domain.InvocationLogPath(uc.stateDir, rec.ID)
	content, err := os.ReadFile(logPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return &ShowInvocationOutput{
		Record:  rec,
		LogPath: logPath,
		Log:     tailLines(string(content), in.Lines),
	}, nil
}

// tailLines returns the last n lines of s (all when n <= 0).
func tailLines(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n") + "\n"
}
