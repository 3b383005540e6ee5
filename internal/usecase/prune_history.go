package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/review-bridge/internal/domain"
	"github.com/runoshun/review-bridge/internal/usecase/shared"
)

// PruneHistoryInput contains the parameters for pruning history.
type PruneHistoryInput struct {
	Keep int // Number of newest records to keep
}

// PruneHistoryOutput contains the result of pruning.
type PruneHistoryOutput struct {
	Removed int
}

// PruneHistory is the use case for deleting old invocation records.
type PruneHistory struct {
	history domain.HistoryRepository
	logs    domain.InvocationLogs
	logger  domain.Logger
}

// NewPruneHistory creates a new PruneHistory use case.
func NewPruneHistory(history domain.HistoryRepository, logs domain.InvocationLogs, logger domain.Logger) *PruneHistory {
	return &PruneHistory{
		history: history,
		logs:    logs,
		logger:  logger,
	}
}

// Execute deletes all but the newest Keep records and their log files.
func (uc *PruneHistory) Execute(_ context.Context, in PruneHistoryInput) (*PruneHistoryOutput, error) {
	if in.Keep < 0 {
		return nil, fmt.Errorf("keep must not be negative: %d", in.Keep)
	}

	removed, err := uc.history.Prune(in.Keep)
	if err != nil {
		return nil, fmt.Errorf("prune history: %w", err)
	}
	shared.RemoveLogs(uc.logs, uc.logger, removed)
	uc.logger.Info("", "history", fmt.Sprintf("pruned %d records (keep %d)", len(removed), in.Keep))

	return &PruneHistoryOutput{Removed: len(removed)}, nil
}
