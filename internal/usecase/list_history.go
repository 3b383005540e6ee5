package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/review-bridge/internal/domain"
)

// ListHistoryInput contains the parameters for listing invocations.
// Fields are ordered to minimize memory padding.
type ListHistoryInput struct {
	State domain.InvocationState // Filter by final state (empty = all)
	Limit int                    // Maximum number of records (0 = all)
}

// ListHistoryOutput contains the recorded invocations, newest first.
type ListHistoryOutput struct {
	Records []*domain.InvocationRecord
}

// ListHistory is the use case for listing recorded invocations.
type ListHistory struct {
	history domain.HistoryRepository
}

// NewListHistory creates a new ListHistory use case.
func NewListHistory(history domain.HistoryRepository) *ListHistory {
	return &ListHistory{history: history}
}

// Execute returns the recorded invocations matching the input.
func (uc *ListHistory) Execute(_ context.Context, in ListHistoryInput) (*ListHistoryOutput, error) {
	if in.State != "" && !in.State.IsValid() {
		return nil, fmt.Errorf("invalid state %q", in.State)
	}
	if in.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative: %d", in.Limit)
	}

	recs, err := uc.history.List(domain.HistoryFilter{
		State: in.State,
		Limit: in.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return &ListHistoryOutput{Records: recs}, nil
}
