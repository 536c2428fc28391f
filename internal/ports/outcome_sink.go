package ports

import (
	"context"

	"github.com/emiliopalmerini/abeval/internal/domain"
)

// OutcomeSink stores outcomes keyed by (participant, experiment).
type OutcomeSink interface {
	// Upsert inserts new keys and overwrites purchased, revenue and
	// evaluated_at of existing ones. It returns the number of rows written.
	Upsert(ctx context.Context, outcomes []domain.Outcome) (int, error)
}

// OutcomeSource lists stored outcomes.
type OutcomeSource interface {
	ListOutcomes(ctx context.Context, experiment string) ([]domain.Outcome, error)
}

// JoinedOutcomeSource returns the inner join of assignments and outcomes.
type JoinedOutcomeSource interface {
	// FetchJoined returns joined rows and the number of rows present on one
	// side only. Zero joined rows is domain.ErrDataUnavailable.
	FetchJoined(ctx context.Context, experiment string) ([]domain.JoinedRow, domain.JoinStats, error)
}

// OutcomeStore is the full outcome storage surface.
type OutcomeStore interface {
	OutcomeSink
	OutcomeSource
	JoinedOutcomeSource
}
