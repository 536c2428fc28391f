// Package memory is an in-process store for assignments and outcomes. It is
// used for dry runs and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/emiliopalmerini/abeval/internal/domain"
	"github.com/emiliopalmerini/abeval/internal/ports"
)

// Store keeps assignments and outcomes in maps keyed by the natural key.
type Store struct {
	mu          sync.Mutex
	assignments map[domain.Key]domain.Assignment
	outcomes    map[domain.Key]domain.Outcome
}

func NewStore() *Store {
	return &Store{
		assignments: make(map[domain.Key]domain.Assignment),
		outcomes:    make(map[domain.Key]domain.Outcome),
	}
}

func (s *Store) Import(ctx context.Context, assignments []domain.Assignment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range assignments {
		if !a.Arm.Valid() {
			return 0, &domain.DataIntegrityError{Experiment: a.Experiment, ParticipantID: a.ParticipantID, Reason: "unknown arm " + string(a.Arm)}
		}
		if existing, ok := s.assignments[a.Key()]; ok && existing.Arm != a.Arm {
			return 0, &domain.DataIntegrityError{Experiment: a.Experiment, ParticipantID: a.ParticipantID, Reason: fmt.Sprintf("already assigned to arm %s", existing.Arm)}
		}
	}

	inserted := 0
	for _, a := range assignments {
		if _, ok := s.assignments[a.Key()]; ok {
			continue
		}
		s.assignments[a.Key()] = a
		inserted++
	}
	return inserted, nil
}

func (s *Store) Fetch(ctx context.Context, experiment string) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Assignment
	for _, a := range s.assignments {
		if a.Experiment == experiment {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("assignments for %q: %w", experiment, domain.ErrDataUnavailable)
	}
	slices.SortFunc(out, func(a, b domain.Assignment) int { return cmp.Compare(a.ParticipantID, b.ParticipantID) })
	return out, nil
}

func (s *Store) CountByArm(ctx context.Context, experiment string) ([]ports.ArmCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[domain.Arm]int64{}
	for _, a := range s.assignments {
		if a.Experiment == experiment {
			counts[a.Arm]++
		}
	}
	var out []ports.ArmCount
	for _, arm := range domain.Arms {
		if n := counts[arm]; n > 0 {
			out = append(out, ports.ArmCount{Arm: arm, Count: n})
		}
	}
	return out, nil
}

func (s *Store) Preview(ctx context.Context, limit int) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b domain.Assignment) int {
		return cmp.Or(cmp.Compare(a.Experiment, b.Experiment), cmp.Compare(a.ParticipantID, b.ParticipantID))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Upsert inserts or replaces each outcome by key. Invalid outcomes are
// rejected before anything is written.
func (s *Store) Upsert(ctx context.Context, outcomes []domain.Outcome) (int, error) {
	for _, o := range outcomes {
		if err := o.Validate(); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range outcomes {
		s.outcomes[o.Key()] = o
	}
	return len(outcomes), nil
}

func (s *Store) ListOutcomes(ctx context.Context, experiment string) ([]domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Outcome
	for _, o := range s.outcomes {
		if o.Experiment == experiment {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b domain.Outcome) int { return cmp.Compare(a.ParticipantID, b.ParticipantID) })
	return out, nil
}

func (s *Store) FetchJoined(ctx context.Context, experiment string) ([]domain.JoinedRow, domain.JoinStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		rows  []domain.JoinedRow
		stats domain.JoinStats
	)
	for key, a := range s.assignments {
		if key.Experiment != experiment {
			continue
		}
		o, ok := s.outcomes[key]
		if !ok {
			stats.AssignmentsWithoutOutcome++
			continue
		}
		rows = append(rows, domain.JoinedRow{Assignment: a, Outcome: o})
	}
	for key := range s.outcomes {
		if key.Experiment != experiment {
			continue
		}
		if _, ok := s.assignments[key]; !ok {
			stats.OutcomesWithoutAssignment++
		}
	}

	if len(rows) == 0 {
		return nil, stats, fmt.Errorf("joined outcomes for %q: %w", experiment, domain.ErrDataUnavailable)
	}
	slices.SortFunc(rows, func(a, b domain.JoinedRow) int {
		return cmp.Compare(a.Assignment.ParticipantID, b.Assignment.ParticipantID)
	})
	return rows, stats, nil
}
