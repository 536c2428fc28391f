package simulation

import (
	"math"
	"time"

	"github.com/emiliopalmerini/abeval/internal/domain"
)

// Simulate draws one outcome per assignment. The config is validated and the
// input checked for duplicate keys and mixed experiments before the first draw,
// so a failed call never yields partial output. Output order follows input
// order; the same seed and input order always give the same outcomes.
func Simulate(assignments []domain.Assignment, cfg Config, runDate time.Time) ([]domain.Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkAssignments(assignments); err != nil {
		return nil, err
	}

	evaluatedAt := truncateToDate(runDate)
	stream := NewStream(cfg.Seed)

	outcomes := make([]domain.Outcome, 0, len(assignments))
	for _, a := range assignments {
		outcomes = append(outcomes, drawOutcome(stream, cfg, a, evaluatedAt))
	}
	return outcomes, nil
}

func drawOutcome(stream *Stream, cfg Config, a domain.Assignment, evaluatedAt time.Time) domain.Outcome {
	p := cfg.PTreatment
	if a.Arm == domain.ArmControl {
		p = cfg.PControl
	}

	o := domain.Outcome{
		ParticipantID: a.ParticipantID,
		Experiment:    a.Experiment,
		EvaluatedAt:   evaluatedAt,
	}
	if stream.Bernoulli(p) {
		o.Purchased = true
		o.Revenue = roundCents(math.Max(0, stream.Normal(cfg.RevenueMean, cfg.RevenueStdDev)))
	}
	return o
}

func checkAssignments(assignments []domain.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	experiment := assignments[0].Experiment
	seen := make(map[int64]struct{}, len(assignments))
	for _, a := range assignments {
		switch {
		case a.Experiment != experiment:
			return &domain.DataIntegrityError{Experiment: a.Experiment, ParticipantID: a.ParticipantID, Reason: "assignment belongs to a different experiment than " + experiment}
		case !a.Arm.Valid():
			return &domain.DataIntegrityError{Experiment: a.Experiment, ParticipantID: a.ParticipantID, Reason: "unknown arm " + string(a.Arm)}
		}
		if _, dup := seen[a.ParticipantID]; dup {
			return &domain.DataIntegrityError{Experiment: a.Experiment, ParticipantID: a.ParticipantID, Reason: "duplicate assignment"}
		}
		seen[a.ParticipantID] = struct{}{}
	}
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
