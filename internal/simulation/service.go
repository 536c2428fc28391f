package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/abeval/internal/domain"
	"github.com/emiliopalmerini/abeval/internal/ports"
)

// Service runs the simulation path: fetch assignments, draw outcomes, upsert.
type Service struct {
	source  ports.AssignmentSource
	sink    ports.OutcomeSink
	metrics ports.MetricsExporter
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(source ports.AssignmentSource, sink ports.OutcomeSink, metrics ports.MetricsExporter, logger *slog.Logger) *Service {
	return &Service{
		source:  source,
		sink:    sink,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// RunOptions controls a single simulation run.
type RunOptions struct {
	Config Config
	// RunDate stamps evaluated_at. Zero means today.
	RunDate time.Time
	// DryRun draws outcomes without writing them.
	DryRun bool
}

// ArmTally summarizes the simulated outcomes of one arm.
type ArmTally struct {
	Arm        domain.Arm
	Count      int64
	Purchasers int64
	Revenue    float64
}

// RunSummary describes a completed run.
type RunSummary struct {
	RunID       string
	Experiment  string
	RunDate     time.Time
	Seed        int64
	RowsWritten int
	DryRun      bool
	Arms        []ArmTally
	Outcomes    []domain.Outcome
}

// Run simulates outcomes for every assignment of the experiment.
func (s *Service) Run(ctx context.Context, experiment string, opts RunOptions) (*RunSummary, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	start := s.now()
	runDate := opts.RunDate
	if runDate.IsZero() {
		runDate = start
	}

	runID := uuid.New().String()
	log := s.logger.With("run_id", runID, "experiment", experiment)

	assignments, err := s.source.Fetch(ctx, experiment)
	if err != nil {
		return nil, fmt.Errorf("fetch assignments: %w", err)
	}
	for _, a := range assignments {
		if a.Experiment != experiment {
			return nil, &domain.DataIntegrityError{Experiment: a.Experiment, ParticipantID: a.ParticipantID, Reason: "source returned a row for another experiment"}
		}
	}
	log.Info("loaded assignments", "count", len(assignments))

	outcomes, err := Simulate(assignments, opts.Config, runDate)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{
		RunID:      runID,
		Experiment: experiment,
		RunDate:    truncateToDate(runDate),
		Seed:       opts.Config.Seed,
		DryRun:     opts.DryRun,
		Arms:       tally(assignments, outcomes),
		Outcomes:   outcomes,
	}

	if opts.DryRun {
		log.Info("dry run, outcomes not written", "count", len(outcomes))
		return summary, nil
	}

	written, err := s.sink.Upsert(ctx, outcomes)
	if err != nil {
		return nil, fmt.Errorf("upsert outcomes: %w", err)
	}
	summary.RowsWritten = written

	elapsed := s.now().Sub(start)
	log.Info("simulation complete", "rows_written", written, "duration", elapsed)

	if err := s.metrics.ExportSimulation(ctx, simulationMetrics(summary, elapsed)); err != nil {
		log.Warn("failed to export simulation metrics", "error", err)
	}

	return summary, nil
}

func tally(assignments []domain.Assignment, outcomes []domain.Outcome) []ArmTally {
	byArm := map[domain.Arm]*ArmTally{}
	for _, arm := range domain.Arms {
		byArm[arm] = &ArmTally{Arm: arm}
	}
	for i, a := range assignments {
		t := byArm[a.Arm]
		t.Count++
		if outcomes[i].Purchased {
			t.Purchasers++
			t.Revenue += outcomes[i].Revenue
		}
	}

	tallies := make([]ArmTally, 0, len(domain.Arms))
	for _, arm := range domain.Arms {
		tallies = append(tallies, *byArm[arm])
	}
	return tallies
}

func simulationMetrics(s *RunSummary, elapsed time.Duration) *ports.SimulationMetrics {
	m := &ports.SimulationMetrics{
		RunID:       s.RunID,
		Experiment:  s.Experiment,
		RowsWritten: int64(s.RowsWritten),
		Duration:    elapsed,
	}
	for _, t := range s.Arms {
		m.Arms = append(m.Arms, ports.ArmMetrics{Arm: t.Arm, Count: t.Count, Retained: t.Purchasers, Revenue: t.Revenue})
	}
	return m
}
