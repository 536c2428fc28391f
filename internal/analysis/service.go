package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/abeval/internal/domain"
	"github.com/emiliopalmerini/abeval/internal/ports"
)

// Service runs the analysis path over stored assignments and outcomes.
type Service struct {
	source  ports.JoinedOutcomeSource
	metrics ports.MetricsExporter
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(source ports.JoinedOutcomeSource, metrics ports.MetricsExporter, logger *slog.Logger) *Service {
	return &Service{
		source:  source,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Report is an analysis plus the metadata needed to render it.
type Report struct {
	RunID       string
	Experiment  string
	GeneratedAt time.Time
	Join        domain.JoinStats
	Analysis
}

// Run joins, partitions and tests one experiment.
func (s *Service) Run(ctx context.Context, experiment string, opts Options) (*Report, error) {
	opts.Experiment = experiment
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := s.now()
	runID := uuid.New().String()
	log := s.logger.With("run_id", runID, "experiment", experiment)

	rows, join, err := s.source.FetchJoined(ctx, experiment)
	if err != nil {
		return nil, fmt.Errorf("fetch joined outcomes: %w", err)
	}
	if join.Excluded() > 0 {
		log.Warn("rows excluded by join",
			"assignments_without_outcome", join.AssignmentsWithoutOutcome,
			"outcomes_without_assignment", join.OutcomesWithoutAssignment)
	}

	a, err := Analyze(rows, opts)
	if err != nil {
		return nil, err
	}

	res := a.Result
	if res.Retention.LowExpectedCount {
		log.Warn("contingency table has an expected count below 5; the chi-square p-value has low power")
	}

	elapsed := s.now().Sub(start)
	log.Info("analysis complete",
		"rows", len(rows),
		"lift", res.Lift.String(),
		"retention_p", res.Retention.PValue.String(),
		"revenue_p", res.Revenue.PValue.String(),
		"duration", elapsed)

	report := &Report{
		RunID:       runID,
		Experiment:  experiment,
		GeneratedAt: start.UTC(),
		Join:        join,
		Analysis:    *a,
	}

	if err := s.metrics.ExportAnalysis(ctx, analysisMetrics(report, elapsed)); err != nil {
		log.Warn("failed to export analysis metrics", "error", err)
	}
	return report, nil
}

func analysisMetrics(r *Report, elapsed time.Duration) *ports.AnalysisMetrics {
	m := &ports.AnalysisMetrics{
		RunID:      r.RunID,
		Experiment: r.Experiment,
		Excluded:   r.Join.Excluded(),
		Lift:       r.Result.Lift,
		RetentionP: r.Result.Retention.PValue,
		RevenueP:   r.Result.Revenue.PValue,
		Duration:   elapsed,
	}
	for _, g := range r.Groups() {
		m.Arms = append(m.Arms, ports.ArmMetrics{Arm: g.Arm, Count: g.Count, Retained: g.RetainedCount, Revenue: g.TotalRevenue})
	}
	return m
}
