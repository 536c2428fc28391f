package ports

import (
	"context"
	"time"

	"github.com/emiliopalmerini/abeval/internal/domain"
)

// MetricsExporter exports batch-run metrics to an external observability system.
type MetricsExporter interface {
	ExportSimulation(ctx context.Context, m *SimulationMetrics) error
	ExportAnalysis(ctx context.Context, m *AnalysisMetrics) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

// ArmMetrics is the per-arm slice of a run.
type ArmMetrics struct {
	Arm      domain.Arm
	Count    int64
	Retained int64
	Revenue  float64
}

// SimulationMetrics describes one completed simulation run.
type SimulationMetrics struct {
	RunID       string
	Experiment  string
	RowsWritten int64
	Arms        []ArmMetrics
	Duration    time.Duration
}

// AnalysisMetrics describes one completed analysis.
type AnalysisMetrics struct {
	RunID      string
	Experiment string
	Arms       []ArmMetrics
	Excluded   int64
	Lift       domain.Statistic
	RetentionP domain.Statistic
	RevenueP   domain.Statistic
	Duration   time.Duration
}
