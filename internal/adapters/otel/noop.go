package otel

import (
	"context"

	"github.com/emiliopalmerini/abeval/internal/ports"
)

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) ExportSimulation(ctx context.Context, m *ports.SimulationMetrics) error {
	return nil
}

func (e *NoOpExporter) ExportAnalysis(ctx context.Context, m *ports.AnalysisMetrics) error {
	return nil
}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
