package prometheus

import (
	"context"

	"github.com/emiliopalmerini/abeval/internal/ports"
)

// NoOpPusher is a metrics exporter that pushes nothing.
type NoOpPusher struct{}

// NewNoOpPusher creates a new no-op pusher for graceful degradation.
func NewNoOpPusher() *NoOpPusher {
	return &NoOpPusher{}
}

func (p *NoOpPusher) ExportSimulation(ctx context.Context, m *ports.SimulationMetrics) error {
	return nil
}

func (p *NoOpPusher) ExportAnalysis(ctx context.Context, m *ports.AnalysisMetrics) error {
	return nil
}

func (p *NoOpPusher) Close(ctx context.Context) error {
	return nil
}
