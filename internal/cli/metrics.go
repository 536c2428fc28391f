package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/emiliopalmerini/abeval/internal/adapters/otel"
	"github.com/emiliopalmerini/abeval/internal/adapters/prometheus"
	"github.com/emiliopalmerini/abeval/internal/infrastructure/config"
	"github.com/emiliopalmerini/abeval/internal/ports"
)

// newMetricsExporter builds the configured exporters. An exporter that fails
// to start is logged and skipped; with none configured a no-op is returned.
func newMetricsExporter(ctx context.Context, c *config.Config, logger *slog.Logger) ports.MetricsExporter {
	var exporters multiExporter

	if c.Otel.Active() {
		exp, err := otel.NewExporter(ctx, c.Otel)
		if err != nil {
			logger.Warn("OTEL exporter unavailable", "endpoint", c.Otel.Endpoint, "error", err)
		} else {
			exporters = append(exporters, exp)
		}
	}

	if c.Pushgateway.Active() {
		p, err := prometheus.NewPusher(c.Pushgateway)
		if err != nil {
			logger.Warn("Pushgateway unavailable", "url", c.Pushgateway.URL, "error", err)
		} else {
			exporters = append(exporters, p)
		}
	}

	switch len(exporters) {
	case 0:
		return otel.NewNoOpExporter()
	case 1:
		return exporters[0]
	default:
		return exporters
	}
}

// multiExporter fans every call out to all exporters.
type multiExporter []ports.MetricsExporter

func (m multiExporter) ExportSimulation(ctx context.Context, sm *ports.SimulationMetrics) error {
	var errs []error
	for _, e := range m {
		errs = append(errs, e.ExportSimulation(ctx, sm))
	}
	return errors.Join(errs...)
}

func (m multiExporter) ExportAnalysis(ctx context.Context, am *ports.AnalysisMetrics) error {
	var errs []error
	for _, e := range m {
		errs = append(errs, e.ExportAnalysis(ctx, am))
	}
	return errors.Join(errs...)
}

func (m multiExporter) Close(ctx context.Context) error {
	var errs []error
	for _, e := range m {
		errs = append(errs, e.Close(ctx))
	}
	return errors.Join(errs...)
}
