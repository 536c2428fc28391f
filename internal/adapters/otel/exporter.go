package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/abeval/internal/domain"
	"github.com/emiliopalmerini/abeval/internal/ports"
)

const (
	serviceName    = "abeval"
	serviceVersion = "1.0.0"

	stageSimulate = "simulate"
	stageAnalyze  = "analyze"
)

// Exporter exports run metrics to an OTEL Collector.
type Exporter struct {
	provider      *sdkmetric.MeterProvider
	runsTotal     metric.Int64Counter
	outcomesTotal metric.Int64Counter
	armSize       metric.Int64Histogram
	retentionRate metric.Float64Histogram
	armRevenue    metric.Float64Histogram
	excludedTotal metric.Int64Counter
	liftHist      metric.Float64Histogram
	pValueHist    metric.Float64Histogram
	durationHist  metric.Float64Histogram
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Active() {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	e, err := newExporter(ctx, sdkmetric.NewPeriodicReader(exp))
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(e.provider)
	return e, nil
}

func newExporter(ctx context.Context, reader sdkmetric.Reader) (*Exporter, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter(serviceName)
	e := &Exporter{provider: provider}

	if e.runsTotal, err = meter.Int64Counter(
		"abeval_runs_total",
		metric.WithDescription("Completed simulation and analysis runs"),
		metric.WithUnit("{run}"),
	); err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	if e.outcomesTotal, err = meter.Int64Counter(
		"abeval_outcomes_written_total",
		metric.WithDescription("Outcome rows upserted by simulation runs"),
		metric.WithUnit("{row}"),
	); err != nil {
		return nil, fmt.Errorf("creating outcomes counter: %w", err)
	}

	if e.armSize, err = meter.Int64Histogram(
		"abeval_arm_participants",
		metric.WithDescription("Participants per arm in a run"),
		metric.WithUnit("{participant}"),
	); err != nil {
		return nil, fmt.Errorf("creating arm size histogram: %w", err)
	}

	if e.retentionRate, err = meter.Float64Histogram(
		"abeval_arm_retention_rate",
		metric.WithDescription("Share of participants with a purchase per arm"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("creating retention histogram: %w", err)
	}

	if e.armRevenue, err = meter.Float64Histogram(
		"abeval_arm_revenue",
		metric.WithDescription("Total revenue per arm in a run"),
	); err != nil {
		return nil, fmt.Errorf("creating revenue histogram: %w", err)
	}

	if e.excludedTotal, err = meter.Int64Counter(
		"abeval_excluded_rows_total",
		metric.WithDescription("Rows dropped by the assignment/outcome join"),
		metric.WithUnit("{row}"),
	); err != nil {
		return nil, fmt.Errorf("creating excluded counter: %w", err)
	}

	if e.liftHist, err = meter.Float64Histogram(
		"abeval_retention_lift",
		metric.WithDescription("Relative retention lift of treatment over control"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("creating lift histogram: %w", err)
	}

	if e.pValueHist, err = meter.Float64Histogram(
		"abeval_p_value",
		metric.WithDescription("p-values of the significance tests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("creating p-value histogram: %w", err)
	}

	if e.durationHist, err = meter.Float64Histogram(
		"abeval_run_duration_seconds",
		metric.WithDescription("Run duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return e, nil
}

func (e *Exporter) ExportSimulation(ctx context.Context, m *ports.SimulationMetrics) error {
	opt := metric.WithAttributes(
		attribute.String("experiment", m.Experiment),
		attribute.String("stage", stageSimulate),
	)

	e.runsTotal.Add(ctx, 1, opt)
	e.outcomesTotal.Add(ctx, m.RowsWritten, opt)
	e.durationHist.Record(ctx, m.Duration.Seconds(), opt)
	e.recordArms(ctx, m.Experiment, stageSimulate, m.Arms)
	return nil
}

func (e *Exporter) ExportAnalysis(ctx context.Context, m *ports.AnalysisMetrics) error {
	opt := metric.WithAttributes(
		attribute.String("experiment", m.Experiment),
		attribute.String("stage", stageAnalyze),
	)

	e.runsTotal.Add(ctx, 1, opt)
	e.excludedTotal.Add(ctx, m.Excluded, opt)
	e.durationHist.Record(ctx, m.Duration.Seconds(), opt)
	e.recordArms(ctx, m.Experiment, stageAnalyze, m.Arms)

	// Undefined statistics are skipped rather than recorded as zero.
	if lift, ok := m.Lift.Value(); ok {
		e.liftHist.Record(ctx, lift, opt)
	}
	e.recordPValue(ctx, m.Experiment, "retention", m.RetentionP)
	e.recordPValue(ctx, m.Experiment, "revenue", m.RevenueP)
	return nil
}

func (e *Exporter) recordArms(ctx context.Context, experiment, stage string, arms []ports.ArmMetrics) {
	for _, a := range arms {
		opt := metric.WithAttributes(
			attribute.String("experiment", experiment),
			attribute.String("stage", stage),
			attribute.String("arm", a.Arm.Label()),
		)
		e.armSize.Record(ctx, a.Count, opt)
		e.armRevenue.Record(ctx, a.Revenue, opt)
		if a.Count > 0 {
			e.retentionRate.Record(ctx, float64(a.Retained)/float64(a.Count), opt)
		}
	}
}

func (e *Exporter) recordPValue(ctx context.Context, experiment, test string, p domain.Statistic) {
	v, ok := p.Value()
	if !ok {
		return
	}
	e.pValueHist.Record(ctx, v, metric.WithAttributes(
		attribute.String("experiment", experiment),
		attribute.String("test", test),
	))
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
