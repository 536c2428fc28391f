package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/emiliopalmerini/abeval/internal/domain"
	"github.com/emiliopalmerini/abeval/internal/ports"
)

const namespace = "abeval"

// Pusher pushes the metrics of each finished run to a Prometheus Pushgateway.
// Every push replaces the group identified by job, experiment and stage.
type Pusher struct {
	url        string
	job        string
	httpClient *http.Client
	now        func() time.Time
}

// NewPusher creates a new Pushgateway pusher.
func NewPusher(cfg Config) (*Pusher, error) {
	if !cfg.Active() {
		return nil, fmt.Errorf("Pushgateway is disabled or URL not configured")
	}
	job := cfg.Job
	if job == "" {
		job = namespace
	}

	return &Pusher{
		url: cfg.URL,
		job: job,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}, nil
}

func (p *Pusher) ExportSimulation(ctx context.Context, m *ports.SimulationMetrics) error {
	return p.push(ctx, m.Experiment, "simulate", SimulationRegistry(m, p.now()))
}

func (p *Pusher) ExportAnalysis(ctx context.Context, m *ports.AnalysisMetrics) error {
	return p.push(ctx, m.Experiment, "analyze", AnalysisRegistry(m, p.now()))
}

func (p *Pusher) push(ctx context.Context, experiment, stage string, reg *prometheus.Registry) error {
	err := push.New(p.url, p.job).
		Client(p.httpClient).
		Gatherer(reg).
		Grouping("experiment", experiment).
		Grouping("stage", stage).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("pushing %s metrics: %w", stage, err)
	}
	return nil
}

// Close is a no-op; every export is pushed synchronously.
func (p *Pusher) Close(ctx context.Context) error {
	return nil
}

// SimulationRegistry builds the gauges for one simulation run.
func SimulationRegistry(m *ports.SimulationMetrics, now time.Time) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	registerRun(reg, m.Duration, now)
	registerArms(reg, m.Arms)

	written := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outcomes_written",
		Help:      "Outcome rows upserted by the last simulation run.",
	})
	written.Set(float64(m.RowsWritten))
	reg.MustRegister(written)
	return reg
}

// AnalysisRegistry builds the gauges for one analysis. Undefined statistics
// are left out of the push rather than reported as zero.
func AnalysisRegistry(m *ports.AnalysisMetrics, now time.Time) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	registerRun(reg, m.Duration, now)
	registerArms(reg, m.Arms)

	excluded := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "excluded_rows",
		Help:      "Rows dropped by the assignment/outcome join.",
	})
	excluded.Set(float64(m.Excluded))
	reg.MustRegister(excluded)

	if v, ok := m.Lift.Value(); ok {
		lift := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "retention_lift",
			Help:      "Relative retention lift of treatment over control.",
		})
		lift.Set(v)
		reg.MustRegister(lift)
	}

	pValues := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "p_value",
		Help:      "p-value of each significance test.",
	}, []string{"test"})
	setDefined(pValues, "retention", m.RetentionP)
	setDefined(pValues, "revenue", m.RevenueP)
	reg.MustRegister(pValues)
	return reg
}

func setDefined(vec *prometheus.GaugeVec, label string, s domain.Statistic) {
	if v, ok := s.Value(); ok {
		vec.WithLabelValues(label).Set(v)
	}
}

func registerRun(reg *prometheus.Registry, d time.Duration, now time.Time) {
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of the last run.",
	})
	duration.Set(d.Seconds())

	completed := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_completion_timestamp_seconds",
		Help:      "Unix time the last run completed.",
	})
	completed.Set(float64(now.Unix()))

	reg.MustRegister(duration, completed)
}

func registerArms(reg *prometheus.Registry, arms []ports.ArmMetrics) {
	participants := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "arm_participants",
		Help:      "Participants per arm.",
	}, []string{"arm"})
	retained := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "arm_retained",
		Help:      "Participants with a purchase per arm.",
	}, []string{"arm"})
	revenue := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "arm_revenue_total",
		Help:      "Total revenue per arm.",
	}, []string{"arm"})

	for _, a := range arms {
		label := a.Arm.Label()
		participants.WithLabelValues(label).Set(float64(a.Count))
		retained.WithLabelValues(label).Set(float64(a.Retained))
		revenue.WithLabelValues(label).Set(a.Revenue)
	}
	reg.MustRegister(participants, retained, revenue)
}
