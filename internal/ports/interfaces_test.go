package ports_test

import (
	"github.com/emiliopalmerini/abeval/internal/adapters/memory"
	"github.com/emiliopalmerini/abeval/internal/adapters/otel"
	"github.com/emiliopalmerini/abeval/internal/adapters/prometheus"
	"github.com/emiliopalmerini/abeval/internal/adapters/turso"
	"github.com/emiliopalmerini/abeval/internal/ports"
)

// Compile-time checks that adapters implement the ports.
var (
	_ ports.AssignmentStore = (*turso.AssignmentRepository)(nil)
	_ ports.OutcomeStore    = (*turso.OutcomeRepository)(nil)

	_ ports.AssignmentStore = (*memory.Store)(nil)
	_ ports.OutcomeStore    = (*memory.Store)(nil)

	_ ports.MetricsExporter = (*otel.Exporter)(nil)
	_ ports.MetricsExporter = (*otel.NoOpExporter)(nil)
	_ ports.MetricsExporter = (*prometheus.Pusher)(nil)
	_ ports.MetricsExporter = (*prometheus.NoOpPusher)(nil)
)
