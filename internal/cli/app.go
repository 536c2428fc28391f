package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/abeval/internal/adapters/turso"
	"github.com/emiliopalmerini/abeval/internal/infrastructure/config"
	"github.com/emiliopalmerini/abeval/internal/infrastructure/database"
	"github.com/emiliopalmerini/abeval/internal/ports"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	DB          *database.Client
	Assignments ports.AssignmentStore
	Outcomes    ports.OutcomeStore
	Metrics     ports.MetricsExporter
	Logger      *slog.Logger
}

// NewAppContext creates an AppContext with all dependencies initialized.
func NewAppContext(ctx context.Context, c *config.Config, logger *slog.Logger) (*AppContext, error) {
	client, err := openDatabase(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	repos := turso.NewRepositories(client)
	return &AppContext{
		DB:          client,
		Assignments: repos.Assignments,
		Outcomes:    repos.Outcomes,
		Metrics:     newMetricsExporter(ctx, c, logger),
		Logger:      logger,
	}, nil
}

func openDatabase(ctx context.Context, c *config.Config, logger *slog.Logger) (*database.Client, error) {
	client, err := database.Open(ctx, database.Options{
		URL:        c.Database.URL,
		AuthToken:  c.Database.AuthToken,
		MaxRetries: c.Database.MaxRetries,
		Ping:       true,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return client, nil
}

// Close flushes the metrics exporter and releases the database.
func (a *AppContext) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if a.Metrics != nil {
		errs = append(errs, a.Metrics.Close(ctx))
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

// withApp builds the AppContext for one command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *AppContext) error) error {
	ctx := cmd.Context()
	app, err := NewAppContext(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close application resources", "error", err)
		}
	}()
	return fn(ctx, app)
}
