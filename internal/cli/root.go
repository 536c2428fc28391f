package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/abeval/internal/infrastructure/config"
	"github.com/emiliopalmerini/abeval/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "abeval",
	Short: "Simulate and evaluate A/B retention experiments",
	Long: `abeval evaluates two-arm retention experiments.

It simulates purchase outcomes for assigned participants, stores them by
(participant, experiment), and tests whether the treatment arm differs from
control in retention (chi-square) and revenue (Welch t-test).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Persistent flags
var (
	logLevel  string
	logFormat string
)

// Set by setup before any command runs.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $ABEVAL_LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json (default $ABEVAL_LOG_FORMAT or text)")
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level, format := c.Logging.Level, c.Logging.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}

	l, err := logging.New(cmd.ErrOrStderr(), level, format)
	if err != nil {
		return err
	}

	cfg, logger = c, l
	return nil
}
