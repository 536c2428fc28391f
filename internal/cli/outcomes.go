package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/abeval/internal/report"
)

var outcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "Inspect stored outcomes",
}

var outcomesExportCmd = &cobra.Command{
	Use:   "export <experiment>",
	Short: "Export outcomes to CSV or JSON",
	Long: `Export the stored outcomes of an experiment for external analysis.

Examples:
  abeval outcomes export checkout-v2 --format csv --output outcomes.csv
  abeval outcomes export checkout-v2 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runOutcomesExport,
}

// Flags
var (
	outcomesFormat string
	outcomesOutput string
)

func init() {
	rootCmd.AddCommand(outcomesCmd)
	outcomesCmd.AddCommand(outcomesExportCmd)

	outcomesExportCmd.Flags().StringVarP(&outcomesFormat, "format", "f", "csv", "Output format: csv, json")
	outcomesExportCmd.Flags().StringVarP(&outcomesOutput, "output", "o", "", "Output file (default: stdout)")
}

func runOutcomesExport(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		outcomes, err := app.Outcomes.ListOutcomes(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to list outcomes: %w", err)
		}

		w, closeOutput, err := openOutput(cmd, outcomesOutput)
		if err != nil {
			return err
		}
		if err := report.ExportOutcomes(w, outcomes, outcomesFormat); err != nil {
			_ = closeOutput()
			return err
		}
		if err := closeOutput(); err != nil {
			return fmt.Errorf("failed to close output file: %w", err)
		}

		if outcomesOutput != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d outcomes to %s\n", len(outcomes), outcomesOutput)
		}
		return nil
	})
}
