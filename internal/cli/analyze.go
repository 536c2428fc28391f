package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/abeval/internal/analysis"
	"github.com/emiliopalmerini/abeval/internal/domain"
	"github.com/emiliopalmerini/abeval/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <experiment>",
	Short: "Test an experiment for significant differences",
	Long: `Join assignments with outcomes and compare the two arms.

Retention is compared with a Yates-corrected chi-square test on the 2x2
purchased/not-purchased table; revenue with Welch's t-test. Statistics that
cannot be computed are reported as undefined together with the reason.

Examples:
  abeval analyze checkout-v2
  abeval analyze checkout-v2 --format json --output result.json
  abeval analyze checkout-v2 --revenue-policy purchasers --alpha 0.01
  abeval analyze checkout-v2 --format html -o report.html`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

// Flags
var (
	analyzeFormat        string
	analyzeOutput        string
	analyzeAlpha         float64
	analyzeRevenuePolicy string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "Output format: text, json, csv, html")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Output file (default: stdout)")
	analyzeCmd.Flags().Float64Var(&analyzeAlpha, "alpha", analysis.DefaultAlpha, "Significance level")
	analyzeCmd.Flags().StringVar(&analyzeRevenuePolicy, "revenue-policy", string(domain.RevenueAllAssigned),
		"Revenue sample: all (non-purchasers count as 0) or purchasers")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(analyzeFormat)
	if err != nil {
		return err
	}
	opts := analysis.Options{
		Experiment:    args[0],
		Alpha:         analyzeAlpha,
		RevenuePolicy: domain.RevenuePolicy(analyzeRevenuePolicy),
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		svc := analysis.NewService(app.Outcomes, app.Metrics, app.Logger)
		r, err := svc.Run(ctx, args[0], opts)
		if err != nil {
			return err
		}

		w, closeOutput, err := openOutput(cmd, analyzeOutput)
		if err != nil {
			return err
		}
		if err := report.Render(ctx, w, r, format); err != nil {
			_ = closeOutput()
			return err
		}
		if err := closeOutput(); err != nil {
			return fmt.Errorf("failed to close output file: %w", err)
		}

		if analyzeOutput != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s report to %s\n", format, analyzeOutput)
		}
		return nil
	})
}
