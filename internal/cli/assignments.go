package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/abeval/internal/domain"
	"github.com/emiliopalmerini/abeval/internal/util"
)

var assignmentsCmd = &cobra.Command{
	Use:   "assignments",
	Short: "Manage experiment assignments",
}

var assignmentsImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import assignments from CSV",
	Long: `Import participant assignments from a CSV file with columns participant_id,arm.

A header row is optional. Arms may be written as A/B or control/treatment.
Re-importing an existing assignment is a no-op; changing its arm is an error.

Examples:
  abeval assignments import users.csv --experiment checkout-v2
  cat users.csv | abeval assignments import - -e checkout-v2`,
	Args: cobra.ExactArgs(1),
	RunE: runAssignmentsImport,
}

var assignmentsCountCmd = &cobra.Command{
	Use:   "count <experiment>",
	Short: "Count assignments per arm",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssignmentsCount,
}

var importExperiment string

func init() {
	rootCmd.AddCommand(assignmentsCmd)
	assignmentsCmd.AddCommand(assignmentsImportCmd)
	assignmentsCmd.AddCommand(assignmentsCountCmd)

	assignmentsImportCmd.Flags().StringVarP(&importExperiment, "experiment", "e", "", "Experiment name (required)")
	_ = assignmentsImportCmd.MarkFlagRequired("experiment")
}

func runAssignmentsImport(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	assignments, err := parseAssignmentsCSV(in, importExperiment)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		n, err := app.Assignments.Import(ctx, assignments)
		if err != nil {
			return fmt.Errorf("failed to import assignments: %w", err)
		}
		logger.Info("imported assignments", "experiment", importExperiment, "read", len(assignments), "inserted", n)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d assignments into %s\n", n, len(assignments), importExperiment)
		return nil
	})
}

// parseAssignmentsCSV reads participant_id,arm rows. A first row whose
// participant_id does not parse is treated as a header.
func parseAssignmentsCSV(r io.Reader, experiment string) ([]domain.Assignment, error) {
	if strings.TrimSpace(experiment) == "" {
		return nil, &domain.ConfigurationError{Field: "experiment", Reason: "must not be empty"}
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var out []domain.Assignment
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid participant_id %q", line, record[0])
		}
		arm, err := domain.ParseArm(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, domain.Assignment{ParticipantID: id, Experiment: experiment, Arm: arm})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no assignments found in input")
	}
	return out, nil
}

func runAssignmentsCount(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		counts, err := app.Assignments.CountByArm(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to count assignments: %w", err)
		}
		if len(counts) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No assignments for %s\n", args[0])
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ARM\tPARTICIPANTS")
		var total int64
		for _, c := range counts {
			fmt.Fprintf(w, "%s\t%s\n", c.Arm.Label(), util.FormatCount(c.Count))
			total += c.Count
		}
		fmt.Fprintf(w, "Total\t%s\n", util.FormatCount(total))
		return w.Flush()
	})
}
