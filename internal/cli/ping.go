package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/abeval/internal/infrastructure/database"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the database connection",
	Long: `Connect to the configured database and preview stored assignments.

Examples:
  abeval ping
  abeval ping --limit 10`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

var pingLimit int

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVarP(&pingLimit, "limit", "n", 5, "Number of assignment rows to preview")
}

func runPing(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		out := cmd.OutOrStdout()

		kind := "remote"
		if database.IsLocal(cfg.Database.URL) {
			kind = "local"
		}
		fmt.Fprintf(out, "Connected to %s database\n", kind)

		rows, err := app.Assignments.Preview(ctx, pingLimit)
		if err != nil {
			return fmt.Errorf("failed to preview assignments: %w", err)
		}
		if len(rows) == 0 {
			fmt.Fprintln(out, "No assignments stored")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EXPERIMENT\tPARTICIPANT\tARM")
		for _, a := range rows {
			fmt.Fprintf(w, "%s\t%d\t%s\n", a.Experiment, a.ParticipantID, a.Arm.Label())
		}
		return w.Flush()
	})
}
