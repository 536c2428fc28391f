package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/abeval/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up | down <version> | status | <version>]",
	Short: "Run database migrations",
	Long: `Run database migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).

Examples:
  abeval migrate           # Run all pending migrations
  abeval migrate status    # Show current and pending versions
  abeval migrate down 1    # Roll back to version 1
  abeval migrate 0         # Roll back all migrations`,
	Args: cobra.MaximumNArgs(2),
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	m, err := migrate.New(db.DB, logger)
	if err != nil {
		return err
	}

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	action := "up"
	if len(args) > 0 {
		action = args[0]
	}

	var n int
	switch action {
	case "status":
		fmt.Fprintf(out, "Current version: %d\n", status.Current)
		fmt.Fprintf(out, "Latest version:  %d\n", status.Latest)
		if status.Dirty {
			fmt.Fprintln(out, "State:           dirty (manual intervention required)")
		}
		for _, mig := range status.Pending {
			fmt.Fprintf(out, "Pending:         %03d_%s\n", mig.Version, mig.Name)
		}
		return nil
	case "up":
		if len(args) > 1 {
			return fmt.Errorf("migrate up takes no version")
		}
		fmt.Fprintf(out, "Current version: %d\n", status.Current)
		n, err = m.Up(ctx)
	case "down":
		if len(args) != 2 {
			return fmt.Errorf("migrate down requires a target version")
		}
		target, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return fmt.Errorf("invalid version number: %s", args[1])
		}
		if target > status.Current {
			return fmt.Errorf("target version %d is above current version %d", target, status.Current)
		}
		fmt.Fprintf(out, "Current version: %d\n", status.Current)
		n, err = m.To(ctx, target)
	default:
		target, convErr := strconv.Atoi(action)
		if convErr != nil || len(args) > 1 {
			return fmt.Errorf("unknown migrate action: %s", action)
		}
		fmt.Fprintf(out, "Current version: %d\n", status.Current)
		n, err = m.To(ctx, target)
	}
	if err != nil {
		return err
	}

	if n == 0 {
		fmt.Fprintln(out, "Already at target version")
	} else {
		fmt.Fprintf(out, "Applied %d migration(s)\n", n)
	}
	return nil
}
