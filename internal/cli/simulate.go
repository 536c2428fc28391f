package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/abeval/internal/domain"
	"github.com/emiliopalmerini/abeval/internal/simulation"
	"github.com/emiliopalmerini/abeval/internal/util"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <experiment>",
	Short: "Simulate purchase outcomes for an experiment",
	Long: `Draw a purchase outcome for every assigned participant and upsert it.

Each participant purchases with the probability of their arm; purchasers get a
revenue drawn from a normal distribution, clamped at zero and rounded to cents.
The same seed and assignments always produce the same outcomes.

Parameters come from defaults, then the YAML file given by --config, then flags.

Examples:
  abeval simulate checkout-v2
  abeval simulate checkout-v2 --seed 7 --p-treatment 0.3
  abeval simulate checkout-v2 --config sim.yaml --date 2026-01-31 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

// Flags
var (
	simConfigPath    string
	simPControl      float64
	simPTreatment    float64
	simRevenueMean   float64
	simRevenueStdDev float64
	simSeed          int64
	simDate          string
	simDryRun        bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	defaults := simulation.DefaultConfig()
	f := simulateCmd.Flags()
	f.StringVarP(&simConfigPath, "config", "c", "", "YAML file with simulation parameters")
	f.Float64Var(&simPControl, "p-control", defaults.PControl, "Purchase probability in the control arm")
	f.Float64Var(&simPTreatment, "p-treatment", defaults.PTreatment, "Purchase probability in the treatment arm")
	f.Float64Var(&simRevenueMean, "revenue-mean", defaults.RevenueMean, "Mean revenue per purchaser")
	f.Float64Var(&simRevenueStdDev, "revenue-stddev", defaults.RevenueStdDev, "Standard deviation of revenue per purchaser")
	f.Int64Var(&simSeed, "seed", defaults.Seed, "Random seed")
	f.StringVar(&simDate, "date", "", "Evaluation date YYYY-MM-DD (default: today)")
	f.BoolVar(&simDryRun, "dry-run", false, "Simulate without writing outcomes")
}

// simulationConfig layers flags that were set explicitly over the config
// file and the defaults.
func simulationConfig(cmd *cobra.Command) (simulation.Config, error) {
	c := simulation.DefaultConfig()
	if simConfigPath != "" {
		loaded, err := simulation.LoadConfig(simConfigPath)
		if err != nil {
			return c, err
		}
		c = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("p-control") {
		c.PControl = simPControl
	}
	if flags.Changed("p-treatment") {
		c.PTreatment = simPTreatment
	}
	if flags.Changed("revenue-mean") {
		c.RevenueMean = simRevenueMean
	}
	if flags.Changed("revenue-stddev") {
		c.RevenueStdDev = simRevenueStdDev
	}
	if flags.Changed("seed") {
		c.Seed = simSeed
	}
	return c, c.Validate()
}

func parseRunDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, &domain.ConfigurationError{Field: "date", Reason: fmt.Sprintf("must be YYYY-MM-DD, got %q", s)}
	}
	return t, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	simCfg, err := simulationConfig(cmd)
	if err != nil {
		return err
	}
	runDate, err := parseRunDate(simDate)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		svc := simulation.NewService(app.Assignments, app.Outcomes, app.Metrics, app.Logger)
		summary, err := svc.Run(ctx, args[0], simulation.RunOptions{
			Config:  simCfg,
			RunDate: runDate,
			DryRun:  simDryRun,
		})
		if err != nil {
			return err
		}
		return printSimulationSummary(cmd, summary)
	})
}

func printSimulationSummary(cmd *cobra.Command, s *simulation.RunSummary) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Experiment: %s\n", s.Experiment)
	fmt.Fprintf(out, "Run:        %s (seed %d, evaluated %s)\n", s.RunID, s.Seed, s.RunDate.Format(domain.DateLayout))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ARM\tPARTICIPANTS\tPURCHASERS\tRATE\tREVENUE")
	for _, t := range s.Arms {
		rate := "-"
		if t.Count > 0 {
			rate = util.FormatPercent(float64(t.Purchasers) / float64(t.Count))
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%.2f\n", t.Arm.Label(), t.Count, t.Purchasers, rate, t.Revenue)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if s.DryRun {
		fmt.Fprintf(out, "Dry run: %d outcomes simulated, nothing written\n", len(s.Outcomes))
	} else {
		fmt.Fprintf(out, "Upserted %d outcomes\n", s.RowsWritten)
	}
	return nil
}
