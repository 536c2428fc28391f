package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/emiliopalmerini/abeval/internal/analysis"
	"github.com/emiliopalmerini/abeval/internal/util"
)

// Text writes a console summary of the analysis.
func Text(w io.Writer, r *analysis.Report) error {
	p := message.NewPrinter(language.English)
	res := r.Result

	p.Fprintf(w, "Experiment: %s\n", r.Experiment)
	p.Fprintf(w, "Run:        %s (%s)\n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	if r.Join.Excluded() > 0 {
		p.Fprintf(w, "Excluded:   %d assignments without outcome, %d outcomes without assignment\n",
			r.Join.AssignmentsWithoutOutcome, r.Join.OutcomesWithoutAssignment)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ARM\tPARTICIPANTS\tRETAINED\tRETENTION\tREVENUE\tMEAN REVENUE")
	for _, g := range r.Groups() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			g.Arm.Label(),
			p.Sprintf("%d", g.Count),
			p.Sprintf("%d", g.RetainedCount),
			util.FormatPercent(g.RetentionRate),
			p.Sprintf("%.2f", g.TotalRevenue),
			money(g.MeanRevenue),
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write summary table: %w", err)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Lift (treatment vs control): %s\n", lift(liftPercent(res.Lift)))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Retention (chi-square, Yates-corrected)")
	fmt.Fprintf(w, "  chi2     %s\n", res.Retention.ChiSquare.Format("%.4f"))
	fmt.Fprintf(w, "  p-value  %s\n", pValue(res.Retention.PValue))
	fmt.Fprintf(w, "  result   %s at alpha %.2f\n", verdict(res.RetentionSignificant(), res.Retention.PValue), res.Alpha)
	if res.Retention.LowExpectedCount {
		fmt.Fprintln(w, "  caveat   an expected cell count is below 5; the test has low power")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Revenue (Welch t-test, policy %q, n=%d/%d)\n", res.Revenue.Policy, res.Revenue.ControlN, res.Revenue.TreatmentN)
	fmt.Fprintf(w, "  diff     %s\n", money(res.Revenue.MeanDifference))
	fmt.Fprintf(w, "  t        %s\n", res.Revenue.TStatistic.Format("%.4f"))
	fmt.Fprintf(w, "  df       %s\n", res.Revenue.DegreesOfFreedom.Format("%.2f"))
	fmt.Fprintf(w, "  p-value  %s\n", pValue(res.Revenue.PValue))
	_, err := fmt.Fprintf(w, "  result   %s at alpha %.2f\n", verdict(res.RevenueSignificant(), res.Revenue.PValue), res.Alpha)
	return err
}
