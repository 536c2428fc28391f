package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/emiliopalmerini/abeval/internal/analysis"
	"github.com/emiliopalmerini/abeval/internal/domain"
)

var csvHeader = []string{"experiment", "metric", "arm", "value", "note"}

// CSV writes the analysis as long-format rows, one metric per row. Undefined
// statistics have an empty value and their reason in the note column.
func CSV(w io.Writer, r *analysis.Report) error {
	writer := csv.NewWriter(w)

	rows := [][]string{csvHeader}
	add := func(metric, arm, value, note string) {
		rows = append(rows, []string{r.Experiment, metric, arm, value, note})
	}
	addStat := func(metric string, s domain.Statistic) {
		if v, ok := s.Value(); ok {
			add(metric, "", formatFloat(v), "")
			return
		}
		add(metric, "", "", "undefined: "+s.Reason())
	}

	for _, g := range r.Groups() {
		arm := g.Arm.Label()
		add("count", arm, strconv.FormatInt(g.Count, 10), "")
		add("retained", arm, strconv.FormatInt(g.RetainedCount, 10), "")
		add("retention_rate", arm, formatFloat(g.RetentionRate), "")
		add("total_revenue", arm, formatFloat(g.TotalRevenue), "")
		if v, ok := g.MeanRevenue.Value(); ok {
			add("mean_revenue", arm, formatFloat(v), "")
		} else {
			add("mean_revenue", arm, "", "undefined: "+g.MeanRevenue.Reason())
		}
	}

	res := r.Result
	addStat("lift", res.Lift)
	addStat("retention_chi_square", res.Retention.ChiSquare)
	addStat("retention_p_value", res.Retention.PValue)
	if res.Retention.LowExpectedCount {
		add("retention_low_expected_count", "", "true", "expected cell count below 5")
	}
	add("revenue_policy", "", string(res.Revenue.Policy), "")
	addStat("revenue_mean_difference", res.Revenue.MeanDifference)
	addStat("revenue_t_statistic", res.Revenue.TStatistic)
	addStat("revenue_degrees_of_freedom", res.Revenue.DegreesOfFreedom)
	addStat("revenue_p_value", res.Revenue.PValue)
	add("assignments_without_outcome", "", strconv.FormatInt(r.Join.AssignmentsWithoutOutcome, 10), "")
	add("outcomes_without_assignment", "", strconv.FormatInt(r.Join.OutcomesWithoutAssignment, 10), "")

	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
