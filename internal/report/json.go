package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/emiliopalmerini/abeval/internal/analysis"
	"github.com/emiliopalmerini/abeval/internal/domain"
)

// Stat is the JSON shape of a domain.Statistic: a null value carries the
// reason it is undefined.
type Stat struct {
	Value  domain.Statistic `json:"value"`
	Reason string           `json:"reason,omitempty"`
}

func stat(s domain.Statistic) Stat {
	return Stat{Value: s, Reason: s.Reason()}
}

type GroupJSON struct {
	Arm           string  `json:"arm"`
	Label         string  `json:"label"`
	Count         int64   `json:"count"`
	RetainedCount int64   `json:"retained_count"`
	RetentionRate float64 `json:"retention_rate"`
	TotalRevenue  float64 `json:"total_revenue"`
	MeanRevenue   Stat    `json:"mean_revenue"`
}

type RetentionJSON struct {
	Observed         [2][2]int64   `json:"observed"`
	Expected         [2][2]float64 `json:"expected"`
	ChiSquare        Stat          `json:"chi_square"`
	PValue           Stat          `json:"p_value"`
	Significant      bool          `json:"significant"`
	LowExpectedCount bool          `json:"low_expected_count"`
}

type RevenueJSON struct {
	Policy           string `json:"policy"`
	ControlN         int64  `json:"control_n"`
	TreatmentN       int64  `json:"treatment_n"`
	MeanDifference   Stat   `json:"mean_difference"`
	TStatistic       Stat   `json:"t_statistic"`
	DegreesOfFreedom Stat   `json:"degrees_of_freedom"`
	PValue           Stat   `json:"p_value"`
	Significant      bool   `json:"significant"`
}

type ReportJSON struct {
	RunID                     string        `json:"run_id"`
	Experiment                string        `json:"experiment"`
	GeneratedAt               string        `json:"generated_at"`
	AssignmentsWithoutOutcome int64         `json:"assignments_without_outcome"`
	OutcomesWithoutAssignment int64         `json:"outcomes_without_assignment"`
	Alpha                     float64       `json:"alpha"`
	Groups                    []GroupJSON   `json:"groups"`
	Lift                      Stat          `json:"lift"`
	Retention                 RetentionJSON `json:"retention"`
	Revenue                   RevenueJSON   `json:"revenue"`
}

func NewReportJSON(r *analysis.Report) ReportJSON {
	res := r.Result
	out := ReportJSON{
		RunID:                     r.RunID,
		Experiment:                r.Experiment,
		GeneratedAt:               r.GeneratedAt.Format(time.RFC3339),
		AssignmentsWithoutOutcome: r.Join.AssignmentsWithoutOutcome,
		OutcomesWithoutAssignment: r.Join.OutcomesWithoutAssignment,
		Alpha:                     res.Alpha,
		Lift:                      stat(res.Lift),
		Retention: RetentionJSON{
			Observed:         res.Retention.Observed,
			Expected:         res.Retention.Expected,
			ChiSquare:        stat(res.Retention.ChiSquare),
			PValue:           stat(res.Retention.PValue),
			Significant:      res.RetentionSignificant(),
			LowExpectedCount: res.Retention.LowExpectedCount,
		},
		Revenue: RevenueJSON{
			Policy:           string(res.Revenue.Policy),
			ControlN:         res.Revenue.ControlN,
			TreatmentN:       res.Revenue.TreatmentN,
			MeanDifference:   stat(res.Revenue.MeanDifference),
			TStatistic:       stat(res.Revenue.TStatistic),
			DegreesOfFreedom: stat(res.Revenue.DegreesOfFreedom),
			PValue:           stat(res.Revenue.PValue),
			Significant:      res.RevenueSignificant(),
		},
	}
	for _, g := range r.Groups() {
		out.Groups = append(out.Groups, GroupJSON{
			Arm:           string(g.Arm),
			Label:         g.Arm.Label(),
			Count:         g.Count,
			RetainedCount: g.RetainedCount,
			RetentionRate: g.RetentionRate,
			TotalRevenue:  g.TotalRevenue,
			MeanRevenue:   stat(g.MeanRevenue),
		})
	}
	return out
}

func JSON(w io.Writer, r *analysis.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(NewReportJSON(r)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
