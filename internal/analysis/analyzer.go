package analysis

import (
	"fmt"

	"github.com/emiliopalmerini/abeval/internal/domain"
)

// Options controls an analysis.
type Options struct {
	// Experiment, when set, is checked against every row.
	Experiment    string
	Alpha         float64
	RevenuePolicy domain.RevenuePolicy
}

func DefaultOptions() Options {
	return Options{Alpha: DefaultAlpha, RevenuePolicy: domain.RevenueAllAssigned}
}

// Validate checks alpha and the revenue policy.
func (o Options) Validate() error {
	if !(o.Alpha > 0 && o.Alpha < 1) {
		return &domain.ConfigurationError{Field: "alpha", Reason: "must be in (0, 1)"}
	}
	switch o.RevenuePolicy {
	case domain.RevenueAllAssigned, domain.RevenuePurchasersOnly:
	default:
		return &domain.ConfigurationError{Field: "revenue_policy", Reason: fmt.Sprintf("unknown policy %q", o.RevenuePolicy)}
	}
	return nil
}

// Analysis holds both group summaries and the significance result.
type Analysis struct {
	Control   domain.GroupSummary
	Treatment domain.GroupSummary
	Result    domain.SignificanceResult
}

func (a Analysis) Groups() []domain.GroupSummary {
	return []domain.GroupSummary{a.Control, a.Treatment}
}

// Analyze partitions joined rows by arm and computes retention rates, lift,
// the chi-square retention test and the Welch revenue test.
func Analyze(rows []domain.JoinedRow, opts Options) (*Analysis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	groups, err := Partition(rows, opts.Experiment)
	if err != nil {
		return nil, err
	}
	control, treatment := groups[domain.ArmControl], groups[domain.ArmTreatment]

	a := &Analysis{
		Control:   Summarize(domain.ArmControl, control),
		Treatment: Summarize(domain.ArmTreatment, treatment),
	}

	revC, revT := revenues(control, opts.RevenuePolicy), revenues(treatment, opts.RevenuePolicy)
	welch := Welch(revC, revT)

	a.Result = domain.SignificanceResult{
		Lift:      Lift(a.Control, a.Treatment),
		Retention: ChiSquare2x2(contingency(a.Control, a.Treatment)),
		Revenue: domain.RevenueTest{
			Policy:           opts.RevenuePolicy,
			ControlN:         int64(len(revC)),
			TreatmentN:       int64(len(revT)),
			MeanDifference:   welch.MeanDifference,
			TStatistic:       welch.TStatistic,
			DegreesOfFreedom: welch.DegreesOfFreedom,
			PValue:           welch.PValue,
		},
		Alpha: opts.Alpha,
	}
	return a, nil
}

// Partition splits rows into Control and Treatment. An unknown arm, a
// duplicate participant, a row from another experiment or an outcome that
// breaks the purchase/revenue invariant is a DataIntegrityError.
func Partition(rows []domain.JoinedRow, experiment string) (map[domain.Arm][]domain.Outcome, error) {
	groups := map[domain.Arm][]domain.Outcome{
		domain.ArmControl:   nil,
		domain.ArmTreatment: nil,
	}
	seen := make(map[domain.Key]struct{}, len(rows))

	for _, r := range rows {
		a, o := r.Assignment, r.Outcome
		integrity := func(reason string) error {
			return &domain.DataIntegrityError{Experiment: a.Experiment, ParticipantID: a.ParticipantID, Reason: reason}
		}

		switch {
		case experiment != "" && a.Experiment != experiment:
			return nil, integrity("row belongs to a different experiment than " + experiment)
		case a.Key() != o.Key():
			return nil, integrity("assignment and outcome keys differ")
		case !a.Arm.Valid():
			return nil, integrity("unknown arm " + string(a.Arm))
		}
		if _, dup := seen[a.Key()]; dup {
			return nil, integrity("duplicate participant")
		}
		seen[a.Key()] = struct{}{}
		if err := o.Validate(); err != nil {
			return nil, err
		}

		groups[a.Arm] = append(groups[a.Arm], o)
	}
	return groups, nil
}

// Summarize counts participants and purchasers of one arm. The retention rate
// of an empty arm is 0 by convention; its mean revenue is undefined.
func Summarize(arm domain.Arm, outcomes []domain.Outcome) domain.GroupSummary {
	s := domain.GroupSummary{Arm: arm, Count: int64(len(outcomes))}
	for _, o := range outcomes {
		if o.Purchased {
			s.RetainedCount++
		}
		s.TotalRevenue += o.Revenue
	}

	if s.Count == 0 {
		s.MeanRevenue = domain.Undefined("empty arm")
		return s
	}
	s.RetentionRate = float64(s.RetainedCount) / float64(s.Count)
	s.MeanRevenue = domain.Defined(s.TotalRevenue / float64(s.Count))
	return s
}

// Lift is the relative change in retention of treatment over control.
func Lift(control, treatment domain.GroupSummary) domain.Statistic {
	switch {
	case control.Count == 0:
		return domain.Undefined("empty control arm")
	case treatment.Count == 0:
		return domain.Undefined("empty treatment arm")
	case control.RetentionRate == 0:
		return domain.Undefined("zero control baseline")
	}
	return domain.Defined((treatment.RetentionRate - control.RetentionRate) / control.RetentionRate)
}

func contingency(control, treatment domain.GroupSummary) [2][2]int64 {
	return [2][2]int64{
		{control.RetainedCount, control.Count - control.RetainedCount},
		{treatment.RetainedCount, treatment.Count - treatment.RetainedCount},
	}
}

func revenues(outcomes []domain.Outcome, policy domain.RevenuePolicy) []float64 {
	out := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		if policy == domain.RevenuePurchasersOnly && !o.Purchased {
			continue
		}
		out = append(out, o.Revenue)
	}
	return out
}
