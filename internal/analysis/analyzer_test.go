package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/abeval/internal/domain"
)

// buildRows creates n participants in arm, the first retained of whom
// purchased with the given revenue.
func buildRows(experiment string, arm domain.Arm, firstID int64, n, retained int, revenue float64) []domain.JoinedRow {
	rows := make([]domain.JoinedRow, n)
	for i := range rows {
		id := firstID + int64(i)
		o := domain.Outcome{ParticipantID: id, Experiment: experiment}
		if i < retained {
			o.Purchased = true
			o.Revenue = revenue + float64(i%7)
		}
		rows[i] = domain.JoinedRow{
			Assignment: domain.Assignment{ParticipantID: id, Experiment: experiment, Arm: arm},
			Outcome:    o,
		}
	}
	return rows
}

func TestAnalyzeRetentionOfferExample(t *testing.T) {
	rows := append(
		buildRows("X", domain.ArmControl, 1, 1000, 180, 180),
		buildRows("X", domain.ArmTreatment, 5001, 1000, 240, 180)...,
	)

	got, err := Analyze(rows, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, int64(1000), got.Control.Count)
	assert.Equal(t, int64(180), got.Control.RetainedCount)
	assert.InDelta(t, 0.18, got.Control.RetentionRate, 1e-12)
	assert.InDelta(t, 0.24, got.Treatment.RetentionRate, 1e-12)

	lift, ok := got.Result.Lift.Value()
	require.True(t, ok)
	assert.InDelta(t, 0.3333, lift, 1e-4)

	assert.Equal(t, [2][2]int64{{180, 820}, {240, 760}}, got.Result.Retention.Observed)
	p, ok := got.Result.Retention.PValue.Value()
	require.True(t, ok)
	assert.Less(t, p, 0.05)
	assert.True(t, got.Result.RetentionSignificant())
	assert.False(t, got.Result.Retention.LowExpectedCount)

	assert.Equal(t, domain.RevenueAllAssigned, got.Result.Revenue.Policy)
	assert.Equal(t, int64(1000), got.Result.Revenue.ControlN)
	assert.True(t, got.Result.Revenue.PValue.IsDefined())
}

func TestAnalyzeRevenuePolicy(t *testing.T) {
	// Same revenue per purchaser, more purchasers in treatment: revenue per
	// assigned participant differs, revenue per purchaser does not.
	rows := append(
		buildRows("X", domain.ArmControl, 1, 1000, 180, 180),
		buildRows("X", domain.ArmTreatment, 5001, 1000, 240, 180)...,
	)

	all, err := Analyze(rows, DefaultOptions())
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.RevenuePolicy = domain.RevenuePurchasersOnly
	buyers, err := Analyze(rows, opts)
	require.NoError(t, err)

	assert.Equal(t, int64(180), buyers.Result.Revenue.ControlN)
	assert.Equal(t, int64(240), buyers.Result.Revenue.TreatmentN)

	pAll, _ := all.Result.Revenue.PValue.Value()
	pBuyers, _ := buyers.Result.Revenue.PValue.Value()
	assert.Less(t, pAll, 0.05)
	assert.Greater(t, pBuyers, 0.05)
}

func TestAnalyzeRetentionRateBounds(t *testing.T) {
	for _, retained := range []int{0, 1, 13, 40} {
		rows := append(
			buildRows("X", domain.ArmControl, 1, 40, retained, 50),
			buildRows("X", domain.ArmTreatment, 100, 40, 40-retained, 50)...,
		)
		got, err := Analyze(rows, DefaultOptions())
		require.NoError(t, err)
		for _, g := range got.Groups() {
			assert.GreaterOrEqual(t, g.RetentionRate, 0.0)
			assert.LessOrEqual(t, g.RetentionRate, 1.0)
		}
	}
}

func TestAnalyzeZeroBaseline(t *testing.T) {
	rows := append(
		buildRows("X", domain.ArmControl, 1, 100, 0, 0),
		buildRows("X", domain.ArmTreatment, 200, 100, 10, 80)...,
	)

	got, err := Analyze(rows, DefaultOptions())
	require.NoError(t, err)

	assert.Zero(t, got.Control.RetentionRate)
	assert.False(t, got.Result.Lift.IsDefined(), "lift over a zero baseline must be undefined, not 0")
	assert.Equal(t, "zero control baseline", got.Result.Lift.Reason())
	assert.True(t, got.Result.Retention.PValue.IsDefined())
}

func TestAnalyzeEmptyArm(t *testing.T) {
	rows := buildRows("X", domain.ArmControl, 1, 30, 6, 100)

	got, err := Analyze(rows, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, int64(0), got.Treatment.Count)
	assert.Zero(t, got.Treatment.RetentionRate)
	assert.False(t, got.Treatment.MeanRevenue.IsDefined())
	assert.False(t, got.Result.Lift.IsDefined())
	assert.False(t, got.Result.Retention.PValue.IsDefined())
	assert.False(t, got.Result.Revenue.PValue.IsDefined())
	assert.False(t, got.Result.RetentionSignificant())
}

func TestAnalyzeNoRows(t *testing.T) {
	got, err := Analyze(nil, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, got.Control.Count)
	assert.False(t, got.Control.MeanRevenue.IsDefined())
	assert.False(t, got.Result.Lift.IsDefined())
}

func TestAnalyzeIntegrityErrors(t *testing.T) {
	unknownArm := buildRows("X", domain.ArmControl, 1, 5, 1, 10)
	unknownArm[2].Assignment.Arm = "C"

	duplicate := append(buildRows("X", domain.ArmControl, 1, 5, 1, 10), buildRows("X", domain.ArmTreatment, 3, 2, 1, 10)...)

	otherExperiment := buildRows("X", domain.ArmControl, 1, 5, 1, 10)
	otherExperiment[4].Assignment.Experiment = "Y"
	otherExperiment[4].Outcome.Experiment = "Y"

	badOutcome := buildRows("X", domain.ArmControl, 1, 5, 1, 10)
	badOutcome[3].Outcome.Revenue = 12

	tests := map[string]struct {
		rows []domain.JoinedRow
		id   int64
	}{
		"unknown arm":      {rows: unknownArm, id: 3},
		"duplicate":        {rows: duplicate, id: 3},
		"other experiment": {rows: otherExperiment, id: 5},
		"bad outcome":      {rows: badOutcome, id: 4},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Experiment = "X"
			_, err := Analyze(tt.rows, opts)

			var integrity *domain.DataIntegrityError
			require.ErrorAs(t, err, &integrity)
			assert.Equal(t, tt.id, integrity.ParticipantID)
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())

	opts.Alpha = 0
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, opts.Validate(), &cfgErr)
	assert.Equal(t, "alpha", cfgErr.Field)

	opts = DefaultOptions()
	opts.RevenuePolicy = "median"
	require.ErrorAs(t, opts.Validate(), &cfgErr)
	assert.Equal(t, "revenue_policy", cfgErr.Field)
}

func TestLift(t *testing.T) {
	control := domain.GroupSummary{Count: 1000, RetentionRate: 0.18}
	treatment := domain.GroupSummary{Count: 1000, RetentionRate: 0.24}

	lift, ok := Lift(control, treatment).Value()
	require.True(t, ok)
	assert.InDelta(t, (0.24-0.18)/0.18, lift, 1e-12)

	negative, ok := Lift(treatment, control).Value()
	require.True(t, ok)
	assert.InDelta(t, -0.25, negative, 1e-12)
}
