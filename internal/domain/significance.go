package domain

// GroupSummary holds per-arm counts and rates.
type GroupSummary struct {
	Arm           Arm
	Count         int64
	RetainedCount int64
	// RetentionRate is RetainedCount/Count, and 0 for an empty arm.
	RetentionRate float64
	TotalRevenue  float64
	MeanRevenue   Statistic
}

// RevenuePolicy selects which participants enter the revenue comparison.
type RevenuePolicy string

const (
	// RevenueAllAssigned compares revenue per assigned participant, counting
	// non-purchasers as zero.
	RevenueAllAssigned RevenuePolicy = "all"
	// RevenuePurchasersOnly compares revenue per purchaser.
	RevenuePurchasersOnly RevenuePolicy = "purchasers"
)

// RetentionTest is the chi-square test of independence on the 2x2 retention
// table.
type RetentionTest struct {
	// Observed is [[retained_C, not_C], [retained_T, not_T]].
	Observed  [2][2]int64
	Expected  [2][2]float64
	ChiSquare Statistic
	PValue    Statistic
	// LowExpectedCount flags a cell with expected count below 5.
	LowExpectedCount bool
}

// RevenueTest is Welch's unequal-variance t-test on revenue.
type RevenueTest struct {
	Policy           RevenuePolicy
	ControlN         int64
	TreatmentN       int64
	MeanDifference   Statistic
	TStatistic       Statistic
	DegreesOfFreedom Statistic
	PValue           Statistic
}

// SignificanceResult collects lift and both hypothesis tests.
type SignificanceResult struct {
	Lift      Statistic
	Retention RetentionTest
	Revenue   RevenueTest
	Alpha     float64
}

// RetentionSignificant reports whether the retention p-value is below alpha.
// An undefined p-value is never significant.
func (r SignificanceResult) RetentionSignificant() bool {
	p, ok := r.Retention.PValue.Value()
	return ok && p < r.Alpha
}

func (r SignificanceResult) RevenueSignificant() bool {
	p, ok := r.Revenue.PValue.Value()
	return ok && p < r.Alpha
}
