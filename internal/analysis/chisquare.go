package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/emiliopalmerini/abeval/internal/domain"
)

// ChiSquare2x2 runs Pearson's chi-square test of independence on a 2x2 table
// with Yates' continuity correction: each |O-E| is reduced by at most 0.5.
// A table with a zero row or column total has no defined statistic.
func ChiSquare2x2(observed [2][2]int64) domain.RetentionTest {
	test := domain.RetentionTest{Observed: observed}

	var rows, cols [2]float64
	var total float64
	for i := range 2 {
		for j := range 2 {
			v := float64(observed[i][j])
			rows[i] += v
			cols[j] += v
			total += v
		}
	}

	if total == 0 {
		test.ChiSquare = domain.Undefined("empty contingency table")
		test.PValue = test.ChiSquare
		return test
	}

	degenerate := false
	for i := range 2 {
		for j := range 2 {
			e := rows[i] * cols[j] / total
			test.Expected[i][j] = e
			if e < MinExpectedCount {
				test.LowExpectedCount = true
			}
			if e == 0 {
				degenerate = true
			}
		}
	}
	if degenerate {
		test.ChiSquare = domain.Undefined("contingency table has a zero row or column total")
		test.PValue = test.ChiSquare
		return test
	}

	var chi2 float64
	for i := range 2 {
		for j := range 2 {
			e := test.Expected[i][j]
			d := math.Max(0, math.Abs(float64(observed[i][j])-e)-0.5)
			chi2 += d * d / e
		}
	}

	test.ChiSquare = domain.Defined(chi2)
	test.PValue = domain.Defined(clampProbability(distuv.ChiSquared{K: 1}.Survival(chi2)))
	return test
}

func clampProbability(p float64) float64 {
	return math.Min(1, math.Max(0, p))
}
