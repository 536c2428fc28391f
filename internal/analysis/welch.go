package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/emiliopalmerini/abeval/internal/domain"
)

// WelchResult is the outcome of a two-sided Welch t-test of
// mean(treatment) - mean(control).
type WelchResult struct {
	MeanDifference   domain.Statistic
	TStatistic       domain.Statistic
	DegreesOfFreedom domain.Statistic
	PValue           domain.Statistic
}

// Welch compares two sample means without assuming equal variances, using
// the Welch-Satterthwaite degrees of freedom.
func Welch(control, treatment []float64) WelchResult {
	var res WelchResult

	if len(control) == 0 || len(treatment) == 0 {
		res.MeanDifference = domain.Undefined("empty group")
	} else {
		res.MeanDifference = domain.Defined(stat.Mean(treatment, nil) - stat.Mean(control, nil))
	}

	if len(control) < MinWelchSamples || len(treatment) < MinWelchSamples {
		undefined := domain.Undefined("fewer than 2 observations in a group")
		res.TStatistic, res.DegreesOfFreedom, res.PValue = undefined, undefined, undefined
		return res
	}

	meanC, varC := stat.MeanVariance(control, nil)
	meanT, varT := stat.MeanVariance(treatment, nil)
	nC, nT := float64(len(control)), float64(len(treatment))

	seC, seT := varC/nC, varT/nT
	se2 := seC + seT
	if se2 == 0 {
		undefined := domain.Undefined("zero variance in both groups")
		res.TStatistic, res.DegreesOfFreedom, res.PValue = undefined, undefined, undefined
		return res
	}

	t := (meanT - meanC) / math.Sqrt(se2)
	df := se2 * se2 / (seC*seC/(nC-1) + seT*seT/(nT-1))

	res.TStatistic = domain.Defined(t)
	res.DegreesOfFreedom = domain.Defined(df)
	res.PValue = domain.Defined(clampProbability(2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))))
	return res
}
