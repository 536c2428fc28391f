package analysis

const (
	// DefaultAlpha is the significance level used when none is given.
	DefaultAlpha = 0.05

	// MinExpectedCount is the smallest expected cell count for which the
	// chi-square approximation is considered reliable.
	MinExpectedCount = 5.0

	// MinWelchSamples is the smallest group size with a sample variance.
	MinWelchSamples = 2
)
