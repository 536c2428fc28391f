package simulation

import "math/rand/v2"

// Stream is the seeded random source of one simulation run. All draws of a
// run come from the same Stream in input order.
type Stream struct {
	r *rand.Rand
}

func NewStream(seed int64) *Stream {
	return &Stream{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)))}
}

// Bernoulli draws one uniform value and reports whether it falls below p.
func (s *Stream) Bernoulli(p float64) bool {
	return s.r.Float64() < p
}

// Normal draws from N(mean, stddev).
func (s *Stream) Normal(mean, stddev float64) float64 {
	return mean + stddev*s.r.NormFloat64()
}
