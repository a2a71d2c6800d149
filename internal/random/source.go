// Package random provides the seedable random stream shared by the
// generation and adjustment stages. Every draw goes through a Source that is
// passed explicitly, so a run is reproducible from its seed alone as long as
// the stages consume the stream in the same order.
package random

import (
	"math"
	"math/rand/v2"
	"slices"
)

const streamSalt = 0x9e3779b97f4a7c15

type Source struct {
	r *rand.Rand
}

func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewPCG(seed, seed^streamSalt))}
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Uniform returns a value in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.r.Float64()
}

// IntN returns an integer in [lo, hi). It returns lo when the range is empty.
func (s *Source) IntN(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.IntN(hi-lo)
}

// IntInclusive returns an integer in [lo, hi].
func (s *Source) IntInclusive(lo, hi int) int {
	return s.IntN(lo, hi+1)
}

func (s *Source) Bernoulli(p float64) bool {
	return s.r.Float64() < p
}

// Pick returns a uniform index into a collection of length n.
func (s *Source) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return s.r.IntN(n)
}

// Weighted returns an index drawn with probability proportional to weights.
func (s *Source) Weighted(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return s.Pick(len(weights))
	}
	u := s.r.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if u < acc {
			return i
		}
	}
	return len(weights) - 1
}

// Sample picks round(frac*n) distinct indices out of n, returned ascending.
func (s *Source) Sample(n int, frac float64) []int {
	k := SampleSize(n, frac)
	if k == 0 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + s.r.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	out := slices.Clone(idx[:k])
	slices.Sort(out)
	return out
}

// Mask draws an independent Bernoulli(p) flag for each of n rows.
func (s *Source) Mask(n int, p float64) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = s.r.Float64() < p
	}
	return mask
}

// SampleSize is the number of rows Sample selects, rounding half to even.
func SampleSize(n int, frac float64) int {
	if n <= 0 || frac <= 0 {
		return 0
	}
	k := int(math.RoundToEven(frac * float64(n)))
	return min(k, n)
}
