package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceIsDeterministicForSeed(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}

	c := New(43)
	same := true
	for i := 0; i < 10; i++ {
		if a.Float64() != c.Float64() {
			same = false
		}
	}
	assert.False(t, same, "different seeds should diverge")
}

func TestIntRanges(t *testing.T) {
	s := New(1)
	for i := 0; i < 5000; i++ {
		v := s.IntN(8, 15)
		require.GreaterOrEqual(t, v, 8)
		require.Less(t, v, 15)

		w := s.IntInclusive(5, 10)
		require.GreaterOrEqual(t, w, 5)
		require.LessOrEqual(t, w, 10)
	}
	assert.Equal(t, 3, s.IntN(3, 3))
}

func TestSampleReturnsDistinctSortedIndices(t *testing.T) {
	s := New(7)
	got := s.Sample(1000, 0.2)
	require.Len(t, got, 200)

	seen := make(map[int]struct{}, len(got))
	for i, v := range got {
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 1000)
		if i > 0 {
			require.Less(t, got[i-1], v)
		}
		seen[v] = struct{}{}
	}
	assert.Len(t, seen, 200)
	assert.Empty(t, s.Sample(10, 0))
	assert.Len(t, s.Sample(3, 1), 3)
}

func TestWeightedFollowsWeights(t *testing.T) {
	s := New(11)
	counts := make([]int, 3)
	const n = 50000
	for i := 0; i < n; i++ {
		counts[s.Weighted([]float64{0.25, 0.55, 0.20})]++
	}
	assert.InDelta(t, 0.25, float64(counts[0])/n, 0.01)
	assert.InDelta(t, 0.55, float64(counts[1])/n, 0.01)
	assert.InDelta(t, 0.20, float64(counts[2])/n, 0.01)
}

func TestSampleSizeRoundsHalfToEven(t *testing.T) {
	assert.Equal(t, 0, SampleSize(100, 0.005))
	assert.Equal(t, 2, SampleSize(500, 0.005))
	assert.Equal(t, 1, SampleSize(5, 0.2))
	assert.Equal(t, 0, SampleSize(0, 0.5))
}
