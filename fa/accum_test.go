package fa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Test_Accumulator_WorkedExample verifies the column [1..8] with D1=3
// (window of 8) produces mean=4, std=2, matching the worked arithmetic:
// sum=36, sumSq=204, mean=4.5, sumSq>>3=25, variance=25-4.5^2=4.75,
// sqrt truncated to 2.
func Test_Accumulator_WorkedExample(t *testing.T) {
	acc := NewAccumulator()
	for i := int32(1); i <= 8; i++ {
		acc.Accum(Sample{X: i, Y: i})
	}
	d := acc.Finalize(3)

	assert.Equal(t, int32(1), d.MinX)
	assert.Equal(t, int32(8), d.MaxX)
	assert.Equal(t, int32(4), d.MeanX)
	assert.Equal(t, int32(2), d.StdX)
}

func Test_Accumulator_Merge_MatchesDirectAccumulation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		samples := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) Sample {
			return Sample{
				X: rapid.Int32Range(-1<<20, 1<<20).Draw(t, "x"),
				Y: rapid.Int32Range(-1<<20, 1<<20).Draw(t, "y"),
			}
		}), 8, 8).Draw(t, "samples")

		direct := NewAccumulator()
		for _, s := range samples {
			direct.Accum(s)
		}

		half := NewAccumulator()
		for _, s := range samples[:4] {
			half.Accum(s)
		}
		other := NewAccumulator()
		for _, s := range samples[4:] {
			other.Accum(s)
		}
		half.Merge(other)

		assert.Equal(t, direct.Finalize(3), half.Finalize(3))
	})
}

func Test_Accumulator_Variance_NeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.SampledFrom([]int{1, 2, 4, 8, 16}).Draw(t, "log2n")
		count := 1 << n
		acc := NewAccumulator()
		for i := 0; i < count; i++ {
			v := rapid.Int32Range(math.MinInt16, math.MaxInt16).Draw(t, "v")
			acc.Accum(Sample{X: v, Y: v})
		}
		d := acc.Finalize(n)
		assert.GreaterOrEqual(t, d.StdX, int32(0))
		assert.GreaterOrEqual(t, d.StdY, int32(0))
	})
}

func Test_Accumulator_ConstantColumn_HasZeroStd(t *testing.T) {
	acc := NewAccumulator()
	for i := 0; i < 16; i++ {
		acc.Accum(Sample{X: 7, Y: -3})
	}
	d := acc.Finalize(4)
	assert.Equal(t, int32(0), d.StdX)
	assert.Equal(t, int32(0), d.StdY)
	assert.Equal(t, int32(7), d.MeanX)
	assert.Equal(t, int32(-3), d.MeanY)
}
