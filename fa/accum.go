package fa

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	Decimation accumulator: running min/max/sum/sum-of-squares
 *		per channel, finalized into a DecimatedSample. See spec.md
 *		section 4.3.
 *
 *		The variance computation is delicate: the "proper" formula
 *		SUM((x-m)^2)/N needs two passes over the data, which a
 *		streaming decimator cannot afford, so this uses
 *		SUM(x^2)/N - m^2 instead, accumulating the sum of squares in
 *		a 128-bit accumulator to avoid overflow.
 *
 *------------------------------------------------------------------*/

// Accumulator is the per-channel running statistic for one decimation
// window (either level-1 or, via Merge, level-2).
type Accumulator struct {
	minX, maxX int32
	minY, maxY int32
	sumX, sumY int64
	sumSqX, sumSqY uint128
}

// NewAccumulator returns an accumulator initialized per spec.md section
// 4.3: min=MAX, max=MIN, sums=0.
func NewAccumulator() Accumulator {
	return Accumulator{
		minX: math.MaxInt32,
		maxX: math.MinInt32,
		minY: math.MaxInt32,
		maxY: math.MinInt32,
	}
}

// Accum folds one sample into the accumulator.
func (a *Accumulator) Accum(s Sample) {
	if s.X < a.minX {
		a.minX = s.X
	}
	if s.X > a.maxX {
		a.maxX = s.X
	}
	if s.Y < a.minY {
		a.minY = s.Y
	}
	if s.Y > a.maxY {
		a.maxY = s.Y
	}
	a.sumX += int64(s.X)
	a.sumY += int64(s.Y)
	a.sumSqX.addU64(uint64(int64(s.X) * int64(s.X)))
	a.sumSqY.addU64(uint64(int64(s.Y) * int64(s.Y)))
}

// Merge folds another accumulator's partial result into this one; used to
// fold D1 partial results into the D2 accumulator.
func (a *Accumulator) Merge(other Accumulator) {
	if other.minX < a.minX {
		a.minX = other.minX
	}
	if other.maxX > a.maxX {
		a.maxX = other.maxX
	}
	if other.minY < a.minY {
		a.minY = other.minY
	}
	if other.maxY > a.maxY {
		a.maxY = other.maxY
	}
	a.sumX += other.sumX
	a.sumY += other.sumY
	a.sumSqX.addU128(other.sumSqX)
	a.sumSqY.addU128(other.sumSqY)
}

// Finalize writes extrema, mean and standard deviation for a window of
// 2^log2N samples. The max(var, 0) clamp is mandatory: rounding can drive
// a theoretically-zero variance slightly negative.
func (a *Accumulator) Finalize(log2N int) DecimatedSample {
	shift := uint(log2N)
	return DecimatedSample{
		MinX:  a.minX,
		MaxX:  a.maxX,
		MinY:  a.minY,
		MaxY:  a.maxY,
		MeanX: int32(a.sumX >> shift),
		MeanY: int32(a.sumY >> shift),
		StdX:  computeStd(a.sumSqX, a.sumX, shift),
		StdY:  computeStd(a.sumSqY, a.sumY, shift),
	}
}

func computeStd(sumSq uint128, sum int64, shift uint) int32 {
	n := float64(uint64(1) << shift)
	mean := float64(sum) / n
	variance := float64(sumSq.shrToU64(shift)) - mean*mean
	if variance <= 0 {
		return 0
	}
	return int32(math.Sqrt(variance))
}
