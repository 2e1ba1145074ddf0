// Package stats provides NaN-aware streaming reductions.
package stats

import "math"

// Accumulator keeps (sum, sumSquares, count) over the non-NaN values it has
// seen, and counts NaN contributions separately. The zero value is ready to use.
type Accumulator struct {
	Sum   float64 `json:"sum"`
	SumSq float64 `json:"sum_sq"`
	Count int     `json:"count"`
	NaNs  int     `json:"nans"`
}

// Add folds x into the accumulator. NaN is counted but not summed.
func (a *Accumulator) Add(x float64) {
	if math.IsNaN(x) {
		a.NaNs++
		return
	}
	a.Sum += x
	a.SumSq += x * x
	a.Count++
}

// Merge adds the state of o. Merging is associative and commutative up to
// floating-point summation order; callers fix the order for reproducibility.
func (a *Accumulator) Merge(o Accumulator) {
	a.Sum += o.Sum
	a.SumSq += o.SumSq
	a.Count += o.Count
	a.NaNs += o.NaNs
}

// Mean is NaN when no finite-or-infinite value has been added.
func (a Accumulator) Mean() float64 {
	if a.Count == 0 {
		return math.NaN()
	}
	return a.Sum / float64(a.Count)
}

// Std is the population standard deviation (divisor n) of the non-NaN values.
func (a Accumulator) Std() float64 {
	if a.Count == 0 {
		return math.NaN()
	}
	n := float64(a.Count)
	mean := a.Sum / n
	v := a.SumSq/n - mean*mean
	if v < 0 {
		// rounding can push a zero variance slightly negative
		v = 0
	}
	return math.Sqrt(v)
}

// Distribution is the finalized view of an Accumulator.
type Distribution struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"`
	NaNs  int     `json:"nans"`
}

func (a Accumulator) Distribution() Distribution {
	return Distribution{
		Mean:  a.Mean(),
		Std:   a.Std(),
		Count: a.Count,
		NaNs:  a.NaNs,
	}
}

// Of reduces xs in order.
func Of(xs ...float64) Distribution {
	var a Accumulator
	for _, x := range xs {
		a.Add(x)
	}
	return a.Distribution()
}
