package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_Empty(t *testing.T) {
	var a Accumulator
	assert.True(t, math.IsNaN(a.Mean()))
	assert.True(t, math.IsNaN(a.Std()))
	assert.Equal(t, 0, a.Count)
}

func TestAccumulator_SkipsNaN(t *testing.T) {
	var a Accumulator
	for _, x := range []float64{1, math.NaN(), 3, math.NaN()} {
		a.Add(x)
	}

	assert.Equal(t, 2, a.Count)
	assert.Equal(t, 2, a.NaNs)
	assert.InDelta(t, 2.0, a.Mean(), 1e-12)
	assert.InDelta(t, 1.0, a.Std(), 1e-12)
}

func TestAccumulator_PopulationStd(t *testing.T) {
	d := Of(2, 4, 4, 4, 5, 5, 7, 9)
	assert.InDelta(t, 5.0, d.Mean, 1e-12)
	assert.InDelta(t, 2.0, d.Std, 1e-12)
	assert.Equal(t, 8, d.Count)
}

func TestAccumulator_ConstantSeriesHasZeroStd(t *testing.T) {
	d := Of(0.1, 0.1, 0.1, 0.1, 0.1)
	assert.False(t, math.IsNaN(d.Std))
	assert.InDelta(t, 0.0, d.Std, 1e-8)
}

func TestAccumulator_AllNaN(t *testing.T) {
	d := Of(math.NaN(), math.NaN())
	assert.True(t, math.IsNaN(d.Mean))
	assert.True(t, math.IsNaN(d.Std))
	assert.Equal(t, 2, d.NaNs)
}

func TestAccumulator_InfinityPropagates(t *testing.T) {
	d := Of(1, math.Inf(1))
	assert.True(t, math.IsInf(d.Mean, 1))
	assert.True(t, math.IsNaN(d.Std))
}

func TestAccumulator_Merge(t *testing.T) {
	var left, right, all Accumulator
	xs := []float64{1, 2, math.NaN(), 4, 8}
	for i, x := range xs {
		all.Add(x)
		if i < 2 {
			left.Add(x)
		} else {
			right.Add(x)
		}
	}
	left.Merge(right)

	assert.Equal(t, all.Count, left.Count)
	assert.Equal(t, all.NaNs, left.NaNs)
	assert.InDelta(t, all.Mean(), left.Mean(), 1e-12)
	assert.InDelta(t, all.Std(), left.Std(), 1e-12)
}
