package analysis

import (
	"math"
	"sort"

	"auction-analytics/internal/model"
)

// PriceProfile summarises one day's transaction prices for charting and for
// judging convergence towards the equilibrium price.
type PriceProfile struct {
	Day   int
	Count int

	MinPrice  float64
	MaxPrice  float64
	MeanPrice float64
	P05Price  float64
	P95Price  float64

	SpreadP95P05 float64

	// EquilibriumGap is MeanPrice minus the equilibrium price.
	EquilibriumGap float64
	// SmithAlpha is the trade-count averaged alpha, unlike Alpha.
	SmithAlpha float64
}

// ComputeProfile builds the price profile of trades. Every price statistic is
// NaN for an empty day.
func ComputeProfile(day int, trades []model.ExecutedTrade, eq model.EquilibriumResult) PriceProfile {
	nan := math.NaN()
	p := PriceProfile{
		Day:            day,
		Count:          len(trades),
		MinPrice:       nan,
		MaxPrice:       nan,
		MeanPrice:      nan,
		P05Price:       nan,
		P95Price:       nan,
		SpreadP95P05:   nan,
		EquilibriumGap: nan,
		SmithAlpha:     nan,
	}
	if len(trades) == 0 {
		return p
	}

	vals := make([]float64, 0, len(trades))
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	for _, t := range trades {
		v := t.Price
		vals = append(vals, v)
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	sort.Float64s(vals)
	p.MinPrice = minv
	p.MaxPrice = maxv
	p.MeanPrice = AveragePrice(trades)
	p.P05Price = percentileSorted(vals, 0.05)
	p.P95Price = percentileSorted(vals, 0.95)
	p.SpreadP95P05 = p.P95Price - p.P05Price
	p.EquilibriumGap = p.MeanPrice - eq.Price
	p.SmithAlpha = SmithAlpha(trades, eq.Price)
	return p
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
