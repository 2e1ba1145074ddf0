package analysis

import (
	"sort"

	"auction-analytics/internal/model"
)

// Solve finds the equilibrium of one schedule.
//
// Asks are walked ascending and bids descending in lockstep. At the first
// index i where the pair meets, an exact tie clears at that price and an
// inversion (bid below ask) clears at the midpoint of the two marginal limit
// prices; in both cases the quantity is i. Running off either side means the
// curves never cross and no equilibrium is reported.
func Solve(asks, bids []float64) model.EquilibriumResult {
	sa := sortedAsc(asks)
	sb := sortedDesc(bids)

	for i := 0; ; i++ {
		if i >= len(sa) || i >= len(sb) {
			return model.NoEquilibrium("")
		}
		var price float64
		switch {
		case sa[i] == sb[i]:
			price = sa[i]
		case sb[i] < sa[i]:
			price = (sa[i] + sb[i]) / 2.0
		default:
			continue
		}
		sMax, bMax := maxSurplusSorted(sa, sb, price)
		return model.EquilibriumResult{
			Found:            true,
			Price:            price,
			Quantity:         i,
			SellerMaxSurplus: sMax,
			BuyerMaxSurplus:  bMax,
		}
	}
}

// SolveSchedule runs Solve over a LimitPriceSet and tags the result.
func SolveSchedule(s model.LimitPriceSet) model.EquilibriumResult {
	res := Solve(s.Asks, s.Bids)
	res.ScheduleID = s.ScheduleID
	return res
}

// MaxSurplus returns the seller and buyer surplus attainable at price pe.
// Sellers asking above pe and buyers bidding below pe contribute nothing.
func MaxSurplus(asks, bids []float64, pe float64) (float64, float64) {
	return maxSurplusSorted(sortedAsc(asks), sortedDesc(bids), pe)
}

func maxSurplusSorted(asksAsc, bidsDesc []float64, pe float64) (float64, float64) {
	sMax := 0.0
	for _, a := range asksAsc {
		if a > pe {
			break
		}
		sMax += pe - a
	}
	bMax := 0.0
	for _, b := range bidsDesc {
		if b < pe {
			break
		}
		bMax += b - pe
	}
	return sMax, bMax
}

func sortedAsc(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}

func sortedDesc(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}
