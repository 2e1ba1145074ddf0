package analysis

import (
	"math"

	"auction-analytics/internal/model"
)

// Score computes the market-quality metrics of one day's trades against the
// equilibrium of the schedule active that day. expected is the caller's
// normalization constant for the trade ratio and is used as an opaque divisor.
//
// A day without trades has a zero trade ratio, NaN price and efficiency, and
// an alpha of 0. Without an equilibrium, alpha and efficiency are NaN so
// NaN-aware reductions skip the cell.
func Score(day int, trades []model.ExecutedTrade, eq model.EquilibriumResult, expected float64) model.DayMetrics {
	m := model.DayMetrics{
		Day:        day,
		Trades:     len(trades),
		TradeRatio: TradeRatio(len(trades), expected),
		AvgPrice:   AveragePrice(trades),
		Alpha:      Alpha(trades, eq.Price),
		Efficiency: math.NaN(),
	}
	if len(trades) == 0 || !eq.Found {
		return m
	}
	m.Efficiency = Efficiency(trades, eq.MaxSurplus())
	return m
}

// TradeRatio is n / expected with IEEE semantics for a zero divisor.
func TradeRatio(n int, expected float64) float64 {
	return float64(n) / expected
}

// AveragePrice is the mean transaction price, NaN for no trades.
func AveragePrice(trades []model.ExecutedTrade) float64 {
	if len(trades) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, t := range trades {
		sum += t.Price
	}
	return sum / float64(len(trades))
}

// Alpha is the convergence coefficient (100 / pe) * sqrt(sum((p - pe)^2)).
// The squared deviations are not averaged before the square root; downstream
// consumers calibrate against this form. SmithAlpha is the averaged variant.
func Alpha(trades []model.ExecutedTrade, pe float64) float64 {
	return (100.0 / pe) * math.Sqrt(squaredDeviation(trades, pe))
}

// SmithAlpha is the textbook Smith's alpha, averaging squared deviations over
// the number of trades. It is 0 for no trades.
func SmithAlpha(trades []model.ExecutedTrade, pe float64) float64 {
	if len(trades) == 0 {
		return 0
	}
	return (100.0 / pe) * math.Sqrt(squaredDeviation(trades, pe)/float64(len(trades)))
}

func squaredDeviation(trades []model.ExecutedTrade, pe float64) float64 {
	sum := 0.0
	for _, t := range trades {
		d := t.Price - pe
		sum += d * d
	}
	return sum
}

// RealizedSurplus sums seller profit (price - seller limit) and buyer profit
// (buyer limit - price) over all trades.
func RealizedSurplus(trades []model.ExecutedTrade) float64 {
	sum := 0.0
	for _, t := range trades {
		sum += (t.Price - t.SellerLimit) + (t.BuyerLimit - t.Price)
	}
	return sum
}

// Efficiency is realized surplus over maxSurplus. A zero maxSurplus yields
// ±Inf or NaN rather than an error.
func Efficiency(trades []model.ExecutedTrade, maxSurplus float64) float64 {
	return RealizedSurplus(trades) / maxSurplus
}
