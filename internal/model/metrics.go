package model

// DayMetrics are the market-quality scores of one trading day in one run.
// NaN and ±Inf are meaningful values for degenerate days.
type DayMetrics struct {
	Day        int     `json:"day"`
	Trades     int     `json:"trades"`
	TradeRatio float64 `json:"trade_ratio"`
	AvgPrice   float64 `json:"avg_price"`
	Alpha      float64 `json:"alpha"`
	Efficiency float64 `json:"efficiency"`
}

// Field names a DayMetrics value for reductions and reports.
type Field string

const (
	FieldTradeRatio Field = "trade_ratio"
	FieldAvgPrice   Field = "avg_price"
	FieldAlpha      Field = "alpha"
	FieldEfficiency Field = "efficiency"
)

// Fields lists every reduced metric in report order.
var Fields = []Field{FieldEfficiency, FieldTradeRatio, FieldAvgPrice, FieldAlpha}

// Value returns the metric named by f.
func (m DayMetrics) Value(f Field) float64 {
	switch f {
	case FieldTradeRatio:
		return m.TradeRatio
	case FieldAvgPrice:
		return m.AvgPrice
	case FieldAlpha:
		return m.Alpha
	case FieldEfficiency:
		return m.Efficiency
	}
	panic("model: unknown field " + string(f))
}
