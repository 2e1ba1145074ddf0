package aggregate

import (
	"auction-analytics/internal/analysis"
	"auction-analytics/internal/model"
	"auction-analytics/internal/stats"
)

// Cell is one (run, day) row of the aggregation ledger.
// This is the audit trail behind every number in a Summary.
type Cell struct {
	Run int
	Day int

	ScheduleID  string
	Equilibrium model.EquilibriumResult
	Expected    float64

	Metrics model.DayMetrics
	Profile analysis.PriceProfile

	// Skipped cells carry NaN metrics and the reason they could not be scored.
	Skipped bool
	Reason  string
}

// SkippedCell identifies a cell excluded because of malformed input.
type SkippedCell struct {
	Run        int    `json:"run"`
	Day        int    `json:"day"`
	ScheduleID string `json:"schedule_id,omitempty"`
	Reason     string `json:"reason"`
}

// FieldSummary holds one distribution per DayMetrics field.
type FieldSummary struct {
	Efficiency stats.Distribution
	TradeRatio stats.Distribution
	AvgPrice   stats.Distribution
	Alpha      stats.Distribution
}

// Get returns the distribution of field f.
func (s FieldSummary) Get(f model.Field) stats.Distribution {
	switch f {
	case model.FieldEfficiency:
		return s.Efficiency
	case model.FieldTradeRatio:
		return s.TradeRatio
	case model.FieldAvgPrice:
		return s.AvgPrice
	case model.FieldAlpha:
		return s.Alpha
	}
	panic("aggregate: unknown field " + string(f))
}

// fieldAccumulator folds DayMetrics into one accumulator per field.
type fieldAccumulator struct {
	eff, tr, avgP, alpha stats.Accumulator
}

func (a *fieldAccumulator) add(m model.DayMetrics) {
	a.eff.Add(m.Efficiency)
	a.tr.Add(m.TradeRatio)
	a.avgP.Add(m.AvgPrice)
	a.alpha.Add(m.Alpha)
}

func (a *fieldAccumulator) merge(o fieldAccumulator) {
	a.eff.Merge(o.eff)
	a.tr.Merge(o.tr)
	a.avgP.Merge(o.avgP)
	a.alpha.Merge(o.alpha)
}

func (a *fieldAccumulator) summary() FieldSummary {
	return FieldSummary{
		Efficiency: a.eff.Distribution(),
		TradeRatio: a.tr.Distribution(),
		AvgPrice:   a.avgP.Distribution(),
		Alpha:      a.alpha.Distribution(),
	}
}

// Summary is the finalized result of aggregating one or more runs.
type Summary struct {
	Runs []int
	Days []int

	PerDay map[int]FieldSummary
	Global FieldSummary

	// Equilibria holds the solved equilibrium of every schedule used, taken
	// from the lowest run index. Ids whose limit prices solve differently in
	// other runs are listed in DivergentSchedules.
	Equilibria         map[string]model.EquilibriumResult
	DivergentSchedules []string
	// DayEquilibria is the equilibrium of the schedule active on each day, taken
	// from the lowest run index that resolved one. Days where runs disagree on
	// the schedule or its equilibrium are listed in ScheduleConflicts.
	DayEquilibria     map[int]model.EquilibriumResult
	ScheduleConflicts []int

	Cells   []Cell
	Skipped []SkippedCell
}

// ByRun regroups the ledger for run ranking.
func (s *Summary) ByRun() map[int][]model.DayMetrics {
	out := make(map[int][]model.DayMetrics, len(s.Runs))
	for _, c := range s.Cells {
		out[c.Run] = append(out[c.Run], c.Metrics)
	}
	return out
}

// UniformEquilibrium reports the single equilibrium shared by every day, when
// all found equilibria agree on price and maximum surplus.
func (s *Summary) UniformEquilibrium() (model.EquilibriumResult, bool) {
	var first model.EquilibriumResult
	seen := false
	for _, d := range s.Days {
		eq, ok := s.DayEquilibria[d]
		if !ok || !eq.Found {
			continue
		}
		if !seen {
			first, seen = eq, true
			continue
		}
		if eq.Price != first.Price || eq.MaxSurplus() != first.MaxSurplus() {
			return model.EquilibriumResult{}, false
		}
	}
	return first, seen && len(s.ScheduleConflicts) == 0
}
