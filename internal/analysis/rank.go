package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"auction-analytics/internal/model"
	"auction-analytics/internal/stats"
)

// Fitness selects the metric runs are ranked by.
type Fitness string

const (
	// FitnessEfficiency ranks by mean allocative efficiency, higher first.
	FitnessEfficiency Fitness = "efficiency"
	// FitnessAlpha ranks by mean alpha, lower first.
	FitnessAlpha Fitness = "alpha"
)

func ParseFitness(s string) (Fitness, error) {
	switch Fitness(strings.ToLower(strings.TrimSpace(s))) {
	case FitnessEfficiency, "aloc-eff":
		return FitnessEfficiency, nil
	case FitnessAlpha:
		return FitnessAlpha, nil
	default:
		return "", fmt.Errorf("unsupported fitness %q", s)
	}
}

// LowerIsBetter reports the ranking direction of f.
func (f Fitness) LowerIsBetter() bool { return f == FitnessAlpha }

func (f Fitness) field() model.Field {
	if f == FitnessAlpha {
		return model.FieldAlpha
	}
	return model.FieldEfficiency
}

type RankedRun struct {
	Run   int
	Score stats.Distribution
}

// RankRuns scores each run by the NaN-aware mean of its per-day fitness metric
// and sorts best first. Runs whose every day is NaN sort last; ties keep run
// index order. The first entry is the elite run.
func RankRuns(byRun map[int][]model.DayMetrics, f Fitness) []RankedRun {
	field := f.field()
	out := make([]RankedRun, 0, len(byRun))
	for run, days := range byRun {
		vals := make([]float64, len(days))
		for i, d := range days {
			vals[i] = d.Value(field)
		}
		out = append(out, RankedRun{Run: run, Score: stats.Of(vals...)})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		aNaN, bNaN := math.IsNaN(a.Score.Mean), math.IsNaN(b.Score.Mean)
		if aNaN != bNaN {
			return bNaN
		}
		if !aNaN && a.Score.Mean != b.Score.Mean {
			if f.LowerIsBetter() {
				return a.Score.Mean < b.Score.Mean
			}
			return a.Score.Mean > b.Score.Mean
		}
		return a.Run < b.Run
	})
	return out
}
