package aggregate

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-analytics/internal/model"
	"auction-analytics/internal/normalize"
)

func schedule(id string, asks, bids []float64) model.LimitPriceSet {
	return model.LimitPriceSet{ScheduleID: id, Asks: asks, Bids: bids}
}

func fill(id, day int, price, seller, buyer float64) model.ExecutedTrade {
	return model.ExecutedTrade{ID: id, Day: day, Price: price, SellerLimit: seller, BuyerLimit: buyer}
}

// twoRuns shares one schedule (equilibrium 10.5, max surplus 4) across days.
func twoRuns() []model.RunInput {
	schedules := map[string]model.LimitPriceSet{
		"1": schedule("1", []float64{9, 10, 11}, []float64{12, 11, 10}),
	}
	return []model.RunInput{
		{
			Index:     1,
			Manifest:  model.ScheduleManifest{model.DefaultDay: "1"},
			Schedules: schedules,
			Trades: []model.ExecutedTrade{
				fill(1, 0, 10.5, 9, 12),
				fill(2, 1, 11, 10, 11),
			},
		},
		{
			Index:     0,
			Manifest:  model.ScheduleManifest{model.DefaultDay: "1"},
			Schedules: schedules,
			Trades: []model.ExecutedTrade{
				fill(1, 0, 10, 9, 12),
				fill(2, 0, 10, 10, 11),
			},
		},
	}
}

func newEngine(workers int) *Engine {
	return New(Options{Workers: workers, Normalizer: normalize.Fixed{PerDay: 2}})
}

func TestRun_PerDayAndGlobal(t *testing.T) {
	s, err := newEngine(1).Run(context.Background(), twoRuns())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, s.Runs)
	assert.Equal(t, []int{0, 1}, s.Days)
	require.Len(t, s.Cells, 4)
	assert.Equal(t, 0, s.Cells[0].Run)
	assert.Equal(t, 1, s.Cells[3].Run)
	assert.Empty(t, s.Skipped)

	day0 := s.PerDay[0]
	assert.InDelta(t, 0.875, day0.Efficiency.Mean, 1e-12)
	assert.InDelta(t, 0.125, day0.Efficiency.Std, 1e-12)
	assert.InDelta(t, 0.75, day0.TradeRatio.Mean, 1e-12)

	// run 0 has no trades on day 1: NaN efficiency is skipped, zero ratio is not
	day1 := s.PerDay[1]
	assert.InDelta(t, 0.25, day1.Efficiency.Mean, 1e-12)
	assert.Equal(t, 1, day1.Efficiency.Count)
	assert.Equal(t, 1, day1.Efficiency.NaNs)
	assert.InDelta(t, 0.25, day1.TradeRatio.Mean, 1e-12)
	assert.Equal(t, 2, day1.TradeRatio.Count)

	assert.InDelta(t, 2.0/3.0, s.Global.Efficiency.Mean, 1e-12)
	assert.Equal(t, 3, s.Global.Efficiency.Count)
	assert.Equal(t, 1, s.Global.Efficiency.NaNs)

	eq, ok := s.UniformEquilibrium()
	require.True(t, ok)
	assert.Equal(t, 10.5, eq.Price)
	assert.Equal(t, 4.0, eq.MaxSurplus())
	assert.Contains(t, s.Equilibria, "1")
}

func TestRun_RestrictDays(t *testing.T) {
	e := New(Options{Days: []int{1}, Normalizer: normalize.Fixed{PerDay: 2}})
	s, err := e.Run(context.Background(), twoRuns())
	require.NoError(t, err)

	assert.Equal(t, []int{1}, s.Days)
	assert.Len(t, s.Cells, 2)
	assert.NotContains(t, s.PerDay, 0)
}

func TestRun_SkipsMalformedCells(t *testing.T) {
	runs := twoRuns()
	runs = append(runs,
		model.RunInput{
			Index:     2,
			Manifest:  model.ScheduleManifest{0: "1", 1: "missing"},
			Schedules: runs[0].Schedules,
			Trades: []model.ExecutedTrade{
				fill(1, 0, 10, 9, math.NaN()),
				fill(2, 1, 10, 9, 12),
			},
		},
	)

	s, err := newEngine(1).Run(context.Background(), runs)
	require.NoError(t, err)

	require.Len(t, s.Skipped, 2)
	assert.Equal(t, SkippedCell{Run: 2, Day: 0, ScheduleID: "1", Reason: "trade 1: missing limit price"}, s.Skipped[0])
	assert.Equal(t, 2, s.Skipped[1].Run)
	assert.Equal(t, 1, s.Skipped[1].Day)
	assert.Contains(t, s.Skipped[1].Reason, ErrUnknownSchedule.Error())

	// skipped cells are NaN and do not move the means
	assert.InDelta(t, 0.875, s.PerDay[0].Efficiency.Mean, 1e-12)
	assert.Equal(t, 1, s.PerDay[0].Efficiency.NaNs)
	assert.InDelta(t, 0.75, s.PerDay[0].TradeRatio.Mean, 1e-12)

	last := s.Cells[len(s.Cells)-1]
	assert.True(t, last.Skipped)
	assert.True(t, math.IsNaN(last.Metrics.TradeRatio))
	assert.Equal(t, 1, last.Metrics.Trades)
	assert.Empty(t, s.ScheduleConflicts)
}

func TestRun_ScheduleConflicts(t *testing.T) {
	runs := twoRuns()
	schedules := map[string]model.LimitPriceSet{
		"1": runs[0].Schedules["1"],
		"2": schedule("2", []float64{10, 20}, []float64{10, 5}),
	}
	runs = append(runs, model.RunInput{
		Index:     2,
		Manifest:  model.ScheduleManifest{model.DefaultDay: "1", 1: "2"},
		Schedules: schedules,
	})

	s, err := newEngine(1).Run(context.Background(), runs)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, s.ScheduleConflicts)
	assert.Len(t, s.Equilibria, 2)
	// day 1 keeps the schedule of the lowest run index
	assert.Equal(t, "1", s.DayEquilibria[1].ScheduleID)
	_, ok := s.UniformEquilibrium()
	assert.False(t, ok)
}

func TestRun_OneSidedScheduleDoesNotPoisonMeans(t *testing.T) {
	runs := []model.RunInput{
		{
			Index:     0,
			Manifest:  model.ScheduleManifest{model.DefaultDay: "1"},
			Schedules: map[string]model.LimitPriceSet{"1": schedule("1", []float64{9, 10, 11}, []float64{12, 11, 10})},
			Trades:    []model.ExecutedTrade{fill(1, 0, 10.5, 9, 12)},
		},
		{
			Index:     1,
			Manifest:  model.ScheduleManifest{model.DefaultDay: "1"},
			Schedules: map[string]model.LimitPriceSet{"1": schedule("1", nil, []float64{12, 11, 10})},
			Trades:    []model.ExecutedTrade{fill(1, 0, 10.5, 9, 12)},
		},
	}

	s, err := newEngine(1).Run(context.Background(), runs)
	require.NoError(t, err)

	require.Len(t, s.Cells, 2)
	assert.False(t, s.Cells[1].Equilibrium.Found)
	assert.True(t, math.IsNaN(s.Cells[1].Metrics.Efficiency))
	assert.True(t, math.IsNaN(s.Cells[1].Metrics.Alpha))

	day0 := s.PerDay[0]
	assert.InDelta(t, 0.75, day0.Efficiency.Mean, 1e-12)
	assert.Equal(t, 1, day0.Efficiency.NaNs)
	assert.InDelta(t, 0.75, s.Global.Efficiency.Mean, 1e-12)
	assert.False(t, math.IsInf(s.Global.Efficiency.Mean, 0))

	// both runs call their schedule "1" but it solves differently
	assert.Equal(t, []string{"1"}, s.DivergentSchedules)
	assert.Equal(t, []int{0}, s.ScheduleConflicts)
	assert.True(t, s.Equilibria["1"].Found)
	_, ok := s.UniformEquilibrium()
	assert.False(t, ok)
}

func TestRun_EmptyDayAlphaIsZero(t *testing.T) {
	s, err := newEngine(1).Run(context.Background(), twoRuns())
	require.NoError(t, err)

	// run 0 trades only on day 0, so its day 1 cell has alpha (100/pe)*sqrt(0)
	var empty Cell
	for _, c := range s.Cells {
		if c.Run == 0 && c.Day == 1 {
			empty = c
		}
	}
	assert.Equal(t, 0, empty.Metrics.Trades)
	assert.Equal(t, 0.0, empty.Metrics.Alpha)
	assert.Equal(t, 2, s.PerDay[1].Alpha.Count)
}

func TestRun_FatalErrors(t *testing.T) {
	e := newEngine(1)

	_, err := e.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoRuns)

	runs := twoRuns()
	runs[1].Manifest = nil
	_, err = e.Run(context.Background(), runs)
	assert.ErrorIs(t, err, ErrNoManifest)

	runs = twoRuns()
	runs[1].Index = 1
	_, err = e.Run(context.Background(), runs)
	assert.ErrorIs(t, err, ErrDuplicateRun)

	_, err = New(Options{}).Run(context.Background(), twoRuns())
	assert.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		_, err := newEngine(workers).Run(ctx, twoRuns())
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func randomRuns(seed int64, n int) []model.RunInput {
	rng := rand.New(rand.NewSource(seed))
	schedules := map[string]model.LimitPriceSet{}
	for id := 0; id < 3; id++ {
		var asks, bids []float64
		for k := 0; k < 6; k++ {
			asks = append(asks, float64(50+rng.Intn(100)))
			bids = append(bids, float64(50+rng.Intn(100)))
		}
		key := fmt.Sprint(id)
		schedules[key] = schedule(key, asks, bids)
	}

	runs := make([]model.RunInput, 0, n)
	for i := 0; i < n; i++ {
		manifest := model.ScheduleManifest{model.DefaultDay: "0", 2: "1", 3: "2"}
		var trades []model.ExecutedTrade
		for day := 0; day < 5; day++ {
			for k := rng.Intn(5); k > 0; k-- {
				s := float64(40 + rng.Intn(60))
				b := s + float64(rng.Intn(60))
				trades = append(trades, fill(len(trades), day, s+rng.Float64()*(b-s), s, b))
			}
		}
		runs = append(runs, model.RunInput{Index: i, Manifest: manifest, Schedules: schedules, Trades: trades})
	}
	// shuffle input order; the engine sorts by index
	rng.Shuffle(len(runs), func(i, j int) { runs[i], runs[j] = runs[j], runs[i] })
	return runs
}

func TestRun_DeterministicAcrossWorkers(t *testing.T) {
	runs := randomRuns(42, 40)

	seq, err := newEngine(1).Run(context.Background(), runs)
	require.NoError(t, err)
	again, err := newEngine(1).Run(context.Background(), runs)
	require.NoError(t, err)
	par, err := New(Options{Workers: 8, Normalizer: normalize.EquilibriumQuantity{Offset: 1}}).Run(context.Background(), runs)
	require.NoError(t, err)
	par2, err := New(Options{Workers: 1, Normalizer: normalize.EquilibriumQuantity{Offset: 1}}).Run(context.Background(), runs)
	require.NoError(t, err)

	// %v prints shortest round-trip floats, so equal strings mean equal bits
	assert.Equal(t, fmt.Sprintf("%+v", seq), fmt.Sprintf("%+v", again))
	assert.Equal(t, fmt.Sprintf("%+v", par2), fmt.Sprintf("%+v", par))
	assert.Len(t, seq.Cells, 40*5)
}

func TestSummary_ByRun(t *testing.T) {
	s, err := newEngine(2).Run(context.Background(), twoRuns())
	require.NoError(t, err)

	byRun := s.ByRun()
	require.Len(t, byRun, 2)
	assert.Len(t, byRun[0], 2)
	assert.Equal(t, 1.0, byRun[0][0].Efficiency)
}
