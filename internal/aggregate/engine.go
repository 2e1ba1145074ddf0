package aggregate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"auction-analytics/internal/analysis"
	"auction-analytics/internal/metrics"
	"auction-analytics/internal/model"
	"auction-analytics/internal/normalize"
)

var (
	// ErrNoRuns is returned when aggregation is asked to reduce nothing.
	ErrNoRuns = errors.New("no runs supplied")
	// ErrNoManifest is returned when a run has no schedule manifest at all.
	ErrNoManifest = errors.New("run has no schedule manifest")
	// ErrDuplicateRun is returned when two runs share an index.
	ErrDuplicateRun = errors.New("duplicate run index")
	// ErrUnknownSchedule marks a cell whose day resolves to no known schedule.
	ErrUnknownSchedule = errors.New("unknown schedule")
)

type Options struct {
	// Days restricts scoring to these days. Empty means every day any run
	// covers.
	Days []int
	// Workers > 1 scores runs concurrently. Results never depend on it.
	Workers    int
	Normalizer normalize.Normalizer

	Cache   *analysis.SolverCache
	Metrics *metrics.Registry
}

type Engine struct {
	opts Options
}

func New(opts Options) *Engine {
	if opts.Cache == nil {
		opts.Cache = analysis.NewSolverCache()
	}
	return &Engine{opts: opts}
}

// Run scores every (run, day) cell and reduces the results.
//
// Cells are folded strictly in run-index then day order after scoring, so the
// summary is bit-identical whatever the worker count. Malformed cells are
// skipped and recorded; zero runs or a run without a manifest fail the whole
// aggregation.
func (e *Engine) Run(ctx context.Context, runs []model.RunInput) (summary *Summary, err error) {
	defer func() { e.opts.Metrics.ObserveAggregation(err) }()

	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	if e.opts.Normalizer == nil {
		return nil, fmt.Errorf("normalizer is nil")
	}

	ordered := append([]model.RunInput(nil), runs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	for i, r := range ordered {
		if len(r.Manifest) == 0 {
			return nil, fmt.Errorf("run %d: %w", r.Index, ErrNoManifest)
		}
		if i > 0 && ordered[i-1].Index == r.Index {
			return nil, fmt.Errorf("%w %d", ErrDuplicateRun, r.Index)
		}
	}

	days := e.opts.Days
	if len(days) == 0 {
		days = unionDays(ordered)
	} else {
		days = append([]int(nil), days...)
		sort.Ints(days)
	}

	hits0, misses0 := e.opts.Cache.Stats()
	results, err := e.scoreAll(ctx, ordered, days)
	if err != nil {
		return nil, err
	}
	hits1, misses1 := e.opts.Cache.Stats()
	e.opts.Metrics.ObserveCache(hits1-hits0, misses1-misses0)

	summary = fold(ordered, days, results)
	log.Info().
		Int("runs", len(summary.Runs)).
		Int("days", len(summary.Days)).
		Int("cells", len(summary.Cells)).
		Int("skipped", len(summary.Skipped)).
		Float64("eff", summary.Global.Efficiency.Mean).
		Msg("Aggregation complete")
	return summary, nil
}

// runResult is one worker's output: the run's cells plus its partial
// accumulator over every day.
type runResult struct {
	cells []Cell
	total fieldAccumulator
}

// scoreAll returns one result per run, indexed like runs.
func (e *Engine) scoreAll(ctx context.Context, runs []model.RunInput, days []int) ([]runResult, error) {
	out := make([]runResult, len(runs))

	if e.opts.Workers <= 1 {
		for i, r := range runs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = e.scoreRun(r, days)
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, r := range runs {
		i, r := i, r
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.scoreRun(r, days)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) scoreRun(r model.RunInput, days []int) runResult {
	start := time.Now()
	byDay := model.GroupByDay(r.Trades)
	res := runResult{cells: make([]Cell, 0, len(days))}
	for _, day := range days {
		c := e.scoreCell(r, day, byDay[day])
		e.opts.Metrics.ObserveCell(c.Skipped)
		res.cells = append(res.cells, c)
		res.total.add(c.Metrics)
	}
	e.opts.Metrics.ObserveRun(time.Since(start))
	log.Debug().
		Int("run", r.Index).
		Str("name", r.Name).
		Int("trades", len(r.Trades)).
		Dur("duration", time.Since(start)).
		Msg("Run scored")
	return res
}

func (e *Engine) scoreCell(r model.RunInput, day int, trades []model.ExecutedTrade) Cell {
	cell := Cell{Run: r.Index, Day: day}

	id, ok := r.Manifest.ScheduleFor(day)
	if !ok {
		return skip(cell, len(trades), fmt.Errorf("day %d: %w", day, ErrUnknownSchedule))
	}
	cell.ScheduleID = id
	set, ok := r.Schedules[id]
	if !ok {
		return skip(cell, len(trades), fmt.Errorf("schedule %q: %w", id, ErrUnknownSchedule))
	}
	for _, t := range trades {
		if err := t.Validate(); err != nil {
			return skip(cell, len(trades), err)
		}
	}

	cell.Equilibrium = e.opts.Cache.Solve(set)
	cell.Expected = e.opts.Normalizer.Expected(normalize.Context{
		Run:         r.Index,
		Day:         day,
		Equilibrium: cell.Equilibrium,
	})
	cell.Metrics = analysis.Score(day, trades, cell.Equilibrium, cell.Expected)
	cell.Profile = analysis.ComputeProfile(day, trades, cell.Equilibrium)
	return cell
}

func skip(c Cell, trades int, reason error) Cell {
	nan := math.NaN()
	c.Skipped = true
	c.Reason = reason.Error()
	c.Equilibrium = model.NoEquilibrium(c.ScheduleID)
	c.Expected = nan
	c.Metrics = model.DayMetrics{
		Day:        c.Day,
		Trades:     trades,
		TradeRatio: nan,
		AvgPrice:   nan,
		Alpha:      nan,
		Efficiency: nan,
	}
	c.Profile = analysis.ComputeProfile(c.Day, nil, c.Equilibrium)
	c.Profile.Count = trades
	return c
}

// fold reduces per-run results in run then day order. The global figures
// merge each run's partial accumulator in run order.
func fold(runs []model.RunInput, days []int, results []runResult) *Summary {
	s := &Summary{
		Runs:          make([]int, 0, len(runs)),
		Days:          days,
		PerDay:        make(map[int]FieldSummary, len(days)),
		Equilibria:    map[string]model.EquilibriumResult{},
		DayEquilibria: map[int]model.EquilibriumResult{},
	}
	perDay := make(map[int]*fieldAccumulator, len(days))
	for _, d := range days {
		perDay[d] = &fieldAccumulator{}
	}
	var global fieldAccumulator
	daySchedule := map[int]string{}
	conflicts := map[int]bool{}
	divergent := map[string]bool{}

	for i, r := range runs {
		s.Runs = append(s.Runs, r.Index)
		global.merge(results[i].total)
		for _, c := range results[i].cells {
			perDay[c.Day].add(c.Metrics)
			s.Cells = append(s.Cells, c)

			if c.Skipped {
				s.Skipped = append(s.Skipped, SkippedCell{
					Run:        c.Run,
					Day:        c.Day,
					ScheduleID: c.ScheduleID,
					Reason:     c.Reason,
				})
				log.Warn().
					Int("run", c.Run).
					Int("day", c.Day).
					Str("schedule", c.ScheduleID).
					Str("reason", c.Reason).
					Msg("Cell skipped")
				continue
			}

			// schedule ids are per run: the same id may carry other limit prices
			if eq, ok := s.Equilibria[c.ScheduleID]; !ok {
				s.Equilibria[c.ScheduleID] = c.Equilibrium
			} else if !eq.Same(c.Equilibrium) {
				divergent[c.ScheduleID] = true
			}
			prev, ok := daySchedule[c.Day]
			switch {
			case !ok:
				daySchedule[c.Day] = c.ScheduleID
				s.DayEquilibria[c.Day] = c.Equilibrium
			case prev != c.ScheduleID, !s.DayEquilibria[c.Day].Same(c.Equilibrium):
				conflicts[c.Day] = true
			}
		}
	}

	for d, acc := range perDay {
		s.PerDay[d] = acc.summary()
	}
	s.Global = global.summary()
	for d := range conflicts {
		s.ScheduleConflicts = append(s.ScheduleConflicts, d)
	}
	sort.Ints(s.ScheduleConflicts)
	for id := range divergent {
		s.DivergentSchedules = append(s.DivergentSchedules, id)
	}
	sort.Strings(s.DivergentSchedules)
	return s
}

func unionDays(runs []model.RunInput) []int {
	seen := map[int]bool{}
	var days []int
	for _, r := range runs {
		for _, d := range r.Days() {
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
	}
	sort.Ints(days)
	return days
}
