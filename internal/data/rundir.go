package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"auction-analytics/internal/model"
)

// LoadRunDir reads one run directory written by the market simulator.
//
// TRADES.csv is required. ExecOrders.csv supplies limit prices for trade files
// without limit columns. LIMITPRICES_<id>.csv files define the run's
// schedules and override same-named entries of shared. SCHEDULE.csv maps days
// to schedules; without it a run with exactly one schedule uses it every day,
// and otherwise the manifest is left empty for the aggregator to reject.
func LoadRunDir(dir string, index int, shared map[string]model.LimitPriceSet) (model.RunInput, error) {
	run := model.RunInput{Index: index, Name: filepath.Base(dir)}

	var rows []TradeRow
	if err := readFile(filepath.Join(dir, TradesFile), func(r io.Reader) (err error) {
		rows, err = ReadTrades(r)
		return err
	}); err != nil {
		return run, err
	}

	var orders []ExecOrder
	err := readFile(filepath.Join(dir, ExecOrdersFile), func(r io.Reader) (err error) {
		orders, err = ReadExecOrders(r)
		return err
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return run, err
	}
	run.Trades = JoinOrders(rows, orders)

	own, err := LoadLimitPriceDir(dir)
	if err != nil {
		return run, err
	}
	run.Schedules = make(map[string]model.LimitPriceSet, len(shared)+len(own))
	for id, s := range shared {
		run.Schedules[id] = s
	}
	for id, s := range own {
		run.Schedules[id] = s
	}

	err = readFile(filepath.Join(dir, ScheduleFile), func(r io.Reader) (err error) {
		run.Manifest, err = ReadSchedule(r)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		run.Manifest = model.ScheduleManifest{}
		if len(run.Schedules) == 1 {
			for id := range run.Schedules {
				run.Manifest[model.DefaultDay] = id
			}
		}
	default:
		return run, err
	}
	return run, nil
}

// LoadLimitPriceDir reads every LIMITPRICES_<id>.csv in dir.
func LoadLimitPriceDir(dir string) (map[string]model.LimitPriceSet, error) {
	paths, err := filepath.Glob(filepath.Join(dir, LimitPricesGlob))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var records []model.LimitPriceRecord
	for _, p := range paths {
		recs, err := loadLimitPriceRecords(p)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return model.BuildLimitPriceSets(records)
}

// LoadLimitPricesFile reads one limit price file, e.g. the experiment-wide
// schedule named by limit_prices_file.
func LoadLimitPricesFile(path string) (map[string]model.LimitPriceSet, error) {
	recs, err := loadLimitPriceRecords(path)
	if err != nil {
		return nil, err
	}
	return model.BuildLimitPriceSets(recs)
}

func loadLimitPriceRecords(path string) ([]model.LimitPriceRecord, error) {
	id := scheduleIDFromName(path)
	var recs []model.LimitPriceRecord
	err := readFile(path, func(r io.Reader) (err error) {
		recs, err = ReadLimitPrices(r, id)
		return err
	})
	return recs, err
}

// scheduleIDFromName extracts <id> from LIMITPRICES_<id>.csv.
func scheduleIDFromName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.Index(base, "_"); i >= 0 {
		return base[i+1:]
	}
	return base
}

func readFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// RunSource loads the inputs of the given runs.
type RunSource interface {
	LoadRuns(ctx context.Context, indices []int) ([]model.RunInput, error)
}

// DirSource reads runs from per-run directories on disk.
type DirSource struct {
	// Dir names the directory of run i.
	Dir    func(i int) string
	Shared map[string]model.LimitPriceSet
}

func (s DirSource) LoadRuns(ctx context.Context, indices []int) ([]model.RunInput, error) {
	runs := make([]model.RunInput, 0, len(indices))
	for _, i := range indices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := LoadRunDir(s.Dir(i), i, s.Shared)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		runs = append(runs, r)
	}
	return runs, nil
}
