package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"auction-analytics/internal/aggregate"
	"auction-analytics/internal/data"
	"auction-analytics/internal/logging"
	"auction-analytics/internal/model"
	"auction-analytics/internal/normalize"
	"auction-analytics/internal/report"
)

// Demo:
// - Simulate a few runs of a zero-intelligence double auction
// - Write them as run directories in the simulator's CSV layout
// - Load the directories back and print the aggregated report
func main() {
	outDir := flag.String("out", "", "Directory for generated runs (default: a temp dir)")
	runs := flag.Int("runs", 5, "Number of runs to simulate")
	days := flag.Int("days", 10, "Trading days per run")
	steps := flag.Int("steps", 200, "Order submissions per day")
	shockDay := flag.Int("shock-day", -1, "Switch to the shifted schedule from this day (-1 = never)")
	seed := flag.Int64("seed", 1, "Random seed")
	workers := flag.Int("workers", 4, "Concurrent scoring workers")
	flag.Parse()

	if err := logging.Setup("info", "console"); err != nil {
		panic(err)
	}

	dir := *outDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "auction-demo-")
		if err != nil {
			panic(err)
		}
		dir = tmp
	}

	schedules := map[string]model.LimitPriceSet{
		"1": {ScheduleID: "1", Asks: []float64{60, 70, 80, 90, 100, 110}, Bids: []float64{130, 120, 110, 100, 90, 80}},
		"2": {ScheduleID: "2", Asks: []float64{80, 90, 100, 110, 120, 130}, Bids: []float64{150, 140, 130, 120, 110, 100}},
	}
	manifest := model.ScheduleManifest{model.DefaultDay: "1"}
	if *shockDay >= 0 {
		for d := *shockDay; d < *days; d++ {
			manifest[d] = "2"
		}
	}

	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *runs; i++ {
		runDir := filepath.Join(dir, fmt.Sprintf("runs__%d", i))
		var trades []model.ExecutedTrade
		for d := 0; d < *days; d++ {
			id, _ := manifest.ScheduleFor(d)
			trades = append(trades, simulateDay(rng, d, len(trades), schedules[id], *steps)...)
		}
		if err := writeRunDir(runDir, schedules, manifest, trades); err != nil {
			panic(err)
		}
		log.Info().Str("dir", runDir).Int("trades", len(trades)).Msg("Wrote run")
	}

	src := data.DirSource{Dir: func(i int) string { return filepath.Join(dir, fmt.Sprintf("runs__%d", i)) }}
	indices := make([]int, *runs)
	for i := range indices {
		indices[i] = i
	}
	loaded, err := src.LoadRuns(context.Background(), indices)
	if err != nil {
		panic(err)
	}

	engine := aggregate.New(aggregate.Options{
		Workers:    *workers,
		Normalizer: normalize.EquilibriumQuantity{},
	})
	summary, err := engine.Run(context.Background(), loaded)
	if err != nil {
		panic(err)
	}

	rec := report.Assemble(summary, report.Meta{Experiment: "demo"})
	if err := report.WriteJSON(filepath.Join(dir, "summary.json"), rec); err != nil {
		panic(err)
	}
	if err := report.WriteText(os.Stdout, rec); err != nil {
		panic(err)
	}
	fmt.Printf("Runs and summary.json written to %s\n", dir)
}

type order struct {
	trader int
	price  float64
}

// simulateDay runs one day of a Gode-Sunder style market: traders hold one
// unit each and submit random orders constrained by their limit price. A
// crossing order trades at the standing quote and clears the book.
func simulateDay(rng *rand.Rand, day, firstID int, s model.LimitPriceSet, steps int) []model.ExecutedTrade {
	const maxPrice = 200.0

	sellersActive := make([]bool, len(s.Asks))
	buyersActive := make([]bool, len(s.Bids))
	for i := range sellersActive {
		sellersActive[i] = true
	}
	for i := range buyersActive {
		buyersActive[i] = true
	}

	var bestAsk, bestBid *order
	var trades []model.ExecutedTrade
	for step := 0; step < steps; step++ {
		if rng.Intn(2) == 0 {
			seller := rng.Intn(len(s.Asks))
			if !sellersActive[seller] {
				continue
			}
			limit := s.Asks[seller]
			ask := limit + rng.Float64()*(maxPrice-limit)
			if bestBid != nil && ask <= bestBid.price {
				trades = append(trades, model.ExecutedTrade{
					ID: firstID + len(trades) + 1, Day: day, TimeStep: step,
					Price: bestBid.price, SellerLimit: limit, BuyerLimit: s.Bids[bestBid.trader],
				})
				sellersActive[seller] = false
				buyersActive[bestBid.trader] = false
				bestAsk, bestBid = nil, nil
				continue
			}
			if bestAsk == nil || ask < bestAsk.price {
				bestAsk = &order{trader: seller, price: ask}
			}
		} else {
			buyer := rng.Intn(len(s.Bids))
			if !buyersActive[buyer] {
				continue
			}
			limit := s.Bids[buyer]
			bid := rng.Float64() * limit
			if bestAsk != nil && bid >= bestAsk.price {
				trades = append(trades, model.ExecutedTrade{
					ID: firstID + len(trades) + 1, Day: day, TimeStep: step,
					Price: bestAsk.price, SellerLimit: s.Asks[bestAsk.trader], BuyerLimit: limit,
				})
				buyersActive[buyer] = false
				sellersActive[bestAsk.trader] = false
				bestAsk, bestBid = nil, nil
				continue
			}
			if bestBid == nil || bid > bestBid.price {
				bestBid = &order{trader: buyer, price: bid}
			}
		}
	}
	return trades
}

func writeRunDir(dir string, schedules map[string]model.LimitPriceSet, manifest model.ScheduleManifest, trades []model.ExecutedTrade) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for id, s := range schedules {
		rows := [][]string{{"NUMBER", "TYPE", "LIMIT_PRICE"}}
		for _, p := range s.Asks {
			rows = append(rows, []string{id, string(model.SideAsk), ftoa(p)})
		}
		for _, p := range s.Bids {
			rows = append(rows, []string{id, string(model.SideBid), ftoa(p)})
		}
		if err := writeCSV(filepath.Join(dir, "LIMITPRICES_"+id+".csv"), rows); err != nil {
			return err
		}
	}

	rows := [][]string{{"Day", "ScheduleID"}}
	rows = append(rows, []string{strconv.Itoa(model.DefaultDay), manifest[model.DefaultDay]})
	for _, d := range manifest.Days() {
		rows = append(rows, []string{strconv.Itoa(d), manifest[d]})
	}
	if err := writeCSV(filepath.Join(dir, data.ScheduleFile), rows); err != nil {
		return err
	}

	rows = [][]string{{"ID", "TradingDay", "TimeStep", "Price", "SellerLimit", "BuyerLimit"}}
	for _, t := range trades {
		rows = append(rows, []string{
			strconv.Itoa(t.ID), strconv.Itoa(t.Day), strconv.Itoa(t.TimeStep),
			ftoa(t.Price), ftoa(t.SellerLimit), ftoa(t.BuyerLimit),
		})
	}
	return writeCSV(filepath.Join(dir, data.TradesFile), rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func ftoa(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
