package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"auction-analytics/internal/aggregate"
	"auction-analytics/internal/data"
	"auction-analytics/internal/model"
	"auction-analytics/internal/normalize"
	"auction-analytics/internal/report"
)

var (
	singleDir         string
	singleLimitPrices string
	singlePerDay      float64
	singleNormalizer  string
	singleCells       string
)

// singleCmd scores one run directory day by day
var singleCmd = &cobra.Command{
	Use:   "single",
	Short: "Score one run directory day by day",
	Long: `Reads TRADES.csv, LIMITPRICES_*.csv and SCHEDULE.csv from one run
directory and prints the metrics of every trading day.

Examples:
  cli single --dir results/runs__0 --per-day 6
  cli single --dir results/runs__0 --normalizer equilibrium_quantity
  cli single --dir results/runs__0 --limit-prices examples/LIMITPRICES_1.csv`,
	RunE: runSingle,
}

func init() {
	singleCmd.Flags().StringVar(&singleDir, "dir", "", "Run directory (required)")
	singleCmd.Flags().StringVar(&singleLimitPrices, "limit-prices", "", "Shared limit price file")
	singleCmd.Flags().Float64Var(&singlePerDay, "per-day", 6, "Expected trades per day for the fixed normalizer")
	singleCmd.Flags().StringVar(&singleNormalizer, "normalizer", normalize.NameFixed, "Trade ratio normalizer")
	singleCmd.Flags().StringVar(&singleCells, "cells", "", "Write the per-day CSV ledger here")
	_ = singleCmd.MarkFlagRequired("dir")
}

func runSingle(cmd *cobra.Command, args []string) error {
	var shared map[string]model.LimitPriceSet
	if singleLimitPrices != "" {
		var err error
		if shared, err = data.LoadLimitPricesFile(singleLimitPrices); err != nil {
			return err
		}
	}

	run, err := data.LoadRunDir(singleDir, 0, shared)
	if err != nil {
		return err
	}

	norm, err := normalize.FromConfig(singleNormalizer, map[string]any{"per_day": singlePerDay})
	if err != nil {
		return err
	}

	summary, err := aggregate.New(aggregate.Options{Normalizer: norm}).Run(cmd.Context(), []model.RunInput{run})
	if err != nil {
		return err
	}

	if singleCells != "" {
		if err := aggregate.WriteCellsCSV(singleCells, summary.Cells); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "day\tschedule\ttrades\ttrade_ratio\tavg_price\talpha\tefficiency\teq_price")
	for _, c := range summary.Cells {
		if c.Skipped {
			fmt.Fprintf(w, "%d\t%s\t%d\tskipped: %s\t\t\t\t\n", c.Day, c.ScheduleID, c.Metrics.Trades, c.Reason)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n",
			c.Day, c.ScheduleID, c.Metrics.Trades,
			c.Metrics.TradeRatio, c.Metrics.AvgPrice, c.Metrics.Alpha, c.Metrics.Efficiency,
			c.Equilibrium.Price)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)

	rec := report.Assemble(summary, report.Meta{Experiment: run.Name})
	return report.WriteText(out, rec)
}

