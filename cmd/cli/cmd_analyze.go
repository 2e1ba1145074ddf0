package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"auction-analytics/internal/aggregate"
	"auction-analytics/internal/config"
	"auction-analytics/internal/data"
	"auction-analytics/internal/logging"
	"auction-analytics/internal/report"
)

var (
	analyzeConfigPath string
	analyzeWorkers    int
	analyzeDays       []int
	analyzeJSON       string
	analyzeCells      string
	analyzeXLSX       string
)

// analyzeCmd aggregates every configured run
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Aggregate market quality metrics across runs and days",
	Long: `Loads the runs named by the experiment config, scores every (run, day)
cell and writes the aggregated report. Flags override the config file.

Examples:
  cli analyze --config examples/experiment.yaml
  cli analyze --config examples/experiment.yaml --workers 8 --days 0,1,2
  cli analyze --config examples/experiment.yaml --json out/summary.json --xlsx out/summary.xlsx`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeConfigPath, "config", "", "Path to experiment YAML config (required)")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "Concurrent scoring workers (0 = config value)")
	analyzeCmd.Flags().IntSliceVar(&analyzeDays, "days", nil, "Restrict to these trading days")
	analyzeCmd.Flags().StringVar(&analyzeJSON, "json", "", "Write the JSON report here")
	analyzeCmd.Flags().StringVar(&analyzeCells, "cells", "", "Write the per-cell CSV ledger here")
	analyzeCmd.Flags().StringVar(&analyzeXLSX, "xlsx", "", "Write an Excel workbook here")
	_ = analyzeCmd.MarkFlagRequired("config")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, analyzeConfigPath)
	if err != nil {
		return err
	}
	if analyzeWorkers > 0 {
		cfg.Workers = analyzeWorkers
	}
	if len(analyzeDays) > 0 {
		cfg.Days = analyzeDays
	}
	if analyzeJSON != "" {
		cfg.Output.JSON = analyzeJSON
	}
	if analyzeCells != "" {
		cfg.Output.CellsCSV = analyzeCells
	}
	if analyzeXLSX != "" {
		cfg.Output.XLSX = analyzeXLSX
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	summary, err := aggregateConfig(ctx, cfg)
	if err != nil {
		return err
	}

	rec := report.Assemble(summary, report.Meta{Experiment: cfg.Experiment})
	if err := writeOutputs(cfg.Output, rec, summary); err != nil {
		return err
	}
	return report.WriteText(cmd.OutOrStdout(), rec)
}

// loadConfig reads the experiment config and applies logging settings unless
// the matching flags were given explicitly.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		format = logFormat
	}
	if err := logging.Setup(level, format); err != nil {
		return nil, err
	}
	return cfg, nil
}

func aggregateConfig(ctx context.Context, cfg *config.Config) (*aggregate.Summary, error) {
	norm, err := cfg.Normalizer()
	if err != nil {
		return nil, err
	}

	src, closer, err := data.OpenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	start := time.Now()
	runs, err := src.LoadRuns(ctx, cfg.RunIndices())
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	log.Info().
		Str("source", cfg.Source.Type).
		Int("runs", len(runs)).
		Dur("elapsed", time.Since(start)).
		Msg("Loaded runs")

	engine := aggregate.New(aggregate.Options{
		Days:       cfg.Days,
		Workers:    cfg.Workers,
		Normalizer: norm,
	})
	return engine.Run(ctx, runs)
}

func writeOutputs(out config.OutputConfig, rec report.Record, summary *aggregate.Summary) error {
	if out.JSON != "" {
		if err := report.WriteJSON(out.JSON, rec); err != nil {
			return err
		}
		log.Info().Str("path", out.JSON).Msg("Wrote JSON report")
	}
	if out.CellsCSV != "" {
		if err := aggregate.WriteCellsCSV(out.CellsCSV, summary.Cells); err != nil {
			return err
		}
		log.Info().Str("path", out.CellsCSV).Int("rows", len(summary.Cells)).Msg("Wrote cell ledger")
	}
	if out.XLSX != "" {
		if err := report.WriteXLSX(out.XLSX, rec, summary.Cells); err != nil {
			return err
		}
		log.Info().Str("path", out.XLSX).Msg("Wrote workbook")
	}
	return nil
}
