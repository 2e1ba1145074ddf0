package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"auction-analytics/internal/analysis"
)

var (
	rankConfigPath string
	rankFitness    string
	rankTop        int
)

// rankCmd orders runs by a fitness metric
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank runs by mean efficiency or alpha",
	Long: `Aggregates the configured runs and orders them by the mean of a per-day
fitness metric. Efficiency ranks higher first, alpha lower first. The first
run is the elite run.

Examples:
  cli rank --config examples/experiment.yaml
  cli rank --config examples/experiment.yaml --fitness alpha --top 5`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankConfigPath, "config", "", "Path to experiment YAML config (required)")
	rankCmd.Flags().StringVar(&rankFitness, "fitness", string(analysis.FitnessEfficiency), "Fitness metric: efficiency or alpha")
	rankCmd.Flags().IntVar(&rankTop, "top", 0, "Only print the best N runs (0 = all)")
	_ = rankCmd.MarkFlagRequired("config")
}

func runRank(cmd *cobra.Command, args []string) error {
	fitness, err := analysis.ParseFitness(rankFitness)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, rankConfigPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	summary, err := aggregateConfig(ctx, cfg)
	if err != nil {
		return err
	}

	ranked := analysis.RankRuns(summary.ByRun(), fitness)
	if rankTop > 0 && rankTop < len(ranked) {
		ranked = ranked[:rankTop]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-4s %-6s %-10s %-10s %-6s\n", "rank", "run", "mean", "std", "days")
	for i, r := range ranked {
		fmt.Fprintf(out, "%-4d %-6d %-10.4f %-10.4f %-6d\n", i+1, r.Run, r.Score.Mean, r.Score.Std, r.Score.Count)
	}
	return nil
}
