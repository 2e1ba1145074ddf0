package models

import (
	"auction-analytics/internal/config"
	"auction-analytics/internal/model"
)

// EquilibriumRequest is the body of POST /api/v1/equilibrium.
// Either side may be empty; the response then reports no equilibrium.
type EquilibriumRequest struct {
	Asks []float64 `json:"asks"`
	Bids []float64 `json:"bids"`
}

// ScoreRequest scores one day's trades against a schedule.
type ScoreRequest struct {
	Day            int                   `json:"day"`
	Trades         []model.ExecutedTrade `json:"trades"`
	Asks           []float64             `json:"asks" binding:"required"`
	Bids           []float64             `json:"bids" binding:"required"`
	ExpectedTrades float64               `json:"expected_trades" binding:"required"`
}

// NormalizationConfig selects the trade ratio normalizer.
type NormalizationConfig = config.NormalizationConfig

// AnalyzeRequest aggregates a bundle of runs.
type AnalyzeRequest struct {
	Experiment    string              `json:"experiment,omitempty"`
	Runs          []model.RunInput    `json:"runs" binding:"required"`
	Normalization NormalizationConfig `json:"normalization"`
	Options       AnalyzeOptions      `json:"options,omitempty"`
}

// AnalyzeOptions contains optional aggregation parameters
type AnalyzeOptions struct {
	Days         []int  `json:"days,omitempty"`    // empty = every day in the runs
	Workers      int    `json:"workers,omitempty"` // default: server setting
	Fitness      string `json:"fitness,omitempty"` // "efficiency" or "alpha"; empty = no ranking
	IncludeCells bool   `json:"include_cells,omitempty"`
}

// CompareRequest aggregates the same runs under several normalizations.
type CompareRequest struct {
	Runs              []model.RunInput       `json:"runs" binding:"required"`
	BaseNormalization NormalizationConfig    `json:"base_normalization"`
	Variations        []NormalizationVariant `json:"variations" binding:"required"`
	Options           AnalyzeOptions         `json:"options,omitempty"`
}

// NormalizationVariant overlays the base normalization.
type NormalizationVariant struct {
	Name          string              `json:"name" binding:"required"`
	Normalization NormalizationConfig `json:"normalization"`
}
