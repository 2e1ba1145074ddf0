package models

import (
	"auction-analytics/internal/model"
	"auction-analytics/internal/report"
)

// EquilibriumResponse wraps a solved schedule.
type EquilibriumResponse struct {
	Equilibrium model.EquilibriumResult `json:"equilibrium"`
	MaxSurplus  report.Float            `json:"max_surplus"`
}

// DayMetrics mirrors model.DayMetrics with NaN-safe JSON numbers.
type DayMetrics struct {
	Day        int          `json:"day"`
	Trades     int          `json:"trades"`
	TradeRatio report.Float `json:"trade_ratio"`
	AvgPrice   report.Float `json:"avg_price"`
	Alpha      report.Float `json:"alpha"`
	Efficiency report.Float `json:"efficiency"`
}

// PriceProfile summarises the day's transaction prices.
type PriceProfile struct {
	Count          int          `json:"count"`
	MinPrice       report.Float `json:"min_price"`
	MaxPrice       report.Float `json:"max_price"`
	MeanPrice      report.Float `json:"mean_price"`
	P05Price       report.Float `json:"p05_price"`
	P95Price       report.Float `json:"p95_price"`
	SpreadP95P05   report.Float `json:"spread_p95_p05"`
	EquilibriumGap report.Float `json:"equilibrium_gap"`
	SmithAlpha     report.Float `json:"smith_alpha"`
}

// ScoreResponse is the response of POST /api/v1/score
type ScoreResponse struct {
	Equilibrium model.EquilibriumResult `json:"equilibrium"`
	Metrics     DayMetrics              `json:"metrics"`
	Profile     PriceProfile            `json:"profile"`
}

// AnalyzeResponse represents the response from an aggregation
type AnalyzeResponse struct {
	Report   report.Record `json:"report"`
	Rankings []Ranking     `json:"rankings,omitempty"`
	Cells    []CellRow     `json:"cells,omitempty"`
}

// Ranking represents one ranked run
type Ranking struct {
	Rank  int          `json:"rank"`
	Run   int          `json:"run"`
	Mean  report.Float `json:"mean"`
	Std   report.Float `json:"std"`
	Days  int          `json:"days"`
	Elite bool         `json:"elite,omitempty"`
}

// CellRow represents one (run, day) cell of the ledger
type CellRow struct {
	Run        int          `json:"run"`
	Day        int          `json:"day"`
	ScheduleID string       `json:"schedule_id"`
	Metrics    DayMetrics   `json:"metrics"`
	EqPrice    report.Float `json:"eq_price"`
	Skipped    bool         `json:"skipped,omitempty"`
	Reason     string       `json:"reason,omitempty"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains the headline figures for one variation
type ComparisonResult struct {
	Name          string              `json:"name"`
	Normalization NormalizationConfig `json:"normalization"`
	Eff           report.Float        `json:"eff"`
	EffStd        report.Float        `json:"effStd"`
	TR            report.Float        `json:"tr"`
	TRStd         report.Float        `json:"trStd"`
	Alpha         report.Float        `json:"alpha"`
	AlphaStd      report.Float        `json:"alphaStd"`
}

// NormalizerInfo describes an available normalizer
type NormalizerInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a normalizer parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewDayMetrics converts scorer output for the wire.
func NewDayMetrics(m model.DayMetrics) DayMetrics {
	return DayMetrics{
		Day:        m.Day,
		Trades:     m.Trades,
		TradeRatio: report.Float(m.TradeRatio),
		AvgPrice:   report.Float(m.AvgPrice),
		Alpha:      report.Float(m.Alpha),
		Efficiency: report.Float(m.Efficiency),
	}
}
