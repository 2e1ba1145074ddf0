// Package report turns an aggregation summary into the flat record consumed by
// charting and downstream tooling.
package report

import (
	"time"

	"auction-analytics/internal/aggregate"
)

// Record is the serialization-ready view of a Summary. Field names follow the
// analytics output the plotting scripts read.
type Record struct {
	ID          string    `json:"id"`
	Experiment  string    `json:"experiment"`
	GeneratedAt time.Time `json:"generatedAt"`
	Runs        int       `json:"runs"`
	Days        []int     `json:"days"`

	Eff      Float `json:"eff"`
	EffStd   Float `json:"effStd"`
	TR       Float `json:"tr"`
	TRStd    Float `json:"trStd"`
	AvgP     Float `json:"avgP"`
	AvgPStd  Float `json:"avgPStd"`
	Alpha    Float `json:"alpha"`
	AlphaStd Float `json:"alphaStd"`

	EffsPD    []Float `json:"effsPD"`
	EffsStdPD []Float `json:"effsStdPD"`
	TRPD      []Float `json:"trPD"`
	TRStdPD   []Float `json:"trStdPD"`
	AvgPPD    []Float `json:"avgPPD"`
	AvgPStdPD []Float `json:"avgPStdPD"`
	AlphasPD  []Float `json:"alphasPD"`
	AlphasStd []Float `json:"alphasStdPD"`

	// EP and MaxSurplus are set when every day shares one equilibrium and are
	// NaN otherwise; Equilibria always carries the per-day view.
	EP         Float                       `json:"EP"`
	MaxSurplus Float                       `json:"maxSurplus"`
	Equilibria map[string]EquilibriumEntry `json:"equilibria"`
	Schedules  map[string]EquilibriumEntry `json:"schedules"`

	// ScheduleConflicts lists days whose runs disagree on the equilibrium;
	// DivergentSchedules lists schedule ids that solve differently per run.
	ScheduleConflicts  []int    `json:"scheduleConflicts"`
	DivergentSchedules []string `json:"divergentSchedules"`

	CellsScored  int                     `json:"cellsScored"`
	CellsSkipped int                     `json:"cellsSkipped"`
	Skipped      []aggregate.SkippedCell `json:"skipped"`
}

// EquilibriumEntry is the equilibrium metadata of one day or schedule.
// EqQ is null when the schedule has no crossing point.
type EquilibriumEntry struct {
	ScheduleID string `json:"scheduleId"`
	EqP        Float  `json:"eqP"`
	EqQ        *int   `json:"eqQ"`
	SMaxProfit Float  `json:"sMaxProfit"`
	BMaxProfit Float  `json:"bMaxProfit"`
}
