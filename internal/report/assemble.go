package report

import (
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"auction-analytics/internal/aggregate"
	"auction-analytics/internal/model"
)

type Meta struct {
	// ID defaults to a random UUID.
	ID          string
	Experiment  string
	GeneratedAt time.Time
}

// Assemble selects and renames Summary fields into a Record. Every field is
// populated; degenerate values surface as NaN rather than missing keys.
func Assemble(s *aggregate.Summary, meta Meta) Record {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now().UTC()
	}

	rec := Record{
		ID:          meta.ID,
		Experiment:  meta.Experiment,
		GeneratedAt: meta.GeneratedAt,
		Runs:        len(s.Runs),
		Days:        append([]int{}, s.Days...),

		Eff:      Float(s.Global.Efficiency.Mean),
		EffStd:   Float(s.Global.Efficiency.Std),
		TR:       Float(s.Global.TradeRatio.Mean),
		TRStd:    Float(s.Global.TradeRatio.Std),
		AvgP:     Float(s.Global.AvgPrice.Mean),
		AvgPStd:  Float(s.Global.AvgPrice.Std),
		Alpha:    Float(s.Global.Alpha.Mean),
		AlphaStd: Float(s.Global.Alpha.Std),

		EP:         Float(math.NaN()),
		MaxSurplus: Float(math.NaN()),
		Equilibria: make(map[string]EquilibriumEntry, len(s.DayEquilibria)),
		Schedules:  make(map[string]EquilibriumEntry, len(s.Equilibria)),

		ScheduleConflicts:  append([]int{}, s.ScheduleConflicts...),
		DivergentSchedules: append([]string{}, s.DivergentSchedules...),

		CellsScored:  len(s.Cells) - len(s.Skipped),
		CellsSkipped: len(s.Skipped),
		Skipped:      append([]aggregate.SkippedCell{}, s.Skipped...),
	}

	for _, d := range s.Days {
		fs := s.PerDay[d]
		rec.EffsPD = append(rec.EffsPD, Float(fs.Efficiency.Mean))
		rec.EffsStdPD = append(rec.EffsStdPD, Float(fs.Efficiency.Std))
		rec.TRPD = append(rec.TRPD, Float(fs.TradeRatio.Mean))
		rec.TRStdPD = append(rec.TRStdPD, Float(fs.TradeRatio.Std))
		rec.AvgPPD = append(rec.AvgPPD, Float(fs.AvgPrice.Mean))
		rec.AvgPStdPD = append(rec.AvgPStdPD, Float(fs.AvgPrice.Std))
		rec.AlphasPD = append(rec.AlphasPD, Float(fs.Alpha.Mean))
		rec.AlphasStd = append(rec.AlphasStd, Float(fs.Alpha.Std))

		if eq, ok := s.DayEquilibria[d]; ok {
			rec.Equilibria[strconv.Itoa(d)] = Entry(eq)
		}
	}
	if rec.EffsPD == nil {
		rec.EffsPD, rec.EffsStdPD = []Float{}, []Float{}
		rec.TRPD, rec.TRStdPD = []Float{}, []Float{}
		rec.AvgPPD, rec.AvgPStdPD = []Float{}, []Float{}
		rec.AlphasPD, rec.AlphasStd = []Float{}, []Float{}
	}
	for id, eq := range s.Equilibria {
		rec.Schedules[id] = Entry(eq)
	}

	if eq, ok := s.UniformEquilibrium(); ok {
		rec.EP = Float(eq.Price)
		rec.MaxSurplus = Float(eq.MaxSurplus())
	}
	return rec
}

// Entry converts one equilibrium into its report form.
func Entry(eq model.EquilibriumResult) EquilibriumEntry {
	e := EquilibriumEntry{
		ScheduleID: eq.ScheduleID,
		EqP:        Float(math.NaN()),
		SMaxProfit: Float(eq.SellerMaxSurplus),
		BMaxProfit: Float(eq.BuyerMaxSurplus),
	}
	if eq.Found {
		q := eq.Quantity
		e.EqP = Float(eq.Price)
		e.EqQ = &q
	}
	return e
}
