package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"auction-analytics/internal/aggregate"
)

// WriteJSON writes rec as indented JSON to path, creating parent directories.
func WriteJSON(path string, rec Record) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := EncodeJSON(f, rec); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func EncodeJSON(w io.Writer, rec Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(rec)
}

// ReadJSON loads a record written by WriteJSON, or by a tool that writes
// NaN and Infinity as bare tokens.
func ReadJSON(path string) (Record, error) {
	var rec Record
	b, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(quoteNonFinite(b), &rec); err != nil {
		return rec, fmt.Errorf("parse %s: %w", path, err)
	}
	return rec, nil
}

// WriteText prints the headline figures in the familiar "mean +- std" form.
func WriteText(w io.Writer, rec Record) error {
	_, err := fmt.Fprintf(w,
		"--------Final Results-------\n"+
			"Efficency: %.3f +- %.3f\n"+
			"Trade Ratio: %.3f +- %.3f\n"+
			"Avg Price: %.3f +- %.3f\n"+
			"Alpha: %.3f +- %.3f\n",
		rec.Eff, rec.EffStd,
		rec.TR, rec.TRStd,
		rec.AvgP, rec.AvgPStd,
		rec.Alpha, rec.AlphaStd,
	)
	if err != nil {
		return err
	}
	if rec.CellsSkipped > 0 {
		_, err = fmt.Fprintf(w, "Skipped cells: %d of %d\n", rec.CellsSkipped, rec.CellsScored+rec.CellsSkipped)
	}
	return err
}

const (
	sheetSummary = "Summary"
	sheetPerDay  = "PerDay"
	sheetCells   = "Cells"
)

// WriteXLSX writes a workbook with a summary sheet, a per-day sheet and the
// cell ledger.
func WriteXLSX(path string, rec Record, cells []aggregate.Cell) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetSummary); err != nil {
		return err
	}
	summary := [][]any{
		{"id", rec.ID},
		{"experiment", rec.Experiment},
		{"runs", rec.Runs},
		{"eff", cellValue(rec.Eff)},
		{"effStd", cellValue(rec.EffStd)},
		{"tr", cellValue(rec.TR)},
		{"trStd", cellValue(rec.TRStd)},
		{"avgP", cellValue(rec.AvgP)},
		{"avgPStd", cellValue(rec.AvgPStd)},
		{"alpha", cellValue(rec.Alpha)},
		{"alphaStd", cellValue(rec.AlphaStd)},
		{"EP", cellValue(rec.EP)},
		{"maxSurplus", cellValue(rec.MaxSurplus)},
		{"cellsScored", rec.CellsScored},
		{"cellsSkipped", rec.CellsSkipped},
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetPerDay); err != nil {
		return err
	}
	perDay := [][]any{{"day", "eff", "effStd", "tr", "trStd", "avgP", "avgPStd", "alpha", "alphaStd"}}
	for i, d := range rec.Days {
		perDay = append(perDay, []any{
			d,
			cellValue(rec.EffsPD[i]), cellValue(rec.EffsStdPD[i]),
			cellValue(rec.TRPD[i]), cellValue(rec.TRStdPD[i]),
			cellValue(rec.AvgPPD[i]), cellValue(rec.AvgPStdPD[i]),
			cellValue(rec.AlphasPD[i]), cellValue(rec.AlphasStd[i]),
		})
	}
	if err := writeRows(f, sheetPerDay, perDay); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetCells); err != nil {
		return err
	}
	ledger := [][]any{{"run", "day", "schedule", "trades", "trade_ratio", "avg_price", "alpha", "efficiency", "eq_price", "skipped", "reason"}}
	for _, c := range cells {
		ledger = append(ledger, []any{
			c.Run, c.Day, c.ScheduleID, c.Metrics.Trades,
			cellValue(Float(c.Metrics.TradeRatio)),
			cellValue(Float(c.Metrics.AvgPrice)),
			cellValue(Float(c.Metrics.Alpha)),
			cellValue(Float(c.Metrics.Efficiency)),
			cellValue(Float(c.Equilibrium.Price)),
			c.Skipped, c.Reason,
		})
	}
	if err := writeRows(f, sheetCells, ledger); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// cellValue keeps non-finite numbers readable; spreadsheets have no NaN.
func cellValue(x Float) any {
	v := float64(x)
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return v
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
