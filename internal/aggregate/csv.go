package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

var cellHeader = []string{
	"run",
	"day",
	"schedule",
	"trades",
	"expected",
	"trade_ratio",
	"avg_price",
	"alpha",
	"efficiency",
	"eq_price",
	"eq_quantity",
	"seller_max_surplus",
	"buyer_max_surplus",
	"skipped",
	"reason",
}

// WriteCellsCSV writes the cell ledger to path, creating parent directories.
func WriteCellsCSV(path string, cells []Cell) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCells(f, cells); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteCells writes the cell ledger as CSV with a header row.
func WriteCells(out io.Writer, cells []Cell) error {
	w := csv.NewWriter(out)
	if err := w.Write(cellHeader); err != nil {
		return err
	}

	for _, c := range cells {
		price, qty := "", ""
		if c.Equilibrium.Found {
			price = fmtFloat(c.Equilibrium.Price)
			qty = strconv.Itoa(c.Equilibrium.Quantity)
		}
		row := []string{
			strconv.Itoa(c.Run),
			strconv.Itoa(c.Day),
			c.ScheduleID,
			strconv.Itoa(c.Metrics.Trades),
			fmtFloat(c.Expected),
			fmtFloat(c.Metrics.TradeRatio),
			fmtFloat(c.Metrics.AvgPrice),
			fmtFloat(c.Metrics.Alpha),
			fmtFloat(c.Metrics.Efficiency),
			price,
			qty,
			fmtFloat(c.Equilibrium.SellerMaxSurplus),
			fmtFloat(c.Equilibrium.BuyerMaxSurplus),
			strconv.FormatBool(c.Skipped),
			c.Reason,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
