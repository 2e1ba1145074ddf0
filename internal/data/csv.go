package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"auction-analytics/internal/model"
)

// File names written by the market simulator into each run directory.
const (
	TradesFile     = "TRADES.csv"
	ExecOrdersFile = "ExecOrders.csv"
	ScheduleFile   = "SCHEDULE.csv"
	// LimitPricesGlob matches LIMITPRICES_<schedule id>.csv.
	LimitPricesGlob = "LIMITPRICES_*.csv"
)

// TradeRow is one line of TRADES.csv. SellerLimit and BuyerLimit are NaN when
// the file has no limit columns; JoinOrders fills them in.
type TradeRow struct {
	ID          int
	Day         int
	TimeStep    int
	Price       float64
	SellerID    int
	BuyerID     int
	AskPrice    float64
	BidPrice    float64
	SellerLimit float64
	BuyerLimit  float64
}

// ExecOrder is one executed order line of ExecOrders.csv.
type ExecOrder struct {
	Day        int
	TimeStep   int
	TraderID   int
	TradeID    int
	LimitPrice float64
	Price      float64
	Side       model.Side
}

// header maps column names to indices.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	names, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, err
	}
	h := make(header, len(names))
	for i, n := range names {
		h[strings.TrimSpace(strings.TrimPrefix(n, "\ufeff"))] = i
	}
	return h, nil
}

func (h header) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := h[c]; !ok {
			return fmt.Errorf("missing column %q", c)
		}
	}
	return nil
}

func (h header) str(rec []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (h header) integer(rec []string, col string) (int, error) {
	s := h.str(rec, col)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("column %s: invalid integer %q", col, s)
	}
	return v, nil
}

// optInt is 0 for a missing or empty column.
func (h header) optInteger(rec []string, col string) (int, error) {
	if h.str(rec, col) == "" {
		return 0, nil
	}
	return h.integer(rec, col)
}

func (h header) number(rec []string, col string) (float64, error) {
	s := h.str(rec, col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: invalid number %q", col, s)
	}
	return v, nil
}

// optFloat is NaN for a missing or empty column.
func (h header) optNumber(rec []string, col string) (float64, error) {
	if h.str(rec, col) == "" {
		return math.NaN(), nil
	}
	return h.number(rec, col)
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// eachRow reads every record after the header, annotating errors with the
// line number.
func eachRow(cr *csv.Reader, fn func(rec []string) error) error {
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if err := fn(rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

// ReadTrades parses TRADES.csv. Only ID, TradingDay and Price are required.
func ReadTrades(r io.Reader) ([]TradeRow, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if err := h.require("ID", "TradingDay", "Price"); err != nil {
		return nil, err
	}

	var out []TradeRow
	err = eachRow(cr, func(rec []string) error {
		var t TradeRow
		var err error
		if t.ID, err = h.integer(rec, "ID"); err != nil {
			return err
		}
		if t.Day, err = h.integer(rec, "TradingDay"); err != nil {
			return err
		}
		if t.TimeStep, err = h.optInteger(rec, "TimeStep"); err != nil {
			return err
		}
		if t.Price, err = h.number(rec, "Price"); err != nil {
			return err
		}
		if t.SellerID, err = h.optInteger(rec, "SellerID"); err != nil {
			return err
		}
		if t.BuyerID, err = h.optInteger(rec, "BuyerID"); err != nil {
			return err
		}
		if t.AskPrice, err = h.optNumber(rec, "AskPrice"); err != nil {
			return err
		}
		if t.BidPrice, err = h.optNumber(rec, "BidPrice"); err != nil {
			return err
		}
		if t.SellerLimit, err = h.optNumber(rec, "SellerLimit"); err != nil {
			return err
		}
		if t.BuyerLimit, err = h.optNumber(rec, "BuyerLimit"); err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

// ReadExecOrders parses ExecOrders.csv.
func ReadExecOrders(r io.Reader) ([]ExecOrder, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if err := h.require("Day", "TradeID", "LimitPrice", "OType"); err != nil {
		return nil, err
	}

	var out []ExecOrder
	err = eachRow(cr, func(rec []string) error {
		var o ExecOrder
		var err error
		if o.Day, err = h.integer(rec, "Day"); err != nil {
			return err
		}
		if o.TimeStep, err = h.optInteger(rec, "TimeStep"); err != nil {
			return err
		}
		if o.TraderID, err = h.optInteger(rec, "TID"); err != nil {
			return err
		}
		if o.TradeID, err = h.integer(rec, "TradeID"); err != nil {
			return err
		}
		if o.LimitPrice, err = h.number(rec, "LimitPrice"); err != nil {
			return err
		}
		if o.Price, err = h.optNumber(rec, "TPrice"); err != nil {
			return err
		}
		if o.Side, err = model.ParseSide(h.str(rec, "OType")); err != nil {
			return err
		}
		out = append(out, o)
		return nil
	})
	return out, err
}

// ReadLimitPrices parses a LIMITPRICES_<id>.csv file. Rows without a NUMBER
// column take defaultID.
func ReadLimitPrices(r io.Reader, defaultID string) ([]model.LimitPriceRecord, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if err := h.require("TYPE", "LIMIT_PRICE"); err != nil {
		return nil, err
	}

	var out []model.LimitPriceRecord
	err = eachRow(cr, func(rec []string) error {
		id := h.str(rec, "NUMBER")
		if id == "" {
			id = defaultID
		}
		side, err := model.ParseSide(h.str(rec, "TYPE"))
		if err != nil {
			return err
		}
		p, err := h.number(rec, "LIMIT_PRICE")
		if err != nil {
			return err
		}
		out = append(out, model.LimitPriceRecord{ScheduleID: id, Side: side, Price: p})
		return nil
	})
	return out, err
}

// ReadSchedule parses SCHEDULE.csv. Day -1 is the default schedule.
func ReadSchedule(r io.Reader) (model.ScheduleManifest, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if err := h.require("Day", "ScheduleID"); err != nil {
		return nil, err
	}

	m := model.ScheduleManifest{}
	err = eachRow(cr, func(rec []string) error {
		day, err := h.integer(rec, "Day")
		if err != nil {
			return err
		}
		if day < model.DefaultDay {
			return fmt.Errorf("invalid day %d", day)
		}
		id := h.str(rec, "ScheduleID")
		if id == "" {
			return errors.New("empty ScheduleID")
		}
		if prev, ok := m[day]; ok && prev != id {
			return fmt.Errorf("day %d listed twice (%s, %s)", day, prev, id)
		}
		m[day] = id
		return nil
	})
	return m, err
}

type orderKey struct {
	tradeID int
	day     int
	side    model.Side
}

// JoinOrders turns trade rows into ExecutedTrades, taking limit prices from
// the trade row when present and otherwise from the executed ASK and BID
// orders with the same (TradeID, Day). Unmatched limits stay NaN so the day
// is reported as malformed downstream.
func JoinOrders(rows []TradeRow, orders []ExecOrder) []model.ExecutedTrade {
	idx := make(map[orderKey]float64, len(orders))
	for _, o := range orders {
		k := orderKey{tradeID: o.TradeID, day: o.Day, side: o.Side}
		if _, ok := idx[k]; !ok {
			idx[k] = o.LimitPrice
		}
	}

	out := make([]model.ExecutedTrade, 0, len(rows))
	for _, r := range rows {
		t := model.ExecutedTrade{
			ID:          r.ID,
			Day:         r.Day,
			TimeStep:    r.TimeStep,
			Price:       r.Price,
			SellerLimit: r.SellerLimit,
			BuyerLimit:  r.BuyerLimit,
		}
		if math.IsNaN(t.SellerLimit) {
			if v, ok := idx[orderKey{r.ID, r.Day, model.SideAsk}]; ok {
				t.SellerLimit = v
			}
		}
		if math.IsNaN(t.BuyerLimit) {
			if v, ok := idx[orderKey{r.ID, r.Day, model.SideBid}]; ok {
				t.BuyerLimit = v
			}
		}
		out = append(out, t)
	}
	return out
}
