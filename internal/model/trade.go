package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ExecutedTrade is one fill from the trade log, carrying the limit prices of
// the matched buyer and seller. Missing limits are stored as NaN so the cell
// holding the trade can be reported as malformed.
type ExecutedTrade struct {
	ID          int       `json:"id"`
	Day         int       `json:"day"`
	TimeStep    int       `json:"time_step,omitempty"`
	Price       float64   `json:"price"`
	BuyerLimit  float64   `json:"buyer_limit"`
	SellerLimit float64   `json:"seller_limit"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

type tradeJSON struct {
	ID          int        `json:"id"`
	Day         int        `json:"day"`
	TimeStep    int        `json:"time_step,omitempty"`
	Price       float64    `json:"price"`
	BuyerLimit  *float64   `json:"buyer_limit"`
	SellerLimit *float64   `json:"seller_limit"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// MarshalJSON writes missing (NaN) limits as null.
func (t ExecutedTrade) MarshalJSON() ([]byte, error) {
	out := tradeJSON{ID: t.ID, Day: t.Day, TimeStep: t.TimeStep, Price: t.Price}
	if !math.IsNaN(t.BuyerLimit) {
		v := t.BuyerLimit
		out.BuyerLimit = &v
	}
	if !math.IsNaN(t.SellerLimit) {
		v := t.SellerLimit
		out.SellerLimit = &v
	}
	if !t.Timestamp.IsZero() {
		ts := t.Timestamp
		out.Timestamp = &ts
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads absent or null limits as NaN, so they fail Validate
// instead of silently scoring as zero.
func (t *ExecutedTrade) UnmarshalJSON(b []byte) error {
	var in tradeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*t = ExecutedTrade{
		ID:          in.ID,
		Day:         in.Day,
		TimeStep:    in.TimeStep,
		Price:       in.Price,
		BuyerLimit:  math.NaN(),
		SellerLimit: math.NaN(),
	}
	if in.BuyerLimit != nil {
		t.BuyerLimit = *in.BuyerLimit
	}
	if in.SellerLimit != nil {
		t.SellerLimit = *in.SellerLimit
	}
	if in.Timestamp != nil {
		t.Timestamp = *in.Timestamp
	}
	return nil
}

var (
	ErrMissingLimit  = errors.New("missing limit price")
	ErrNegativeLimit = errors.New("limit price must be >= 0")
	ErrInvalidPrice  = errors.New("trade price must be finite")
)

// Validate checks the fields the scorer depends on. Price is allowed to fall
// outside [SellerLimit, BuyerLimit].
func (t ExecutedTrade) Validate() error {
	if math.IsNaN(t.Price) || math.IsInf(t.Price, 0) {
		return fmt.Errorf("trade %d: %w", t.ID, ErrInvalidPrice)
	}
	if math.IsNaN(t.BuyerLimit) || math.IsNaN(t.SellerLimit) {
		return fmt.Errorf("trade %d: %w", t.ID, ErrMissingLimit)
	}
	if t.BuyerLimit < 0 || t.SellerLimit < 0 {
		return fmt.Errorf("trade %d: %w", t.ID, ErrNegativeLimit)
	}
	return nil
}

// GroupByDay splits trades into day-keyed slices, keeping log order within a day.
func GroupByDay(trades []ExecutedTrade) map[int][]ExecutedTrade {
	out := map[int][]ExecutedTrade{}
	for _, t := range trades {
		out[t.Day] = append(out[t.Day], t)
	}
	return out
}

// TradeDays returns the distinct days present in trades, ascending.
func TradeDays(trades []ExecutedTrade) []int {
	seen := map[int]bool{}
	days := make([]int, 0)
	for _, t := range trades {
		if !seen[t.Day] {
			seen[t.Day] = true
			days = append(days, t.Day)
		}
	}
	sort.Ints(days)
	return days
}
