package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Side is the order side a limit price belongs to.
// Keep these values stable; they match the TYPE column of the limit price logs.
type Side string

const (
	SideBid Side = "BID"
	SideAsk Side = "ASK"
)

// ParseSide accepts BID/ASK in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBid:
		return SideBid, nil
	case SideAsk:
		return SideAsk, nil
	default:
		return "", fmt.Errorf("invalid side %q, expected BID or ASK", s)
	}
}

// DefaultDay is the manifest key that applies to every day not listed explicitly.
const DefaultDay = -1

// LimitPriceRecord is one row of a limit-price table keyed by (schedule, side, price).
type LimitPriceRecord struct {
	ScheduleID string  `json:"schedule_id"`
	Side       Side    `json:"side"`
	Price      float64 `json:"price"`
}

// LimitPriceSet holds the seller asks and buyer bids active for one schedule.
// Values are unordered; the solver sorts its own copies.
type LimitPriceSet struct {
	ScheduleID string    `json:"schedule_id"`
	Asks       []float64 `json:"asks"`
	Bids       []float64 `json:"bids"`
}

// NewLimitPriceSet validates and copies the given prices.
func NewLimitPriceSet(scheduleID string, asks, bids []float64) (LimitPriceSet, error) {
	s := LimitPriceSet{
		ScheduleID: scheduleID,
		Asks:       append([]float64(nil), asks...),
		Bids:       append([]float64(nil), bids...),
	}
	if err := s.Validate(); err != nil {
		return LimitPriceSet{}, err
	}
	return s, nil
}

func (s LimitPriceSet) Validate() error {
	for i, p := range s.Asks {
		if err := validatePrice(p); err != nil {
			return fmt.Errorf("schedule %q ask %d: %w", s.ScheduleID, i, err)
		}
	}
	for i, p := range s.Bids {
		if err := validatePrice(p); err != nil {
			return fmt.Errorf("schedule %q bid %d: %w", s.ScheduleID, i, err)
		}
	}
	return nil
}

func validatePrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return errors.New("limit price must be finite")
	}
	if p < 0 {
		return errors.New("limit price must be >= 0")
	}
	return nil
}

// BuildLimitPriceSets groups raw limit-price rows by schedule identifier.
func BuildLimitPriceSets(records []LimitPriceRecord) (map[string]LimitPriceSet, error) {
	out := make(map[string]LimitPriceSet)
	for _, r := range records {
		s := out[r.ScheduleID]
		s.ScheduleID = r.ScheduleID
		switch r.Side {
		case SideAsk:
			s.Asks = append(s.Asks, r.Price)
		case SideBid:
			s.Bids = append(s.Bids, r.Price)
		default:
			return nil, fmt.Errorf("schedule %q: invalid side %q", r.ScheduleID, r.Side)
		}
		out[r.ScheduleID] = s
	}
	for id, s := range out {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, nil
}

// ScheduleManifest maps a trading day to the schedule active on that day.
// The DefaultDay key, when present, covers every unlisted day.
type ScheduleManifest map[int]string

// ScheduleFor resolves the schedule identifier for day.
func (m ScheduleManifest) ScheduleFor(day int) (string, bool) {
	if id, ok := m[day]; ok {
		return id, true
	}
	id, ok := m[DefaultDay]
	return id, ok
}

// Days returns the explicitly listed days in ascending order.
func (m ScheduleManifest) Days() []int {
	days := make([]int, 0, len(m))
	for d := range m {
		if d == DefaultDay {
			continue
		}
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}
