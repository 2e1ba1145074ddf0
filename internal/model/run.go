package model

import "sort"

// RunInput is everything the aggregator needs for one experimental run.
//
// Schedules and Manifest come from the schedule manifest collaborator; the
// trade log is already joined with order limit prices.
type RunInput struct {
	Index     int                      `json:"index"`
	Name      string                   `json:"name,omitempty"`
	Manifest  ScheduleManifest         `json:"manifest"`
	Schedules map[string]LimitPriceSet `json:"schedules"`
	Trades    []ExecutedTrade          `json:"trades"`
}

// Days is the set of days this run covers: manifest days plus trade days.
func (r RunInput) Days() []int {
	seen := map[int]bool{}
	var days []int
	for _, d := range r.Manifest.Days() {
		seen[d] = true
		days = append(days, d)
	}
	for _, d := range TradeDays(r.Trades) {
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Ints(days)
	return days
}
