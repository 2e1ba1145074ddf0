package model

import (
	"encoding/json"
	"math"
)

// EquilibriumResult is the crossing point of one schedule's supply and demand.
// When Found is false Price is NaN, Quantity is 0 and both surpluses are 0.
type EquilibriumResult struct {
	ScheduleID       string
	Found            bool
	Price            float64
	Quantity         int
	SellerMaxSurplus float64
	BuyerMaxSurplus  float64
}

// NoEquilibrium is the result for schedules without a crossing point.
func NoEquilibrium(scheduleID string) EquilibriumResult {
	return EquilibriumResult{ScheduleID: scheduleID, Price: math.NaN()}
}

// MaxSurplus is the combined surplus attainable under efficient allocation.
func (e EquilibriumResult) MaxSurplus() float64 {
	return e.SellerMaxSurplus + e.BuyerMaxSurplus
}

// Same reports whether e and o describe the same crossing point, ignoring the
// schedule identifier.
func (e EquilibriumResult) Same(o EquilibriumResult) bool {
	if e.Found != o.Found {
		return false
	}
	if e.Found && (e.Price != o.Price || e.Quantity != o.Quantity) {
		return false
	}
	return e.SellerMaxSurplus == o.SellerMaxSurplus && e.BuyerMaxSurplus == o.BuyerMaxSurplus
}

type equilibriumJSON struct {
	ScheduleID       string   `json:"schedule_id,omitempty"`
	Price            *float64 `json:"price"`
	Quantity         *int     `json:"quantity"`
	SellerMaxSurplus float64  `json:"seller_max_surplus"`
	BuyerMaxSurplus  float64  `json:"buyer_max_surplus"`
}

// MarshalJSON writes price and quantity as null when there is no equilibrium.
func (e EquilibriumResult) MarshalJSON() ([]byte, error) {
	out := equilibriumJSON{
		ScheduleID:       e.ScheduleID,
		SellerMaxSurplus: e.SellerMaxSurplus,
		BuyerMaxSurplus:  e.BuyerMaxSurplus,
	}
	if e.Found {
		p, q := e.Price, e.Quantity
		out.Price = &p
		out.Quantity = &q
	}
	return json.Marshal(out)
}

func (e *EquilibriumResult) UnmarshalJSON(b []byte) error {
	var in equilibriumJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*e = NoEquilibrium(in.ScheduleID)
	e.SellerMaxSurplus = in.SellerMaxSurplus
	e.BuyerMaxSurplus = in.BuyerMaxSurplus
	if in.Price != nil {
		e.Found = true
		e.Price = *in.Price
		if in.Quantity != nil {
			e.Quantity = *in.Quantity
		}
	}
	return nil
}
