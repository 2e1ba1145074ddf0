package normalize

import (
	"fmt"
	"math"
	"strings"

	"auction-analytics/internal/model"
)

// Context is what a normalizer may inspect for one (run, day) cell.
type Context struct {
	Run         int
	Day         int
	Equilibrium model.EquilibriumResult
}

// Normalizer supplies the expected trade count a day's trade ratio is
// divided by.
type Normalizer interface {
	Name() string
	Expected(ctx Context) float64
}

const (
	NameFixed               = "fixed"
	NameEquilibriumQuantity = "equilibrium_quantity"
)

// Fixed divides by the same expected count every day, e.g. the number of
// trading periods in a day.
type Fixed struct {
	PerDay float64
}

func (f Fixed) Name() string { return NameFixed }

func (f Fixed) Expected(Context) float64 { return f.PerDay }

// EquilibriumQuantity divides by the equilibrium quantity of the day's
// schedule plus Offset. Days without an equilibrium get NaN.
type EquilibriumQuantity struct {
	// Offset is added to the 0-based quantity; 1 counts the marginal pair.
	Offset float64
}

func (e EquilibriumQuantity) Name() string { return NameEquilibriumQuantity }

func (e EquilibriumQuantity) Expected(ctx Context) float64 {
	if !ctx.Equilibrium.Found {
		return math.NaN()
	}
	return float64(ctx.Equilibrium.Quantity) + e.Offset
}

// FromConfig builds a normalizer from its configured name and params.
//
// fixed:                per_day (required, > 0)
// equilibrium_quantity: offset (default 0)
func FromConfig(name string, params map[string]any) (Normalizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameFixed, "":
		perDay := mustNum(params, "per_day", 0)
		if !(perDay > 0) || math.IsInf(perDay, 0) {
			return nil, fmt.Errorf("normalization %q: per_day must be a positive number", NameFixed)
		}
		return Fixed{PerDay: perDay}, nil
	case NameEquilibriumQuantity:
		offset := mustNum(params, "offset", 0)
		if offset < 0 {
			return nil, fmt.Errorf("normalization %q: offset must be >= 0", NameEquilibriumQuantity)
		}
		return EquilibriumQuantity{Offset: offset}, nil
	default:
		return nil, fmt.Errorf("unsupported normalization: %q", name)
	}
}

func mustNum(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key]; ok && v != nil {
		switch x := v.(type) {
		case float64:
			return x
		case float32:
			return float64(x)
		case int:
			return float64(x)
		case int64:
			return float64(x)
		}
	}
	return def
}
