package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-analytics/internal/model"
)

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		norm    string
		params  map[string]any
		want    Normalizer
		wantErr bool
	}{
		{name: "fixed int", norm: "fixed", params: map[string]any{"per_day": 6}, want: Fixed{PerDay: 6}},
		{name: "fixed float", norm: " FIXED ", params: map[string]any{"per_day": 5.0}, want: Fixed{PerDay: 5}},
		{name: "empty name defaults to fixed", norm: "", params: map[string]any{"per_day": 3}, want: Fixed{PerDay: 3}},
		{name: "fixed missing per_day", norm: "fixed", params: nil, wantErr: true},
		{name: "fixed zero", norm: "fixed", params: map[string]any{"per_day": 0}, wantErr: true},
		{name: "equilibrium default", norm: "equilibrium_quantity", want: EquilibriumQuantity{}},
		{name: "equilibrium offset", norm: "equilibrium_quantity", params: map[string]any{"offset": 1}, want: EquilibriumQuantity{Offset: 1}},
		{name: "negative offset", norm: "equilibrium_quantity", params: map[string]any{"offset": -1}, wantErr: true},
		{name: "unknown", norm: "volume", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromConfig(tt.norm, tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpected(t *testing.T) {
	found := model.EquilibriumResult{Found: true, Price: 10.5, Quantity: 2}

	assert.Equal(t, 6.0, Fixed{PerDay: 6}.Expected(Context{Equilibrium: found}))
	assert.Equal(t, 2.0, EquilibriumQuantity{}.Expected(Context{Equilibrium: found}))
	assert.Equal(t, 3.0, EquilibriumQuantity{Offset: 1}.Expected(Context{Equilibrium: found}))
	assert.True(t, math.IsNaN(EquilibriumQuantity{}.Expected(Context{Equilibrium: model.NoEquilibrium("x")})))
}
