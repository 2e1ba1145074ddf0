package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-analytics/internal/metrics"
	"auction-analytics/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() (*gin.Engine, *metrics.Registry) {
	reg := metrics.New()
	return NewRouter(Options{Workers: 2, Metrics: reg}), reg
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	detail, ok := body["error"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return detail["code"].(string)
}

// sampleRuns share one schedule (equilibrium 10.5, max surplus 4) on day 0.
// Run 0 realizes the full surplus with two trades; run 1 trades once.
func sampleRuns() []model.RunInput {
	schedules := map[string]model.LimitPriceSet{
		"1": {ScheduleID: "1", Asks: []float64{9, 10, 11}, Bids: []float64{12, 11, 10}},
	}
	manifest := model.ScheduleManifest{model.DefaultDay: "1"}
	return []model.RunInput{
		{
			Index:     0,
			Manifest:  manifest,
			Schedules: schedules,
			Trades: []model.ExecutedTrade{
				{ID: 1, Day: 0, Price: 10.5, SellerLimit: 9, BuyerLimit: 12},
				{ID: 2, Day: 0, Price: 10.5, SellerLimit: 10, BuyerLimit: 11},
			},
		},
		{
			Index:     1,
			Manifest:  manifest,
			Schedules: schedules,
			Trades: []model.ExecutedTrade{
				{ID: 1, Day: 0, Price: 10.5, SellerLimit: 9, BuyerLimit: 12},
			},
		},
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter()
	w := do(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestEquilibrium(t *testing.T) {
	r, _ := newTestRouter()

	t.Run("crossing schedule", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/equilibrium", gin.H{
			"asks": []float64{9, 10, 11},
			"bids": []float64{12, 11, 10},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode(t, w)
		eq := body["equilibrium"].(map[string]any)
		assert.Equal(t, 10.5, eq["price"])
		assert.Equal(t, 2.0, eq["quantity"])
		assert.Equal(t, 4.0, body["max_surplus"])
	})

	t.Run("empty side", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/equilibrium", gin.H{
			"asks": []float64{9, 10},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		eq := decode(t, w)["equilibrium"].(map[string]any)
		assert.Nil(t, eq["price"])
		assert.Nil(t, eq["quantity"])
	})

	t.Run("malformed body", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/equilibrium", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
	})

	t.Run("negative limit price", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/equilibrium", gin.H{
			"asks": []float64{-1},
			"bids": []float64{5},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_SCHEDULE", errorCode(t, w))
	})
}

func TestScore(t *testing.T) {
	r, _ := newTestRouter()

	w := do(t, r, http.MethodPost, "/api/v1/score", gin.H{
		"day":  3,
		"asks": []float64{9, 10, 11},
		"bids": []float64{12, 11, 10},
		"trades": []gin.H{
			{"id": 1, "day": 3, "price": 10, "seller_limit": 9, "buyer_limit": 12},
			{"id": 2, "day": 3, "price": 10, "seller_limit": 10, "buyer_limit": 11},
		},
		"expected_trades": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	m := decode(t, w)["metrics"].(map[string]any)
	assert.Equal(t, 3.0, m["day"])
	assert.Equal(t, 1.0, m["trade_ratio"])
	assert.Equal(t, 10.0, m["avg_price"])
	assert.InDelta(t, 1.0, m["efficiency"], 1e-12)
}

func TestScore_Rejections(t *testing.T) {
	r, _ := newTestRouter()

	t.Run("missing limit", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/score", gin.H{
			"asks":            []float64{9},
			"bids":            []float64{12},
			"trades":          []gin.H{{"id": 1, "price": 10, "seller_limit": 9}},
			"expected_trades": 1,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_TRADE", errorCode(t, w))
	})

	t.Run("missing expected trades", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/score", gin.H{
			"asks": []float64{9},
			"bids": []float64{12},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
	})
}

func TestAnalyze(t *testing.T) {
	r, _ := newTestRouter()

	w := do(t, r, http.MethodPost, "/api/v1/analyze", gin.H{
		"experiment": "smoke",
		"runs":       sampleRuns(),
		"normalization": gin.H{
			"name":   "fixed",
			"params": gin.H{"per_day": 2},
		},
		"options": gin.H{"fitness": "efficiency", "include_cells": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	rec := body["report"].(map[string]any)
	assert.Equal(t, "smoke", rec["experiment"])
	assert.Equal(t, 2.0, rec["runs"])
	assert.InDelta(t, 0.875, rec["eff"], 1e-12)
	assert.InDelta(t, 0.75, rec["tr"], 1e-12)
	assert.Equal(t, 10.5, rec["EP"])
	assert.Equal(t, 4.0, rec["maxSurplus"])

	rankings := body["rankings"].([]any)
	require.Len(t, rankings, 2)
	first := rankings[0].(map[string]any)
	assert.Equal(t, 0.0, first["run"])
	assert.Equal(t, true, first["elite"])

	assert.Len(t, body["cells"], 2)
}

func TestAnalyze_Rejections(t *testing.T) {
	r, _ := newTestRouter()
	fixed := gin.H{"name": "fixed", "params": gin.H{"per_day": 2}}

	tests := []struct {
		name   string
		body   gin.H
		status int
		code   string
	}{
		{
			name:   "runs missing",
			body:   gin.H{"normalization": fixed},
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
		{
			name:   "no runs",
			body:   gin.H{"runs": []any{}, "normalization": fixed},
			status: http.StatusUnprocessableEntity,
			code:   "INVALID_RUNS",
		},
		{
			name:   "unknown normalizer",
			body:   gin.H{"runs": sampleRuns(), "normalization": gin.H{"name": "bogus"}},
			status: http.StatusBadRequest,
			code:   "INVALID_NORMALIZATION",
		},
		{
			name:   "negative ask",
			body:   gin.H{"runs": runsWithAsks([]float64{-1, 10, 11}), "normalization": fixed},
			status: http.StatusBadRequest,
			code:   "INVALID_SCHEDULE",
		},
		{
			name: "unknown fitness",
			body: gin.H{
				"runs":          sampleRuns(),
				"normalization": fixed,
				"options":       gin.H{"fitness": "profit"},
			},
			status: http.StatusBadRequest,
			code:   "INVALID_FITNESS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/analyze", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

// runsWithAsks replaces the shared schedule's asks and drops its inner id.
func runsWithAsks(asks []float64) []model.RunInput {
	runs := sampleRuns()
	runs[0].Schedules["1"] = model.LimitPriceSet{Asks: asks, Bids: []float64{12, 11, 10}}
	return runs
}

func TestAnalyze_ScheduleIDFromKey(t *testing.T) {
	r, _ := newTestRouter()

	w := do(t, r, http.MethodPost, "/api/v1/analyze", gin.H{
		"runs":          runsWithAsks([]float64{9, 10, 11}),
		"normalization": gin.H{"name": "fixed", "params": gin.H{"per_day": 2}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rep := decode(t, w)["report"].(map[string]any)
	sched := rep["schedules"].(map[string]any)["1"].(map[string]any)
	assert.Equal(t, "1", sched["scheduleId"])
	day := rep["equilibria"].(map[string]any)["0"].(map[string]any)
	assert.Equal(t, "1", day["scheduleId"])
}

func TestCompare_RejectsInvalidSchedule(t *testing.T) {
	r, _ := newTestRouter()

	w := do(t, r, http.MethodPost, "/api/v1/analyze/compare", gin.H{
		"runs":               runsWithAsks([]float64{9, -10, 11}),
		"base_normalization": gin.H{"name": "fixed", "params": gin.H{"per_day": 2}},
		"variations":         []gin.H{{"name": "base"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "INVALID_SCHEDULE", errorCode(t, w))
}

func TestCompare(t *testing.T) {
	r, _ := newTestRouter()

	w := do(t, r, http.MethodPost, "/api/v1/analyze/compare", gin.H{
		"runs": sampleRuns(),
		"base_normalization": gin.H{
			"name":   "fixed",
			"params": gin.H{"per_day": 2},
		},
		"variations": []gin.H{
			{"name": "base"},
			{"name": "double", "normalization": gin.H{"params": gin.H{"per_day": 4}}},
			{"name": "broken", "normalization": gin.H{"name": "bogus"}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	comparison := decode(t, w)["comparison"].([]any)
	require.Len(t, comparison, 2)
	base := comparison[0].(map[string]any)
	double := comparison[1].(map[string]any)
	assert.Equal(t, "base", base["name"])
	assert.InDelta(t, 0.75, base["tr"], 1e-12)
	assert.InDelta(t, 0.375, double["tr"], 1e-12)
	assert.Equal(t, base["eff"], double["eff"])
}

func TestListNormalizers(t *testing.T) {
	r, _ := newTestRouter()
	w := do(t, r, http.MethodGet, "/api/v1/normalizers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["normalizers"], 2)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter()
	do(t, r, http.MethodGet, "/health", nil)

	w := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `auction_analytics_http_requests_total{method="GET",route="/health",status="200"} 1`))
}
