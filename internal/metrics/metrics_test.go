package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Observe(t *testing.T) {
	r := New()

	r.ObserveCell(false)
	r.ObserveCell(false)
	r.ObserveCell(true)
	r.ObserveCache(9, 1)
	r.ObserveAggregation(nil)
	r.ObserveAggregation(errors.New("boom"))
	r.ObserveRun(10 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.CellsTotal.WithLabelValues("scored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CellsTotal.WithLabelValues("skipped")))
	assert.Equal(t, 9.0, testutil.ToFloat64(r.SolverCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SolverCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Aggregations.WithLabelValues("error")))
}

func TestRegistry_Nil(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveCell(true)
		r.ObserveRun(time.Second)
		r.ObserveCache(1, 1)
		r.ObserveAggregation(nil)
		r.ObserveRequest("GET", "/health", 200, time.Millisecond)
	})
}

func TestRegistry_Handler(t *testing.T) {
	r := New()
	r.ObserveRequest("GET", "/health", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `auction_analytics_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestTwoRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
