// Package metrics holds the Prometheus collectors for aggregation and the
// HTTP API. A nil *Registry is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "auction_analytics"

type Registry struct {
	// Aggregation
	CellsTotal   *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	Aggregations *prometheus.CounterVec
	SolverCache  *prometheus.CounterVec

	// HTTP
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors on their own registry, so several engines or
// test servers never collide on registration.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		CellsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cells_total",
				Help:      "Total number of (run, day) cells processed by status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Time to score every day of one run",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		Aggregations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregations_total",
				Help:      "Total number of aggregations by result",
			},
			[]string{"result"},
		),
		SolverCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solver_cache_lookups_total",
				Help:      "Equilibrium solver cache lookups by result",
			},
			[]string{"result"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		r.CellsTotal,
		r.RunDuration,
		r.Aggregations,
		r.SolverCache,
		r.Requests,
		r.RequestDuration,
		collectors.NewGoCollector(),
	)
	return r
}

// ObserveCell counts one scored or skipped cell.
func (r *Registry) ObserveCell(skipped bool) {
	if r == nil {
		return
	}
	status := "scored"
	if skipped {
		status = "skipped"
	}
	r.CellsTotal.WithLabelValues(status).Inc()
}

func (r *Registry) ObserveRun(d time.Duration) {
	if r == nil {
		return
	}
	r.RunDuration.Observe(d.Seconds())
}

// ObserveAggregation counts a finished aggregation; err selects the label.
func (r *Registry) ObserveAggregation(err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.Aggregations.WithLabelValues(result).Inc()
}

// ObserveCache adds cache hit and miss deltas.
func (r *Registry) ObserveCache(hits, misses uint64) {
	if r == nil {
		return
	}
	r.SolverCache.WithLabelValues("hit").Add(float64(hits))
	r.SolverCache.WithLabelValues("miss").Add(float64(misses))
}

func (r *Registry) ObserveRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
