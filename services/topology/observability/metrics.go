// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics for the topology service API.
//
// # Description
//
// Implements Prometheus metrics for the HTTP surface: request counters
// by route and status class, latency histograms, and in-flight gauges.
// Domain metrics (graph mutations, traversals, flow executions) live in
// their owning packages; this package covers only the API boundary.
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for API metrics.
const metricsNamespace = "atlas"

// APIMetrics holds the Prometheus metrics for the HTTP surface.
//
// Initialize once at startup via NewAPIMetrics and attach Middleware to
// the router.
type APIMetrics struct {
	// RequestsTotal counts requests by route, method, and status code.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures request latency by route and method.
	RequestDuration *prometheus.HistogramVec

	// InFlight gauges currently executing requests.
	InFlight prometheus.Gauge
}

// NewAPIMetrics registers and returns the API metric set.
func NewAPIMetrics() *APIMetrics {
	return &APIMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests by route, method, and status",
		}, []string{"route", "method", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency by route and method",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route", "method"}),

		InFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "api",
			Name:      "requests_in_flight",
			Help:      "API requests currently executing",
		}),
	}
}

// Middleware returns a gin middleware recording the API metrics.
//
// The route label uses gin's route template (e.g. /v1/flows/:id/execute)
// rather than the raw path, keeping label cardinality bounded.
func (m *APIMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.InFlight.Inc()

		c.Next()

		m.InFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(route, c.Request.Method,
			strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(route, c.Request.Method).
			Observe(time.Since(start).Seconds())
	}
}
