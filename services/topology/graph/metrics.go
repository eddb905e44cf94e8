// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for graph operations.
var (
	tracer = otel.Tracer("atlas.topology.graph")
	meter  = otel.Meter("atlas.topology.graph")
)

// OTel metrics for graph operations.
var (
	mutationLatency metric.Float64Histogram
	queryLatency    metric.Float64Histogram
	queryResults    metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// Prometheus metrics for graph state.
var (
	circularDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topology_circular_dependencies_detected_total",
		Help: "Total edges flagged circular at insertion time",
	})

	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topology_graph_mutations_total",
		Help: "Total graph mutations by operation",
	}, []string{"operation"})

	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topology_graph_queries_total",
		Help: "Total graph queries by mode",
	}, []string{"mode"})
)

// initMetrics initializes the OTel instruments. Safe to call repeatedly.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		mutationLatency, err = meter.Float64Histogram(
			"topology_graph_mutation_duration_seconds",
			metric.WithDescription("Duration of graph mutations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryLatency, err = meter.Float64Histogram(
			"topology_graph_query_duration_seconds",
			metric.WithDescription("Duration of graph queries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryResults, err = meter.Int64Histogram(
			"topology_graph_query_results",
			metric.WithDescription("Result counts per graph query"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

// observeMutation records a graph mutation.
func observeMutation(ctx context.Context, op string, d time.Duration, circular bool) {
	mutationsTotal.WithLabelValues(op).Inc()
	if circular {
		circularDetectedTotal.Inc()
	}
	if initMetrics() != nil {
		return
	}
	mutationLatency.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("operation", op)))
}

// observeQuery records a graph query.
func observeQuery(ctx context.Context, mode string, d time.Duration, results int) {
	queriesTotal.WithLabelValues(mode).Inc()
	if initMetrics() != nil {
		return
	}
	queryLatency.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("mode", mode)))
	queryResults.Record(ctx, int64(results),
		metric.WithAttributes(attribute.String("mode", mode)))
}
