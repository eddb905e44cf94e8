// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

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

// Package-level tracer and meter for flow executions.
var (
	tracer = otel.Tracer("atlas.topology.engine")
	meter  = otel.Meter("atlas.topology.engine")
)

// OTel metrics for flow executions.
var (
	executionLatency metric.Float64Histogram
	spansPerTrace    metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// Prometheus metrics for flow executions.
var (
	executionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topology_flow_executions_total",
		Help: "Total flow executions by trace status",
	}, []string{"status"})

	failuresInjectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topology_flow_failures_injected_total",
		Help: "Total executions run with failure injection",
	})
)

// initMetrics initializes the OTel instruments. Safe to call repeatedly.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		executionLatency, err = meter.Float64Histogram(
			"topology_flow_execution_duration_seconds",
			metric.WithDescription("Wall-clock duration of flow executions"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		spansPerTrace, err = meter.Int64Histogram(
			"topology_flow_trace_spans",
			metric.WithDescription("Span counts per synthesized trace"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

// observeExecution records one flow execution.
func observeExecution(ctx context.Context, status string, injected bool, d time.Duration, spans int) {
	executionsTotal.WithLabelValues(status).Inc()
	if injected {
		failuresInjectedTotal.Inc()
	}
	if initMetrics() != nil {
		return
	}
	executionLatency.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("status", status)))
	spansPerTrace.Record(ctx, int64(spans),
		metric.WithAttributes(attribute.String("status", status)))
}
