// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine synthesizes OpenTelemetry-shaped execution traces for
// flow definitions.
//
// A flow is modeled as a sequential call chain: each step produces one
// SERVER span whose parent is the previous step's span, with step 1 as
// the trace root. The synthesizer holds no shared state: each execution
// is an independent, deterministic function of the flow definition, the
// registry contents, and the execution options.
package engine

import (
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// =============================================================================
// Wire enums
// =============================================================================

// Span kinds, using the OpenTelemetry wire spelling.
const (
	KindServer   = "SPAN_KIND_SERVER"
	KindClient   = "SPAN_KIND_CLIENT"
	KindInternal = "SPAN_KIND_INTERNAL"
)

// Span and trace status codes, using the OpenTelemetry wire spelling.
const (
	StatusOK    = "STATUS_CODE_OK"
	StatusError = "STATUS_CODE_ERROR"
	StatusUnset = "STATUS_CODE_UNSET"
)

// =============================================================================
// Span shapes
// =============================================================================

// SpanEvent is a timestamped log record attached to a span.
type SpanEvent struct {
	Name              string         `json:"name"`
	TimestampUnixNano int64          `json:"timestampUnixNano"`
	Attributes        map[string]any `json:"attributes"`
}

// SpanLink references a span in another trace, for async or batch
// relationships.
type SpanLink struct {
	TraceID    string         `json:"traceId"`
	SpanID     string         `json:"spanId"`
	Attributes map[string]any `json:"attributes"`
}

// SpanStatus is the status block of a span.
type SpanStatus struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Resource carries the resource attributes describing the process that
// emitted a span.
type Resource struct {
	Attributes map[string]string `json:"attributes"`
}

// Span is a single OpenTelemetry-shaped span.
//
// Timestamps are unix nanoseconds. DurationUS is always recomputed from
// the end/start pair, never trusted from input. The zero values of
// Attributes, Events, and Links serialize as empty containers, never
// null, so persisted traces round-trip losslessly.
type Span struct {
	TraceID           string         `json:"traceId"`
	SpanID            string         `json:"spanId"`
	ParentSpanID      string         `json:"parentSpanId"`
	OperationName     string         `json:"operationName"`
	ServiceName       string         `json:"serviceName"`
	Kind              string         `json:"kind"`
	StartTimeUnixNano int64          `json:"startTimeUnixNano"`
	EndTimeUnixNano   int64          `json:"endTimeUnixNano"`
	DurationUS        int64          `json:"durationUs"`
	Status            SpanStatus     `json:"status"`
	Attributes        map[string]any `json:"attributes"`
	Events            []SpanEvent    `json:"events"`
	Links             []SpanLink     `json:"links"`
	Resource          Resource       `json:"resource"`
}

// MarshalJSON replaces nil containers with empty ones so the wire shape
// never carries null where the span contract requires {} or [].
func (s *Span) MarshalJSON() ([]byte, error) {
	type alias Span

	cp := *s
	if cp.Attributes == nil {
		cp.Attributes = map[string]any{}
	}
	if cp.Events == nil {
		cp.Events = []SpanEvent{}
	}
	if cp.Links == nil {
		cp.Links = []SpanLink{}
	}
	if cp.Resource.Attributes == nil {
		cp.Resource.Attributes = map[string]string{}
	}
	for i := range cp.Events {
		if cp.Events[i].Attributes == nil {
			cp.Events[i].Attributes = map[string]any{}
		}
	}
	for i := range cp.Links {
		if cp.Links[i].Attributes == nil {
			cp.Links[i].Attributes = map[string]any{}
		}
	}
	return json.Marshal((*alias)(&cp))
}

// =============================================================================
// Trace shape
// =============================================================================

// ExecutionError describes the step that failed a flow execution.
type ExecutionError struct {
	Step        int    `json:"step"`
	FromService string `json:"from_service"`
	ToService   string `json:"to_service"`
	Message     string `json:"message"`
}

// Trace is the complete result of one flow execution.
//
// Spans are ordered by start time. SpanCount and DurationMS are derived
// from the span set at build time, never tracked independently.
type Trace struct {
	TraceID           string          `json:"traceId"`
	ExecutionID       string          `json:"executionId"`
	FlowID            string          `json:"flowId"`
	FlowName          string          `json:"flowName"`
	Environment       string          `json:"environment"`
	StartTimeUnixNano int64           `json:"startTimeUnixNano"`
	EndTimeUnixNano   int64           `json:"endTimeUnixNano"`
	DurationMS        float64         `json:"durationMs"`
	Status            string          `json:"status"`
	SpanCount         int             `json:"spanCount"`
	Error             *ExecutionError `json:"error,omitempty"`
	Spans             []*Span         `json:"spans"`
}

// MarshalJSON guarantees a non-null spans list.
func (t *Trace) MarshalJSON() ([]byte, error) {
	type alias Trace

	cp := *t
	if cp.Spans == nil {
		cp.Spans = []*Span{}
	}
	return json.Marshal((*alias)(&cp))
}

// RootSpan returns the span with no parent, or nil for an empty trace.
func (t *Trace) RootSpan() *Span {
	for _, s := range t.Spans {
		if s.ParentSpanID == "" {
			return s
		}
	}
	return nil
}

// =============================================================================
// ID generation
// =============================================================================

// newTraceID returns a 32-char hex trace id (128-bit, OTel standard).
func newTraceID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// newSpanID returns a 16-char hex span id (64-bit, OTel standard).
func newSpanID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:8])
}
