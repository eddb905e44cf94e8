// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badgerstore

import (
	"context"
	"errors"
	"testing"

	"github.com/AleutianAI/AleutianAtlas/services/topology/engine"
	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testTrace(traceID, flowID string) *engine.Trace {
	return &engine.Trace{
		TraceID:   traceID,
		FlowID:    flowID,
		FlowName:  "checkout",
		Status:    engine.StatusOK,
		SpanCount: 1,
		Spans: []*engine.Span{
			{
				TraceID:       traceID,
				SpanID:        "00000000000000aa",
				OperationName: "POST /api/payments/process",
				ServiceName:   "payment-service",
				Kind:          engine.KindServer,
				Status:        engine.SpanStatus{Code: engine.StatusOK},
			},
		},
	}
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	want := testTrace("trace-1", "flow-1")
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "trace-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TraceID != want.TraceID || got.FlowID != want.FlowID {
		t.Errorf("round trip: want %s/%s, got %s/%s", want.TraceID, want.FlowID, got.TraceID, got.FlowID)
	}
	if len(got.Spans) != 1 || got.Spans[0].ServiceName != "payment-service" {
		t.Errorf("span body lost in round trip: %+v", got.Spans)
	}

	t.Run("empty containers come back empty, not nil-marshaled", func(t *testing.T) {
		if got.Spans[0].Events == nil {
			// json decodes [] into an empty non-nil slice; nil means the
			// stored body carried null.
			t.Error("expected events to round-trip as an empty list")
		}
	})
}

func TestStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, "trace-ghost")
	if !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	var nf *registry.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "trace" {
		t.Errorf("expected trace-kind NotFoundError, got %+v", nf)
	}
}

func TestStore_PutRejectsAnonymousTraces(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put(context.Background(), &engine.Trace{}); err == nil {
		t.Error("expected an error for a trace without an id")
	}
}

func TestStore_ListByFlow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, id := range []string{"t1", "t2", "t3"} {
		if err := s.Put(ctx, testTrace(id, "flow-a")); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Put(ctx, testTrace("t4", "flow-b")); err != nil {
		t.Fatal(err)
	}

	traces, err := s.ListByFlow(ctx, "flow-a", 0)
	if err != nil {
		t.Fatalf("ListByFlow: %v", err)
	}
	if len(traces) != 3 {
		t.Errorf("expected 3 traces for flow-a, got %d", len(traces))
	}
	for _, trace := range traces {
		if trace.FlowID != "flow-a" {
			t.Errorf("foreign trace %s leaked into the flow listing", trace.TraceID)
		}
	}

	limited, err := s.ListByFlow(ctx, "flow-a", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limit 2: got %d", len(limited))
	}

	empty, err := s.ListByFlow(ctx, "flow-ghost", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown flow must list empty, got %d", len(empty))
	}
}

func TestStore_Count(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, id := range []string{"t1", "t2"} {
		if err := s.Put(ctx, testTrace(id, "flow-a")); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 traces, got %d", n)
	}
}

func TestOpen_RequiresPathForPersistentMode(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Error("expected an error when persistent mode has no path")
	}
}
