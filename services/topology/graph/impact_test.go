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
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
)

func TestSimulator_Simulate(t *testing.T) {
	ctx := context.Background()

	t.Run("buckets impact by severity and depth", func(t *testing.T) {
		s, reg, ids := newTestGraph(t, "a", "b", "c")
		sim := NewSimulator(s, NewTraversal(s, reg))

		mustAdd(t, s, ids["a"], ids["b"], DepRuntime)
		mustAdd(t, s, ids["b"], ids["c"], DepRuntime)

		res, err := sim.Simulate(ctx, ids["c"])
		if err != nil {
			t.Fatalf("Simulate: %v", err)
		}
		if res.BlastRadius != 2 || res.MaxCascadeDepth != 2 {
			t.Errorf("want radius=2 depth=2, got radius=%d depth=%d", res.BlastRadius, res.MaxCascadeDepth)
		}
		if res.ImpactBySeverity[SeverityCritical] != 1 || res.ImpactBySeverity[SeverityHigh] != 1 {
			t.Errorf("severity buckets wrong: %v", res.ImpactBySeverity)
		}
		if !reflect.DeepEqual(res.ImpactByDepth[1], []string{"b"}) {
			t.Errorf("depth 1 bucket: want [b], got %v", res.ImpactByDepth[1])
		}
		if !reflect.DeepEqual(res.ImpactByDepth[2], []string{"a"}) {
			t.Errorf("depth 2 bucket: want [a], got %v", res.ImpactByDepth[2])
		}

		// Hop-1 runtime dependent present: failover is recommended.
		if !slices.Contains(res.Recommendations, recFailover) {
			t.Errorf("expected failover recommendation, got %v", res.Recommendations)
		}
	})

	t.Run("wide radius recommends circuit breakers", func(t *testing.T) {
		s, reg, ids := newTestGraph(t, "hub", "d1", "d2", "d3")
		sim := NewSimulator(s, NewTraversal(s, reg), WithRadiusThreshold(2))

		for _, name := range []string{"d1", "d2", "d3"} {
			mustAdd(t, s, ids[name], ids["hub"], DepRuntime)
		}

		res, err := sim.Simulate(ctx, ids["hub"])
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Contains(res.Recommendations, recCircuitBreaker) {
			t.Errorf("radius %d over threshold 2 must recommend circuit breakers, got %v",
				res.BlastRadius, res.Recommendations)
		}
	})

	t.Run("deep cascade recommends flattening", func(t *testing.T) {
		s, reg, ids := newTestGraph(t, "s0", "s1", "s2", "s3")
		sim := NewSimulator(s, NewTraversal(s, reg))

		mustAdd(t, s, ids["s1"], ids["s0"], DepBuild)
		mustAdd(t, s, ids["s2"], ids["s1"], DepBuild)
		mustAdd(t, s, ids["s3"], ids["s2"], DepBuild)

		res, err := sim.Simulate(ctx, ids["s0"])
		if err != nil {
			t.Fatal(err)
		}
		if res.MaxCascadeDepth != 3 {
			t.Fatalf("expected depth 3, got %d", res.MaxCascadeDepth)
		}
		if !slices.Contains(res.Recommendations, recFlatten) {
			t.Errorf("depth 3 must recommend flattening, got %v", res.Recommendations)
		}
		// Build edges are not runtime: no failover recommendation.
		if slices.Contains(res.Recommendations, recFailover) {
			t.Errorf("build-only dependents must not trigger failover, got %v", res.Recommendations)
		}
	})

	t.Run("isolation is a valid state", func(t *testing.T) {
		s, reg, ids := newTestGraph(t, "loner", "other")
		sim := NewSimulator(s, NewTraversal(s, reg))

		// Outgoing edges do not count toward the blast radius.
		mustAdd(t, s, ids["loner"], ids["other"], DepRuntime)

		res, err := sim.Simulate(ctx, ids["loner"])
		if err != nil {
			t.Fatal(err)
		}
		if res.BlastRadius != 0 {
			t.Errorf("expected radius 0, got %d", res.BlastRadius)
		}
		if len(res.Recommendations) != 0 {
			t.Errorf("isolated service must produce no recommendations, got %v", res.Recommendations)
		}
	})

	t.Run("deterministic on an unchanged graph", func(t *testing.T) {
		s, reg, ids := newTestGraph(t, "a", "b", "c")
		sim := NewSimulator(s, NewTraversal(s, reg))
		mustAdd(t, s, ids["a"], ids["b"], DepRuntime)
		mustAdd(t, s, ids["b"], ids["c"], DepRuntime)

		first, err := sim.Simulate(ctx, ids["c"])
		if err != nil {
			t.Fatal(err)
		}
		second, err := sim.Simulate(ctx, ids["c"])
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("repeated simulations must be identical:\nfirst:  %+v\nsecond: %+v", first, second)
		}
	})

	t.Run("unknown service is NotFound", func(t *testing.T) {
		s, reg, _ := newTestGraph(t, "api")
		sim := NewSimulator(s, NewTraversal(s, reg))
		if _, err := sim.Simulate(ctx, "svc-ghost"); !errors.Is(err, registry.ErrNotFound) {
			t.Errorf("expected NotFound, got %v", err)
		}
	})
}
