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
	"testing"

	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
)

// newTestGraph registers the named services and returns a store wired to
// the registry, plus the name -> id mapping.
func newTestGraph(t *testing.T, names ...string) (*Store, *registry.Store, map[string]string) {
	t.Helper()
	reg := registry.NewStore()
	ids := make(map[string]string, len(names))
	for _, name := range names {
		svc, err := reg.AddService(registry.Service{
			Name:        name,
			Status:      registry.StatusActive,
			ServiceType: "rest",
			Criticality: "high",
		})
		if err != nil {
			t.Fatalf("AddService(%s): %v", name, err)
		}
		ids[name] = svc.ID
	}
	return NewStore(reg), reg, ids
}

func mustAdd(t *testing.T, s *Store, source, target string, depType DependencyType) *Dependency {
	t.Helper()
	dep, err := s.AddDependency(context.Background(), source, target, depType, "", "")
	if err != nil {
		t.Fatalf("AddDependency(%s -> %s): %v", source, target, err)
	}
	return dep
}

func TestStore_AddDependency(t *testing.T) {
	ctx := context.Background()

	t.Run("commits a validated edge", func(t *testing.T) {
		s, _, ids := newTestGraph(t, "api", "db")
		dep := mustAdd(t, s, ids["api"], ids["db"], DepRuntime)

		if dep.ID == "" {
			t.Error("expected generated edge id")
		}
		if dep.SourceType != "service" || dep.TargetType != "service" {
			t.Errorf("expected default entity types, got %q/%q", dep.SourceType, dep.TargetType)
		}
		if dep.IsCircular {
			t.Error("acyclic edge must not be circular")
		}
		if dep.Severity != SeverityMedium {
			t.Errorf("expected default severity medium, got %s", dep.Severity)
		}
		if s.EdgeCount() != 1 {
			t.Errorf("expected 1 edge, got %d", s.EdgeCount())
		}
	})

	t.Run("rejects unknown dependency type", func(t *testing.T) {
		s, _, ids := newTestGraph(t, "api", "db")
		_, err := s.AddDependency(ctx, ids["api"], ids["db"], DependencyType("psychic"), "", "")
		if !errors.Is(err, ErrInvalidDependencyType) {
			t.Errorf("expected ErrInvalidDependencyType, got %v", err)
		}
	})

	t.Run("rejects unresolvable endpoints", func(t *testing.T) {
		s, _, ids := newTestGraph(t, "api")
		if _, err := s.AddDependency(ctx, "svc-ghost", ids["api"], DepRuntime, "", ""); !errors.Is(err, registry.ErrNotFound) {
			t.Errorf("expected NotFound for unknown source, got %v", err)
		}
		if _, err := s.AddDependency(ctx, ids["api"], "svc-ghost", DepRuntime, "", ""); !errors.Is(err, registry.ErrNotFound) {
			t.Errorf("expected NotFound for unknown target, got %v", err)
		}
		if s.EdgeCount() != 0 {
			t.Errorf("failed inserts must not commit edges, got %d", s.EdgeCount())
		}
	})

	t.Run("accepts duplicate edges as distinct records", func(t *testing.T) {
		s, _, ids := newTestGraph(t, "api", "db")
		a := mustAdd(t, s, ids["api"], ids["db"], DepRuntime)
		b := mustAdd(t, s, ids["api"], ids["db"], DepRuntime)
		if a.ID == b.ID {
			t.Error("duplicate edges must keep distinct ids")
		}
		if s.EdgeCount() != 2 {
			t.Errorf("expected 2 edges, got %d", s.EdgeCount())
		}
	})
}

func TestStore_CycleDetection(t *testing.T) {
	t.Run("self loop is a critical runtime cycle", func(t *testing.T) {
		s, _, ids := newTestGraph(t, "api")
		dep := mustAdd(t, s, ids["api"], ids["api"], DepRuntime)
		if !dep.IsCircular {
			t.Fatal("self loop must be circular")
		}
		if dep.Severity != SeverityCritical {
			t.Errorf("expected critical, got %s", dep.Severity)
		}
	})

	t.Run("mutual pair flags both edges circular", func(t *testing.T) {
		s, _, ids := newTestGraph(t, "api", "auth")
		first := mustAdd(t, s, ids["api"], ids["auth"], DepRuntime)
		second := mustAdd(t, s, ids["auth"], ids["api"], DepRuntime)

		if !second.IsCircular || second.Severity != SeverityCritical {
			t.Errorf("closing edge: want circular critical, got circular=%v severity=%s",
				second.IsCircular, second.Severity)
		}

		// The pre-existing reverse edge is retro-flagged but keeps its
		// original severity.
		circular := s.AllCircular(0)
		if len(circular) != 2 {
			t.Fatalf("expected both edges circular, got %d", len(circular))
		}
		criticals := 0
		for _, dep := range circular {
			if dep.Severity == SeverityCritical {
				criticals++
			}
			if dep.ID == first.ID && !dep.IsCircular {
				t.Error("reverse edge must be retro-flagged circular")
			}
		}
		if criticals != 1 {
			t.Errorf("mutual pair must carry exactly one critical record, got %d", criticals)
		}
	})

	t.Run("closing edge of a three-service runtime loop is critical", func(t *testing.T) {
		s, _, ids := newTestGraph(t, "a", "b", "c")
		ab := mustAdd(t, s, ids["a"], ids["b"], DepRuntime)
		bc := mustAdd(t, s, ids["b"], ids["c"], DepRuntime)
		ca := mustAdd(t, s, ids["c"], ids["a"], DepRuntime)

		if ab.IsCircular || bc.IsCircular {
			t.Error("chain edges inserted before the loop closed must stay non-circular")
		}
		if !ca.IsCircular {
			t.Fatal("loop-closing edge must be circular")
		}
		if ca.Severity != SeverityCritical {
			t.Errorf("expected critical, got %s", ca.Severity)
		}

		circular := s.AllCircular(0)
		if len(circular) != 1 || circular[0].ID != ca.ID {
			t.Errorf("expected exactly the closing edge in the circular list, got %d records", len(circular))
		}
	})

	t.Run("long runtime loop downgrades to high", func(t *testing.T) {
		s, _, ids := newTestGraph(t, "a", "b", "c", "d")
		mustAdd(t, s, ids["a"], ids["b"], DepRuntime)
		mustAdd(t, s, ids["b"], ids["c"], DepRuntime)
		mustAdd(t, s, ids["c"], ids["d"], DepRuntime)
		da := mustAdd(t, s, ids["d"], ids["a"], DepRuntime)

		if !da.IsCircular || da.Severity != SeverityHigh {
			t.Errorf("want circular high, got circular=%v severity=%s", da.IsCircular, da.Severity)
		}
	})

	t.Run("cycle severity follows the edge type", func(t *testing.T) {
		cases := []struct {
			depType DependencyType
			want    Severity
		}{
			{DepData, SeverityHigh},
			{DepEvent, SeverityHigh},
			{DepBuild, SeverityMedium},
			{DepDeployment, SeverityMedium},
			{DepInfrastructure, SeverityLow},
		}
		for _, tc := range cases {
			s, _, ids := newTestGraph(t, "x", "y")
			mustAdd(t, s, ids["x"], ids["y"], tc.depType)
			closing := mustAdd(t, s, ids["y"], ids["x"], tc.depType)
			if !closing.IsCircular || closing.Severity != tc.want {
				t.Errorf("%s cycle: want circular %s, got circular=%v severity=%s",
					tc.depType, tc.want, closing.IsCircular, closing.Severity)
			}
		}
	})

	t.Run("cross-type paths still close cycles", func(t *testing.T) {
		s, _, ids := newTestGraph(t, "a", "b")
		mustAdd(t, s, ids["a"], ids["b"], DepData)
		closing := mustAdd(t, s, ids["b"], ids["a"], DepRuntime)
		if !closing.IsCircular || closing.Severity != SeverityCritical {
			t.Errorf("want circular critical, got circular=%v severity=%s",
				closing.IsCircular, closing.Severity)
		}
	})
}

func TestStore_RemoveDependency(t *testing.T) {
	ctx := context.Background()

	t.Run("removes an edge", func(t *testing.T) {
		s, _, ids := newTestGraph(t, "api", "db")
		dep := mustAdd(t, s, ids["api"], ids["db"], DepRuntime)
		if err := s.RemoveDependency(ctx, dep.ID); err != nil {
			t.Fatalf("RemoveDependency: %v", err)
		}
		if s.EdgeCount() != 0 {
			t.Errorf("expected empty graph, got %d edges", s.EdgeCount())
		}
		if deps, _ := s.Neighbors(ids["api"], DirOutgoing); len(deps) != 0 {
			t.Error("adjacency index must drop the removed edge")
		}
	})

	t.Run("unknown edge is NotFound", func(t *testing.T) {
		s, _, _ := newTestGraph(t, "api")
		err := s.RemoveDependency(ctx, "dep-ghost")
		if !errors.Is(err, registry.ErrNotFound) {
			t.Errorf("expected NotFound, got %v", err)
		}
	})

	t.Run("circular flags are sticky across deletes", func(t *testing.T) {
		s, _, ids := newTestGraph(t, "api", "auth")
		mustAdd(t, s, ids["api"], ids["auth"], DepRuntime)
		closing := mustAdd(t, s, ids["auth"], ids["api"], DepRuntime)

		if err := s.RemoveDependency(ctx, closing.ID); err != nil {
			t.Fatalf("RemoveDependency: %v", err)
		}

		// The surviving edge stays circular: deletes never re-validate.
		circular := s.AllCircular(0)
		if len(circular) != 1 || !circular[0].IsCircular {
			t.Fatalf("surviving edge must stay circular, got %d records", len(circular))
		}
		if got := s.RevalidationsSkipped(); got != 1 {
			t.Errorf("expected 1 skipped revalidation, got %d", got)
		}
	})
}

func TestStore_Neighbors(t *testing.T) {
	s, _, ids := newTestGraph(t, "api", "db", "cache")
	mustAdd(t, s, ids["api"], ids["db"], DepRuntime)
	mustAdd(t, s, ids["api"], ids["cache"], DepRuntime)
	mustAdd(t, s, ids["cache"], ids["db"], DepData)

	out, err := s.Neighbors(ids["api"], DirOutgoing)
	if err != nil {
		t.Fatalf("Neighbors outgoing: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 outgoing edges, got %d", len(out))
	}

	in, err := s.Neighbors(ids["db"], DirIncoming)
	if err != nil {
		t.Fatalf("Neighbors incoming: %v", err)
	}
	if len(in) != 2 {
		t.Errorf("expected 2 incoming edges, got %d", len(in))
	}

	if _, err := s.Neighbors(ids["api"], Direction("sideways")); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestStore_AllCircular_Ordering(t *testing.T) {
	s, _, ids := newTestGraph(t, "a", "b", "c", "d")

	// Infrastructure mutual pair first (low), then a runtime mutual pair
	// (critical). Most severe must list first regardless of insertion.
	mustAdd(t, s, ids["a"], ids["b"], DepInfrastructure)
	mustAdd(t, s, ids["b"], ids["a"], DepInfrastructure)
	mustAdd(t, s, ids["c"], ids["d"], DepRuntime)
	mustAdd(t, s, ids["d"], ids["c"], DepRuntime)

	circular := s.AllCircular(0)
	if len(circular) != 4 {
		t.Fatalf("expected 4 circular edges, got %d", len(circular))
	}
	for i := 1; i < len(circular); i++ {
		if circular[i-1].Severity.Rank() > circular[i].Severity.Rank() {
			t.Errorf("circular list out of severity order at %d: %s after %s",
				i, circular[i].Severity, circular[i-1].Severity)
		}
	}
	if circular[0].Severity != SeverityCritical {
		t.Errorf("most severe first, got %s", circular[0].Severity)
	}

	if limited := s.AllCircular(2); len(limited) != 2 {
		t.Errorf("limit 2: got %d", len(limited))
	}
}

func TestStore_GenerationAdvancesOnMutation(t *testing.T) {
	ctx := context.Background()
	s, _, ids := newTestGraph(t, "api", "db")

	g0 := s.Generation()
	dep := mustAdd(t, s, ids["api"], ids["db"], DepRuntime)
	if s.Generation() <= g0 {
		t.Error("AddDependency must advance the generation")
	}

	g1 := s.Generation()
	if err := s.RemoveDependency(ctx, dep.ID); err != nil {
		t.Fatal(err)
	}
	if s.Generation() <= g1 {
		t.Error("RemoveDependency must advance the generation")
	}

	g2 := s.Generation()
	s.Clear()
	if s.Generation() <= g2 {
		t.Error("Clear must advance the generation")
	}
}

func TestStore_LoadEcosystem(t *testing.T) {
	s, _, ids := newTestGraph(t, "api", "db")

	loaded := s.LoadEcosystem(context.Background(), []registry.EcosystemEdge{
		{SourceID: ids["api"], TargetID: ids["db"], DependencyType: "runtime"},
		{SourceID: ids["api"], TargetID: "svc-ghost", DependencyType: "runtime"},
		{SourceID: ids["db"], TargetID: ids["api"], DependencyType: ""},
	})

	if loaded != 2 {
		t.Errorf("expected 2 loaded edges, got %d", loaded)
	}
	if s.EdgeCount() != 2 {
		t.Errorf("expected 2 committed edges, got %d", s.EdgeCount())
	}

	// The blank type defaulted to runtime and closed a mutual cycle.
	if circular := s.AllCircular(0); len(circular) != 2 {
		t.Errorf("expected the defaulted edge to close a cycle, got %d circular", len(circular))
	}
}
