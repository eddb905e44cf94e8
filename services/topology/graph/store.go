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
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
)

// Store owns the dependency edge set.
//
// Description:
//
//	Edges are stored in a map keyed by edge id plus two adjacency indexes
//	(by source id and by target id) for O(degree) neighbor queries. No
//	other component mutates graph state; the traversal engine and the
//	failure simulator read through the shared lock.
//
// Lifecycle: create on process start with NewStore, inject by reference,
// Clear on demand for bulk resets. There is no package-level instance.
type Store struct {
	mu sync.RWMutex

	resolver ServiceResolver

	edges    map[string]*Dependency
	bySource map[string][]*Dependency
	byTarget map[string][]*Dependency

	// nextSeq numbers insertions for deterministic tie-breaking.
	nextSeq uint64

	// generation increments on every structural mutation. The cached
	// resolver uses it to drop stale entries without a write callback.
	generation uint64

	// revalidationsSkipped counts circular-edge deletions where the
	// sticky is_circular policy skipped a re-scan.
	revalidationsSkipped uint64
}

// NewStore creates an empty graph store backed by the given resolver.
//
// The resolver validates edge endpoints at insertion time; the store
// never creates services on demand.
func NewStore(resolver ServiceResolver) *Store {
	return &Store{
		resolver: resolver,
		edges:    make(map[string]*Dependency),
		bySource: make(map[string][]*Dependency),
		byTarget: make(map[string][]*Dependency),
	}
}

// AddDependency inserts a directed edge after validating both endpoints
// and running cycle detection.
//
// Description:
//
//	Before the edge is committed, the cycle detector runs a BFS from
//	target over outgoing edges. If source is reachable, the new edge
//	closes a cycle and is stored with IsCircular = true, with severity
//	assigned by the cycle policy (see cycleSeverity). Non-circular edges
//	default to medium severity. Duplicate (source, target, type) edges
//	are accepted as distinct records; dedup is a query-time concern.
//	Self-loops are allowed and treated as a degenerate cycle of length 1.
//
// Inputs:
//
//	ctx - Context for endpoint resolution.
//	source, target - Service ids; both must resolve or the insert fails
//	with a registry NotFoundError.
//	depType - One of the known dependency types.
//	sourceType, targetType - Entity kinds of the endpoints ("service"
//	when empty).
//
// Outputs:
//
//	*Dependency - The committed edge (a copy safe to retain).
//	error - Non-nil on unknown type or unresolvable endpoint.
func (s *Store) AddDependency(ctx context.Context, source, target string, depType DependencyType, sourceType, targetType string) (*Dependency, error) {
	start := time.Now()

	if !depType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDependencyType, depType)
	}
	if _, err := s.resolver.ResolveService(ctx, source); err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}
	if _, err := s.resolver.ResolveService(ctx, target); err != nil {
		return nil, fmt.Errorf("resolve target: %w", err)
	}
	if sourceType == "" {
		sourceType = "service"
	}
	if targetType == "" {
		targetType = "service"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Cycle detection runs inside the write-locked section so a
	// concurrent traversal can never observe the half-inserted edge.
	closes, returnPath := s.pathLengthLocked(target, source)

	dep := &Dependency{
		ID:         uuid.NewString(),
		SourceID:   source,
		TargetID:   target,
		SourceType: sourceType,
		TargetType: targetType,
		Type:       depType,
		Severity:   SeverityMedium,
		CreatedAt:  time.Now().UTC(),
		seq:        s.nextSeq,
	}
	s.nextSeq++

	if closes {
		dep.IsCircular = true
		dep.Severity = cycleSeverity(depType, returnPath)

		// A mutual pair must end with both edges circular. Retro-flag
		// the pre-existing reverse edges; they keep their severity so
		// the pair carries exactly one record at the cycle severity.
		if returnPath == 1 {
			for _, rev := range s.bySource[target] {
				if rev.TargetID == source && !rev.IsCircular {
					rev.IsCircular = true
				}
			}
		}
	}

	s.edges[dep.ID] = dep
	s.bySource[source] = append(s.bySource[source], dep)
	s.byTarget[target] = append(s.byTarget[target], dep)
	s.generation++

	observeMutation(ctx, "add_dependency", time.Since(start), dep.IsCircular)
	if dep.IsCircular {
		slog.Warn("circular dependency detected",
			"dependency_id", dep.ID,
			"source_id", source,
			"target_id", target,
			"dependency_type", string(depType),
			"severity", string(dep.Severity),
			"cycle_return_path", returnPath)
	}

	out := *dep
	return &out, nil
}

// RemoveDependency deletes an edge by id.
//
// Removing a circular edge does NOT re-validate the remaining edges of
// the former cycle: is_circular is sticky by policy. The skipped re-scan
// is surfaced as an informational log and counter, never as a failure.
func (s *Store) RemoveDependency(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dep, ok := s.edges[id]
	if !ok {
		return &registry.NotFoundError{Kind: "dependency", ID: id}
	}
	delete(s.edges, id)
	s.bySource[dep.SourceID] = removeEdge(s.bySource[dep.SourceID], id)
	s.byTarget[dep.TargetID] = removeEdge(s.byTarget[dep.TargetID], id)
	s.generation++

	if dep.IsCircular {
		s.revalidationsSkipped++
		slog.Info("removed circular dependency",
			"dependency_id", id,
			"condition", ErrCycleRevalidationSkipped.Error())
	}
	observeMutation(ctx, "remove_dependency", 0, false)
	return nil
}

// Neighbors returns the edges adjacent to a service in one direction.
//
// DirOutgoing returns edges the service depends on; DirIncoming returns
// edges of services that depend on it. O(degree). Results are copies in
// insertion order.
func (s *Store) Neighbors(id string, dir Direction) ([]*Dependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var adj []*Dependency
	switch dir {
	case DirOutgoing:
		adj = s.bySource[id]
	case DirIncoming:
		adj = s.byTarget[id]
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	return copyEdges(adj), nil
}

// AllCircular returns circular edges ordered most-severe-first, ties
// broken by insertion order. A limit <= 0 means no limit.
func (s *Store) AllCircular(limit int) []*Dependency {
	s.mu.RLock()
	defer s.mu.RUnlock()

	circular := make([]*Dependency, 0)
	for _, dep := range s.edges {
		if dep.IsCircular {
			cp := *dep
			circular = append(circular, &cp)
		}
	}
	sort.Slice(circular, func(i, j int) bool {
		ri, rj := circular[i].Severity.Rank(), circular[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return circular[i].seq < circular[j].seq
	})
	if limit > 0 && len(circular) > limit {
		circular = circular[:limit]
	}
	return circular
}

// Generation returns the structural mutation counter. Cached query
// layers compare generations to invalidate without write callbacks.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// EdgeCount returns the number of edges in the graph.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// RevalidationsSkipped returns how many circular-edge deletions skipped
// the cycle re-scan. Exposed for the stats endpoint.
func (s *Store) RevalidationsSkipped() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revalidationsSkipped
}

// Clear removes every edge. Part of the reset-on-demand lifecycle.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edges = make(map[string]*Dependency)
	s.bySource = make(map[string][]*Dependency)
	s.byTarget = make(map[string][]*Dependency)
	s.nextSeq = 0
	s.generation++
}

// LoadEcosystem bulk-inserts edges from an ecosystem document.
//
// Each edge goes through the full AddDependency path so cycle detection
// applies; the bulk path is infrequent, so the O(V+E) per-insert cost is
// acceptable. Edges whose endpoints fail to resolve are skipped with a
// warning.
func (s *Store) LoadEcosystem(ctx context.Context, edges []registry.EcosystemEdge) int {
	loaded := 0
	for _, e := range edges {
		depType := DependencyType(e.DependencyType)
		if e.DependencyType == "" {
			depType = DepRuntime
		}
		if _, err := s.AddDependency(ctx, e.SourceID, e.TargetID, depType, e.SourceType, e.TargetType); err != nil {
			slog.Warn("skipping dependency during ecosystem load",
				"source_id", e.SourceID, "target_id", e.TargetID, "error", err)
			continue
		}
		loaded++
	}
	return loaded
}

// removeEdge drops the edge with the given id from an adjacency slice.
func removeEdge(adj []*Dependency, id string) []*Dependency {
	for i, dep := range adj {
		if dep.ID == id {
			return append(adj[:i], adj[i+1:]...)
		}
	}
	return adj
}

// copyEdges returns value copies of an adjacency slice.
func copyEdges(adj []*Dependency) []*Dependency {
	out := make([]*Dependency, 0, len(adj))
	for _, dep := range adj {
		cp := *dep
		out = append(out, &cp)
	}
	return out
}
