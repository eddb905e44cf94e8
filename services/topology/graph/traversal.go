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
	"time"
)

// Traversal is the read-only multi-depth query engine over the Store.
//
// Description:
//
//	Implements the three query modes, strictly additive in detail:
//	Direct (immediate neighbors), Transitive (full BFS over outgoing
//	edges), and BlastRadius (BFS over incoming edges with per-hop
//	severity attenuation). Every traversal runs under the store's shared
//	lock for its full duration, so it observes a consistent snapshot and
//	can run concurrently with other reads but never with a mutation.
//
// All three modes exclude the root service itself from its own result
// set, and all are cycle-safe: a visited node is never re-queued, which
// also bounds wall-clock cost, so termination needs no external timeout.
type Traversal struct {
	store    *Store
	resolver ServiceResolver
}

// NewTraversal creates a traversal engine over the given store.
func NewTraversal(store *Store, resolver ServiceResolver) *Traversal {
	return &Traversal{store: store, resolver: resolver}
}

// Direct returns the immediate neighbors of a service.
//
// DependsOn holds outgoing edges, DependedOnBy incoming edges. O(degree).
// An unknown service id fails with a registry NotFoundError.
func (t *Traversal) Direct(ctx context.Context, serviceID string) (*DirectResult, error) {
	start := time.Now()
	if _, err := t.resolver.ResolveService(ctx, serviceID); err != nil {
		return nil, err
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	res := &DirectResult{
		ServiceID:    serviceID,
		DependsOn:    copyEdges(t.store.bySource[serviceID]),
		DependedOnBy: copyEdges(t.store.byTarget[serviceID]),
	}
	observeQuery(ctx, "direct", time.Since(start), len(res.DependsOn)+len(res.DependedOnBy))
	return res, nil
}

// Transitive returns every service reachable from the root over outgoing
// edges.
//
// Description:
//
//	Full BFS with a visited set keyed by service id: each reachable
//	service appears exactly once, depth is unbounded, and cycles cannot
//	re-queue a node. The result carries the distinct count but no
//	per-node depth; that detail belongs to the blast-radius mode.
//	Transitive(S) is always a superset of Direct(S).DependsOn targets.
func (t *Traversal) Transitive(ctx context.Context, serviceID string) (*TransitiveResult, error) {
	start := time.Now()
	if _, err := t.resolver.ResolveService(ctx, serviceID); err != nil {
		return nil, err
	}

	t.store.mu.RLock()
	visited := map[string]bool{serviceID: true}
	order := make([]string, 0)
	queue := []string{serviceID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range t.store.bySource[cur] {
			next := dep.TargetID
			if !visited[next] {
				visited[next] = true
				order = append(order, next)
				queue = append(queue, next)
			}
		}
	}
	t.store.mu.RUnlock()

	res := &TransitiveResult{ServiceID: serviceID}
	for _, id := range order {
		name := t.lookupName(ctx, id)
		res.Services = append(res.Services, ReachableService{ID: id, Name: name})
	}
	res.TransitiveCount = len(res.Services)
	observeQuery(ctx, "transitive", time.Since(start), res.TransitiveCount)
	return res, nil
}

// BlastRadius answers "who breaks if this service fails, and how badly".
//
// Description:
//
//	BFS over incoming edges from the target: each discovered service
//	records hops_away at first visit (BFS explores by increasing depth,
//	so the first visit is the shortest path and the hop is never
//	revised). Severity attenuates strictly with distance: hop 1 is
//	critical, hop 2 high, hop 3 medium, hop 4 and beyond low.
//
// Outputs:
//
//	*BlastRadius - Affected services in (hop, discovery) order with
//	Radius = distinct count and MaxCascadeDepth = maximum hop observed.
//	error - registry NotFoundError when the root id is unknown.
func (t *Traversal) BlastRadius(ctx context.Context, serviceID string) (*BlastRadius, error) {
	start := time.Now()
	root, err := t.resolver.ResolveService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	type item struct {
		id    string
		depth int
	}

	t.store.mu.RLock()
	visited := map[string]bool{serviceID: true}
	discovered := make([]item, 0)
	queue := []item{{id: serviceID, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range t.store.byTarget[cur.id] {
			src := dep.SourceID
			if !visited[src] {
				visited[src] = true
				next := item{id: src, depth: cur.depth + 1}
				discovered = append(discovered, next)
				queue = append(queue, next)
			}
		}
	}
	t.store.mu.RUnlock()

	res := &BlastRadius{
		ServiceID:   serviceID,
		ServiceName: root.Name,
		Affected:    make([]AffectedService, 0, len(discovered)),
	}
	for _, d := range discovered {
		res.Affected = append(res.Affected, AffectedService{
			ID:       d.id,
			Name:     t.lookupName(ctx, d.id),
			HopsAway: d.depth,
			Severity: hopSeverity(d.depth),
		})
		if d.depth > res.MaxCascadeDepth {
			res.MaxCascadeDepth = d.depth
		}
	}
	res.Radius = len(res.Affected)
	observeQuery(ctx, "blast_radius", time.Since(start), res.Radius)
	return res, nil
}

// hopSeverity maps a BFS hop count to attenuating impact severity.
func hopSeverity(hops int) Severity {
	switch {
	case hops <= 1:
		return SeverityCritical
	case hops == 2:
		return SeverityHigh
	case hops == 3:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// lookupName resolves a service name, falling back to the id when the
// record has gone missing between traversal and resolution.
func (t *Traversal) lookupName(ctx context.Context, id string) string {
	ref, err := t.resolver.ResolveService(ctx, id)
	if err != nil {
		return fmt.Sprintf("unknown(%s)", id)
	}
	return ref.Name
}
