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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// QueryDepth selects a dependency resolution mode.
type QueryDepth string

// Query depths, strictly additive in detail.
const (
	DepthDirect      QueryDepth = "direct"
	DepthTransitive  QueryDepth = "transitive"
	DepthBlastRadius QueryDepth = "blast-radius"
)

// Valid reports whether d is a known query depth.
func (d QueryDepth) Valid() bool {
	switch d {
	case DepthDirect, DepthTransitive, DepthBlastRadius:
		return true
	default:
		return false
	}
}

// Resolution is the combined answer for a QueryDependencies call.
//
// Direct is always present; Transitive when depth is transitive or
// blast-radius; Blast only for blast-radius.
type Resolution struct {
	ServiceID  string            `json:"service_id"`
	Depth      QueryDepth        `json:"depth"`
	Direct     *DirectResult     `json:"direct"`
	Transitive *TransitiveResult `json:"transitive,omitempty"`
	Blast      *BlastRadius      `json:"blast_radius,omitempty"`
}

// Resolver answers dependency queries with LRU-cached hot paths.
//
// Description:
//
//	Wraps the traversal engine and memoizes resolutions keyed by
//	(service, depth, graph generation). A structural mutation bumps the
//	store's generation, so stale entries simply stop matching: no write
//	callback is needed and no stale read is possible.
//
// Thread Safety: safe for concurrent use.
type Resolver struct {
	store     *Store
	traversal *Traversal
	cache     *lruCache[string, *Resolution]
}

// DefaultResolverCacheSize bounds the resolution cache.
const DefaultResolverCacheSize = 1024

// NewResolver creates a cached dependency resolver.
func NewResolver(store *Store, traversal *Traversal) *Resolver {
	return &Resolver{
		store:     store,
		traversal: traversal,
		cache:     newLRUCache[string, *Resolution](DefaultResolverCacheSize),
	}
}

// Resolve answers a dependency query at the requested depth.
//
// Inputs:
//
//	serviceID - Root service; unknown ids fail with NotFoundError.
//	depth - direct, transitive, or blast-radius.
//
// Outputs:
//
//	*Resolution - Complete, internally consistent result. Partial
//	results are never returned: any traversal error aborts the call.
func (r *Resolver) Resolve(ctx context.Context, serviceID string, depth QueryDepth) (*Resolution, error) {
	ctx, span := tracer.Start(ctx, "graph.Resolve", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String("service.id", serviceID),
		attribute.String("query.depth", string(depth)),
	)

	if !depth.Valid() {
		err := fmt.Errorf("%w: %q", ErrInvalidDepth, depth)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	gen := r.store.Generation()
	key := fmt.Sprintf("%s:%s:%d", serviceID, depth, gen)
	if cached, ok := r.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	res := &Resolution{ServiceID: serviceID, Depth: depth}

	direct, err := r.traversal.Direct(ctx, serviceID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res.Direct = direct

	if depth == DepthTransitive || depth == DepthBlastRadius {
		trans, err := r.traversal.Transitive(ctx, serviceID)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		res.Transitive = trans
	}
	if depth == DepthBlastRadius {
		blast, err := r.traversal.BlastRadius(ctx, serviceID)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		res.Blast = blast
	}

	r.cache.Set(key, res)
	return res, nil
}

// Invalidate drops every cached resolution. Generation keying already
// protects correctness; this only frees memory after bulk clears.
func (r *Resolver) Invalidate() {
	r.cache.Purge()
}

// CacheStats returns cache hit/miss counters for the stats endpoint.
func (r *Resolver) CacheStats() (hits, misses int64) {
	return r.cache.Stats()
}
