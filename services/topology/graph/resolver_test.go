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
)

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	s, reg, ids := newTestGraph(t, "api", "db", "replica")
	r := NewResolver(s, NewTraversal(s, reg))

	mustAdd(t, s, ids["api"], ids["db"], DepRuntime)
	mustAdd(t, s, ids["db"], ids["replica"], DepData)

	t.Run("direct depth carries only direct results", func(t *testing.T) {
		res, err := r.Resolve(ctx, ids["api"], DepthDirect)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if res.Direct == nil || res.Transitive != nil || res.Blast != nil {
			t.Errorf("direct depth: want only Direct populated, got %+v", res)
		}
	})

	t.Run("blast-radius depth carries all three views", func(t *testing.T) {
		res, err := r.Resolve(ctx, ids["api"], DepthBlastRadius)
		if err != nil {
			t.Fatal(err)
		}
		if res.Direct == nil || res.Transitive == nil || res.Blast == nil {
			t.Errorf("blast-radius depth must populate every view, got %+v", res)
		}
		if res.Transitive.TransitiveCount != 2 {
			t.Errorf("expected 2 transitive services, got %d", res.Transitive.TransitiveCount)
		}
	})

	t.Run("rejects unknown depth", func(t *testing.T) {
		if _, err := r.Resolve(ctx, ids["api"], QueryDepth("psychic")); !errors.Is(err, ErrInvalidDepth) {
			t.Errorf("expected ErrInvalidDepth, got %v", err)
		}
	})
}

func TestResolver_CacheInvalidationByGeneration(t *testing.T) {
	ctx := context.Background()
	s, reg, ids := newTestGraph(t, "api", "db", "cache")
	r := NewResolver(s, NewTraversal(s, reg))

	mustAdd(t, s, ids["api"], ids["db"], DepRuntime)

	first, err := r.Resolve(ctx, ids["api"], DepthTransitive)
	if err != nil {
		t.Fatal(err)
	}

	// Second identical query hits the cache.
	cached, err := r.Resolve(ctx, ids["api"], DepthTransitive)
	if err != nil {
		t.Fatal(err)
	}
	if cached != first {
		t.Error("unchanged graph: expected the cached resolution instance")
	}
	if hits, _ := r.CacheStats(); hits != 1 {
		t.Errorf("expected 1 cache hit, got %d", hits)
	}

	// A mutation bumps the generation, so the next query misses the
	// cache and sees the new edge. No explicit invalidation required.
	mustAdd(t, s, ids["api"], ids["cache"], DepRuntime)

	fresh, err := r.Resolve(ctx, ids["api"], DepthTransitive)
	if err != nil {
		t.Fatal(err)
	}
	if fresh == first {
		t.Fatal("post-mutation resolve must not reuse the stale entry")
	}
	if fresh.Transitive.TransitiveCount != 2 {
		t.Errorf("expected fresh traversal with 2 services, got %d", fresh.Transitive.TransitiveCount)
	}

	t.Run("purge keeps subsequent queries correct", func(t *testing.T) {
		r.Invalidate()
		res, err := r.Resolve(ctx, ids["api"], DepthTransitive)
		if err != nil {
			t.Fatal(err)
		}
		if res.Transitive.TransitiveCount != 2 {
			t.Errorf("expected 2 services after purge, got %d", res.Transitive.TransitiveCount)
		}
	})
}

func TestLRUCache(t *testing.T) {
	c := newLRUCache[string, int](2)

	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a): want 1, got %d ok=%v", v, ok)
	}

	// "b" is now least-recently used and must be evicted by "c".
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry must survive eviction")
	}

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("stats: want hits=2 misses=1, got hits=%d misses=%d", hits, misses)
	}

	c.Purge()
	if _, ok := c.Get("a"); ok {
		t.Error("purge must drop every entry")
	}
}
