// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAtlas/services/topology/datatypes"
	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
)

// LoadEcosystem handles POST /v1/ecosystem/load.
//
// Description:
//
//	Bulk-loads a whole ecosystem document: services and flows into the
//	registry, then dependencies into the graph (so edge endpoints can
//	resolve). Duplicate entities and unresolvable edges are skipped with
//	warnings; the response reports what actually committed.
func LoadEcosystem(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var doc registry.EcosystemDoc
		if err := c.ShouldBindJSON(&doc); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid ecosystem document: " + err.Error()})
			return
		}
		if len(doc.Services) > datatypes.MaxEcosystemServices {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "ecosystem exceeds the service limit"})
			return
		}

		counts := deps.Registry.LoadEcosystem(&doc)
		edges := deps.Graph.LoadEcosystem(c.Request.Context(), doc.Dependencies)

		slog.Info("loaded ecosystem",
			"services", counts["services"],
			"flows", counts["flows"],
			"dependencies", edges)
		c.JSON(http.StatusOK, datatypes.LoadEcosystemResponse{
			Services:     counts["services"],
			Flows:        counts["flows"],
			Dependencies: edges,
		})
	}
}

// Reset handles POST /v1/reset.
//
// Clears the registry, the graph, and the resolver cache. Retained
// traces survive a reset; they describe past executions.
func Reset(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps.Registry.Reset()
		deps.Graph.Clear()
		deps.Resolver.Invalidate()

		slog.Info("reset topology state")
		c.JSON(http.StatusOK, gin.H{"status": "reset"})
	}
}

// Stats handles GET /v1/stats.
func Stats(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		overview := deps.Registry.Overview()
		hits, misses := deps.Resolver.CacheStats()

		res := datatypes.StatsResponse{
			Services:             overview["services"],
			Flows:                overview["flows"],
			Dependencies:         deps.Graph.EdgeCount(),
			CircularDependencies: len(deps.Graph.AllCircular(0)),
			GraphGeneration:      deps.Graph.Generation(),
			RevalidationsSkipped: deps.Graph.RevalidationsSkipped(),
			CacheHits:            hits,
			CacheMisses:          misses,
		}
		if deps.Traces != nil {
			if n, err := deps.Traces.Count(c.Request.Context()); err == nil {
				res.StoredTraces = n
			}
		}
		c.JSON(http.StatusOK, res)
	}
}
