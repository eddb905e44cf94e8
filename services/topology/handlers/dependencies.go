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
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAtlas/services/topology/datatypes"
	"github.com/AleutianAI/AleutianAtlas/services/topology/graph"
)

// AddDependency handles POST /v1/dependencies.
//
// The response carries the committed edge; a 201 with is_circular=true
// is the cycle-detection signal, not an error.
func AddDependency(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.AddDependencyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			respondError(c, err)
			return
		}

		dep, err := deps.Graph.AddDependency(c.Request.Context(),
			req.SourceID, req.TargetID,
			graph.DependencyType(req.DependencyType),
			req.SourceType, req.TargetType)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, dep)
	}
}

// RemoveDependency handles DELETE /v1/dependencies/:id.
func RemoveDependency(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := deps.Graph.RemoveDependency(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "removed", "dependency_id": c.Param("id")})
	}
}

// QueryDependencies handles GET /v1/services/:id/dependencies.
//
// The depth query parameter selects the resolution mode: direct
// (default), transitive, or blast-radius. Results come through the
// cached resolver.
func QueryDependencies(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		depth := graph.QueryDepth(c.DefaultQuery("depth", string(graph.DepthDirect)))

		res, err := deps.Resolver.Resolve(c.Request.Context(), c.Param("id"), depth)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// ListCircular handles GET /v1/dependencies/circular.
//
// Returns edges flagged circular at insertion time, most severe first.
func ListCircular(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "limit must be a non-negative integer"})
				return
			}
			limit = n
		}

		circular := deps.Graph.AllCircular(limit)
		c.JSON(http.StatusOK, gin.H{
			"circular_dependencies": circular,
			"count":                 len(circular),
		})
	}
}
