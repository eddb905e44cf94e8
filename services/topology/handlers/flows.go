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
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAtlas/services/topology/datatypes"
	"github.com/AleutianAI/AleutianAtlas/services/topology/engine"
)

// RegisterFlow handles POST /v1/flows.
func RegisterFlow(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.RegisterFlowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			respondError(c, err)
			return
		}

		flow, err := deps.Registry.AddFlow(req.ToFlow())
		if err != nil {
			respondError(c, err)
			return
		}
		slog.Info("registered flow", "flow_id", flow.ID, "name", flow.Name, "steps", len(flow.Steps))
		c.JSON(http.StatusCreated, flow)
	}
}

// ListFlows handles GET /v1/flows.
func ListFlows(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"flows": deps.Registry.ListFlows()})
	}
}

// ExecuteFlow handles POST /v1/flows/:id/execute.
//
// The synthesized trace is returned to the caller and, when retention
// is enabled, persisted for later retrieval. A persistence failure does
// not fail the execution; the trace was already produced.
func ExecuteFlow(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The body is optional: a bare execute runs with defaults.
		var req datatypes.ExecuteFlowRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body: " + err.Error()})
				return
			}
			if err := req.Validate(); err != nil {
				respondError(c, err)
				return
			}
		}

		ctx := c.Request.Context()
		flow, err := deps.Registry.ResolveFlow(ctx, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		trace, err := deps.Synthesizer.Execute(ctx, flow, engine.Options{
			Environment:   req.Environment,
			InjectFailure: req.InjectFailure,
			FailureStep:   req.FailureStep,
			Seed:          req.Seed,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		if deps.Traces != nil {
			if err := deps.Traces.Put(ctx, trace); err != nil {
				slog.Warn("failed to persist trace", "trace_id", trace.TraceID, "error", err)
			}
		}
		c.JSON(http.StatusOK, trace)
	}
}

// ExecuteAllFlows handles POST /v1/flows/execute-all.
//
// Runs every registered flow with the same options and returns the
// traces in flow order. Flows that cannot execute are skipped.
func ExecuteAllFlows(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ExecuteFlowRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body: " + err.Error()})
				return
			}
			if err := req.Validate(); err != nil {
				respondError(c, err)
				return
			}
		}

		ctx := c.Request.Context()
		traces, err := deps.Synthesizer.ExecuteAll(ctx, deps.Registry.ListFlows(), engine.Options{
			Environment:   req.Environment,
			InjectFailure: req.InjectFailure,
			FailureStep:   req.FailureStep,
			Seed:          req.Seed,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		if deps.Traces != nil {
			for _, trace := range traces {
				if err := deps.Traces.Put(ctx, trace); err != nil {
					slog.Warn("failed to persist trace", "trace_id", trace.TraceID, "error", err)
				}
			}
		}
		c.JSON(http.StatusOK, gin.H{"traces": traces, "count": len(traces)})
	}
}

// GetTrace handles GET /v1/traces/:traceId.
func GetTrace(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Traces == nil {
			c.JSON(http.StatusServiceUnavailable,
				datatypes.ErrorResponse{Error: "trace retention is disabled"})
			return
		}
		trace, err := deps.Traces.Get(c.Request.Context(), c.Param("traceId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, trace)
	}
}

// ListFlowTraces handles GET /v1/flows/:id/traces.
func ListFlowTraces(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Traces == nil {
			c.JSON(http.StatusServiceUnavailable,
				datatypes.ErrorResponse{Error: "trace retention is disabled"})
			return
		}

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "limit must be a non-negative integer"})
				return
			}
			limit = n
		}

		traces, err := deps.Traces.ListByFlow(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"traces": traces, "count": len(traces)})
	}
}
