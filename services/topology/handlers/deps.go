// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP handlers for the topology service.
//
// Handlers are thin: bind, validate, call the owning component, map the
// error. All domain behavior lives in registry, graph, and engine.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianAtlas/pkg/validation"
	"github.com/AleutianAI/AleutianAtlas/services/topology/datatypes"
	"github.com/AleutianAI/AleutianAtlas/services/topology/engine"
	"github.com/AleutianAI/AleutianAtlas/services/topology/graph"
	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
	"github.com/AleutianAI/AleutianAtlas/services/topology/storage/badgerstore"
)

// Deps carries the components the handlers operate on.
//
// Everything is injected at startup; handlers hold no state of their
// own. Traces may be nil when trace retention is disabled; execution
// endpoints still work, retrieval endpoints answer 503.
type Deps struct {
	Registry    *registry.Store
	Graph       *graph.Store
	Resolver    *graph.Resolver
	Simulator   *graph.Simulator
	Synthesizer *engine.Synthesizer
	Traces      *badgerstore.Store
}

// respondError maps a domain error onto the HTTP taxonomy.
//
// NotFound -> 404, duplicate ids -> 409, invalid inputs (flow structure,
// dependency type, query depth, failure step, field validation) -> 400,
// everything else -> 500 with a generic body; internals go to the log,
// not the client.
func respondError(c *gin.Context, err error) {
	var verr validator.ValidationErrors

	switch {
	case errors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: err.Error()})
	case errors.Is(err, registry.ErrDuplicateID):
		c.JSON(http.StatusConflict, datatypes.ErrorResponse{Error: err.Error()})
	case errors.Is(err, engine.ErrInvalidFlow),
		errors.Is(err, engine.ErrInvalidFailureStep),
		errors.Is(err, graph.ErrInvalidDependencyType),
		errors.Is(err, graph.ErrInvalidDirection),
		errors.Is(err, graph.ErrInvalidDepth),
		errors.Is(err, validation.ErrInvalidID),
		errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError,
			datatypes.ErrorResponse{Error: "internal error"})
	}
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
