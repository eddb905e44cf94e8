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
)

// SimulateFailure handles POST /v1/services/:id/simulate-failure.
//
// Simulation is read-only over the graph: repeated calls on an
// unchanged topology return byte-identical reports.
func SimulateFailure(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sim, err := deps.Simulator.Simulate(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		slog.Info("simulated failure", "service_id", sim.ServiceID,
			"blast_radius", sim.BlastRadius, "max_cascade_depth", sim.MaxCascadeDepth)
		c.JSON(http.StatusOK, sim)
	}
}
