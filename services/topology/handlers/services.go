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
)

// RegisterService handles POST /v1/services.
func RegisterService(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.RegisterServiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			respondError(c, err)
			return
		}

		svc, err := deps.Registry.AddService(req.ToService())
		if err != nil {
			respondError(c, err)
			return
		}
		slog.Info("registered service", "service_id", svc.ID, "name", svc.Name)
		c.JSON(http.StatusCreated, svc)
	}
}

// ListServices handles GET /v1/services.
func ListServices(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"services": deps.Registry.ListServices()})
	}
}

// GetService handles GET /v1/services/:id.
func GetService(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, err := deps.Registry.GetService(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, svc)
	}
}
