// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianAtlas/services/topology/handlers"
)

// SetupRoutes wires the topology API onto the router.
func SetupRoutes(router *gin.Engine, deps *handlers.Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.GET("/stats", handlers.Stats(deps))
		v1.POST("/reset", handlers.Reset(deps))
		v1.POST("/ecosystem/load", handlers.LoadEcosystem(deps))

		// Entity registration
		services := v1.Group("/services")
		{
			services.POST("", handlers.RegisterService(deps))
			services.GET("", handlers.ListServices(deps))
			services.GET("/:id", handlers.GetService(deps))
			services.GET("/:id/dependencies", handlers.QueryDependencies(deps))
			services.POST("/:id/simulate-failure", handlers.SimulateFailure(deps))
		}

		// Dependency graph
		dependencies := v1.Group("/dependencies")
		{
			dependencies.POST("", handlers.AddDependency(deps))
			dependencies.DELETE("/:id", handlers.RemoveDependency(deps))
			dependencies.GET("/circular", handlers.ListCircular(deps))
		}

		// Flow execution
		flows := v1.Group("/flows")
		{
			flows.POST("", handlers.RegisterFlow(deps))
			flows.GET("", handlers.ListFlows(deps))
			flows.POST("/execute-all", handlers.ExecuteAllFlows(deps))
			flows.POST("/:id/execute", handlers.ExecuteFlow(deps))
			flows.GET("/:id/traces", handlers.ListFlowTraces(deps))
		}

		v1.GET("/traces/:traceId", handlers.GetTrace(deps))
	}
}
