// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command topology starts the Aleutian Atlas topology HTTP server.
//
// This is the main entry point for the containerized topology service.
// It reads configuration from an optional YAML file plus environment
// variables and starts the server.
//
// # Environment Variables
//
//   - TOPOLOGY_CONFIG: Path to a YAML configuration file (optional)
//   - TOPOLOGY_PORT: HTTP server port (default: 8086)
//   - TOPOLOGY_TRACE_STORE_PATH: Trace retention directory (default: data/traces)
//   - TOPOLOGY_TRACE_RETENTION: Trace TTL, e.g. "24h" (negative disables expiry)
//   - TOPOLOGY_RADIUS_THRESHOLD: Blast radius above which circuit breakers are recommended
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (optional)
//   - GIN_MODE: Gin framework mode - debug, release, test (default: release)
//   - TOPOLOGY_LOG_DIR: Directory for daily JSON log files (optional)
//
// # Usage
//
//	# Build
//	go build -o topology ./cmd/topology
//
//	# Run
//	./topology
//
//	# Or with a config file
//	TOPOLOGY_CONFIG=deploy/topology.yaml ./topology
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/AleutianAI/AleutianAtlas/pkg/logging"
	"github.com/AleutianAI/AleutianAtlas/services/topology"
	"github.com/AleutianAI/AleutianAtlas/services/topology/config"
)

func main() {
	// Setup structured logging
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		Service: "topology",
		LogDir:  os.Getenv("TOPOLOGY_LOG_DIR"),
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cfg, err := config.Load(os.Getenv("TOPOLOGY_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slog.Info("Starting topology service",
		"port", cfg.Server.Port,
		"trace_store", cfg.TraceStore.Path,
		"otlp_endpoint", cfg.Telemetry.OTLPEndpoint,
	)

	svc, err := topology.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create topology service: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Topology service error: %v", err)
	}
}
