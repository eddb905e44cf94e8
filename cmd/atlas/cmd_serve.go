// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianAtlas/pkg/logging"
	"github.com/AleutianAI/AleutianAtlas/services/topology"
	"github.com/AleutianAI/AleutianAtlas/services/topology/config"
)

var (
	serveConfigPath string
	serveLogDir     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the topology service in-process",
	Long: `Starts the topology HTTP server with configuration from an optional
YAML file plus environment variables (TOPOLOGY_PORT, GIN_MODE,
TOPOLOGY_TRACE_STORE_PATH, TOPOLOGY_TRACE_RETENTION,
OTEL_EXPORTER_OTLP_ENDPOINT, TOPOLOGY_RADIUS_THRESHOLD).`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", os.Getenv("TOPOLOGY_CONFIG"),
		"Path to a YAML configuration file (env: TOPOLOGY_CONFIG)")
	serveCmd.Flags().StringVar(&serveLogDir, "log-dir", "",
		"Directory for daily JSON log files (default: stderr only)")
}

func runServe(cmd *cobra.Command, args []string) {
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		Service: "topology",
		LogDir:  serveLogDir,
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	svc, err := topology.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create topology service: %v", err)
	}
	if err := svc.Run(); err != nil {
		log.Fatalf("Topology service error: %v", err)
	}
}
