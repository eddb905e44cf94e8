// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command atlas is the CLI for the Aleutian Atlas topology service.
//
// It can run the server in-process (atlas serve) or act as an HTTP
// client against a running instance (atlas load, deps, circular,
// simulate, execute).
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "A CLI to manage the Aleutian Atlas dependency intelligence service",
	Long: `Atlas models service ecosystems: dependency graphs with cycle
detection, blast-radius analysis, failure simulation, and synthetic
flow execution traces.`,
}

// serverURL is the base URL of a running topology service, shared by
// every client command.
var serverURL string

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	defaultURL := os.Getenv("ATLAS_SERVER_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8086"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL,
		"Base URL of the topology service (env: ATLAS_SERVER_URL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(circularCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(statsCmd)
}
