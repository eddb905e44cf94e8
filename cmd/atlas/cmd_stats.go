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
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianAtlas/services/topology/datatypes"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show topology counters for a running instance",
	Args:  cobra.NoArgs,
	Run:   runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false,
		"Output as JSON for scripting")
}

func runStats(cmd *cobra.Command, args []string) {
	var stats datatypes.StatsResponse
	if err := getJSON("/v1/stats", &stats); err != nil {
		log.Fatalf("Error fetching stats: %v", err)
	}

	if statsJSON {
		if err := printJSON(stats); err != nil {
			log.Fatalf("Error encoding output: %v", err)
		}
		return
	}

	fmt.Printf("services:              %d\n", stats.Services)
	fmt.Printf("flows:                 %d\n", stats.Flows)
	fmt.Printf("dependencies:          %d\n", stats.Dependencies)
	fmt.Printf("circular dependencies: %d\n", stats.CircularDependencies)
	fmt.Printf("graph generation:      %d\n", stats.GraphGeneration)
	fmt.Printf("revalidations skipped: %d\n", stats.RevalidationsSkipped)
	fmt.Printf("cache hits/misses:     %d/%d\n", stats.CacheHits, stats.CacheMisses)
	if stats.StoredTraces > 0 {
		fmt.Printf("stored traces:         %d\n", stats.StoredTraces)
	}
}
