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
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianAtlas/services/topology/graph"
)

var simulateJSON bool

var simulateCmd = &cobra.Command{
	Use:   "simulate [service-id]",
	Short: "Simulate a service failure and report the cascade",
	Long: `Computes the blast radius of a hypothetical failure: which services
are affected, how severely, at which cascade depth, and what mitigations
the topology suggests.

Examples:
  atlas simulate svc-payment
  atlas simulate svc-payment --json`,
	Args: cobra.ExactArgs(1),
	Run:  runSimulate,
}

func init() {
	simulateCmd.Flags().BoolVar(&simulateJSON, "json", false,
		"Output as JSON for scripting")
}

func runSimulate(cmd *cobra.Command, args []string) {
	var sim graph.FailureSimulation
	path := "/v1/services/" + url.PathEscape(args[0]) + "/simulate-failure"
	if err := postJSON(path, nil, &sim); err != nil {
		log.Fatalf("Error simulating failure: %v", err)
	}

	if simulateJSON {
		if err := printJSON(sim); err != nil {
			log.Fatalf("Error encoding output: %v", err)
		}
		return
	}

	fmt.Printf("Failure simulation for %s (%s)\n", sim.ServiceName, sim.ServiceID)
	fmt.Printf("  blast radius: %d services, max cascade depth %d\n",
		sim.BlastRadius, sim.MaxCascadeDepth)

	for _, sev := range []graph.Severity{
		graph.SeverityCritical, graph.SeverityHigh, graph.SeverityMedium, graph.SeverityLow,
	} {
		if n := sim.ImpactBySeverity[sev]; n > 0 {
			fmt.Printf("  %s: %d\n", sev, n)
		}
	}

	depths := make([]int, 0, len(sim.ImpactByDepth))
	for d := range sim.ImpactByDepth {
		depths = append(depths, d)
	}
	sort.Ints(depths)
	for _, d := range depths {
		fmt.Printf("  hop %d: %v\n", d, sim.ImpactByDepth[d])
	}

	if len(sim.Recommendations) > 0 {
		fmt.Println("  recommendations:")
		for _, rec := range sim.Recommendations {
			fmt.Printf("    - %s\n", rec)
		}
	}
}
