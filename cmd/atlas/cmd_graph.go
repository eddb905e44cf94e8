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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianAtlas/services/topology/graph"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	depsDepth string
	depsJSON  bool

	circularLimit int
	circularJSON  bool
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var depsCmd = &cobra.Command{
	Use:   "deps [service-id]",
	Short: "Query the dependencies of a service",
	Long: `Resolves a service's dependencies at the requested depth.

Depths:
  direct        Immediate edges in both directions (default)
  transitive    Everything reachable downstream
  blast-radius  Upstream dependents that fail if this service fails

Examples:
  atlas deps svc-payment
  atlas deps svc-payment --depth blast-radius
  atlas deps svc-payment --depth transitive --json`,
	Args: cobra.ExactArgs(1),
	Run:  runDeps,
}

var circularCmd = &cobra.Command{
	Use:   "circular",
	Short: "List circular dependencies ordered by severity",
	Args:  cobra.NoArgs,
	Run:   runCircular,
}

func init() {
	depsCmd.Flags().StringVar(&depsDepth, "depth", "direct",
		"Resolution depth: direct, transitive, blast-radius")
	depsCmd.Flags().BoolVar(&depsJSON, "json", false,
		"Output as JSON for scripting")

	circularCmd.Flags().IntVar(&circularLimit, "limit", 0,
		"Maximum cycles to report (0 = all)")
	circularCmd.Flags().BoolVar(&circularJSON, "json", false,
		"Output as JSON for scripting")
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

func runDeps(cmd *cobra.Command, args []string) {
	path := fmt.Sprintf("/v1/services/%s/dependencies?depth=%s",
		url.PathEscape(args[0]), url.QueryEscape(depsDepth))

	var res graph.Resolution
	if err := getJSON(path, &res); err != nil {
		log.Fatalf("Error querying dependencies: %v", err)
	}

	if depsJSON {
		if err := printJSON(res); err != nil {
			log.Fatalf("Error encoding output: %v", err)
		}
		return
	}

	fmt.Printf("Service %s (%s)\n", res.ServiceID, res.Depth)
	if res.Direct != nil {
		fmt.Printf("  depends on (%d):\n", len(res.Direct.DependsOn))
		for _, d := range res.Direct.DependsOn {
			marker := ""
			if d.IsCircular {
				marker = fmt.Sprintf("  [CIRCULAR %s]", d.Severity)
			}
			fmt.Printf("    -> %s (%s)%s\n", d.TargetID, d.Type, marker)
		}
		fmt.Printf("  depended on by (%d):\n", len(res.Direct.DependedOnBy))
		for _, d := range res.Direct.DependedOnBy {
			fmt.Printf("    <- %s (%s)\n", d.SourceID, d.Type)
		}
	}
	if res.Transitive != nil {
		fmt.Printf("  transitive closure: %d services\n", res.Transitive.TransitiveCount)
		for _, svc := range res.Transitive.Services {
			fmt.Printf("    %s (%s)\n", svc.ID, svc.Name)
		}
	}
	if res.Blast != nil {
		fmt.Printf("  blast radius: %d services, max cascade depth %d\n",
			res.Blast.Radius, res.Blast.MaxCascadeDepth)
		for _, a := range res.Blast.Affected {
			fmt.Printf("    %s: %d hops away, severity %s\n", a.ID, a.HopsAway, a.Severity)
		}
	}
}

func runCircular(cmd *cobra.Command, args []string) {
	var out struct {
		Circular []*graph.Dependency `json:"circular_dependencies"`
		Count    int                 `json:"count"`
	}
	path := fmt.Sprintf("/v1/dependencies/circular?limit=%d", circularLimit)
	if err := getJSON(path, &out); err != nil {
		log.Fatalf("Error listing circular dependencies: %v", err)
	}

	if circularJSON {
		if err := printJSON(out); err != nil {
			log.Fatalf("Error encoding output: %v", err)
		}
		return
	}

	if out.Count == 0 {
		fmt.Println("No circular dependencies detected.")
		return
	}
	fmt.Printf("%d circular dependencies:\n", out.Count)
	for _, d := range out.Circular {
		fmt.Printf("  [%s] %s -> %s (%s)\n", d.Severity, d.SourceID, d.TargetID, d.Type)
	}
}
