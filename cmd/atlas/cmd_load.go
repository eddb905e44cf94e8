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

	"github.com/AleutianAI/AleutianAtlas/services/topology/config"
	"github.com/AleutianAI/AleutianAtlas/services/topology/datatypes"
)

var loadCmd = &cobra.Command{
	Use:   "load [ecosystem.yaml]",
	Short: "Load a service ecosystem definition into a running instance",
	Long: `Parses a YAML ecosystem document (services, flows, dependencies)
and bulk-loads it into the topology service. Records that collide with
existing ids or reference unknown services are skipped, not fatal.

Examples:
  atlas load examples/payments.yaml
  atlas load --server http://atlas.internal:8086 prod-topology.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runLoad,
}

func runLoad(cmd *cobra.Command, args []string) {
	doc, err := config.LoadEcosystemFile(args[0])
	if err != nil {
		log.Fatalf("Error reading ecosystem file: %v", err)
	}

	var loaded datatypes.LoadEcosystemResponse
	if err := postJSON("/v1/ecosystem/load", doc, &loaded); err != nil {
		log.Fatalf("Error loading ecosystem: %v", err)
	}

	fmt.Printf("Loaded %d services, %d flows, %d dependencies from %s\n",
		loaded.Services, loaded.Flows, loaded.Dependencies, args[0])
}
