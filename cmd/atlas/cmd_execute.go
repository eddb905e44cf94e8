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

	"github.com/AleutianAI/AleutianAtlas/services/topology/datatypes"
	"github.com/AleutianAI/AleutianAtlas/services/topology/engine"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	executeAll         bool
	executeEnv         string
	executeInjectFail  bool
	executeFailureStep int
	executeSeed        int64
	executeJSON        bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var executeCmd = &cobra.Command{
	Use:   "execute [flow-id]",
	Short: "Execute a flow and print the synthesized trace",
	Long: `Runs a registered flow through the execution synthesizer, producing
an OpenTelemetry-shaped trace: one server span per step with realistic
timing, attributes, and optional injected failures.

Examples:
  atlas execute flow-checkout
  atlas execute flow-checkout --inject-failure --failure-step 2
  atlas execute --all --env staging
  atlas execute flow-checkout --seed 42 --json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runExecute,
}

func init() {
	executeCmd.Flags().BoolVar(&executeAll, "all", false,
		"Execute every registered flow")
	executeCmd.Flags().StringVar(&executeEnv, "env", "",
		"Deployment environment recorded on spans (default: prod)")
	executeCmd.Flags().BoolVar(&executeInjectFail, "inject-failure", false,
		"Inject a failure into the flow")
	executeCmd.Flags().IntVar(&executeFailureStep, "failure-step", 0,
		"Step to fail when injecting (0 = random)")
	executeCmd.Flags().Int64Var(&executeSeed, "seed", 0,
		"Deterministic timing seed (0 = wall clock)")
	executeCmd.Flags().BoolVar(&executeJSON, "json", false,
		"Output the full trace as JSON")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runExecute(cmd *cobra.Command, args []string) {
	req := datatypes.ExecuteFlowRequest{
		Environment:   executeEnv,
		InjectFailure: executeInjectFail,
		FailureStep:   executeFailureStep,
		Seed:          executeSeed,
	}

	switch {
	case executeAll:
		var out struct {
			Traces []*engine.Trace `json:"traces"`
			Count  int             `json:"count"`
		}
		if err := postJSON("/v1/flows/execute-all", req, &out); err != nil {
			log.Fatalf("Error executing flows: %v", err)
		}
		if executeJSON {
			if err := printJSON(out.Traces); err != nil {
				log.Fatalf("Error encoding output: %v", err)
			}
			return
		}
		fmt.Printf("Executed %d flows\n", out.Count)
		for _, trace := range out.Traces {
			printTraceSummary(trace)
		}

	case len(args) == 1:
		var trace engine.Trace
		path := "/v1/flows/" + url.PathEscape(args[0]) + "/execute"
		if err := postJSON(path, req, &trace); err != nil {
			log.Fatalf("Error executing flow: %v", err)
		}
		if executeJSON {
			if err := printJSON(&trace); err != nil {
				log.Fatalf("Error encoding output: %v", err)
			}
			return
		}
		printTraceSummary(&trace)

	default:
		log.Fatal("Provide a flow id or --all")
	}
}

func printTraceSummary(trace *engine.Trace) {
	fmt.Printf("%s: trace %s, %d spans, %.2fms, %s\n",
		trace.FlowName, trace.TraceID, trace.SpanCount, trace.DurationMS, trace.Status)
	for _, span := range trace.Spans {
		marker := ""
		if span.Status.Code == engine.StatusError {
			marker = "  [ERROR: " + span.Status.Message + "]"
		}
		fmt.Printf("  %s %s (%dus)%s\n",
			span.ServiceName, span.OperationName, span.DurationUS, marker)
	}
	if trace.Error != nil {
		fmt.Printf("  failure at step %d: %s -> %s: %s\n",
			trace.Error.Step, trace.Error.FromService, trace.Error.ToService, trace.Error.Message)
	}
}
