// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
)

// operationPatterns maps a service type to the operation-name templates
// the synthesizer picks from. "{service}" is replaced with the cleaned
// service name, "{Service}" with its capitalized form.
var operationPatterns = map[string][]string{
	"rest": {
		"POST /api/{service}/process",
		"GET /api/{service}/status",
		"PUT /api/{service}/update",
		"POST /api/{service}/validate",
		"GET /api/{service}/health",
	},
	"grpc": {
		"{service}.{Service}Service/Process",
		"{service}.{Service}Service/Get",
		"{service}.{Service}Service/Update",
		"{service}.{Service}Service/Validate",
	},
	"event_driven": {
		"PUBLISH {service}.event.processed",
		"CONSUME {service}.event.received",
		"PUBLISH {service}.event.completed",
	},
	"graphql": {
		"QUERY {service}.query",
		"MUTATION {service}.mutate",
	},
	"batch": {
		"BATCH {service}.process_batch",
		"BATCH {service}.aggregate",
	},
}

// errorMessages is the vocabulary of synthesized failure messages.
// "%s" is the failing service name.
var errorMessages = []string{
	"Connection refused: %s:8080",
	"Timeout after 30000ms calling %s",
	"HTTP 503 Service Unavailable from %s",
	"Circuit breaker OPEN for %s",
	"HTTP 500 Internal Server Error from %s",
	"gRPC UNAVAILABLE: %s not responding",
	"Connection pool exhausted for %s",
}

// exceptionTypes is the vocabulary of exception event types.
var exceptionTypes = []string{
	"ConnectionRefusedError",
	"TimeoutError",
	"ServiceUnavailableError",
	"CircuitBreakerOpenError",
}

// cleanServiceName lowercases a service name and strips the separators
// and the "service" suffix so it slots into an operation template.
func cleanServiceName(name string) string {
	clean := strings.ToLower(name)
	clean = strings.ReplaceAll(clean, "service", "")
	clean = strings.ReplaceAll(clean, "-", "")
	clean = strings.ReplaceAll(clean, "_", "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "default"
	}
	return clean
}

// capitalize uppercases the first byte of an ASCII identifier.
func capitalize(s string) string {
	if s == "" {
		return "Default"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// operationName picks an operation-name template for the target service
// type and fills in the service name. Selection is driven by rng, so a
// fixed seed yields a fixed operation.
func operationName(rng *rand.Rand, svc *registry.ServiceRef) string {
	patterns, ok := operationPatterns[svc.ServiceType]
	if !ok {
		patterns = operationPatterns["rest"]
	}
	pattern := patterns[rng.Intn(len(patterns))]

	clean := cleanServiceName(svc.Name)
	r := strings.NewReplacer("{service}", clean, "{Service}", capitalize(clean))
	return r.Replace(pattern)
}

// errorMessage synthesizes a failure message for the named service.
func errorMessage(rng *rand.Rand, serviceName string) string {
	return fmt.Sprintf(errorMessages[rng.Intn(len(errorMessages))], serviceName)
}

// hostName derives a stable-looking host identifier for a service.
func hostName(rng *rand.Rand, serviceName string) string {
	slug := strings.ReplaceAll(strings.ToLower(serviceName), " ", "-")
	return fmt.Sprintf("%s-%02d", slug, rng.Intn(5)+1)
}

// peerPort returns the conventional port for a protocol family.
func peerPort(serviceType string) int {
	switch serviceType {
	case "grpc":
		return 50051
	case "event_driven":
		return 9092
	default:
		return 8080
	}
}

// stepAttributes builds the protocol attributes for a server span.
func stepAttributes(rng *rand.Rand, step registry.FlowStep, from, to *registry.ServiceRef, failed bool) map[string]any {
	attrs := map[string]any{
		"peer.service":     from.Name,
		"net.peer.port":    peerPort(to.ServiceType),
		"flow.step_number": step.StepNumber,
	}

	switch to.ServiceType {
	case "grpc":
		attrs["rpc.system"] = "grpc"
		attrs["rpc.service"] = fmt.Sprintf("%sService", capitalize(cleanServiceName(to.Name)))
		attrs["rpc.method"] = "Process"
		if failed {
			attrs["rpc.grpc.status_code"] = 14
		} else {
			attrs["rpc.grpc.status_code"] = 0
		}
	case "event_driven":
		attrs["messaging.system"] = "kafka"
		attrs["messaging.destination"] = fmt.Sprintf("%s.events", cleanServiceName(to.Name))
		attrs["messaging.operation"] = "process"
	default:
		attrs["http.method"] = "POST"
		attrs["http.route"] = "/api/process"
		attrs["http.scheme"] = "http"
		if failed {
			attrs["http.status_code"] = []int{500, 502, 503}[rng.Intn(3)]
		} else {
			attrs["http.status_code"] = 200
		}
	}
	return attrs
}

// resourceAttributes builds the emitting-process resource block.
func resourceAttributes(rng *rand.Rand, svc *registry.ServiceRef, environment string) Resource {
	version := svc.Version
	if version == "" {
		version = "v1"
	}
	return Resource{
		Attributes: map[string]string{
			"service.name":           svc.Name,
			"service.version":        version,
			"service.namespace":      "atlas",
			"deployment.environment": environment,
			"host.name":              hostName(rng, svc.Name),
			"os.type":                "linux",
			"telemetry.sdk.name":     "atlas-synthetic",
			"telemetry.sdk.version":  "0.1.0",
		},
	}
}

// spanEvents builds the event log for a server span: a received marker,
// then either a processed marker or an exception record.
func spanEvents(rng *rand.Rand, svc *registry.ServiceRef, startNano, endNano int64, failed bool) []SpanEvent {
	events := []SpanEvent{
		{
			Name:              "request.received",
			TimestampUnixNano: startNano,
			Attributes:        map[string]any{"service.name": svc.Name},
		},
	}

	if failed {
		events = append(events, SpanEvent{
			Name:              "exception",
			TimestampUnixNano: endNano,
			Attributes: map[string]any{
				"exception.type":    exceptionTypes[rng.Intn(len(exceptionTypes))],
				"exception.message": fmt.Sprintf("Failed to process request in %s", svc.Name),
			},
		})
	} else {
		events = append(events, SpanEvent{
			Name:              "request.processed",
			TimestampUnixNano: endNano,
			Attributes:        map[string]any{"service.name": svc.Name, "status": "ok"},
		})
	}
	return events
}
