// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("port: want %s, got %s", DefaultPort, cfg.Server.Port)
	}
	if cfg.TraceStore.Retention.Std() != DefaultRetention {
		t.Errorf("retention: want %s, got %s", DefaultRetention, cfg.TraceStore.Retention)
	}
	if cfg.Telemetry.ServiceName != DefaultServiceName {
		t.Errorf("service name: want %s, got %s", DefaultServiceName, cfg.Telemetry.ServiceName)
	}
}

func TestLoad_FileAndEnvLayering(t *testing.T) {
	path := writeFile(t, "topology.yaml", `
server:
  port: "9000"
  mode: debug
trace_store:
  in_memory: true
  retention: 1h
simulator:
  radius_threshold: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Server.Mode != "debug" {
		t.Errorf("file values not applied: %+v", cfg.Server)
	}
	if !cfg.TraceStore.InMemory || cfg.TraceStore.Retention.Std() != time.Hour {
		t.Errorf("trace store values not applied: %+v", cfg.TraceStore)
	}
	if cfg.Simulator.RadiusThreshold != 5 {
		t.Errorf("radius threshold: want 5, got %d", cfg.Simulator.RadiusThreshold)
	}

	t.Run("environment wins over the file", func(t *testing.T) {
		t.Setenv("TOPOLOGY_PORT", "9999")
		t.Setenv("TOPOLOGY_TRACE_RETENTION", "30m")

		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Server.Port != "9999" {
			t.Errorf("env port override lost: %s", cfg.Server.Port)
		}
		if cfg.TraceStore.Retention.Std() != 30*time.Minute {
			t.Errorf("env retention override lost: %s", cfg.TraceStore.Retention)
		}
	})

	t.Run("malformed duration override fails loudly", func(t *testing.T) {
		t.Setenv("TOPOLOGY_TRACE_RETENTION", "soon")
		if _, err := Load(path); err == nil {
			t.Error("expected an error for an unparseable retention")
		}
	})
}

func TestDuration_String(t *testing.T) {
	d := Duration(90 * time.Minute)
	if got := d.String(); got != "1h30m0s" {
		t.Errorf("String: want 1h30m0s, got %s", got)
	}
	// %s and %v must render like time.Duration so log and test output
	// stay readable.
	if got := fmt.Sprintf("%s", d); got != "1h30m0s" {
		t.Errorf("Sprintf: want 1h30m0s, got %s", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "server: [not: a: mapping")
		if _, err := Load(path); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestLoadEcosystemFile(t *testing.T) {
	path := writeFile(t, "ecosystem.yaml", `
services:
  - id: svc-api
    name: api-gateway
    service_type: rest
  - id: svc-db
    name: orders-db
    service_type: rest
flows:
  - id: flow-1
    name: read-order
    steps:
      - step_number: 1
        from_service_id: svc-api
        to_service_id: svc-db
        average_duration_ms: 12
dependencies:
  - source_id: svc-api
    target_id: svc-db
    dependency_type: runtime
`)

	doc, err := LoadEcosystemFile(path)
	if err != nil {
		t.Fatalf("LoadEcosystemFile: %v", err)
	}
	if len(doc.Services) != 2 || len(doc.Flows) != 1 || len(doc.Dependencies) != 1 {
		t.Errorf("unexpected counts: services=%d flows=%d deps=%d",
			len(doc.Services), len(doc.Flows), len(doc.Dependencies))
	}
	if doc.Flows[0].Steps[0].AverageDurationMS != 12 {
		t.Errorf("step duration lost: %+v", doc.Flows[0].Steps[0])
	}
}
