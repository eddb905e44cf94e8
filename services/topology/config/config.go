// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config provides configuration loading for the topology service.
//
// Configuration is a YAML file layered under environment overrides: the
// file holds the durable shape, environment variables win at deploy
// time. All loaders cap file sizes before reading to keep a corrupt or
// hostile path from exhausting memory.
//
// Thread Safety:
//
//	Loaded Config values are plain data; share them read-only.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
)

// File size limits.
const (
	// MaxConfigFileSize caps service configuration files (1MB).
	MaxConfigFileSize = 1024 * 1024

	// MaxEcosystemFileSize caps ecosystem documents (16MB); generated
	// topologies run large.
	MaxEcosystemFileSize = 16 * 1024 * 1024
)

// Defaults.
const (
	DefaultPort           = "8086"
	DefaultTraceStorePath = "data/traces"
	DefaultRetention      = 24 * time.Hour
	DefaultServiceName    = "atlas-topology"
)

// Duration wraps time.Duration so YAML accepts "24h"-style values.
type Duration time.Duration

// UnmarshalYAML parses Go duration strings (and bare integers as
// nanoseconds, matching time.Duration's underlying unit).
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(n)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in Go's string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard-library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String renders the duration in Go's string form, so %s and %v
// formatting match time.Duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Config is the root service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	TraceStore TraceStoreConfig `yaml:"trace_store"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Simulator  SimulatorConfig  `yaml:"simulator"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Port is the listen port, without the colon.
	Port string `yaml:"port"`

	// Mode is the gin mode: debug, release, or test.
	Mode string `yaml:"mode"`
}

// TraceStoreConfig configures trace retention.
type TraceStoreConfig struct {
	// Path is the BadgerDB directory for persisted traces.
	Path string `yaml:"path"`

	// InMemory disables disk persistence.
	InMemory bool `yaml:"in_memory"`

	// Retention is how long stored traces stay queryable.
	Retention Duration `yaml:"retention"`
}

// TelemetryConfig configures trace export for the service itself.
type TelemetryConfig struct {
	// ServiceName identifies this process in exported telemetry.
	ServiceName string `yaml:"service_name"`

	// OTLPEndpoint, when set, exports spans over OTLP/gRPC.
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// StdoutTraces dumps spans to stdout instead; development only.
	StdoutTraces bool `yaml:"stdout_traces"`
}

// SimulatorConfig tunes the failure simulator.
type SimulatorConfig struct {
	// RadiusThreshold is the blast radius above which circuit breakers
	// are recommended. Zero keeps the engine default.
	RadiusThreshold int `yaml:"radius_threshold"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port: DefaultPort,
			Mode: "release",
		},
		TraceStore: TraceStoreConfig{
			Path:      DefaultTraceStorePath,
			Retention: Duration(DefaultRetention),
		},
		Telemetry: TelemetryConfig{
			ServiceName: DefaultServiceName,
		},
	}
}

// Load reads configuration from an optional YAML file and applies
// environment overrides.
//
// Description:
//
//	Starts from Default(). If path is non-empty the file must exist,
//	parse, and stay under MaxConfigFileSize. Environment variables are
//	applied last: TOPOLOGY_PORT, GIN_MODE, TOPOLOGY_TRACE_STORE_PATH,
//	TOPOLOGY_TRACE_RETENTION (Go duration), OTEL_EXPORTER_OTLP_ENDPOINT,
//	and TOPOLOGY_RADIUS_THRESHOLD.
//
// Outputs:
//
//	Config - The effective configuration.
//	error - Non-nil on unreadable or malformed files or overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		body, err := readBounded(path, MaxConfigFileSize)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(body, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("TOPOLOGY_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := os.Getenv("TOPOLOGY_TRACE_STORE_PATH"); v != "" {
		cfg.TraceStore.Path = v
	}
	if v := os.Getenv("TOPOLOGY_TRACE_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("parse TOPOLOGY_TRACE_RETENTION: %w", err)
		}
		cfg.TraceStore.Retention = Duration(d)
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := os.Getenv("TOPOLOGY_RADIUS_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("parse TOPOLOGY_RADIUS_THRESHOLD: %w", err)
		}
		cfg.Simulator.RadiusThreshold = n
	}

	return cfg, nil
}

// LoadEcosystemFile reads and parses an ecosystem document (YAML or
// JSON; yaml.v3 handles both) under the ecosystem size cap.
func LoadEcosystemFile(path string) (*registry.EcosystemDoc, error) {
	body, err := readBounded(path, MaxEcosystemFileSize)
	if err != nil {
		return nil, err
	}
	var doc registry.EcosystemDoc
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse ecosystem %s: %w", path, err)
	}
	return &doc, nil
}

// readBounded reads a file after checking its size against the cap.
func readBounded(path string, maxSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("file %s exceeds size limit (%d > %d bytes)", path, info.Size(), maxSize)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}
