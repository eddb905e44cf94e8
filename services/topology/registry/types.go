// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry provides the entity store for the topology service.
//
// The registry owns plain entity records (services and flows) and exposes
// the id-keyed lookups the dependency engine consumes. It deliberately has
// no graph knowledge: edges live in the graph package, and the registry
// never creates entities on demand. A missing id is always a
// NotFoundError, never an implicit create.
//
// # Thread Safety
//
// Store is safe for concurrent use. Reads take a shared lock; writes
// (including bulk ecosystem loads) take an exclusive lock.
package registry

import (
	"fmt"
	"time"
)

// EntityStatus is the lifecycle status of a registered entity.
type EntityStatus string

// Entity statuses.
const (
	StatusActive     EntityStatus = "active"
	StatusDegraded   EntityStatus = "degraded"
	StatusDeprecated EntityStatus = "deprecated"
	StatusRetired    EntityStatus = "retired"
)

// AttrKind identifies the value kind held by an AttrValue.
//
// Entity attributes are a typed key-value bag with a closed kind union
// rather than free-form maps, so consumers never need reflection to
// interpret a value.
type AttrKind string

// Attribute value kinds.
const (
	AttrString AttrKind = "string"
	AttrNumber AttrKind = "number"
	AttrBool   AttrKind = "bool"
	AttrEnum   AttrKind = "enum"
)

// AttrValue is a single typed attribute value.
//
// Exactly one of the value fields is meaningful, selected by Kind.
type AttrValue struct {
	Kind AttrKind `json:"kind" yaml:"kind"`
	Str  string   `json:"str,omitempty" yaml:"str,omitempty"`
	Num  float64  `json:"num,omitempty" yaml:"num,omitempty"`
	Bool bool     `json:"bool,omitempty" yaml:"bool,omitempty"`
	Enum string   `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// String renders the value for logs and human-readable output.
func (v AttrValue) String() string {
	switch v.Kind {
	case AttrString:
		return v.Str
	case AttrNumber:
		return fmt.Sprintf("%g", v.Num)
	case AttrBool:
		return fmt.Sprintf("%t", v.Bool)
	case AttrEnum:
		return v.Enum
	default:
		return ""
	}
}

// Service is a registered service record.
//
// The topology engine references services only by ID; the registry owns
// the record lifecycle. ServiceType drives the operation-name patterns
// used by the trace synthesizer (rest, grpc, event_driven).
type Service struct {
	ID          string               `json:"id" yaml:"id"`
	Name        string               `json:"name" yaml:"name"`
	Status      EntityStatus         `json:"status" yaml:"status"`
	ServiceType string               `json:"service_type,omitempty" yaml:"service_type,omitempty"`
	Criticality string               `json:"criticality,omitempty" yaml:"criticality,omitempty"`
	Owner       string               `json:"owner,omitempty" yaml:"owner,omitempty"`
	Version     string               `json:"version,omitempty" yaml:"version,omitempty"`
	Attributes  map[string]AttrValue `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	CreatedAt   time.Time            `json:"created_at" yaml:"created_at,omitempty"`
}

// ServiceRef is the resolver-boundary view of a service.
//
// This is the shape the dependency engine consumes: id, status, name.
// It carries no ownership; consumers must not persist it.
type ServiceRef struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      EntityStatus `json:"status"`
	ServiceType string       `json:"service_type,omitempty"`
	Version     string       `json:"version,omitempty"`
}

// Ref returns the resolver-boundary view of the service.
func (s *Service) Ref() *ServiceRef {
	return &ServiceRef{
		ID:          s.ID,
		Name:        s.Name,
		Status:      s.Status,
		ServiceType: s.ServiceType,
		Version:     s.Version,
	}
}

// FailureMode describes how a flow step behaves when it fails.
type FailureMode string

// Failure modes for flow steps.
const (
	// FailureTerminal stops the flow: no later steps execute.
	FailureTerminal FailureMode = "terminal"

	// FailureRecoverable lets later steps execute after the failed one.
	FailureRecoverable FailureMode = "recoverable"
)

// RetryPolicy configures retry behavior for a flow step.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// BackoffMS is the delay added to the clock before each retry attempt.
	BackoffMS int `json:"backoff_ms" yaml:"backoff_ms"`
}

// FlowStep is one hop in a flow definition.
//
// Steps are ordered by StepNumber, contiguous from 1..N. FromServiceID
// and ToServiceID must resolve at execution time; the synthesizer fails
// with a NotFoundError otherwise.
type FlowStep struct {
	StepNumber        int         `json:"step_number" yaml:"step_number"`
	FromServiceID     string      `json:"from_service_id" yaml:"from_service_id"`
	ToServiceID       string      `json:"to_service_id" yaml:"to_service_id"`
	AverageDurationMS float64     `json:"average_duration_ms" yaml:"average_duration_ms"`
	FailureMode       FailureMode `json:"failure_mode,omitempty" yaml:"failure_mode,omitempty"`
	RetryPolicy       RetryPolicy `json:"retry_policy" yaml:"retry_policy"`
}

// Flow is a declarative request-path definition.
//
// A flow with zero steps cannot be executed.
type Flow struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	FlowType  string     `json:"flow_type,omitempty" yaml:"flow_type,omitempty"`
	Steps     []FlowStep `json:"steps" yaml:"steps"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at,omitempty"`
}

// EcosystemDoc is the bulk-load document shape (YAML or JSON).
//
// Dependencies are carried through to the graph store by the caller; the
// registry only loads services and flows.
type EcosystemDoc struct {
	Services     []Service       `json:"services" yaml:"services"`
	Flows        []Flow          `json:"flows" yaml:"flows"`
	Dependencies []EcosystemEdge `json:"dependencies" yaml:"dependencies"`
}

// EcosystemEdge is a dependency edge as declared in an ecosystem document.
type EcosystemEdge struct {
	SourceID       string `json:"source_id" yaml:"source_id"`
	TargetID       string `json:"target_id" yaml:"target_id"`
	SourceType     string `json:"source_type,omitempty" yaml:"source_type,omitempty"`
	TargetType     string `json:"target_type,omitempty" yaml:"target_type,omitempty"`
	DependencyType string `json:"dependency_type" yaml:"dependency_type"`
}
