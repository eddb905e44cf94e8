// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response types for the topology
// service API.
//
// Request types carry their validation rules as validator tags and
// expose a Validate method backed by a shared validator instance.
//
// Thread Safety:
//
//	The shared validator is safe for concurrent use.
package datatypes

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianAtlas/pkg/validation"
	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
)

// =============================================================================
// Limits
// =============================================================================

const (
	// MaxFlowSteps bounds a single flow definition.
	MaxFlowSteps = 100

	// MaxEcosystemServices bounds a bulk ecosystem load.
	MaxEcosystemServices = 10_000
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// topoValidate is the validator for topology request types.
var topoValidate = validator.New()

// =============================================================================
// Service and Flow Registration
// =============================================================================

// RegisterServiceRequest is the body for POST /v1/services.
type RegisterServiceRequest struct {
	ID          string                        `json:"id"`
	Name        string                        `json:"name" validate:"required,max=256"`
	Status      string                        `json:"status" validate:"omitempty,oneof=active degraded deprecated retired"`
	ServiceType string                        `json:"service_type" validate:"omitempty,oneof=rest grpc event_driven graphql batch"`
	Criticality string                        `json:"criticality" validate:"omitempty,oneof=low medium high critical"`
	Owner       string                        `json:"owner" validate:"omitempty,max=256"`
	Version     string                        `json:"version" validate:"omitempty,max=64"`
	Attributes  map[string]registry.AttrValue `json:"attributes"`
}

// Validate checks the request against its field rules. Caller-supplied
// ids additionally go through validation.ValidateID because they are
// embedded in storage keys and URL paths.
func (r *RegisterServiceRequest) Validate() error {
	if r.ID != "" {
		if err := validation.ValidateID(r.ID); err != nil {
			return fmt.Errorf("service id: %w", err)
		}
	}
	return topoValidate.Struct(r)
}

// ToService converts the request into a registry record.
func (r *RegisterServiceRequest) ToService() registry.Service {
	return registry.Service{
		ID:          r.ID,
		Name:        r.Name,
		Status:      registry.EntityStatus(r.Status),
		ServiceType: r.ServiceType,
		Criticality: r.Criticality,
		Owner:       r.Owner,
		Version:     r.Version,
		Attributes:  r.Attributes,
	}
}

// FlowStepRequest is one step inside a RegisterFlowRequest.
type FlowStepRequest struct {
	StepNumber        int     `json:"step_number" validate:"gte=1"`
	FromServiceID     string  `json:"from_service_id" validate:"required"`
	ToServiceID       string  `json:"to_service_id" validate:"required"`
	AverageDurationMS float64 `json:"average_duration_ms" validate:"gte=0"`
	FailureMode       string  `json:"failure_mode" validate:"omitempty,oneof=terminal recoverable"`
	MaxRetries        int     `json:"max_retries" validate:"gte=0,lte=10"`
	BackoffMS         int     `json:"backoff_ms" validate:"gte=0"`
}

// RegisterFlowRequest is the body for POST /v1/flows.
type RegisterFlowRequest struct {
	ID       string            `json:"id"`
	Name     string            `json:"name" validate:"required,max=256"`
	FlowType string            `json:"flow_type" validate:"omitempty,max=64"`
	Steps    []FlowStepRequest `json:"steps" validate:"required,min=1,max=100,dive"`
}

// Validate checks the request against its field rules.
func (r *RegisterFlowRequest) Validate() error {
	if r.ID != "" {
		if err := validation.ValidateID(r.ID); err != nil {
			return fmt.Errorf("flow id: %w", err)
		}
	}
	return topoValidate.Struct(r)
}

// ToFlow converts the request into a registry record.
func (r *RegisterFlowRequest) ToFlow() registry.Flow {
	steps := make([]registry.FlowStep, 0, len(r.Steps))
	for _, s := range r.Steps {
		steps = append(steps, registry.FlowStep{
			StepNumber:        s.StepNumber,
			FromServiceID:     s.FromServiceID,
			ToServiceID:       s.ToServiceID,
			AverageDurationMS: s.AverageDurationMS,
			FailureMode:       registry.FailureMode(s.FailureMode),
			RetryPolicy: registry.RetryPolicy{
				MaxRetries: s.MaxRetries,
				BackoffMS:  s.BackoffMS,
			},
		})
	}
	return registry.Flow{
		ID:       r.ID,
		Name:     r.Name,
		FlowType: r.FlowType,
		Steps:    steps,
	}
}

// =============================================================================
// Dependency Management
// =============================================================================

// AddDependencyRequest is the body for POST /v1/dependencies.
type AddDependencyRequest struct {
	SourceID       string `json:"source_id" validate:"required"`
	TargetID       string `json:"target_id" validate:"required"`
	DependencyType string `json:"dependency_type" validate:"required,oneof=runtime build data event deployment infrastructure"`
	SourceType     string `json:"source_type" validate:"omitempty,max=64"`
	TargetType     string `json:"target_type" validate:"omitempty,max=64"`
}

// Validate checks the request against its field rules.
func (r *AddDependencyRequest) Validate() error {
	return topoValidate.Struct(r)
}

// =============================================================================
// Flow Execution
// =============================================================================

// ExecuteFlowRequest is the body for POST /v1/flows/:id/execute.
//
// FailureStep is 1-based; zero lets the engine pick a random step.
// Seed zero derives from the wall clock.
type ExecuteFlowRequest struct {
	Environment   string `json:"environment" validate:"omitempty,max=64"`
	InjectFailure bool   `json:"inject_failure"`
	FailureStep   int    `json:"failure_step" validate:"gte=0"`
	Seed          int64  `json:"seed"`
}

// Validate checks the request against its field rules.
func (r *ExecuteFlowRequest) Validate() error {
	return topoValidate.Struct(r)
}

// =============================================================================
// Responses
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoadEcosystemResponse reports what a bulk load committed.
type LoadEcosystemResponse struct {
	Services     int `json:"services_loaded"`
	Flows        int `json:"flows_loaded"`
	Dependencies int `json:"dependencies_loaded"`
}

// StatsResponse is the body for GET /v1/stats.
type StatsResponse struct {
	Services             int    `json:"services"`
	Flows                int    `json:"flows"`
	Dependencies         int    `json:"dependencies"`
	CircularDependencies int    `json:"circular_dependencies"`
	GraphGeneration      uint64 `json:"graph_generation"`
	RevalidationsSkipped uint64 `json:"revalidations_skipped"`
	CacheHits            int64  `json:"cache_hits"`
	CacheMisses          int64  `json:"cache_misses"`
	StoredTraces         int    `json:"stored_traces,omitempty"`
}
