// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the dependency graph store and query engine.
//
// The package contains the edge store (Store), insertion-time cycle
// detection, the multi-depth traversal engine (direct, transitive,
// blast-radius), and the failure simulator. Nodes are services owned by
// the registry; this package references them only by id and never
// manages their lifecycle.
//
// # Ownership Model
//
// The Store exclusively owns the Dependency edge set. Edges are held in
// adjacency indexes keyed by node id, never as live pointer cycles, so
// a circular dependency in the modeled topology creates no ownership
// cycle in memory.
//
// # Thread Safety
//
// Store is safe for concurrent use. Structural mutations (AddDependency,
// RemoveDependency, bulk loads, Clear) take an exclusive lock; all query
// paths take a shared lock, so impact analyses can run concurrently but
// never observe a half-inserted edge.
package graph

import (
	"context"
	"time"

	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
)

// DependencyType classifies the coupling an edge represents.
type DependencyType string

// Dependency types.
const (
	DepRuntime        DependencyType = "runtime"
	DepBuild          DependencyType = "build"
	DepData           DependencyType = "data"
	DepEvent          DependencyType = "event"
	DepDeployment     DependencyType = "deployment"
	DepInfrastructure DependencyType = "infrastructure"
)

// Valid reports whether t is a known dependency type.
func (t DependencyType) Valid() bool {
	switch t {
	case DepRuntime, DepBuild, DepData, DepEvent, DepDeployment, DepInfrastructure:
		return true
	default:
		return false
	}
}

// Severity ranks the operational blast potential of an edge or an
// affected service.
type Severity string

// Severities, most severe first.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityRank orders severities for sorting: lower rank = more severe.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Rank returns the sort rank of the severity (0 = most severe).
// Unknown severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Direction selects which adjacency list a neighbor query reads.
type Direction string

// Traversal directions.
const (
	// DirOutgoing follows edges this service depends on.
	DirOutgoing Direction = "outgoing"

	// DirIncoming follows edges of services depending on this one.
	DirIncoming Direction = "incoming"
)

// Dependency is a directed edge in the service topology.
//
// IsCircular is derived at insertion time by the cycle detector and is
// never client-set. Once true it never reverts to false, even if the
// cycle-closing edge is later removed (no re-validation on delete).
type Dependency struct {
	ID             string         `json:"id"`
	SourceID       string         `json:"source_id"`
	TargetID       string         `json:"target_id"`
	SourceType     string         `json:"source_type"`
	TargetType     string         `json:"target_type"`
	Type           DependencyType `json:"dependency_type"`
	Severity       Severity       `json:"severity"`
	IsCircular     bool           `json:"is_circular"`
	CreatedAt      time.Time      `json:"created_at"`

	// seq is the insertion sequence number, used for deterministic
	// tie-breaking in ordered listings.
	seq uint64
}

// ServiceResolver is the entity-store boundary the graph consumes.
//
// A missing id must surface as an error satisfying
// errors.Is(err, registry.ErrNotFound); the graph treats not-found as an
// error condition, never as create-on-demand.
type ServiceResolver interface {
	ResolveService(ctx context.Context, id string) (*registry.ServiceRef, error)
}

// DirectResult is the direct-depth query result.
type DirectResult struct {
	ServiceID    string        `json:"service_id"`
	DependsOn    []*Dependency `json:"depends_on"`
	DependedOnBy []*Dependency `json:"depended_on_by"`
}

// ReachableService is one service discovered by a transitive query.
type ReachableService struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TransitiveResult is the transitive-depth query result.
//
// Services holds every service reachable from the root over outgoing
// edges, each exactly once, with no per-node depth.
type TransitiveResult struct {
	ServiceID       string             `json:"service_id"`
	Services        []ReachableService `json:"transitive_dependencies"`
	TransitiveCount int                `json:"transitive_count"`
}

// AffectedService is one service discovered by a blast-radius query.
//
// HopsAway is the BFS depth at first discovery (1 = direct dependent);
// a node reachable via multiple paths keeps its shortest hop count.
type AffectedService struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	HopsAway int      `json:"hops_away"`
	Severity Severity `json:"severity"`
}

// BlastRadius is the blast-radius query result.
type BlastRadius struct {
	ServiceID        string            `json:"service_id"`
	ServiceName      string            `json:"service_name"`
	Affected         []AffectedService `json:"affected_services"`
	Radius           int               `json:"blast_radius"`
	MaxCascadeDepth  int               `json:"max_cascade_depth"`
}

// FailureSimulation is the full impact report for a simulated failure.
type FailureSimulation struct {
	ServiceID        string            `json:"service_id"`
	ServiceName      string            `json:"service_name"`
	BlastRadius      int               `json:"blast_radius"`
	MaxCascadeDepth  int               `json:"max_cascade_depth"`
	Affected         []AffectedService `json:"affected_services"`
	ImpactBySeverity map[Severity]int  `json:"impact_by_severity"`
	ImpactByDepth    map[int][]string  `json:"impact_by_depth"`
	Recommendations  []string          `json:"recommendations"`
}
