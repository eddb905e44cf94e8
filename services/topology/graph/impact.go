// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"time"
)

// Recommendation thresholds.
const (
	// DefaultRadiusThreshold is the blast radius above which a circuit
	// breaker is recommended.
	DefaultRadiusThreshold = 10

	// cascadeDepthThreshold is the cascade depth at or above which
	// architecture flattening is recommended.
	cascadeDepthThreshold = 3
)

// Recommendation texts. Fixed strings keep Simulate byte-identical
// across calls on an unchanged graph.
const (
	recCircuitBreaker = "High blast radius: add circuit breakers to limit cascade propagation"
	recFlatten        = "Deep dependency chain detected: consider flattening the architecture"
	recFailover       = "Critical runtime dependents: provision failover/redundancy for this service"
)

// Simulator composes blast-radius traversal into full impact reports.
//
// Recommendation generation is rule-based, not learned: given the same
// graph state, Simulate returns identical affected sets, buckets, and
// recommendations. No randomness enters the path.
type Simulator struct {
	store     *Store
	traversal *Traversal

	// radiusThreshold is the blast radius above which a circuit breaker
	// is recommended.
	radiusThreshold int
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithRadiusThreshold overrides the circuit-breaker radius threshold.
// Values <= 0 keep the default.
func WithRadiusThreshold(n int) SimulatorOption {
	return func(s *Simulator) {
		if n > 0 {
			s.radiusThreshold = n
		}
	}
}

// NewSimulator creates a failure simulator over the given store and
// traversal engine.
func NewSimulator(store *Store, traversal *Traversal, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		store:           store,
		traversal:       traversal,
		radiusThreshold: DefaultRadiusThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate computes the impact of the given service failing.
//
// Description:
//
//	Runs the blast-radius traversal, buckets affected services by
//	severity and by depth, and derives deterministic recommendations:
//	a blast radius above the configured threshold recommends circuit
//	breakers, a cascade depth of 3 or more recommends flattening, and
//	any hop-1 dependent attached through a runtime edge recommends
//	failover capacity.
//
// Outputs:
//
//	*FailureSimulation - Complete report. A service with zero incoming
//	edges yields BlastRadius = 0 and an empty recommendation list;
//	isolation is a valid state, not an error.
//	error - registry NotFoundError when the service id is unknown.
func (s *Simulator) Simulate(ctx context.Context, serviceID string) (*FailureSimulation, error) {
	start := time.Now()

	blast, err := s.traversal.BlastRadius(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	sim := &FailureSimulation{
		ServiceID:        blast.ServiceID,
		ServiceName:      blast.ServiceName,
		BlastRadius:      blast.Radius,
		MaxCascadeDepth:  blast.MaxCascadeDepth,
		Affected:         blast.Affected,
		ImpactBySeverity: make(map[Severity]int),
		ImpactByDepth:    make(map[int][]string),
		Recommendations:  make([]string, 0, 3),
	}
	for _, a := range blast.Affected {
		sim.ImpactBySeverity[a.Severity]++
		sim.ImpactByDepth[a.HopsAway] = append(sim.ImpactByDepth[a.HopsAway], a.Name)
	}

	if sim.BlastRadius > s.radiusThreshold {
		sim.Recommendations = append(sim.Recommendations, recCircuitBreaker)
	}
	if sim.MaxCascadeDepth >= cascadeDepthThreshold {
		sim.Recommendations = append(sim.Recommendations, recFlatten)
	}
	if sim.BlastRadius > 0 && s.hasCriticalRuntimeDependent(serviceID) {
		sim.Recommendations = append(sim.Recommendations, recFailover)
	}

	observeQuery(ctx, "simulate_failure", time.Since(start), sim.BlastRadius)
	return sim, nil
}

// hasCriticalRuntimeDependent reports whether any direct (hop-1,
// severity-critical) dependent is attached through a runtime edge.
func (s *Simulator) hasCriticalRuntimeDependent(serviceID string) bool {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	for _, dep := range s.store.byTarget[serviceID] {
		if dep.Type == DepRuntime {
			return true
		}
	}
	return false
}

// String summarizes a simulation for logs.
func (f *FailureSimulation) String() string {
	return fmt.Sprintf("simulation{service=%s radius=%d depth=%d recs=%d}",
		f.ServiceID, f.BlastRadius, f.MaxCascadeDepth, len(f.Recommendations))
}
