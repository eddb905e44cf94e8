// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the in-memory entity store.
//
// Description:
//
//	Holds service and flow records keyed by id. The store implements the
//	resolver boundary the topology engine consumes (ResolveService,
//	ResolveFlow). It is created on process start and injected; there is
//	no package-level singleton.
//
// Thread Safety: all methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	services map[string]*Service
	flows    map[string]*Flow

	// insertion order of service ids, for deterministic listings
	serviceOrder []string
	flowOrder    []string
}

// NewStore creates an empty entity store.
func NewStore() *Store {
	return &Store{
		services: make(map[string]*Service),
		flows:    make(map[string]*Flow),
	}
}

// AddService registers a service record.
//
// An empty id is replaced with a generated UUID. Registering an id that
// already exists fails with ErrDuplicateID.
func (s *Store) AddService(svc Service) (*Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if _, exists := s.services[svc.ID]; exists {
		return nil, ErrDuplicateID
	}
	if svc.Status == "" {
		svc.Status = StatusActive
	}
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = time.Now().UTC()
	}
	stored := svc
	s.services[stored.ID] = &stored
	s.serviceOrder = append(s.serviceOrder, stored.ID)
	return &stored, nil
}

// AddFlow registers a flow definition.
//
// Steps are normalized to step_number order. An empty id is replaced
// with a generated UUID.
func (s *Store) AddFlow(f Flow) (*Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if _, exists := s.flows[f.ID]; exists {
		return nil, ErrDuplicateID
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	stored := f
	stored.Steps = append([]FlowStep(nil), f.Steps...)
	sort.SliceStable(stored.Steps, func(i, j int) bool {
		return stored.Steps[i].StepNumber < stored.Steps[j].StepNumber
	})
	s.flows[stored.ID] = &stored
	s.flowOrder = append(s.flowOrder, stored.ID)
	return &stored, nil
}

// ResolveService looks up a service by id.
//
// Outputs:
//
//	*ServiceRef - The resolver-boundary view {id, status, name}.
//	error - *NotFoundError if the id is unknown.
func (s *Store) ResolveService(ctx context.Context, id string) (*ServiceRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, &NotFoundError{Kind: "service", ID: id}
	}
	return svc.Ref(), nil
}

// ResolveFlow looks up a flow by id.
//
// The returned flow is a copy; mutating it does not affect the store.
func (s *Store) ResolveFlow(ctx context.Context, id string) (*Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flows[id]
	if !ok {
		return nil, &NotFoundError{Kind: "flow", ID: id}
	}
	out := *f
	out.Steps = append([]FlowStep(nil), f.Steps...)
	return &out, nil
}

// GetService returns the full service record by id.
func (s *Store) GetService(id string) (*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, &NotFoundError{Kind: "service", ID: id}
	}
	out := *svc
	return &out, nil
}

// ListServices returns all services in insertion order.
func (s *Store) ListServices() []*Service {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Service, 0, len(s.serviceOrder))
	for _, id := range s.serviceOrder {
		if svc, ok := s.services[id]; ok {
			cp := *svc
			out = append(out, &cp)
		}
	}
	return out
}

// ListFlows returns all flows in insertion order.
func (s *Store) ListFlows() []*Flow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Flow, 0, len(s.flowOrder))
	for _, id := range s.flowOrder {
		if f, ok := s.flows[id]; ok {
			cp := *f
			cp.Steps = append([]FlowStep(nil), f.Steps...)
			out = append(out, &cp)
		}
	}
	return out
}

// LoadEcosystem bulk-loads services and flows from an ecosystem document.
//
// Description:
//
//	Inserts every service and flow under a single write lock. Duplicate
//	ids are skipped with a warning rather than failing the whole load,
//	since regenerated ecosystems commonly re-declare shared core services.
//	Dependencies in the document are NOT loaded here; the caller hands
//	them to the graph store.
//
// Outputs:
//
//	map[string]int - Counts per entity kind actually loaded.
func (s *Store) LoadEcosystem(doc *EcosystemDoc) map[string]int {
	counts := map[string]int{"services": 0, "flows": 0}

	for _, svc := range doc.Services {
		if _, err := s.AddService(svc); err != nil {
			slog.Warn("skipping service during ecosystem load",
				"service_id", svc.ID, "error", err)
			continue
		}
		counts["services"]++
	}
	for _, f := range doc.Flows {
		if _, err := s.AddFlow(f); err != nil {
			slog.Warn("skipping flow during ecosystem load",
				"flow_id", f.ID, "error", err)
			continue
		}
		counts["flows"]++
	}
	return counts
}

// Reset removes all entities. Used by the bulk-clear lifecycle and tests.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.services = make(map[string]*Service)
	s.flows = make(map[string]*Flow)
	s.serviceOrder = nil
	s.flowOrder = nil
}

// Overview reports entity counts for the stats endpoint.
func (s *Store) Overview() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]int{
		"services": len(s.services),
		"flows":    len(s.flows),
	}
}
