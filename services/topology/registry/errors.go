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
	"errors"
	"fmt"
)

// Sentinel errors for registry operations.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	// Use errors.Is(err, ErrNotFound) to detect any not-found condition;
	// use errors.As with *NotFoundError to recover the entity kind and id.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateID is returned when registering an entity whose id is
	// already taken within its kind.
	ErrDuplicateID = errors.New("duplicate entity id")
)

// NotFoundError reports a missing entity with its kind and id.
//
// It unwraps to ErrNotFound so callers can match either the sentinel or
// the typed error.
type NotFoundError struct {
	// Kind is the entity kind ("service", "flow", "dependency").
	Kind string

	// ID is the id that failed to resolve.
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Unwrap returns ErrNotFound for errors.Is support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
