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

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrInvalidDependencyType is returned when AddDependency receives a
	// type outside the known union.
	ErrInvalidDependencyType = errors.New("invalid dependency type")

	// ErrInvalidDirection is returned when Neighbors receives a direction
	// other than outgoing or incoming.
	ErrInvalidDirection = errors.New("invalid traversal direction")

	// ErrInvalidDepth is returned when a dependency query names a depth
	// outside direct, transitive, or blast-radius.
	ErrInvalidDepth = errors.New("invalid query depth")

	// ErrCycleRevalidationSkipped is an informational condition, not a
	// failure. It is recorded when a circular edge is removed without
	// re-scanning the remaining edges of the former cycle: is_circular is
	// sticky by policy and never reverts on delete.
	ErrCycleRevalidationSkipped = errors.New("cycle re-validation skipped on delete")
)
