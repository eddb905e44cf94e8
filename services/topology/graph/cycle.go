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

// pathLengthLocked reports whether `to` is reachable from `from` over
// outgoing edges, and the shortest path length in edges when it is.
//
// Description:
//
//	Standard BFS with a visited set, so traversal terminates even when
//	the existing graph already contains cycles. Called from AddDependency
//	inside the write-locked critical section: if the prospective edge's
//	source is reachable from its target, the edge closes a cycle whose
//	return path is the reported length. A self-loop reports (true, 0).
//	Worst case O(V+E) per insertion, which is acceptable because edge
//	insertion is dominated by infrequent bulk ecosystem loads.
//
// Callers must hold s.mu (read or write).
func (s *Store) pathLengthLocked(from, to string) (bool, int) {
	if from == to {
		return true, 0
	}

	type item struct {
		id    string
		depth int
	}
	visited := map[string]bool{from: true}
	queue := []item{{id: from, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, dep := range s.bySource[cur.id] {
			next := dep.TargetID
			if next == to {
				return true, cur.depth + 1
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, item{id: next, depth: cur.depth + 1})
			}
		}
	}
	return false, 0
}

// cycleSeverity assigns severity to a cycle-closing edge.
//
// The policy reflects operational blast potential: mutual runtime
// coupling blocks independent deployability outright, so runtime edges
// closing a short cycle (return path of at most 2 edges, which covers
// self-loops and direct mutual dependencies) are critical. Data and
// event cycles are high regardless of length, build and deployment
// cycles medium, infrastructure cycles low.
func cycleSeverity(depType DependencyType, returnPath int) Severity {
	switch depType {
	case DepRuntime:
		if returnPath <= 2 {
			return SeverityCritical
		}
		return SeverityHigh
	case DepData, DepEvent:
		return SeverityHigh
	case DepBuild, DepDeployment:
		return SeverityMedium
	case DepInfrastructure:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
