// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that end up
// in storage keys, file paths, or URL path segments. Using these
// validators prevents key injection and path traversal.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidID is the sentinel wrapped by every validation failure in
// this package, so callers can map it with errors.Is.
var ErrInvalidID = errors.New("invalid identifier")

// idPattern matches caller-supplied entity identifiers.
// Allows: letters, digits, dots, underscores, hyphens after an
// alphanumeric first character. Colons are excluded because ids are
// embedded in colon-delimited storage keys.
// Max length: 128 characters.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{0,127}$`)

// ValidateID validates an entity identifier (service, flow, or
// dependency id) before it reaches a storage key or URL path.
//
// Valid identifiers:
//   - 1-128 characters
//   - Letters and digits
//   - Dots, underscores, and hyphens after the first character
//
// Returns an error if the identifier is invalid.
//
// Example:
//
//	if err := validation.ValidateID(req.ID); err != nil {
//	    return fmt.Errorf("invalid id: %w", err)
//	}
//	// Safe to embed in a storage key
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidID)
	}

	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q (must be 1-128 alphanumeric chars, dots, underscores, or hyphens)", ErrInvalidID, id)
	}

	return nil
}

// ValidateIDs validates multiple identifiers.
// Returns an error listing all invalid ids if any fail validation.
func ValidateIDs(ids []string) error {
	var invalid []string
	for _, id := range ids {
		if err := ValidateID(id); err != nil {
			invalid = append(invalid, id)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidID, invalid)
	}
	return nil
}

// SanitizeID trims surrounding whitespace and validates the result.
// Returns the trimmed id if valid, or an error if invalid.
//
// Use this at API boundaries where inputs may carry stray whitespace:
//
//	safeID, err := validation.SanitizeID(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if err := ValidateID(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
