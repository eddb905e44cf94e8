// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for flow execution.
var (
	// ErrInvalidFlow is returned when a flow cannot be executed: it has
	// zero steps or its step numbering is not contiguous from 1.
	ErrInvalidFlow = errors.New("invalid flow")

	// ErrInvalidFailureStep is returned when an explicit failure step is
	// outside the flow's 1..N step range.
	ErrInvalidFailureStep = errors.New("failure step out of range")
)

// InvalidFlowError reports why a flow was rejected before execution.
//
// It unwraps to ErrInvalidFlow for errors.Is support.
type InvalidFlowError struct {
	// FlowID is the rejected flow.
	FlowID string

	// Reason describes the structural problem.
	Reason string
}

// Error implements the error interface.
func (e *InvalidFlowError) Error() string {
	return fmt.Sprintf("invalid flow %q: %s", e.FlowID, e.Reason)
}

// Unwrap returns ErrInvalidFlow.
func (e *InvalidFlowError) Unwrap() error {
	return ErrInvalidFlow
}
