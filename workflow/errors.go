// Package workflow drives the order lifecycle: placement, status transitions,
// and single-order tracking.
package workflow

import "fmt"

// ValidationError is a client-side gate failure. No backend request was sent.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("workflow: validation failed: %s", e.Reason)
}

// PlacementError is a failed customer or order creation. The workflow is back
// in an editable, re-submittable state; a customer already created by the
// failed attempt persists on the backend and is reused on retry.
type PlacementError struct {
	Stage string // "customer" or "order"
	Err   error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("workflow: %s creation failed: %v", e.Stage, e.Err)
}

func (e *PlacementError) Unwrap() error { return e.Err }

// TransitionError is a failed status update. The feed was not reset and the
// prior status remains authoritative.
type TransitionError struct {
	OrderID string
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("workflow: status transition for %s failed: %v", e.OrderID, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// LookupError is a failed tracking query. It is presented to the user the
// same as not-found but kept distinct for diagnostics.
type LookupError struct {
	OrderID string
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("workflow: lookup of %s failed: %v", e.OrderID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }
