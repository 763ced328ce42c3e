package core

import "errors"

// Error kinds surfaced by the costing core. Services wrap these with
// entity context via fmt.Errorf("...: %w", Err...), so callers can match
// with errors.Is and render a user-facing message. All of them are
// deterministic validation failures, never retried, and raised before
// any write touches persisted state.
var (
	// ErrNotFound is returned when a referenced route, station, rate,
	// profile, or payment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for request-level validation failures:
	// vehicle-type mismatch, zero denominators, malformed dates,
	// overlapping rate windows, configs without a cost source.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned when a payment status change is
	// outside the allowed state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden is returned when mutating or deleting a POSTED payment
	// without posting authority. The core signals the violation; enforcing
	// who holds the authority is the caller's concern.
	ErrForbidden = errors.New("forbidden")
)
