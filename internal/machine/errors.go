package machine

import "errors"

// Sentinel error kinds for domain operations. Callers classify failures with
// errors.Is; every failure leaves the aggregate unchanged.
var (
	// ErrValidation marks malformed input: empty required fields, exceeded
	// length bounds, non-positive alarm intervals.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition marks a status change not present in the
	// transition table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyInStatus marks a status change to the current status.
	ErrAlreadyInStatus = errors.New("machine already in requested status")

	// ErrDomainRule marks a cross-field business rule breach, such as an
	// inconsistent quick check or a duplicate provider assignment.
	ErrDomainRule = errors.New("domain rule violation")

	// ErrNotFound marks a reference to a subdocument that does not exist on
	// the aggregate.
	ErrNotFound = errors.New("not found")
)
