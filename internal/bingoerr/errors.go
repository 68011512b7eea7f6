// Package bingoerr defines the error-kind sentinels shared across the
// engine (spec.md §7): callers use errors.Is against these to classify a
// failure without string matching.
package bingoerr

import "errors"

var (
	// ErrValidation marks a malformed rule, condition, or action caught
	// at compile/registration time. Surfaced by add_rule; prevents
	// registration.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a missing fact, rule, field, or calculator.
	// Surfaced in the affected ActionResult; does not abort the batch.
	ErrNotFound = errors.New("not found")

	// ErrTypeMismatch marks a numeric operation on a non-numeric field,
	// or a date parse failure. Surfaced per action.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrLimitExceeded marks a security-cap or batch-bound violation.
	// Aborts the whole batch.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrInternal marks an invariant violation: should be unreachable,
	// treated as a bug, surfaced with diagnostic context.
	ErrInternal = errors.New("internal error")
)
