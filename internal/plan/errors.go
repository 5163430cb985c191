package plan

import "errors"

// Sentinel errors for plan store and locator operations.
var (
	// ErrNotFound indicates a milestone, phase, or plan file is missing.
	// Fatal: surfaced immediately, never retried.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyInState indicates an idempotent status transition was
	// requested (e.g. Complete -> Complete). Callers should log a warning
	// and continue; the plan file is left untouched.
	ErrAlreadyInState = errors.New("milestone already in requested state")

	// ErrMalformedState indicates a plan file failed structural validation.
	// The file is never silently trusted or partially applied.
	ErrMalformedState = errors.New("malformed plan state")

	// ErrPlanComplete is a sentinel indicating no eligible work remains.
	// Callers should report completion rather than treat this as a failure.
	ErrPlanComplete = errors.New("all milestones complete")
)
