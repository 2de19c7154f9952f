package model

import "errors"

// Error kinds shared across the core. Wrapped with fmt.Errorf("...: %w", ...)
// at the point of failure and matched with errors.Is at the API boundary.
var (
	// ErrNotFound: a referenced item, match, or claim does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition: the claim state machine rejected the requested
	// move. Surfaced to the caller verbatim, never retried.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorized: the requester lacks the role or relationship required.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRaceLost: another caller locked the item or claim first. A benign
	// steady-state condition; callers skip the candidate and move on.
	ErrRaceLost = errors.New("lost race for item lock")

	// ErrAsset: image encryption, decryption, or masking failed.
	ErrAsset = errors.New("asset processing failed")
)
