// Package claims implements the claim lifecycle: initiation, self-service
// verification, admin review, and completion.
package claims

import (
	"fmt"

	"github.com/reclaim-dev/reclaim/internal/model"
)

// transitions is the claim state machine. It is the single source of truth:
// any move not listed here is rejected, never silently applied. A same-state
// move counts as an allowed no-op.
var transitions = map[string][]string{
	model.ClaimStatusVerificationPending: {
		model.ClaimStatusVerificationFailed,
		model.ClaimStatusAdminReview,
	},
	model.ClaimStatusVerificationFailed: {
		model.ClaimStatusVerificationPending,
	},
	model.ClaimStatusAdminReview: {
		model.ClaimStatusApproved,
		model.ClaimStatusRejected,
	},
	model.ClaimStatusApproved: {
		model.ClaimStatusCompleted,
	},
	model.ClaimStatusRejected: {
		model.ClaimStatusVerificationPending,
	},
	model.ClaimStatusCompleted: {},
}

// CanTransition reports whether the state machine allows moving a claim from
// one status to another.
func CanTransition(from, to string) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns model.ErrInvalidTransition when the move is not
// allowed. The error names both states so the caller sees it verbatim.
func ValidateTransition(from, to string) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("claim cannot move from %q to %q: %w", from, to, model.ErrInvalidTransition)
	}
	return nil
}
