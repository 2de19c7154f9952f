package claims

import (
	"errors"
	"testing"

	"github.com/reclaim-dev/reclaim/internal/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{model.ClaimStatusVerificationPending, model.ClaimStatusAdminReview, true},
		{model.ClaimStatusVerificationPending, model.ClaimStatusVerificationFailed, true},
		{model.ClaimStatusVerificationPending, model.ClaimStatusApproved, false},
		{model.ClaimStatusVerificationPending, model.ClaimStatusCompleted, false},
		{model.ClaimStatusVerificationFailed, model.ClaimStatusVerificationPending, true},
		{model.ClaimStatusVerificationFailed, model.ClaimStatusAdminReview, false},
		{model.ClaimStatusAdminReview, model.ClaimStatusApproved, true},
		{model.ClaimStatusAdminReview, model.ClaimStatusRejected, true},
		{model.ClaimStatusAdminReview, model.ClaimStatusCompleted, false},
		{model.ClaimStatusApproved, model.ClaimStatusCompleted, true},
		{model.ClaimStatusApproved, model.ClaimStatusRejected, false},
		{model.ClaimStatusRejected, model.ClaimStatusVerificationPending, true},
		{model.ClaimStatusRejected, model.ClaimStatusApproved, false},
		// Completed is terminal.
		{model.ClaimStatusCompleted, model.ClaimStatusApproved, false},
		{model.ClaimStatusCompleted, model.ClaimStatusVerificationPending, false},
		// Same-state moves are no-ops.
		{model.ClaimStatusAdminReview, model.ClaimStatusAdminReview, true},
		{model.ClaimStatusCompleted, model.ClaimStatusCompleted, true},
		// Unknown states fail-closed.
		{"bogus", model.ClaimStatusApproved, false},
		{"", model.ClaimStatusVerificationPending, false},
	}

	for _, tt := range tests {
		got := CanTransition(tt.from, tt.to)
		if got != tt.expected {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expected)
		}
	}
}

func TestValidateTransition(t *testing.T) {
	if err := ValidateTransition(model.ClaimStatusAdminReview, model.ClaimStatusApproved); err != nil {
		t.Errorf("expected valid transition, got %v", err)
	}

	err := ValidateTransition(model.ClaimStatusCompleted, model.ClaimStatusApproved)
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}
