package store

import (
	"context"
	"errors"
	"testing"

	"github.com/reclaim-dev/reclaim/internal/db"
	"github.com/reclaim-dev/reclaim/internal/model"
)

func TestCreateAndGetClaim(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lost, found := seedPair(t, database)
	claimant := seedUser(t, database, "claimant")

	claim, err := CreateClaim(ctx, database, found.ID, &lost.ID, claimant.ID,
		&model.VerificationAnswers{WhereLost: "city park", SecretMarks: "engraved initials"}, "")
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	if claim.Status != model.ClaimStatusVerificationPending {
		t.Errorf("expected verification_pending, got %q", claim.Status)
	}

	got, err := GetClaim(ctx, database, claim.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if got.Answers == nil || got.Answers.WhereLost != "city park" {
		t.Errorf("expected answers to roundtrip, got %+v", got.Answers)
	}
	if got.LostItemID == nil || *got.LostItemID != lost.ID {
		t.Errorf("expected linked lost item %d, got %v", lost.ID, got.LostItemID)
	}
}

func TestCreateClaimBlocksLiveClaim(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, found := seedPair(t, database)
	first := seedUser(t, database, "first")
	second := seedUser(t, database, "second")

	if _, err := CreateClaim(ctx, database, found.ID, nil, first.ID, nil, ""); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	_, err := CreateClaim(ctx, database, found.ID, nil, second.ID, nil, "")
	if !errors.Is(err, model.ErrRaceLost) {
		t.Errorf("expected ErrRaceLost for second live claim, got %v", err)
	}
}

func TestCreateClaimAfterRejectionAllowed(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, found := seedPair(t, database)
	first := seedUser(t, database, "first")
	second := seedUser(t, database, "second")

	claim, err := CreateClaim(ctx, database, found.ID, nil, first.ID, nil, "")
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	SetClaimStatus(ctx, database, claim.ID, model.ClaimStatusVerificationPending, model.ClaimStatusAdminReview)
	SetClaimStatus(ctx, database, claim.ID, model.ClaimStatusAdminReview, model.ClaimStatusRejected)

	// A dead claim no longer blocks the item.
	if _, err := CreateClaim(ctx, database, found.ID, nil, second.ID, nil, ""); err != nil {
		t.Errorf("expected claim after rejection to succeed, got %v", err)
	}
}

func TestCreateClaimInvalidItemStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, found := seedPair(t, database)
	claimant := seedUser(t, database, "claimant")

	SetFoundItemStatus(ctx, database, found.ID, model.ItemStatusActive, model.ItemStatusResolved)

	_, err := CreateClaim(ctx, database, found.ID, nil, claimant.ID, nil, "")
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for resolved item, got %v", err)
	}

	_, err = CreateClaim(ctx, database, 9999, nil, claimant.ID, nil, "")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing item, got %v", err)
	}
}

func TestSetClaimStatusGuard(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, found := seedPair(t, database)
	claimant := seedUser(t, database, "claimant")
	claim, _ := CreateClaim(ctx, database, found.ID, nil, claimant.ID, nil, "")

	err := SetClaimStatus(ctx, database, claim.ID, model.ClaimStatusAdminReview, model.ClaimStatusApproved)
	if !errors.Is(err, model.ErrRaceLost) {
		t.Errorf("expected ErrRaceLost for wrong from-status, got %v", err)
	}

	got, _ := GetClaim(ctx, database, claim.ID)
	if got.Status != model.ClaimStatusVerificationPending {
		t.Errorf("expected status unchanged, got %q", got.Status)
	}
}

func TestHasApprovedClaim(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, found := seedPair(t, database)
	claimant := seedUser(t, database, "claimant")
	claim, _ := CreateClaim(ctx, database, found.ID, nil, claimant.ID, nil, "")

	approved, _ := HasApprovedClaim(ctx, database, found.ID, claimant.ID)
	if approved {
		t.Error("expected no approved claim yet")
	}

	SetClaimStatus(ctx, database, claim.ID, model.ClaimStatusVerificationPending, model.ClaimStatusAdminReview)
	SetClaimStatus(ctx, database, claim.ID, model.ClaimStatusAdminReview, model.ClaimStatusApproved)

	approved, _ = HasApprovedClaim(ctx, database, found.ID, claimant.ID)
	if !approved {
		t.Error("expected approved claim to be visible")
	}

	// Completion keeps the gate open.
	SetClaimStatus(ctx, database, claim.ID, model.ClaimStatusApproved, model.ClaimStatusCompleted)
	approved, _ = HasApprovedClaim(ctx, database, found.ID, claimant.ID)
	if !approved {
		t.Error("expected completed claim to keep access")
	}

	other, _ := HasApprovedClaim(ctx, database, found.ID, found.FinderID+1000)
	if other {
		t.Error("expected no access for other users")
	}
}

func TestListClaimsInReview(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, found := seedPair(t, database)
	claimant := seedUser(t, database, "claimant")
	claim, _ := CreateClaim(ctx, database, found.ID, nil, claimant.ID, nil, "")

	queue, _ := ListClaimsInReview(ctx, database)
	if len(queue) != 0 {
		t.Errorf("expected empty review queue, got %d", len(queue))
	}

	SetClaimStatus(ctx, database, claim.ID, model.ClaimStatusVerificationPending, model.ClaimStatusAdminReview)

	queue, err := ListClaimsInReview(ctx, database)
	if err != nil {
		t.Fatalf("ListClaimsInReview: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != claim.ID {
		t.Errorf("expected claim %d in review queue, got %+v", claim.ID, queue)
	}
}

func TestListClaimsForUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, found := seedPair(t, database)
	claimant := seedUser(t, database, "claimant")
	CreateClaim(ctx, database, found.ID, nil, claimant.ID, nil, "")

	mine, err := ListClaimsForUser(ctx, database, claimant.ID)
	if err != nil {
		t.Fatalf("ListClaimsForUser: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("expected 1 claim, got %d", len(mine))
	}

	theirs, _ := ListClaimsForUser(ctx, database, found.FinderID)
	if len(theirs) != 0 {
		t.Errorf("expected no claims for finder, got %d", len(theirs))
	}
}
