package claims

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/reclaim-dev/reclaim/internal/db"
	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
)

type fixture struct {
	db       *sql.DB
	svc      *Service
	claimant int64
	finder   int64
	lost     *model.LostItem
	found    *model.FoundItem
	match    *model.Match
}

// setup creates a matched lost/found pair: the claimant reported the lost
// item, the finder filed the found item, and the matcher locked them together.
func setup(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	claimant, err := store.CreateUser(ctx, database, "claimant", "", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	finder, err := store.CreateUser(ctx, database, "finder", "", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	lost, err := store.CreateLostItem(ctx, database, &model.LostItem{
		UserID:      claimant.ID,
		ItemName:    "Black Wallet",
		Category:    "Accessories",
		UniqueMarks: "engraved initials inside the flap",
		DateLost:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateLostItem: %v", err)
	}
	found, err := store.CreateFoundItem(ctx, database, &model.FoundItem{
		FinderID: finder.ID,
		ItemName: "Black Wallet",
		Category: "Accessories",
	})
	if err != nil {
		t.Fatalf("CreateFoundItem: %v", err)
	}

	match, err := store.CreateMatch(ctx, database, lost.ID, found.ID, 80, nil)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	return &fixture{
		db:       database,
		svc:      &Service{DB: database},
		claimant: claimant.ID,
		finder:   finder.ID,
		lost:     lost,
		found:    found,
		match:    match,
	}
}

func (f *fixture) initiate(t *testing.T) *model.Claim {
	t.Helper()
	claim, err := f.svc.Initiate(context.Background(), f.found.ID, f.claimant, nil, nil, "")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	return claim
}

func (f *fixture) toReview(t *testing.T) *model.Claim {
	t.Helper()
	claim := f.initiate(t)
	claim, err := f.svc.SubmitVerification(context.Background(), claim.ID, f.claimant, model.VerificationAnswers{
		SecretMarks: "my initials are engraved inside",
	})
	if err != nil {
		t.Fatalf("SubmitVerification: %v", err)
	}
	return claim
}

func TestInitiateLinksLiveMatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	claim := f.initiate(t)
	if claim.Status != model.ClaimStatusVerificationPending {
		t.Errorf("expected verification_pending, got %q", claim.Status)
	}
	if claim.LostItemID == nil || *claim.LostItemID != f.lost.ID {
		t.Errorf("expected claim linked to lost item %d, got %v", f.lost.ID, claim.LostItemID)
	}

	match, _ := store.GetMatch(ctx, f.db, f.match.ID)
	if match.Status != model.MatchStatusClaimed {
		t.Errorf("expected match claimed, got %q", match.Status)
	}
}

func TestInitiateFinderCannotClaimOwnItem(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Initiate(context.Background(), f.found.ID, f.finder, nil, nil, "")
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestInitiateBlocksSecondClaim(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other, err := store.CreateUser(ctx, f.db, "other", "", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	f.initiate(t)
	_, err = f.svc.Initiate(ctx, f.found.ID, other.ID, nil, nil, "")
	if !errors.Is(err, model.ErrRaceLost) {
		t.Errorf("expected ErrRaceLost for second claim, got %v", err)
	}
}

func TestInitiateMissingItem(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Initiate(context.Background(), 9999, f.claimant, nil, nil, "")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVerificationSharedMarkPasses(t *testing.T) {
	f := setup(t)

	claim := f.toReview(t)
	if claim.Status != model.ClaimStatusAdminReview {
		t.Errorf("expected admin_review, got %q", claim.Status)
	}
	if claim.Answers == nil || claim.Answers.SecretMarks == "" {
		t.Error("expected answers to be recorded")
	}
}

func TestVerificationFailureReleasesItems(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	claim := f.initiate(t)
	claim, err := f.svc.SubmitVerification(ctx, claim.ID, f.claimant, model.VerificationAnswers{
		SecretMarks: "it is blue",
	})
	if err != nil {
		t.Fatalf("SubmitVerification: %v", err)
	}
	if claim.Status != model.ClaimStatusVerificationFailed {
		t.Errorf("expected verification_failed, got %q", claim.Status)
	}

	lost, _ := store.GetLostItem(ctx, f.db, f.lost.ID)
	if lost.Status != model.ItemStatusActive {
		t.Errorf("expected lost item released to active, got %q", lost.Status)
	}
	found, _ := store.GetFoundItem(ctx, f.db, f.found.ID)
	if found.Status != model.ItemStatusActive {
		t.Errorf("expected found item released to active, got %q", found.Status)
	}
	match, _ := store.GetMatch(ctx, f.db, f.match.ID)
	if match.Status != model.MatchStatusRejected {
		t.Errorf("expected match rejected, got %q", match.Status)
	}
}

func TestVerificationOnlyClaimant(t *testing.T) {
	f := setup(t)

	claim := f.initiate(t)
	_, err := f.svc.SubmitVerification(context.Background(), claim.ID, f.finder, model.VerificationAnswers{})
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerificationWithoutMarksPasses(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Wipe the recorded marks: there is nothing to check against, so the
	// claim goes straight to a human reviewer.
	if _, err := f.db.ExecContext(ctx, `UPDATE lost_items SET unique_marks = NULL WHERE id = ?`, f.lost.ID); err != nil {
		t.Fatalf("clearing marks: %v", err)
	}

	claim := f.initiate(t)
	claim, err := f.svc.SubmitVerification(ctx, claim.ID, f.claimant, model.VerificationAnswers{
		WhereLost: "city park",
	})
	if err != nil {
		t.Fatalf("SubmitVerification: %v", err)
	}
	if claim.Status != model.ClaimStatusAdminReview {
		t.Errorf("expected admin_review, got %q", claim.Status)
	}
}

func TestVerificationTwiceRejected(t *testing.T) {
	f := setup(t)

	claim := f.toReview(t)
	_, err := f.svc.SubmitVerification(context.Background(), claim.ID, f.claimant, model.VerificationAnswers{})
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAdminApprove(t *testing.T) {
	f := setup(t)

	claim := f.toReview(t)
	claim, err := f.svc.AdminAction(context.Background(), claim.ID, ActionApprove, 1, "")
	if err != nil {
		t.Fatalf("AdminAction: %v", err)
	}
	if claim.Status != model.ClaimStatusApproved {
		t.Errorf("expected approved, got %q", claim.Status)
	}
}

func TestAdminApproveTwiceIsNoOp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	claim := f.toReview(t)
	if _, err := f.svc.AdminAction(ctx, claim.ID, ActionApprove, 1, ""); err != nil {
		t.Fatalf("AdminAction: %v", err)
	}

	claim, err := f.svc.AdminAction(ctx, claim.ID, ActionApprove, 1, "")
	if err != nil {
		t.Fatalf("expected repeated approval to be a no-op, got %v", err)
	}
	if claim.Status != model.ClaimStatusApproved {
		t.Errorf("expected approved, got %q", claim.Status)
	}
}

func TestAdminRejectReleasesItems(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	claim := f.toReview(t)
	claim, err := f.svc.AdminAction(ctx, claim.ID, ActionReject, 1, "answers did not hold up")
	if err != nil {
		t.Fatalf("AdminAction: %v", err)
	}
	if claim.Status != model.ClaimStatusRejected {
		t.Errorf("expected rejected, got %q", claim.Status)
	}
	if claim.RejectReason != "answers did not hold up" {
		t.Errorf("expected reject reason recorded, got %q", claim.RejectReason)
	}

	lost, _ := store.GetLostItem(ctx, f.db, f.lost.ID)
	if lost.Status != model.ItemStatusActive {
		t.Errorf("expected lost item released, got %q", lost.Status)
	}
	found, _ := store.GetFoundItem(ctx, f.db, f.found.ID)
	if found.Status != model.ItemStatusActive {
		t.Errorf("expected found item released, got %q", found.Status)
	}
}

func TestAdminActionBeforeReview(t *testing.T) {
	f := setup(t)

	claim := f.initiate(t)
	_, err := f.svc.AdminAction(context.Background(), claim.ID, ActionApprove, 1, "")
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	// The failed action must not have moved the claim.
	got, _ := store.GetClaim(context.Background(), f.db, claim.ID)
	if got.Status != model.ClaimStatusVerificationPending {
		t.Errorf("expected claim unchanged, got %q", got.Status)
	}
}

func TestAdminActionUnknown(t *testing.T) {
	f := setup(t)

	claim := f.toReview(t)
	_, err := f.svc.AdminAction(context.Background(), claim.ID, "escalate", 1, "")
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteResolvesEverything(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	claim := f.toReview(t)
	if _, err := f.svc.AdminAction(ctx, claim.ID, ActionApprove, 1, ""); err != nil {
		t.Fatalf("AdminAction: %v", err)
	}

	claim, err := f.svc.Complete(ctx, claim.ID, f.claimant)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if claim.Status != model.ClaimStatusCompleted {
		t.Errorf("expected completed, got %q", claim.Status)
	}

	lost, _ := store.GetLostItem(ctx, f.db, f.lost.ID)
	if lost.Status != model.ItemStatusResolved {
		t.Errorf("expected lost item resolved, got %q", lost.Status)
	}
	found, _ := store.GetFoundItem(ctx, f.db, f.found.ID)
	if found.Status != model.ItemStatusResolved {
		t.Errorf("expected found item resolved, got %q", found.Status)
	}
	match, _ := store.GetMatch(ctx, f.db, f.match.ID)
	if match.Status != model.MatchStatusResolved {
		t.Errorf("expected match resolved, got %q", match.Status)
	}
}

func TestCompleteTwiceIsNoOp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	claim := f.toReview(t)
	if _, err := f.svc.AdminAction(ctx, claim.ID, ActionApprove, 1, ""); err != nil {
		t.Fatalf("AdminAction: %v", err)
	}
	if _, err := f.svc.Complete(ctx, claim.ID, f.claimant); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	claim, err := f.svc.Complete(ctx, claim.ID, f.claimant)
	if err != nil {
		t.Fatalf("expected repeated completion to be a no-op, got %v", err)
	}
	if claim.Status != model.ClaimStatusCompleted {
		t.Errorf("expected completed, got %q", claim.Status)
	}
}

func TestCompleteByFinder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	claim := f.toReview(t)
	f.svc.AdminAction(ctx, claim.ID, ActionApprove, 1, "")

	if _, err := f.svc.Complete(ctx, claim.ID, f.finder); err != nil {
		t.Errorf("expected finder to complete the claim, got %v", err)
	}
}

func TestCompleteRequiresApproval(t *testing.T) {
	f := setup(t)

	claim := f.toReview(t)
	_, err := f.svc.Complete(context.Background(), claim.ID, f.claimant)
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteByStranger(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	stranger, err := store.CreateUser(ctx, f.db, "stranger", "", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	claim := f.toReview(t)
	f.svc.AdminAction(ctx, claim.ID, ActionApprove, 1, "")

	_, err = f.svc.Complete(ctx, claim.ID, stranger.ID)
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
