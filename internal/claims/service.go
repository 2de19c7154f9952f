package claims

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reclaim-dev/reclaim/internal/matching"
	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
)

// minMarkTokenLen is the minimum token length that counts as a significant
// unique-mark token during automatic answer checking.
const minMarkTokenLen = 4

// Notifier receives claim lifecycle events. Delivery is fire-and-forget:
// failures never roll back a transition.
type Notifier interface {
	ClaimInitiated(ctx context.Context, claim *model.Claim, finderID int64)
	ClaimNeedsReview(ctx context.Context, claim *model.Claim)
	ClaimApproved(ctx context.Context, claim *model.Claim, finderID int64)
	ClaimRejected(ctx context.Context, claim *model.Claim, reason string)
	ClaimCompleted(ctx context.Context, claim *model.Claim, finderID int64)
}

// Service drives claim transitions. Every transition couples the claim-status
// update with its paired item-status updates in one transaction, guarded by
// conditional updates, so a crash or concurrent request can never leave a
// claim approved while its item still points at a stale lock.
type Service struct {
	DB     *sql.DB
	Notify Notifier
}

// Initiate creates a claim against a found item. The item must be active or
// matched with no other claim in progress, and the finder cannot claim their
// own item. When no lost item is named, the live match's lost item is linked.
func (s *Service) Initiate(ctx context.Context, foundItemID, claimantID int64, lostItemID *int64, answers *model.VerificationAnswers, proofAssetID string) (*model.Claim, error) {
	found, err := store.GetFoundItem(ctx, s.DB, foundItemID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("found item %d: %w", foundItemID, model.ErrNotFound)
	}
	if found.FinderID == claimantID {
		return nil, fmt.Errorf("finder cannot claim their own item: %w", model.ErrUnauthorized)
	}

	if lostItemID == nil {
		match, err := store.GetLiveMatchForFoundItem(ctx, s.DB, foundItemID)
		if err != nil {
			return nil, err
		}
		if match != nil {
			lostItemID = &match.LostItemID
		}
	}

	claim, err := store.CreateClaim(ctx, s.DB, foundItemID, lostItemID, claimantID, answers, proofAssetID)
	if err != nil {
		return nil, err
	}

	if lostItemID != nil {
		if err := store.SetMatchStatusByPair(ctx, s.DB, *lostItemID, foundItemID, model.MatchStatusClaimed); err != nil {
			slog.Warn("marking match claimed", "claim", claim.ID, "error", err)
		}
	}

	slog.Info("claim initiated", "claim", claim.ID, "found_item", foundItemID, "claimant", claimantID)
	if s.Notify != nil {
		s.Notify.ClaimInitiated(ctx, claim, found.FinderID)
	}
	return claim, nil
}

// SubmitVerification runs the automatic answer check for a claim in
// verification_pending. When the linked lost item has recorded unique marks,
// at least one shared significant token between those marks and the secret
// marks answer is required. Failure moves the claim to verification_failed
// and releases both items back to the active pool in the same transaction.
func (s *Service) SubmitVerification(ctx context.Context, claimID, callerID int64, answers model.VerificationAnswers) (*model.Claim, error) {
	claim, err := store.GetClaim(ctx, s.DB, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("claim %d: %w", claimID, model.ErrNotFound)
	}
	if claim.ClaimantID != callerID {
		return nil, fmt.Errorf("only the claimant may submit verification: %w", model.ErrUnauthorized)
	}
	if claim.Status != model.ClaimStatusVerificationPending {
		return nil, fmt.Errorf("claim %d cannot be verified from %q: %w",
			claimID, claim.Status, model.ErrInvalidTransition)
	}

	passed := true
	if claim.LostItemID != nil {
		lost, err := store.GetLostItem(ctx, s.DB, *claim.LostItemID)
		if err != nil {
			return nil, err
		}
		if lost != nil && lost.UniqueMarks != "" {
			shared := matching.SharedTokens(lost.UniqueMarks, answers.SecretMarks, minMarkTokenLen)
			passed = len(shared) > 0
		}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := store.SetClaimAnswers(ctx, tx, claimID, &answers); err != nil {
		return nil, err
	}

	if passed {
		if err := store.SetClaimStatus(ctx, tx, claimID, model.ClaimStatusVerificationPending, model.ClaimStatusAdminReview); err != nil {
			return nil, err
		}
	} else {
		if err := store.SetClaimStatus(ctx, tx, claimID, model.ClaimStatusVerificationPending, model.ClaimStatusVerificationFailed); err != nil {
			return nil, err
		}
		// Undo the match lock so the pool can re-offer both items.
		if err := s.releaseItems(ctx, tx, claim); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing verification: %w", err)
	}

	updated, err := store.GetClaim(ctx, s.DB, claimID)
	if err != nil {
		return nil, err
	}

	slog.Info("claim verification submitted", "claim", claimID, "passed", passed)
	if passed && s.Notify != nil {
		s.Notify.ClaimNeedsReview(ctx, updated)
	}
	return updated, nil
}

// Admin actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// AdminAction approves or rejects a claim in admin_review. Approval makes the
// image privacy gate pass permanently for this claimant; rejection releases
// the items back to the active pool.
func (s *Service) AdminAction(ctx context.Context, claimID int64, action string, adminID int64, reason string) (*model.Claim, error) {
	claim, err := store.GetClaim(ctx, s.DB, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("claim %d: %w", claimID, model.ErrNotFound)
	}

	var target string
	switch action {
	case ActionApprove:
		target = model.ClaimStatusApproved
	case ActionReject:
		target = model.ClaimStatusRejected
	default:
		return nil, fmt.Errorf("unknown admin action %q: %w", action, model.ErrInvalidTransition)
	}
	if claim.Status == target {
		// Same-state moves are declared no-ops; a repeated decision
		// returns the claim unchanged without re-notifying anyone.
		return claim, nil
	}
	if err := ValidateTransition(claim.Status, target); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := store.SetClaimStatus(ctx, tx, claimID, model.ClaimStatusAdminReview, target); err != nil {
		return nil, err
	}
	if target == model.ClaimStatusRejected {
		if err := store.SetClaimRejectReason(ctx, tx, claimID, reason); err != nil {
			return nil, err
		}
		if err := s.releaseItems(ctx, tx, claim); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing admin action: %w", err)
	}

	updated, err := store.GetClaim(ctx, s.DB, claimID)
	if err != nil {
		return nil, err
	}

	slog.Info("claim reviewed", "claim", claimID, "action", action, "admin", adminID)
	if s.Notify != nil {
		found, _ := store.GetFoundItem(ctx, s.DB, claim.FoundItemID)
		finderID := int64(0)
		if found != nil {
			finderID = found.FinderID
		}
		if target == model.ClaimStatusApproved {
			s.Notify.ClaimApproved(ctx, updated, finderID)
		} else {
			s.Notify.ClaimRejected(ctx, updated, reason)
		}
	}
	return updated, nil
}

// Complete marks the handover finished. Claimant or finder may call it; both
// items become resolved and the claim reaches its terminal state.
func (s *Service) Complete(ctx context.Context, claimID, callerID int64) (*model.Claim, error) {
	claim, err := store.GetClaim(ctx, s.DB, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("claim %d: %w", claimID, model.ErrNotFound)
	}

	found, err := store.GetFoundItem(ctx, s.DB, claim.FoundItemID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("found item %d: %w", claim.FoundItemID, model.ErrNotFound)
	}
	if callerID != claim.ClaimantID && callerID != found.FinderID {
		return nil, fmt.Errorf("only the claimant or finder may complete a claim: %w", model.ErrUnauthorized)
	}
	if claim.Status == model.ClaimStatusCompleted {
		return claim, nil
	}
	if err := ValidateTransition(claim.Status, model.ClaimStatusCompleted); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := store.SetClaimStatus(ctx, tx, claimID, model.ClaimStatusApproved, model.ClaimStatusCompleted); err != nil {
		return nil, err
	}
	if err := setItemStatusAny(ctx, tx, claim, model.ItemStatusResolved); err != nil {
		return nil, err
	}
	if claim.LostItemID != nil {
		if err := store.SetMatchStatusByPair(ctx, tx, *claim.LostItemID, claim.FoundItemID, model.MatchStatusResolved); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing completion: %w", err)
	}

	updated, err := store.GetClaim(ctx, s.DB, claimID)
	if err != nil {
		return nil, err
	}

	slog.Info("claim completed", "claim", claimID)
	if s.Notify != nil {
		s.Notify.ClaimCompleted(ctx, updated, found.FinderID)
	}
	return updated, nil
}

// releaseItems resets the claim's items from matched back to active and marks
// the covering match rejected. Items that were never locked (the claim was
// filed against a still-active item) are left alone.
func (s *Service) releaseItems(ctx context.Context, tx *sql.Tx, claim *model.Claim) error {
	err := store.SetFoundItemStatus(ctx, tx, claim.FoundItemID, model.ItemStatusMatched, model.ItemStatusActive)
	if err != nil && !errors.Is(err, model.ErrRaceLost) {
		return err
	}
	if claim.LostItemID != nil {
		err := store.SetLostItemStatus(ctx, tx, *claim.LostItemID, model.ItemStatusMatched, model.ItemStatusActive)
		if err != nil && !errors.Is(err, model.ErrRaceLost) {
			return err
		}
		if err := store.SetMatchStatusByPair(ctx, tx, *claim.LostItemID, claim.FoundItemID, model.MatchStatusRejected); err != nil {
			return err
		}
	}
	return nil
}

// setItemStatusAny moves the claim's items to the target status from whatever
// non-terminal status they hold. Runs inside the claim transition transaction.
func setItemStatusAny(ctx context.Context, tx *sql.Tx, claim *model.Claim, to string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE found_items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status != ?`,
		to, claim.FoundItemID, to,
	); err != nil {
		return fmt.Errorf("updating found item status: %w", err)
	}
	if claim.LostItemID != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE lost_items SET status = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND status != ?`,
			to, *claim.LostItemID, to,
		); err != nil {
			return fmt.Errorf("updating lost item status: %w", err)
		}
	}
	return nil
}
