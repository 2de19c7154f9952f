package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/reclaim-dev/reclaim/internal/model"
)

// liveClaimStatuses are claim states that block another claim on the same
// found item. A rejected or verification_failed claim does not block.
const liveClaimStatuses = `'verification_pending', 'admin_review', 'approved', 'completed'`

// CreateClaim creates a claim in verification_pending against a found item.
// Runs in a transaction so two concurrent initiations cannot both succeed:
// the live-claim check and the insert are atomic.
func CreateClaim(ctx context.Context, db *sql.DB, foundItemID int64, lostItemID *int64, claimantID int64, answers *model.VerificationAnswers, proofAssetID string) (*model.Claim, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM found_items WHERE id = ?`, foundItemID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("found item %d: %w", foundItemID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking found item: %w", err)
	}
	if status != model.ItemStatusActive && status != model.ItemStatusMatched {
		return nil, fmt.Errorf("found item %d is %s, not claimable: %w",
			foundItemID, status, model.ErrInvalidTransition)
	}

	var live int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE found_item_id = ? AND status IN (`+liveClaimStatuses+`)`,
		foundItemID,
	).Scan(&live)
	if err != nil {
		return nil, fmt.Errorf("checking existing claims: %w", err)
	}
	if live > 0 {
		return nil, fmt.Errorf("found item %d already has a claim in progress: %w",
			foundItemID, model.ErrRaceLost)
	}

	answersJSON, err := encodeAnswers(answers)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO claims (found_item_id, lost_item_id, claimant_id, answers, proof_asset_id)
		 VALUES (?, ?, ?, ?, ?)`,
		foundItemID, lostItemID, claimantID, answersJSON, nullString(proofAssetID),
	)
	if err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting claim id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}

	return GetClaim(ctx, db, id)
}

// GetClaim returns a claim by ID, or nil if none exists.
func GetClaim(ctx context.Context, db DBTX, id int64) (*model.Claim, error) {
	c := &model.Claim{}
	var answersJSON, proof, reason sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, found_item_id, lost_item_id, claimant_id, status, answers,
		        proof_asset_id, reject_reason, created_at, updated_at
		 FROM claims WHERE id = ?`, id,
	).Scan(&c.ID, &c.FoundItemID, &c.LostItemID, &c.ClaimantID, &c.Status, &answersJSON,
		&proof, &reason, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	c.ProofAssetID = proof.String
	c.RejectReason = reason.String
	if answersJSON.Valid && answersJSON.String != "" {
		c.Answers = &model.VerificationAnswers{}
		if err := json.Unmarshal([]byte(answersJSON.String), c.Answers); err != nil {
			return nil, fmt.Errorf("decoding claim answers: %w", err)
		}
	}
	return c, nil
}

// SetClaimStatus transitions a claim's status only if its current status
// matches from. RowsAffected==0 means either the claim is gone or a
// concurrent caller moved it first; both surface as model.ErrRaceLost.
func SetClaimStatus(ctx context.Context, db DBTX, id int64, from, to string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE claims SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("updating claim status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking claim status update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("claim %d not in status %q: %w", id, from, model.ErrRaceLost)
	}
	return nil
}

// SetClaimAnswers stores a claimant's verification answers.
func SetClaimAnswers(ctx context.Context, db DBTX, id int64, answers *model.VerificationAnswers) error {
	answersJSON, err := encodeAnswers(answers)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`UPDATE claims SET answers = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		answersJSON, id,
	)
	if err != nil {
		return fmt.Errorf("storing claim answers: %w", err)
	}
	return nil
}

// SetClaimRejectReason records why an admin rejected a claim.
func SetClaimRejectReason(ctx context.Context, db DBTX, id int64, reason string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE claims SET reject_reason = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		reason, id,
	)
	if err != nil {
		return fmt.Errorf("storing reject reason: %w", err)
	}
	return nil
}

// HasApprovedClaim reports whether the user holds an approved or completed
// claim against the found item. The image privacy gate calls this fresh on
// every request.
func HasApprovedClaim(ctx context.Context, db DBTX, foundItemID, userID int64) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims
		 WHERE found_item_id = ? AND claimant_id = ? AND status IN ('approved', 'completed')`,
		foundItemID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking approved claim: %w", err)
	}
	return count > 0, nil
}

// ListClaimsForUser returns claims the user filed, newest first.
func ListClaimsForUser(ctx context.Context, db DBTX, claimantID int64) ([]model.Claim, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, found_item_id, lost_item_id, claimant_id, status, answers,
		        proof_asset_id, reject_reason, created_at, updated_at
		 FROM claims WHERE claimant_id = ? ORDER BY created_at DESC`, claimantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var c model.Claim
		var answersJSON, proof, reason sql.NullString
		if err := rows.Scan(&c.ID, &c.FoundItemID, &c.LostItemID, &c.ClaimantID, &c.Status,
			&answersJSON, &proof, &reason, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		c.ProofAssetID = proof.String
		c.RejectReason = reason.String
		if answersJSON.Valid && answersJSON.String != "" {
			c.Answers = &model.VerificationAnswers{}
			if err := json.Unmarshal([]byte(answersJSON.String), c.Answers); err != nil {
				return nil, fmt.Errorf("decoding claim answers: %w", err)
			}
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// ListClaimsInReview returns all claims awaiting admin review, oldest first.
func ListClaimsInReview(ctx context.Context, db DBTX) ([]model.Claim, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, found_item_id, lost_item_id, claimant_id, status, answers,
		        proof_asset_id, reject_reason, created_at, updated_at
		 FROM claims WHERE status = ? ORDER BY created_at`, model.ClaimStatusAdminReview,
	)
	if err != nil {
		return nil, fmt.Errorf("listing claims in review: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var c model.Claim
		var answersJSON, proof, reason sql.NullString
		if err := rows.Scan(&c.ID, &c.FoundItemID, &c.LostItemID, &c.ClaimantID, &c.Status,
			&answersJSON, &proof, &reason, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		c.ProofAssetID = proof.String
		c.RejectReason = reason.String
		if answersJSON.Valid && answersJSON.String != "" {
			c.Answers = &model.VerificationAnswers{}
			if err := json.Unmarshal([]byte(answersJSON.String), c.Answers); err != nil {
				return nil, fmt.Errorf("decoding claim answers: %w", err)
			}
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func encodeAnswers(answers *model.VerificationAnswers) (any, error) {
	if answers == nil {
		return nil, nil
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("encoding claim answers: %w", err)
	}
	return string(data), nil
}
