package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reclaim-dev/reclaim/internal/model"
)

// CreateMatch creates a match record and locks both items out of the active
// pool in a single transaction. The conditional status updates are the guard:
// if either item has already been locked by a concurrent matching pass, the
// whole transaction rolls back with model.ErrRaceLost and no match exists.
// The unique (lost, found) pair index catches duplicate pair creation.
func CreateMatch(ctx context.Context, db *sql.DB, lostItemID, foundItemID int64, confidence int, details map[string]string) (*model.Match, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := SetLostItemStatus(ctx, tx, lostItemID, model.ItemStatusActive, model.ItemStatusMatched); err != nil {
		return nil, err
	}
	if err := SetFoundItemStatus(ctx, tx, foundItemID, model.ItemStatusActive, model.ItemStatusMatched); err != nil {
		return nil, err
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encoding match details: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO matches (lost_item_id, found_item_id, confidence, details)
		 VALUES (?, ?, ?, ?)`,
		lostItemID, foundItemID, confidence, string(detailsJSON),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, fmt.Errorf("match for pair (%d, %d) already exists: %w",
				lostItemID, foundItemID, model.ErrRaceLost)
		}
		return nil, fmt.Errorf("creating match: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting match id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing match: %w", err)
	}

	return GetMatch(ctx, db, id)
}

// GetMatch returns a match by ID, or nil if none exists.
func GetMatch(ctx context.Context, db DBTX, id int64) (*model.Match, error) {
	m := &model.Match{}
	var detailsJSON sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, lost_item_id, found_item_id, confidence, details, status, created_at
		 FROM matches WHERE id = ?`, id,
	).Scan(&m.ID, &m.LostItemID, &m.FoundItemID, &m.Confidence, &detailsJSON, &m.Status, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting match: %w", err)
	}
	if detailsJSON.Valid && detailsJSON.String != "" {
		if err := json.Unmarshal([]byte(detailsJSON.String), &m.Details); err != nil {
			return nil, fmt.Errorf("decoding match details: %w", err)
		}
	}
	return m, nil
}

// GetMatchByPair returns the match for a (lost, found) pair, or nil.
func GetMatchByPair(ctx context.Context, db DBTX, lostItemID, foundItemID int64) (*model.Match, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM matches WHERE lost_item_id = ? AND found_item_id = ?`,
		lostItemID, foundItemID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting match by pair: %w", err)
	}
	return GetMatch(ctx, db, id)
}

// GetLiveMatchForFoundItem returns the active or claimed match referencing a
// found item, or nil. Used to link a claim to the lost item it was matched
// against when the claimant does not name one.
func GetLiveMatchForFoundItem(ctx context.Context, db DBTX, foundItemID int64) (*model.Match, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM matches WHERE found_item_id = ? AND status IN ('active', 'claimed')
		 ORDER BY confidence DESC LIMIT 1`, foundItemID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting live match for found item: %w", err)
	}
	return GetMatch(ctx, db, id)
}

// ListMatchesForUser returns matches where the user owns the lost item or
// found the found item, newest first.
func ListMatchesForUser(ctx context.Context, db DBTX, userID int64) ([]model.Match, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT m.id, m.lost_item_id, m.found_item_id, m.confidence, m.details, m.status, m.created_at
		 FROM matches m
		 JOIN lost_items l ON l.id = m.lost_item_id
		 JOIN found_items f ON f.id = m.found_item_id
		 WHERE l.user_id = ? OR f.finder_id = ?
		 ORDER BY m.created_at DESC`, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		var m model.Match
		var detailsJSON sql.NullString
		if err := rows.Scan(&m.ID, &m.LostItemID, &m.FoundItemID, &m.Confidence,
			&detailsJSON, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &m.Details); err != nil {
				return nil, fmt.Errorf("decoding match details: %w", err)
			}
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// SetMatchStatus updates a match's status unconditionally (claim transitions
// guard on the claim row, not the match row).
func SetMatchStatus(ctx context.Context, db DBTX, id int64, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE matches SET status = ? WHERE id = ?`, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating match status: %w", err)
	}
	return nil
}

// SetMatchStatusByPair updates the status of the match covering a pair, if any.
func SetMatchStatusByPair(ctx context.Context, db DBTX, lostItemID, foundItemID int64, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE matches SET status = ? WHERE lost_item_id = ? AND found_item_id = ?`,
		status, lostItemID, foundItemID,
	)
	if err != nil {
		return fmt.Errorf("updating match status by pair: %w", err)
	}
	return nil
}
