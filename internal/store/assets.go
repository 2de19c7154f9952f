package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CreateAsset stores a binary blob and returns its generated ID. Callers are
// responsible for encrypting originals before they reach this function; the
// store does not distinguish masked copies from ciphertext.
func CreateAsset(ctx context.Context, db DBTX, data []byte, mime string) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO assets (id, data, mime) VALUES (?, ?, ?)`,
		id, data, mime,
	)
	if err != nil {
		return "", fmt.Errorf("creating asset: %w", err)
	}
	return id, nil
}

// GetAsset returns an asset's bytes and MIME type, or nil data if missing.
func GetAsset(ctx context.Context, db DBTX, id string) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM assets WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting asset: %w", err)
	}
	return data, mime, nil
}

// DeleteAsset removes an asset.
func DeleteAsset(ctx context.Context, db DBTX, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	return nil
}
