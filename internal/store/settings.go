package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// getOrCreateSecret returns the named secret from the settings table,
// generating and storing a fresh random one on first use. Uses INSERT OR
// IGNORE + re-SELECT to avoid a TOCTOU race on concurrent startup.
func getOrCreateSecret(ctx context.Context, db DBTX, key string, bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}

	return secret, nil
}

// GetJWTSecret returns the persistent JWT signing secret.
func GetJWTSecret(ctx context.Context, db DBTX) (string, error) {
	return getOrCreateSecret(ctx, db, "jwt_secret", 32)
}

// GetImageKey returns the process-wide image encryption key (hex, 32 bytes).
// The key is never derived from request data; losing it makes all stored
// originals unrecoverable.
func GetImageKey(ctx context.Context, db DBTX) (string, error) {
	return getOrCreateSecret(ctx, db, "image_key", 32)
}
