package store

import (
	"context"
	"fmt"
	"time"

	"github.com/reclaim-dev/reclaim/internal/model"
)

// CreateChatMessage stores an already-encrypted message blob for a claim.
func CreateChatMessage(ctx context.Context, db DBTX, claimID, senderID int64, content []byte) (*model.ChatMessage, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO chat_messages (claim_id, sender_id, content) VALUES (?, ?, ?)`,
		claimID, senderID, content,
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting chat message id: %w", err)
	}

	var createdAt time.Time
	err = db.QueryRowContext(ctx,
		`SELECT created_at FROM chat_messages WHERE id = ?`, id,
	).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("getting chat message: %w", err)
	}

	return &model.ChatMessage{
		ID:        id,
		ClaimID:   claimID,
		SenderID:  senderID,
		CreatedAt: createdAt,
	}, nil
}

// EncryptedChatMessage is a stored message before decryption.
type EncryptedChatMessage struct {
	ID        int64
	ClaimID   int64
	SenderID  int64
	Content   []byte
	CreatedAt time.Time
}

// ListChatMessages returns a claim's messages oldest first, content still
// encrypted. Decryption happens in the chat service for authorized readers.
func ListChatMessages(ctx context.Context, db DBTX, claimID int64) ([]EncryptedChatMessage, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, claim_id, sender_id, content, created_at
		 FROM chat_messages WHERE claim_id = ? ORDER BY created_at, id`, claimID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	var messages []EncryptedChatMessage
	for rows.Next() {
		var m EncryptedChatMessage
		if err := rows.Scan(&m.ID, &m.ClaimID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
