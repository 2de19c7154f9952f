package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reclaim-dev/reclaim/internal/model"
)

// CreateNotification inserts a notification row for a user.
func CreateNotification(ctx context.Context, db DBTX, userID int64, title, message, typ, link string) (*model.Notification, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, title, message, type, link) VALUES (?, ?, ?, ?, ?)`,
		userID, title, message, typ, nullString(link),
	)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting notification id: %w", err)
	}

	n := &model.Notification{}
	var linkCol sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT id, user_id, title, message, type, link, read, created_at
		 FROM notifications WHERE id = ?`, id,
	).Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &linkCol, &n.Read, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	n.Link = linkCol.String
	return n, nil
}

// ListNotifications returns the user's most recent notifications.
func ListNotifications(ctx context.Context, db DBTX, userID int64, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, title, message, type, link, read, created_at
		 FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var link sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &link, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Link = link.String
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marks one notification read, only for its owner.
func MarkNotificationRead(ctx context.Context, db DBTX, id, userID int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking notification update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("notification %d for user %d: %w", id, userID, model.ErrNotFound)
	}
	return nil
}

// MarkAllNotificationsRead marks all of a user's notifications read.
func MarkAllNotificationsRead(ctx context.Context, db DBTX, userID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`, userID,
	)
	if err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// CountUnreadNotifications returns the user's unread notification count.
func CountUnreadNotifications(ctx context.Context, db DBTX, userID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}
