package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reclaim-dev/reclaim/internal/model"
)

// CreateUser creates a new user.
func CreateUser(ctx context.Context, db DBTX, username, email, passwordHash, role string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, or nil if none exists.
func GetUser(ctx context.Context, db DBTX, id int64) (*model.User, error) {
	u := &model.User{}
	var email sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at, deleted_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.Email = email.String
	return u, nil
}

// GetUserByUsername returns a user by username (including soft-deleted for auth checks).
func GetUserByUsername(ctx context.Context, db DBTX, username string) (*model.User, error) {
	u := &model.User{}
	var email sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at, deleted_at
		 FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	u.Email = email.String
	return u, nil
}

// ListAdmins returns all active admin users. Used to fan out review
// notifications when a claim reaches admin review.
func ListAdmins(ctx context.Context, db DBTX) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at, deleted_at
		 FROM users WHERE role = ? AND deleted_at IS NULL ORDER BY id`, model.RoleAdmin,
	)
	if err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db DBTX) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at, deleted_at
		 FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]model.User, error) {
	var users []model.User
	for rows.Next() {
		var u model.User
		var email sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.Email = email.String
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db DBTX, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// UpdateUserRole updates a user's role.
func UpdateUserRole(ctx context.Context, db DBTX, id int64, role string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE id = ? AND deleted_at IS NULL`,
		role, id,
	)
	if err != nil {
		return fmt.Errorf("updating user role: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db DBTX, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
