package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reclaim-dev/reclaim/internal/model"
)

// CreateLostItem inserts a lost-item report in status active.
func CreateLostItem(ctx context.Context, db DBTX, item *model.LostItem) (*model.LostItem, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO lost_items (user_id, item_name, category, color, material, description,
		                         unique_marks, location_text, lat, lng, date_lost)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.UserID, item.ItemName, item.Category, item.Color, item.Material, item.Description,
		item.UniqueMarks, item.LocationText, item.Lat, item.Lng, item.DateLost,
	)
	if err != nil {
		return nil, fmt.Errorf("creating lost item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting lost item id: %w", err)
	}

	return GetLostItem(ctx, db, id)
}

// GetLostItem returns a lost item by ID, or nil if none exists.
func GetLostItem(ctx context.Context, db DBTX, id int64) (*model.LostItem, error) {
	item := &model.LostItem{}
	var color, material, description, marks, locText sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, item_name, category, color, material, description, unique_marks,
		        location_text, lat, lng, date_lost, status, created_at, updated_at
		 FROM lost_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.UserID, &item.ItemName, &item.Category, &color, &material,
		&description, &marks, &locText, &item.Lat, &item.Lng, &item.DateLost,
		&item.Status, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lost item: %w", err)
	}
	item.Color = color.String
	item.Material = material.String
	item.Description = description.String
	item.UniqueMarks = marks.String
	item.LocationText = locText.String
	return item, nil
}

// ListLostItems returns lost items, optionally filtered by status.
func ListLostItems(ctx context.Context, db DBTX, status string) ([]model.LostItem, error) {
	query := `SELECT id, user_id, item_name, category, color, material, description, unique_marks,
	                 location_text, lat, lng, date_lost, status, created_at, updated_at
	          FROM lost_items`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing lost items: %w", err)
	}
	defer rows.Close()

	var items []model.LostItem
	for rows.Next() {
		var item model.LostItem
		var color, material, description, marks, locText sql.NullString
		if err := rows.Scan(&item.ID, &item.UserID, &item.ItemName, &item.Category, &color,
			&material, &description, &marks, &locText, &item.Lat, &item.Lng,
			&item.DateLost, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning lost item: %w", err)
		}
		item.Color = color.String
		item.Material = material.String
		item.Description = description.String
		item.UniqueMarks = marks.String
		item.LocationText = locText.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetLostItemStatus transitions a lost item's status only if its current
// status matches from. Returns model.ErrRaceLost when another caller changed
// the status first; this is the atomic guard the matching lock relies on.
func SetLostItemStatus(ctx context.Context, db DBTX, id int64, from, to string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE lost_items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("updating lost item status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking lost item status update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("lost item %d not in status %q: %w", id, from, model.ErrRaceLost)
	}
	return nil
}

// CreateFoundItem inserts a found-item report in status active.
func CreateFoundItem(ctx context.Context, db DBTX, item *model.FoundItem) (*model.FoundItem, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO found_items (finder_id, item_name, category, description, condition,
		                          storage_place, location_text, lat, lng,
		                          masked_asset_id, original_asset_id, mask_failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.FinderID, item.ItemName, item.Category, item.Description, item.Condition,
		item.StoragePlace, item.LocationText, item.Lat, item.Lng,
		nullString(item.MaskedAssetID), nullString(item.OriginalAssetID), item.MaskFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("creating found item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting found item id: %w", err)
	}

	return GetFoundItem(ctx, db, id)
}

// GetFoundItem returns a found item by ID, or nil if none exists.
func GetFoundItem(ctx context.Context, db DBTX, id int64) (*model.FoundItem, error) {
	item := &model.FoundItem{}
	var description, condition, storage, locText, masked, original sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, finder_id, item_name, category, description, condition, storage_place,
		        location_text, lat, lng, masked_asset_id, original_asset_id, mask_failed,
		        status, created_at, updated_at
		 FROM found_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.FinderID, &item.ItemName, &item.Category, &description, &condition,
		&storage, &locText, &item.Lat, &item.Lng, &masked, &original, &item.MaskFailed,
		&item.Status, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting found item: %w", err)
	}
	item.Description = description.String
	item.Condition = condition.String
	item.StoragePlace = storage.String
	item.LocationText = locText.String
	item.MaskedAssetID = masked.String
	item.OriginalAssetID = original.String
	item.HasImage = masked.Valid && masked.String != ""
	return item, nil
}

// ListFoundItems returns found items, optionally filtered by status.
func ListFoundItems(ctx context.Context, db DBTX, status string) ([]model.FoundItem, error) {
	query := `SELECT id, finder_id, item_name, category, description, condition, storage_place,
	                 location_text, lat, lng, masked_asset_id, original_asset_id, mask_failed,
	                 status, created_at, updated_at
	          FROM found_items`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing found items: %w", err)
	}
	defer rows.Close()

	var items []model.FoundItem
	for rows.Next() {
		var item model.FoundItem
		var description, condition, storage, locText, masked, original sql.NullString
		if err := rows.Scan(&item.ID, &item.FinderID, &item.ItemName, &item.Category,
			&description, &condition, &storage, &locText, &item.Lat, &item.Lng,
			&masked, &original, &item.MaskFailed,
			&item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning found item: %w", err)
		}
		item.Description = description.String
		item.Condition = condition.String
		item.StoragePlace = storage.String
		item.LocationText = locText.String
		item.MaskedAssetID = masked.String
		item.OriginalAssetID = original.String
		item.HasImage = masked.Valid && masked.String != ""
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetFoundItemStatus is the found-item counterpart of SetLostItemStatus.
func SetFoundItemStatus(ctx context.Context, db DBTX, id int64, from, to string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE found_items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("updating found item status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking found item status update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("found item %d not in status %q: %w", id, from, model.ErrRaceLost)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
