package model

import "time"

// Item statuses. A report is active until the matcher locks it to a match,
// and resolved once a claim against it completes.
const (
	ItemStatusActive   = "active"
	ItemStatusMatched  = "matched"
	ItemStatusResolved = "resolved"
)

// LostItem is a report filed by someone who lost an item.
type LostItem struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ItemName     string    `json:"item_name"`
	Category     string    `json:"category"`
	Color        string    `json:"color,omitempty"`
	Material     string    `json:"material,omitempty"`
	Description  string    `json:"description,omitempty"`
	UniqueMarks  string    `json:"-"` // never serialized: used for ownership verification
	LocationText string    `json:"location_text,omitempty"`
	Lat          *float64  `json:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty"`
	DateLost     time.Time `json:"date_lost"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FoundItem is a report filed by someone who found an item. The public image
// is a blurred copy; the original is encrypted at rest and access-gated.
type FoundItem struct {
	ID              int64     `json:"id"`
	FinderID        int64     `json:"finder_id"`
	ItemName        string    `json:"item_name"`
	Category        string    `json:"category"`
	Description     string    `json:"description,omitempty"`
	Condition       string    `json:"condition,omitempty"`
	StoragePlace    string    `json:"storage_place,omitempty"`
	LocationText    string    `json:"location_text,omitempty"`
	Lat             *float64  `json:"lat,omitempty"`
	Lng             *float64  `json:"lng,omitempty"`
	MaskedAssetID   string    `json:"-"`
	OriginalAssetID string    `json:"-"`
	MaskFailed      bool      `json:"-"` // masking failed: image withheld pending manual review
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	HasImage bool `json:"has_image"`
}
