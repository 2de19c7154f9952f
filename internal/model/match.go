package model

import "time"

// Match statuses.
const (
	MatchStatusActive   = "active"   // scored pairing, not yet claimed
	MatchStatusClaimed  = "claimed"  // a claim is in flight against the found item
	MatchStatusRejected = "rejected" // verification failed or admin rejected; items released
	MatchStatusResolved = "resolved" // handover completed
)

// Match is a scored pairing between one lost and one found report. Creating a
// match is the single event that locks both items out of the active pool, so
// there is at most one match per (lost, found) pair.
type Match struct {
	ID          int64             `json:"id"`
	LostItemID  int64             `json:"lost_item_id"`
	FoundItemID int64             `json:"found_item_id"`
	Confidence  int               `json:"confidence"`
	Details     map[string]string `json:"details,omitempty"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}
