package model

import "time"

// Claim statuses. The transition table over these lives in internal/claims.
const (
	ClaimStatusVerificationPending = "verification_pending"
	ClaimStatusVerificationFailed  = "verification_failed"
	ClaimStatusAdminReview         = "admin_review"
	ClaimStatusApproved            = "approved"
	ClaimStatusRejected            = "rejected"
	ClaimStatusCompleted           = "completed"
)

// VerificationAnswers are the claimant's answers to the ownership questions.
// Serialized to JSON only at the storage boundary.
type VerificationAnswers struct {
	WhereLost   string `json:"where_lost,omitempty"`
	WhenLost    string `json:"when_lost,omitempty"`
	SecretMarks string `json:"secret_marks,omitempty"`
	Extra       string `json:"extra,omitempty"`
}

// Claim is one user's assertion of ownership over a found item.
type Claim struct {
	ID           int64                `json:"id"`
	FoundItemID  int64                `json:"found_item_id"`
	LostItemID   *int64               `json:"lost_item_id,omitempty"`
	ClaimantID   int64                `json:"claimant_id"`
	Status       string               `json:"status"`
	Answers      *VerificationAnswers `json:"-"` // never exposed: the finder must not see them
	ProofAssetID string               `json:"-"`
	RejectReason string               `json:"reject_reason,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Notification is a per-user inbox entry written by the dispatcher.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification types.
const (
	NotifyTypeSystem = "system"
	NotifyTypeMatch  = "match"
	NotifyTypeClaim  = "claim"
)

// ChatMessage is a message between claimant and finder, available only once
// the claim is approved. Content is encrypted at rest.
type ChatMessage struct {
	ID        int64     `json:"id"`
	ClaimID   int64     `json:"claim_id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
