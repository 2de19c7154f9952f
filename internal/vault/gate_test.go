package vault

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/reclaim-dev/reclaim/internal/db"
	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
)

type gateFixture struct {
	db       *sql.DB
	cipher   *Cipher
	finder   *model.User
	claimant *model.User
	stranger *model.User
	item     *model.FoundItem
	original []byte
}

func setupGate(t *testing.T) *gateFixture {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	finder, err := store.CreateUser(ctx, database, "finder", "", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	claimant, err := store.CreateUser(ctx, database, "claimant", "", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	stranger, err := store.CreateUser(ctx, database, "stranger", "", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	cipher := testCipher(t)
	upload := testImagePNG(t, 200, 200)
	originalID, maskedID, maskFailed, err := StoreEvidence(ctx, database, cipher, upload)
	if err != nil {
		t.Fatalf("StoreEvidence: %v", err)
	}
	if maskFailed {
		t.Fatal("unexpected mask failure")
	}

	item, err := store.CreateFoundItem(ctx, database, &model.FoundItem{
		FinderID:        finder.ID,
		ItemName:        "Black Wallet",
		Category:        "Accessories",
		OriginalAssetID: originalID,
		MaskedAssetID:   maskedID,
	})
	if err != nil {
		t.Fatalf("CreateFoundItem: %v", err)
	}

	original, err := ProcessUpload(upload)
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	return &gateFixture{
		db:       database,
		cipher:   cipher,
		finder:   finder,
		claimant: claimant,
		stranger: stranger,
		item:     item,
		original: original,
	}
}

// approveClaim files a claim by the claimant and walks it to approved.
func (f *gateFixture) approveClaim(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	lost, err := store.CreateLostItem(ctx, f.db, &model.LostItem{
		UserID:   f.claimant.ID,
		ItemName: "Black Wallet",
		Category: "Accessories",
		DateLost: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateLostItem: %v", err)
	}

	claim, err := store.CreateClaim(ctx, f.db, f.item.ID, &lost.ID, f.claimant.ID, nil, "")
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	if err := store.SetClaimStatus(ctx, f.db, claim.ID, model.ClaimStatusVerificationPending, model.ClaimStatusAdminReview); err != nil {
		t.Fatalf("SetClaimStatus: %v", err)
	}
	if err := store.SetClaimStatus(ctx, f.db, claim.ID, model.ClaimStatusAdminReview, model.ClaimStatusApproved); err != nil {
		t.Fatalf("SetClaimStatus: %v", err)
	}
}

func TestCanViewOriginal(t *testing.T) {
	f := setupGate(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userID   int64
		role     string
		expected bool
	}{
		{"finder", f.finder.ID, model.RoleUser, true},
		{"admin", f.stranger.ID, model.RoleAdmin, true},
		{"stranger", f.stranger.ID, model.RoleUser, false},
		{"claimant before approval", f.claimant.ID, model.RoleUser, false},
	}

	for _, tt := range tests {
		got, err := CanViewOriginal(ctx, f.db, tt.userID, tt.role, f.item)
		if err != nil {
			t.Fatalf("%s: CanViewOriginal: %v", tt.name, err)
		}
		if got != tt.expected {
			t.Errorf("%s: CanViewOriginal = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestCanViewOriginalAfterApproval(t *testing.T) {
	f := setupGate(t)
	ctx := context.Background()

	f.approveClaim(t)

	got, err := CanViewOriginal(ctx, f.db, f.claimant.ID, model.RoleUser, f.item)
	if err != nil {
		t.Fatalf("CanViewOriginal: %v", err)
	}
	if !got {
		t.Error("expected approved claimant to pass the gate")
	}

	// Approval for one claimant opens nothing for anyone else.
	got, _ = CanViewOriginal(ctx, f.db, f.stranger.ID, model.RoleUser, f.item)
	if got {
		t.Error("expected stranger to stay blocked")
	}
}

func TestStoreEvidenceEncryptsOriginal(t *testing.T) {
	f := setupGate(t)
	ctx := context.Background()

	blob, _, err := store.GetAsset(ctx, f.db, f.item.OriginalAssetID)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if bytes.Equal(blob, f.original) {
		t.Error("stored original is not encrypted")
	}

	plain, err := f.cipher.Decrypt(blob)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(plain, f.original) {
		t.Error("decrypted original does not match the processed upload")
	}
}

func TestStoreEvidenceMaskedCopyIsPlain(t *testing.T) {
	f := setupGate(t)
	ctx := context.Background()

	masked, mime, err := store.GetAsset(ctx, f.db, f.item.MaskedAssetID)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", mime)
	}
	if bytes.Equal(masked, f.original) {
		t.Error("masked copy is identical to the original")
	}
}

func TestRevealOriginal(t *testing.T) {
	f := setupGate(t)

	plain, mime, err := RevealOriginal(context.Background(), f.db, f.cipher, f.item)
	if err != nil {
		t.Fatalf("RevealOriginal: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", mime)
	}
	if !bytes.Equal(plain, f.original) {
		t.Error("revealed original does not match")
	}
}

func TestRevealOriginalMissingAsset(t *testing.T) {
	f := setupGate(t)

	item := &model.FoundItem{ID: 42}
	if _, _, err := RevealOriginal(context.Background(), f.db, f.cipher, item); err == nil {
		t.Error("expected error for item without an original")
	}
}

func TestStoreEvidenceRejectsGarbage(t *testing.T) {
	database := db.NewTestDB(t)

	_, _, _, err := StoreEvidence(context.Background(), database, testCipher(t), []byte("nope"))
	if err == nil {
		t.Error("expected error for non-image upload")
	}
}
