package vault

import (
	"context"
	"fmt"

	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
)

// CanViewOriginal decides whether a requester may see the unmasked original
// for a found item: admins, the finder, and holders of an approved claim.
// Evaluated fresh on every request; approval state is never cached here.
func CanViewOriginal(ctx context.Context, db store.DBTX, userID int64, role string, item *model.FoundItem) (bool, error) {
	if model.IsAdmin(role) {
		return true, nil
	}
	if item.FinderID == userID {
		return true, nil
	}
	return store.HasApprovedClaim(ctx, db, item.ID, userID)
}

// RevealOriginal loads and decrypts a found item's original image. Callers
// must have passed CanViewOriginal first; this function does not re-check.
func RevealOriginal(ctx context.Context, db store.DBTX, cipher *Cipher, item *model.FoundItem) ([]byte, string, error) {
	if item.OriginalAssetID == "" {
		return nil, "", fmt.Errorf("found item %d has no original image: %w", item.ID, model.ErrNotFound)
	}

	blob, mime, err := store.GetAsset(ctx, db, item.OriginalAssetID)
	if err != nil {
		return nil, "", err
	}
	if blob == nil {
		return nil, "", fmt.Errorf("original asset %s: %w", item.OriginalAssetID, model.ErrNotFound)
	}

	plain, err := cipher.Decrypt(blob)
	if err != nil {
		return nil, "", err
	}
	return plain, mime, nil
}

// StoreEvidence processes an upload into its two stored artifacts: the
// encrypted original and the blurred public copy. When masking fails the
// masked copy is withheld and maskFailed is returned true so the item can be
// flagged for manual review; the original is never served in its place.
func StoreEvidence(ctx context.Context, db store.DBTX, cipher *Cipher, upload []byte) (originalID, maskedID string, maskFailed bool, err error) {
	original, err := ProcessUpload(upload)
	if err != nil {
		return "", "", false, err
	}

	encrypted, err := cipher.Encrypt(original)
	if err != nil {
		return "", "", false, fmt.Errorf("encrypting original: %w", err)
	}
	originalID, err = store.CreateAsset(ctx, db, encrypted, "image/jpeg")
	if err != nil {
		return "", "", false, err
	}

	masked, err := Mask(original)
	if err != nil {
		return originalID, "", true, nil
	}
	maskedID, err = store.CreateAsset(ctx, db, masked, "image/jpeg")
	if err != nil {
		return "", "", false, err
	}

	return originalID, maskedID, false, nil
}
