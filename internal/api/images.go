package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/reclaim-dev/reclaim/internal/store"
	"github.com/reclaim-dev/reclaim/internal/vault"
)

// ImagesHandler serves the access-gated original images. The masked public
// copy is served by ItemsHandler.GetMaskedImage without a gate.
type ImagesHandler struct {
	DB     *sql.DB
	Cipher *vault.Cipher
}

// GetOriginal handles GET /api/found-items/{id}/image/original. Only admins,
// the finder, and claimants with an approved claim get the unmasked image.
func (h *ImagesHandler) GetOriginal(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetFoundItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	allowed, err := vault.CanViewOriginal(r.Context(), h.DB, c.UserID, c.Role, item)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to check access")
		return
	}
	if !allowed {
		jsonError(w, http.StatusForbidden, "original image requires an approved claim")
		return
	}

	plain, mime, err := vault.RevealOriginal(r.Context(), h.DB, h.Cipher, item)
	if err != nil {
		serviceError(w, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, no-store")
	w.Write(plain)
}
