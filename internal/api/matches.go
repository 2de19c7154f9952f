package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
)

// MatchesHandler serves match records to their participants.
type MatchesHandler struct {
	DB *sql.DB
}

// List handles GET /api/matches: matches involving the caller's items.
func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	matches, err := store.ListMatchesForUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	jsonResponse(w, http.StatusOK, matches)
}

// Get handles GET /api/matches/{id}. Only the lost-item owner, the finder,
// or an admin may see a match and its per-factor explanation.
func (h *MatchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	match, err := store.GetMatch(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get match")
		return
	}
	if match == nil {
		jsonError(w, http.StatusNotFound, "match not found")
		return
	}

	lost, err := store.GetLostItem(r.Context(), h.DB, match.LostItemID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get match items")
		return
	}
	found, err := store.GetFoundItem(r.Context(), h.DB, match.FoundItemID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get match items")
		return
	}

	participant := (lost != nil && lost.UserID == claims.UserID) ||
		(found != nil && found.FinderID == claims.UserID)
	if !participant && !model.IsAdmin(claims.Role) {
		jsonError(w, http.StatusForbidden, "not a participant in this match")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"match":      match,
		"lost_item":  lost,
		"found_item": found,
	})
}
