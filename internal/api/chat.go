package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
	"github.com/reclaim-dev/reclaim/internal/vault"
)

const maxChatMessageLen = 2000

// ChatHandler serves the per-claim chat between claimant and finder. Messages
// are stored encrypted with the same cipher that guards original images.
type ChatHandler struct {
	DB     *sql.DB
	Cipher *vault.Cipher
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// chat opens once a claim is approved and stays open after completion so the
// parties can coordinate or follow up on the handover.
func chatOpen(status string) bool {
	return status == model.ClaimStatusApproved || status == model.ClaimStatusCompleted
}

// loadChatClaim fetches the claim and authorizes the caller as claimant or
// finder. Admins are deliberately excluded: the chat is private to the pair.
func (h *ChatHandler) loadChatClaim(r *http.Request, userID int64) (*model.Claim, int, string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return nil, http.StatusBadRequest, "invalid claim id"
	}

	claim, err := store.GetClaim(r.Context(), h.DB, id)
	if err != nil {
		return nil, http.StatusInternalServerError, "failed to get claim"
	}
	if claim == nil {
		return nil, http.StatusNotFound, "claim not found"
	}

	found, err := store.GetFoundItem(r.Context(), h.DB, claim.FoundItemID)
	if err != nil {
		return nil, http.StatusInternalServerError, "failed to get claim item"
	}
	isFinder := found != nil && found.FinderID == userID
	if claim.ClaimantID != userID && !isFinder {
		return nil, http.StatusForbidden, "not a participant in this claim"
	}
	if !chatOpen(claim.Status) {
		return nil, http.StatusForbidden, "chat opens once the claim is approved"
	}
	return claim, 0, ""
}

// Send handles POST /api/claims/{id}/messages.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	claim, status, msg := h.loadChatClaim(r, c.UserID)
	if claim == nil {
		jsonError(w, status, msg)
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		jsonError(w, http.StatusBadRequest, "content required")
		return
	}
	if len(req.Content) > maxChatMessageLen {
		jsonError(w, http.StatusBadRequest, "message too long")
		return
	}

	encrypted, err := h.Cipher.Encrypt([]byte(req.Content))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	stored, err := store.CreateChatMessage(r.Context(), h.DB, claim.ID, c.UserID, encrypted)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	stored.Content = req.Content
	jsonResponse(w, http.StatusCreated, stored)
}

// List handles GET /api/claims/{id}/messages.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	claim, status, msg := h.loadChatClaim(r, c.UserID)
	if claim == nil {
		jsonError(w, status, msg)
		return
	}

	encrypted, err := store.ListChatMessages(r.Context(), h.DB, claim.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	messages := make([]model.ChatMessage, 0, len(encrypted))
	for _, m := range encrypted {
		plain, err := h.Cipher.Decrypt(m.Content)
		if err != nil {
			// A message that no longer decrypts is dropped, not fatal.
			slog.Error("decrypting chat message", "message", m.ID, "error", err)
			continue
		}
		messages = append(messages, model.ChatMessage{
			ID:        m.ID,
			ClaimID:   m.ClaimID,
			SenderID:  m.SenderID,
			Content:   string(plain),
			CreatedAt: m.CreatedAt,
		})
	}
	jsonResponse(w, http.StatusOK, messages)
}
