package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/reclaim-dev/reclaim/internal/claims"
	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
)

// ClaimsHandler drives the claim lifecycle over HTTP.
type ClaimsHandler struct {
	DB      *sql.DB
	Service *claims.Service
}

type initiateClaimRequest struct {
	FoundItemID int64                      `json:"found_item_id"`
	LostItemID  *int64                     `json:"lost_item_id"`
	Answers     *model.VerificationAnswers `json:"answers"`
}

type verifyClaimRequest struct {
	Answers model.VerificationAnswers `json:"answers"`
}

type adminActionRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// Initiate handles POST /api/claims.
func (h *ClaimsHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	var req initiateClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FoundItemID == 0 {
		jsonError(w, http.StatusBadRequest, "found_item_id required")
		return
	}

	claim, err := h.Service.Initiate(r.Context(), req.FoundItemID, c.UserID, req.LostItemID, req.Answers, "")
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, claim)
}

// Verify handles POST /api/claims/{id}/verify.
func (h *ClaimsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req verifyClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.Service.SubmitVerification(r.Context(), id, c.UserID, req.Answers)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// AdminDecide handles POST /api/claims/{id}/decision (admin only).
func (h *ClaimsHandler) AdminDecide(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req adminActionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Action != claims.ActionApprove && req.Action != claims.ActionReject {
		jsonError(w, http.StatusBadRequest, "action must be approve or reject")
		return
	}

	claim, err := h.Service.AdminAction(r.Context(), id, req.Action, c.UserID, req.Reason)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// Complete handles POST /api/claims/{id}/complete.
func (h *ClaimsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	claim, err := h.Service.Complete(r.Context(), id, c.UserID)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// Get handles GET /api/claims/{id}. Visible to the claimant, the finder of
// the claimed item, and admins.
func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	claim, err := store.GetClaim(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get claim")
		return
	}
	if claim == nil {
		jsonError(w, http.StatusNotFound, "claim not found")
		return
	}

	found, err := store.GetFoundItem(r.Context(), h.DB, claim.FoundItemID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get claim item")
		return
	}

	isFinder := found != nil && found.FinderID == c.UserID
	if claim.ClaimantID != c.UserID && !isFinder && !model.IsAdmin(c.Role) {
		jsonError(w, http.StatusForbidden, "not a participant in this claim")
		return
	}

	jsonResponse(w, http.StatusOK, claim)
}

// ListMine handles GET /api/claims: the caller's own claims.
func (h *ClaimsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	list, err := store.ListClaimsForUser(r.Context(), h.DB, c.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}
	if list == nil {
		list = []model.Claim{}
	}
	jsonResponse(w, http.StatusOK, list)
}

// ListReview handles GET /api/admin/claims: claims awaiting review.
func (h *ClaimsHandler) ListReview(w http.ResponseWriter, r *http.Request) {
	list, err := store.ListClaimsInReview(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}
	if list == nil {
		list = []model.Claim{}
	}
	jsonResponse(w, http.StatusOK, list)
}
