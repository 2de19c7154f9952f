package api

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/reclaim-dev/reclaim/internal/matching"
	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
	"github.com/reclaim-dev/reclaim/internal/vault"
)

// maxUploadBytes limits evidence image uploads.
const maxUploadBytes = 10 << 20

// ItemsHandler handles lost/found report endpoints.
type ItemsHandler struct {
	DB     *sql.DB
	Cipher *vault.Cipher
	Ledger *matching.Ledger
}

type createLostItemRequest struct {
	ItemName     string   `json:"item_name"`
	Category     string   `json:"category"`
	Color        string   `json:"color"`
	Material     string   `json:"material"`
	Description  string   `json:"description"`
	UniqueMarks  string   `json:"unique_marks"`
	LocationText string   `json:"location_text"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	DateLost     string   `json:"date_lost"`
}

// CreateLost handles POST /api/lost-items. The matching pass runs before the
// response so the item's lock state is settled when the caller sees it.
func (h *ItemsHandler) CreateLost(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createLostItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ItemName == "" || req.Category == "" || req.DateLost == "" {
		jsonError(w, http.StatusBadRequest, "item_name, category and date_lost required")
		return
	}
	dateLost, err := parseDate(req.DateLost)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid date_lost")
		return
	}

	item, err := store.CreateLostItem(r.Context(), h.DB, &model.LostItem{
		UserID:       claims.UserID,
		ItemName:     req.ItemName,
		Category:     req.Category,
		Color:        req.Color,
		Material:     req.Material,
		Description:  req.Description,
		UniqueMarks:  req.UniqueMarks,
		LocationText: req.LocationText,
		Lat:          req.Lat,
		Lng:          req.Lng,
		DateLost:     dateLost,
	})
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create lost item")
		return
	}

	matches, err := h.Ledger.RunForLost(r.Context(), item)
	if err != nil {
		slog.Error("matching pass for lost item", "item", item.ID, "error", err)
	}

	// Re-read: the matching pass may have locked the item.
	item, _ = store.GetLostItem(r.Context(), h.DB, item.ID)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"item":    item,
		"matches": len(matches),
	})
}

// CreateFound handles POST /api/found-items (multipart, image required).
func (h *ItemsHandler) CreateFound(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	itemName := r.FormValue("item_name")
	category := r.FormValue("category")
	if itemName == "" || category == "" {
		jsonError(w, http.StatusBadRequest, "item_name and category required")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	upload, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to read image")
		return
	}

	originalID, maskedID, maskFailed, err := vault.StoreEvidence(r.Context(), h.DB, h.Cipher, upload)
	if err != nil {
		serviceError(w, err)
		return
	}
	if maskFailed {
		slog.Warn("image masking failed, withholding public copy", "finder", claims.UserID)
	}

	item := &model.FoundItem{
		FinderID:        claims.UserID,
		ItemName:        itemName,
		Category:        category,
		Description:     r.FormValue("description"),
		Condition:       r.FormValue("condition"),
		StoragePlace:    r.FormValue("storage_place"),
		LocationText:    r.FormValue("location_text"),
		Lat:             parseCoord(r.FormValue("lat")),
		Lng:             parseCoord(r.FormValue("lng")),
		MaskedAssetID:   maskedID,
		OriginalAssetID: originalID,
		MaskFailed:      maskFailed,
	}
	item, err = store.CreateFoundItem(r.Context(), h.DB, item)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create found item")
		return
	}

	matches, err := h.Ledger.RunForFound(r.Context(), item)
	if err != nil {
		slog.Error("matching pass for found item", "item", item.ID, "error", err)
	}

	item, _ = store.GetFoundItem(r.Context(), h.DB, item.ID)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"item":    item,
		"matches": len(matches),
	})
}

// ListLost handles GET /api/lost-items: active lost reports.
func (h *ItemsHandler) ListLost(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListLostItems(r.Context(), h.DB, model.ItemStatusActive)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list lost items")
		return
	}
	if items == nil {
		items = []model.LostItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// ListFound handles GET /api/found-items: active found reports.
func (h *ItemsHandler) ListFound(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListFoundItems(r.Context(), h.DB, model.ItemStatusActive)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list found items")
		return
	}
	if items == nil {
		items = []model.FoundItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// GetMaskedImage handles GET /api/found-items/{id}/image: the blurred public
// copy. Items whose masking failed serve nothing until reviewed.
func (h *ItemsHandler) GetMaskedImage(w http.ResponseWriter, r *http.Request) {
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
	if item == nil || item.MaskedAssetID == "" {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	data, mime, err := store.GetAsset(r.Context(), h.DB, item.MaskedAssetID)
	if err != nil || data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseCoord(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
