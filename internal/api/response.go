package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/reclaim-dev/reclaim/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("error encoding response: %v", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// serviceError maps core error kinds onto HTTP responses. Invalid transitions
// and authorization failures are surfaced verbatim; a lost race reads as a
// conflict the caller may retry against fresh state.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrInvalidTransition):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrRaceLost):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrAsset):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("internal error: %v", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
