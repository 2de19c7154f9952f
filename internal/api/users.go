package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
)

// UsersHandler covers admin user management. All routes sit behind
// RequireAdmin.
type UsersHandler struct {
	DB *sql.DB
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// List handles GET /api/admin/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// UpdateRole handles PUT /api/admin/users/{id}/role.
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleUser {
		jsonError(w, http.StatusBadRequest, "role must be admin or user")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := store.UpdateUserRole(r.Context(), h.DB, id, req.Role); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "role updated"})
}

// Delete handles DELETE /api/admin/users/{id}. Soft delete; the user's items
// and claims stay in place for audit.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if id == c.UserID {
		jsonError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
