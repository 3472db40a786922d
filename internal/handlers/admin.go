package handlers

import (
	"context"
	"net/http"

	"github.com/videoportal/backend/internal/auth"
	"github.com/videoportal/backend/internal/models"
)

// AdminHandler exposes the approval workflow to administrators.
type AdminHandler struct {
	Accounts AccountService
}

// ListPending handles GET /api/admin/users/pending.
func (h AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Accounts.ListPending)
}

// ListApproved handles GET /api/admin/users/approved.
func (h AdminHandler) ListApproved(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Accounts.ListApproved)
}

// ListAdmins handles GET /api/admin/users/admins.
func (h AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Accounts.ListAdmins)
}

func (h AdminHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]models.User, error)) {
	ctx := r.Context()
	users, err := fetch(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponses(users))
}

// Approve handles POST /api/admin/users/{id}/approve.
func (h AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Accounts.Approve(ctx, r.PathValue("id")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "user approved"})
}

// ToggleAdmin handles POST /api/admin/users/{id}/toggle-admin. The caller's
// own id is refused before the target is looked up.
func (h AdminHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	user, err := h.Accounts.ToggleAdmin(ctx, identity, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponse(user))
}
