package handlers

import (
	"net/http"
	"time"

	"github.com/videoportal/backend/internal/auth"
	"github.com/videoportal/backend/internal/logging"
)

// AuthHandler implements registration, login and self-service profile endpoints.
type AuthHandler struct {
	Accounts AccountService
	Limiter  RateLimiter
}

// Register handles POST /api/auth/register requests. New accounts start pending.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, w, r, "register") {
		return
	}

	if h.Accounts == nil {
		logger.Error("account service unavailable")
		respondMessage(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Accounts.Register(ctx, req.Email, req.Password, req.PhoneNumber)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, registerResponse{
		Message: "registration received; an administrator must approve the account",
		User:    newUserResponse(user),
	})
}

// Login handles POST /api/auth/login requests. Unapproved users may log in;
// the catalog endpoints reject them afterwards.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, w, r, "login") {
		return
	}

	if h.Accounts == nil {
		logger.Error("account service unavailable")
		respondMessage(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondMessage(ctx, w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, user, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, loginResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		User:      newUserResponse(user),
	})
}

// Me handles GET /api/users/me.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	user, err := h.Accounts.Profile(ctx, identity.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponse(user))
}

// UpdateProfile handles PUT /api/users/profile.
func (h AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid profile payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Accounts.UpdateProfile(ctx, identity.ID, req.PhoneNumber)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserResponse(user))
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

type registerResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type profileRequest struct {
	PhoneNumber string `json:"phone_number"`
}
