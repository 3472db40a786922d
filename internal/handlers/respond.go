package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/videoportal/backend/internal/accounts"
	"github.com/videoportal/backend/internal/auth"
	"github.com/videoportal/backend/internal/logging"
	"github.com/videoportal/backend/internal/videos"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondMessage(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

// respondError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a generic 500.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		status  int
		message string
	)

	switch {
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidToken):
		status, message = http.StatusUnauthorized, "authentication required"
	case errors.Is(err, accounts.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, auth.ErrForbidden):
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, accounts.ErrUserNotFound):
		status, message = http.StatusNotFound, "user not found"
	case errors.Is(err, videos.ErrAlbumNotFound):
		status, message = http.StatusNotFound, "album not found"
	case errors.Is(err, videos.ErrVideoNotFound):
		status, message = http.StatusNotFound, "video not found"
	case errors.Is(err, accounts.ErrEmailAlreadyRegistered):
		status, message = http.StatusConflict, "email already registered"
	case errors.Is(err, videos.ErrInvalidURL):
		status, message = http.StatusBadRequest, "video url must point to an allowed host"
	case errors.Is(err, accounts.ErrInvalidInput), errors.Is(err, videos.ErrInvalidInput):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, videos.ErrHostUnavailable):
		status, message = http.StatusServiceUnavailable, "video host unavailable"
	default:
		logging.FromContext(ctx).Error("unhandled error", "error", err)
		status, message = http.StatusInternalServerError, "internal server error"
	}

	respondMessage(ctx, w, status, message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(dst)
}

const maxJSONBodyBytes = 1 << 20
