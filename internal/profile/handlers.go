package profile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/culturoquest/quest-server/internal/auth"
	"github.com/culturoquest/quest-server/internal/db/repository"
	"github.com/culturoquest/quest-server/internal/progress"
	httperrors "github.com/culturoquest/quest-server/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for profile fetch and merge-update.
// Both require a validated bearer token (auth.RequireAuth).
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for profile endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// GetMe handles GET /v1/users/me
func (h *HTTPHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Authentication required")
		return
	}

	profile, err := h.svc.Get(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeProfileNotFound, "Profile not found")
			return
		}
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("profile fetch failed")
		httperrors.RespondInternalError(w, "Failed to fetch profile")
		return
	}

	h.respondJSON(w, http.StatusOK, profile)
}

// UpdateProgress handles PUT /v1/users/me/progress
func (h *HTTPHandlers) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Authentication required")
		return
	}

	var update progress.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if update.Points != nil && *update.Points < 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "points must be non-negative", "points")
		return
	}

	merged, err := h.svc.Merge(r.Context(), claims.UserID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeProfileNotFound, "Profile not found")
			return
		}
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("profile merge failed")
		httperrors.RespondInternalError(w, "Failed to update progress")
		return
	}

	h.respondJSON(w, http.StatusOK, merged)
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn().Err(err).Msg("failed to encode response")
	}
}
