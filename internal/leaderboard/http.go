package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/culturoquest/quest-server/internal/db/repository"
	httperrors "github.com/culturoquest/quest-server/pkg/http/errors"
)

type fallbackStore interface {
	TopByPoints(ctx context.Context, limit int) ([]repository.LeaderboardRow, error)
}

// HTTPHandler exposes the public leaderboard endpoint. Redis serves the
// ranking; Postgres answers when Redis is empty or down.
type HTTPHandler struct {
	svc      *Service
	fallback fallbackStore
	logger   zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler.
func NewHTTPHandler(svc *Service, fallback fallbackStore, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:      svc,
		fallback: fallback,
		logger:   logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds with the current top ranking.
// Route: GET /v1/leaderboard?limit=5
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	var (
		top    = []Entry{}
		source = "redis"
	)

	if h.svc != nil {
		if entries, err := h.svc.Top(ctx, limit); err == nil {
			top = entries
		} else {
			h.logger.Warn().Err(err).Msg("redis leaderboard fetch failed")
		}
	}

	if len(top) == 0 && h.fallback != nil {
		source = "database"
		rows, err := h.fallback.TopByPoints(ctx, limit)
		if err != nil {
			h.logger.Error().Err(err).Msg("leaderboard fallback query failed")
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeLeaderboardFetchFailed, "Leaderboard unavailable")
			return
		}
		for _, row := range rows {
			top = append(top, Entry{
				UserID:   row.UserID,
				Username: row.Username,
				Points:   row.Points,
				Avatar:   row.Avatar,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"top":         top,
		"source":      source,
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	})
}
