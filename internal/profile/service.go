package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/culturoquest/quest-server/internal/progress"
)

type profileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (progress.Profile, error)
	MergeUpdate(ctx context.Context, userID uuid.UUID, update progress.Update) (progress.Profile, error)
}

type scoreBoard interface {
	SetScore(ctx context.Context, userID uuid.UUID, username, avatar string, points int) error
}

// Service fronts the durable profile store. It treats the client as the
// authority on progress: updates are merged per field, never validated
// against gameplay rules, and point totals are forwarded to the leaderboard.
type Service struct {
	store  profileStore
	board  scoreBoard
	logger zerolog.Logger
}

// NewService creates the profile service. board may be nil when no
// leaderboard is configured.
func NewService(store profileStore, board scoreBoard, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		board:  board,
		logger: logger.With().Str("component", "profile").Logger(),
	}
}

// Get fetches a user's full profile.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (progress.Profile, error) {
	return s.store.Get(ctx, userID)
}

// Merge applies a partial update and returns the merged profile. Points and
// avatar changes are mirrored to the leaderboard in the background; board
// failures never fail the merge.
func (s *Service) Merge(ctx context.Context, userID uuid.UUID, update progress.Update) (progress.Profile, error) {
	merged, err := s.store.MergeUpdate(ctx, userID, update)
	if err != nil {
		return progress.Profile{}, fmt.Errorf("merge update: %w", err)
	}

	if s.board != nil && (update.Points != nil || update.Avatar != nil) {
		go func(p progress.Profile) {
			if err := s.board.SetScore(context.Background(), userID, p.Username, p.Avatar, p.Points); err != nil {
				s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("leaderboard mirror failed")
			}
		}(merged)
	}

	return merged, nil
}
