package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/culturoquest/quest-server/pkg/http/ws"
)

// Entry is one leaderboard row served to clients.
type Entry struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Points   int       `json:"points"`
	Avatar   string    `json:"avatar"`
}

// ServiceOptions configures leaderboard behavior.
type ServiceOptions struct {
	TopN          int
	PubSubChannel string
	KeyPrefix     string
}

// Service keeps the quest-point leaderboard in a Redis sorted set. Scores are
// absolute point totals (the profile store is the source of truth), so a
// replayed or reordered update converges to whatever the store last held.
// Each update publishes the fresh top ranking over Pub/Sub for WebSocket
// consumers.
type Service struct {
	redis   *redis.Client
	logger  zerolog.Logger
	topN    int
	channel string
	prefix  string
}

// NewService constructs a leaderboard service instance.
func NewService(redisClient *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 5
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "qp:updates"
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "qp"
	}
	return &Service{
		redis:   redisClient,
		logger:  logger.With().Str("component", "leaderboard").Logger(),
		topN:    topN,
		channel: channel,
		prefix:  prefix,
	}
}

// SetScore records a user's absolute point total and metadata, then
// publishes the updated top ranking.
func (s *Service) SetScore(ctx context.Context, userID uuid.UUID, username, avatar string, points int) error {
	pipe := s.redis.TxPipeline()
	pipe.ZAdd(ctx, s.boardKey(), redis.Z{Score: float64(points), Member: userID.String()})
	pipe.HSet(ctx, s.metaKey(userID), map[string]interface{}{
		"username": username,
		"avatar":   avatar,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}

	s.publishTop(ctx)
	return nil
}

// Top retrieves the highest point totals, at most the configured board size.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.boardKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		member, _ := z.Member.(string)
		userID, err := uuid.Parse(member)
		if err != nil {
			s.logger.Warn().Str("member", member).Msg("skipping malformed leaderboard member")
			continue
		}

		entry := Entry{UserID: userID, Points: int(z.Score)}
		meta, err := s.redis.HGetAll(ctx, s.metaKey(userID)).Result()
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard metadata")
		} else {
			entry.Username = meta["username"]
			entry.Avatar = meta["avatar"]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) publishTop(ctx context.Context) {
	entries, err := s.Top(ctx, s.topN)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to collect leaderboard update")
		return
	}
	if len(entries) == 0 {
		return
	}

	payload := ws.LeaderboardUpdatePayload{Top: toWSEntries(entries)}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal leaderboard update")
		return
	}
	if err := s.redis.Publish(ctx, s.channel, data).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
	}
}

func (s *Service) boardKey() string {
	return s.prefix + ":board"
}

func (s *Service) metaKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:meta:%s", s.prefix, userID.String())
}

func toWSEntries(entries []Entry) []ws.LeaderboardEntry {
	out := make([]ws.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ws.LeaderboardEntry{
			UserID:   e.UserID.String(),
			Username: e.Username,
			Points:   e.Points,
			Avatar:   e.Avatar,
		})
	}
	return out
}
