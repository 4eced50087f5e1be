package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/culturoquest/quest-server/internal/progress"
)

// ProfileRepository persists the per-user progress document. Monotonic set
// fields (correct answers, achievements, archive entries, owned items,
// completed stages) are stored as text arrays and only ever unioned into;
// points, avatar, and active stages are replaced wholesale.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository wraps the pgx pool for profile operations.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// CreateDefault inserts the starting profile for a freshly registered user.
func (r *ProfileRepository) CreateDefault(ctx context.Context, userID uuid.UUID) error {
	prog := progress.DefaultProgress()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (
			user_id, points, avatar,
			correct_answers, unlocked_achievements, unlocked_archive_entries,
			owned_items, completed_stages, active_stages
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		userID, progress.StartingPoints, progress.DefaultAvatar,
		[]string{}, progress.DefaultAchievements(), []string{},
		[]string{}, prog.CompletedStages, prog.ActiveStages)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// Get fetches a user's full profile.
func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (progress.Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT u.user_id, u.username, p.points, p.avatar,
		       p.correct_answers, p.unlocked_achievements, p.unlocked_archive_entries,
		       p.owned_items, p.completed_stages, p.active_stages
		FROM profiles p
		JOIN users u ON u.user_id = p.user_id
		WHERE p.user_id = $1`, userID)
	return scanProfile(row)
}

// MergeUpdate applies a partial update inside a transaction, locking the row
// so concurrent merges serialize. Array fields in the update union into the
// persisted sets preserving insertion order; points and avatar replace when
// present; active stages replace wholesale when present. Returns the merged
// profile.
func (r *ProfileRepository) MergeUpdate(ctx context.Context, userID uuid.UUID, update progress.Update) (progress.Profile, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return progress.Profile{}, fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT u.user_id, u.username, p.points, p.avatar,
		       p.correct_answers, p.unlocked_achievements, p.unlocked_archive_entries,
		       p.owned_items, p.completed_stages, p.active_stages
		FROM profiles p
		JOIN users u ON u.user_id = p.user_id
		WHERE p.user_id = $1
		FOR UPDATE OF p`, userID)
	profile, err := scanProfile(row)
	if err != nil {
		return progress.Profile{}, err
	}

	if update.Points != nil {
		profile.Points = *update.Points
	}
	if update.Avatar != nil {
		profile.Avatar = *update.Avatar
	}
	profile.CorrectAnswers = appendUnique(profile.CorrectAnswers, update.CorrectAnswers)
	profile.UnlockedAchievements = appendUnique(profile.UnlockedAchievements, update.UnlockedAchievements)
	profile.UnlockedArchiveEntries = appendUnique(profile.UnlockedArchiveEntries, update.UnlockedArchiveEntries)
	profile.OwnedItems = appendUnique(profile.OwnedItems, update.OwnedItems)
	if update.Progress != nil {
		profile.Progress.CompletedStages = appendUnique(profile.Progress.CompletedStages, update.Progress.CompletedStages)
		if update.Progress.ActiveStages != nil {
			profile.Progress.ActiveStages = append([]string(nil), update.Progress.ActiveStages...)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE profiles SET
			points = $2, avatar = $3,
			correct_answers = $4, unlocked_achievements = $5, unlocked_archive_entries = $6,
			owned_items = $7, completed_stages = $8, active_stages = $9,
			updated_at = now()
		WHERE user_id = $1`,
		userID, profile.Points, profile.Avatar,
		profile.CorrectAnswers, profile.UnlockedAchievements, profile.UnlockedArchiveEntries,
		profile.OwnedItems, profile.Progress.CompletedStages, profile.Progress.ActiveStages)
	if err != nil {
		return progress.Profile{}, fmt.Errorf("merge profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return progress.Profile{}, fmt.Errorf("commit merge: %w", err)
	}
	return profile, nil
}

// LeaderboardRow is one entry of the points leaderboard fallback query.
type LeaderboardRow struct {
	UserID   uuid.UUID
	Username string
	Points   int
	Avatar   string
}

// TopByPoints lists the highest point totals, for leaderboard fallback when
// Redis is unavailable.
func (r *ProfileRepository) TopByPoints(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.user_id, u.username, p.points, p.avatar
		FROM profiles p
		JOIN users u ON u.user_id = p.user_id
		ORDER BY p.points DESC, u.username ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var lr LeaderboardRow
		if err := rows.Scan(&lr.UserID, &lr.Username, &lr.Points, &lr.Avatar); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row) (progress.Profile, error) {
	var (
		p      progress.Profile
		userID uuid.UUID
		prog   progress.StageProgress
	)
	err := row.Scan(&userID, &p.Username, &p.Points, &p.Avatar,
		&p.CorrectAnswers, &p.UnlockedAchievements, &p.UnlockedArchiveEntries,
		&p.OwnedItems, &prog.CompletedStages, &prog.ActiveStages)
	if errors.Is(err, pgx.ErrNoRows) {
		return progress.Profile{}, ErrNotFound
	}
	if err != nil {
		return progress.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	p.Identity = userID.String()
	p.CorrectAnswers = notNil(p.CorrectAnswers)
	p.UnlockedAchievements = notNil(p.UnlockedAchievements)
	p.UnlockedArchiveEntries = notNil(p.UnlockedArchiveEntries)
	p.OwnedItems = notNil(p.OwnedItems)
	prog.CompletedStages = notNil(prog.CompletedStages)
	prog.ActiveStages = notNil(prog.ActiveStages)
	p.Progress = &prog
	return p, nil
}

// notNil keeps empty sets serializing as [] rather than null.
func notNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func appendUnique(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		seen[id] = struct{}{}
	}
	for _, id := range incoming {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		existing = append(existing, id)
	}
	return existing
}
