package progress

import "context"

// MasteryThreshold is the fraction of a saga's questions that must be
// answered correctly before the owning stage completes.
const MasteryThreshold = 0.6

// Defaults for brand-new profiles and unrecoverable sessions.
const (
	DefaultAvatar  = "default"
	StartingPoints = 1000
)

var (
	defaultActiveStages = []string{"history_1", "culture_1"}
	defaultAchievements = []string{"quest_novice"}
)

// DefaultAchievements returns the achievements pre-unlocked at registration.
func DefaultAchievements() []string {
	return append([]string(nil), defaultAchievements...)
}

// DefaultProgress returns the stage progress a fresh profile starts with.
func DefaultProgress() StageProgress {
	return StageProgress{
		CompletedStages: []string{},
		ActiveStages:    append([]string(nil), defaultActiveStages...),
	}
}

// StageProgress pairs the stages a player has completed (in completion order)
// with the stages currently eligible for play. A stage is never in both.
type StageProgress struct {
	CompletedStages []string `json:"completed_stages"`
	ActiveStages    []string `json:"active_stages"`
}

// Clone returns an independent copy.
func (p StageProgress) Clone() StageProgress {
	return StageProgress{
		CompletedStages: append([]string(nil), p.CompletedStages...),
		ActiveStages:    append([]string(nil), p.ActiveStages...),
	}
}

// Profile is the durable per-user record as served by the profile store.
type Profile struct {
	Identity               string         `json:"identity"`
	Username               string         `json:"username"`
	Points                 int            `json:"points"`
	Avatar                 string         `json:"avatar"`
	CorrectAnswers         []string       `json:"correct_answers"`
	UnlockedAchievements   []string       `json:"unlocked_achievements"`
	UnlockedArchiveEntries []string       `json:"unlocked_archive_entries"`
	OwnedItems             []string       `json:"owned_items"`
	Progress               *StageProgress `json:"progress,omitempty"`
}

// Update is a partial profile mutation pushed to the store. Slice fields are
// identifiers to union into the persisted sets; Points and Avatar replace
// absolutely; Progress.CompletedStages unions while Progress.ActiveStages
// replaces the persisted array wholesale (stages also leave that set).
type Update struct {
	Points                 *int           `json:"points,omitempty"`
	Avatar                 *string        `json:"avatar,omitempty"`
	CorrectAnswers         []string       `json:"correct_answers,omitempty"`
	UnlockedAchievements   []string       `json:"unlocked_achievements,omitempty"`
	UnlockedArchiveEntries []string       `json:"unlocked_archive_entries,omitempty"`
	OwnedItems             []string       `json:"owned_items,omitempty"`
	Progress               *StageProgress `json:"progress,omitempty"`
}

// IsZero reports whether the update carries no fields at all.
func (u Update) IsZero() bool {
	return u.Points == nil && u.Avatar == nil &&
		len(u.CorrectAnswers) == 0 && len(u.UnlockedAchievements) == 0 &&
		len(u.UnlockedArchiveEntries) == 0 && len(u.OwnedItems) == 0 &&
		u.Progress == nil
}

// Store is the profile store contract the reconciler consumes. The store
// implementation owns credentials and call timeouts.
type Store interface {
	FetchProfile(ctx context.Context) (*Profile, error)
	MergeUpdate(ctx context.Context, update Update) error
}

// Item is a purchasable store item.
type Item struct {
	ID    string `json:"id"`
	Price int    `json:"price"`
}
