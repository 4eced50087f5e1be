package progress

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore records merged updates and serves a canned profile. Safe for the
// dispatcher's concurrent goroutines.
type stubStore struct {
	mu       sync.Mutex
	profile  *Profile
	fetchErr error
	mergeErr error
	updates  []Update
}

func (s *stubStore) FetchProfile(ctx context.Context) (*Profile, error) {
	return s.profile, s.fetchErr
}

func (s *stubStore) MergeUpdate(ctx context.Context, update Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mergeErr != nil {
		return s.mergeErr
	}
	s.updates = append(s.updates, update)
	return nil
}

func (s *stubStore) merged() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Update(nil), s.updates...)
}

func newTestReconciler(t *testing.T, store Store) *Reconciler {
	t.Helper()
	graph := testGraph(t, []string{"history_1", "history_2", "culture_1", "culture_2"})
	return New(graph, store, zerolog.Nop())
}

func TestReconcilerStartsFromDefaults(t *testing.T) {
	r := newTestReconciler(t, nil)
	r.Start(context.Background())

	assert.Equal(t, StartingPoints, r.Points())
	assert.Equal(t, DefaultAvatar, r.Avatar())
	assert.Equal(t, DefaultProgress(), r.Progress())
	assert.Equal(t, []string{"quest_novice"}, r.Achievements())
}

func TestReconcilerStartFallsBackOnFetchError(t *testing.T) {
	store := &stubStore{fetchErr: errors.New("store down")}
	r := newTestReconciler(t, store)
	r.Start(context.Background())

	assert.Equal(t, StartingPoints, r.Points())
	assert.Equal(t, DefaultProgress(), r.Progress())
}

func TestReconcilerStartHydratesAndEvaluates(t *testing.T) {
	// Persisted answers already satisfy history_1's threshold, so startup must
	// advance progression and sync the transition.
	store := &stubStore{profile: &Profile{
		Points:         1750,
		Avatar:         "scribe",
		CorrectAnswers: sagaQuestions("history_1", 6),
		OwnedItems:     []string{"hat_red"},
		Progress: &StageProgress{
			CompletedStages: []string{},
			ActiveStages:    []string{"history_1", "culture_1"},
		},
	}}
	r := newTestReconciler(t, store)
	r.Start(context.Background())
	r.Flush()

	assert.Equal(t, 1750, r.Points())
	assert.Equal(t, "scribe", r.Avatar())
	assert.True(t, r.OwnsItem("hat_red"))
	assert.Contains(t, r.Achievements(), "quest_novice")

	prog := r.Progress()
	assert.Equal(t, []string{"history_1"}, prog.CompletedStages)
	assert.ElementsMatch(t, []string{"culture_1", "history_2"}, prog.ActiveStages)

	updates := store.merged()
	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].Progress)
	assert.Equal(t, []string{"history_1"}, updates[0].Progress.CompletedStages)
}

func TestReconcilerStartKeepsCompletedStagesWhenNoneActive(t *testing.T) {
	// End-game state: every stage completed, nothing left to activate.
	allDone := []string{"history_1", "history_2", "culture_1", "culture_2"}
	store := &stubStore{profile: &Profile{
		Points: 4200,
		Progress: &StageProgress{
			CompletedStages: allDone,
			ActiveStages:    []string{},
		},
	}}
	r := newTestReconciler(t, store)
	r.Start(context.Background())
	r.Flush()

	prog := r.Progress()
	assert.Equal(t, allDone, prog.CompletedStages)
	assert.Empty(t, prog.ActiveStages, "completed stages must not reactivate")
	assert.Empty(t, store.merged(), "nothing changed, nothing syncs")
}

func TestReconcilerStartDefaultsActiveMinusCompleted(t *testing.T) {
	store := &stubStore{profile: &Profile{
		Progress: &StageProgress{
			CompletedStages: []string{"history_1"},
			ActiveStages:    []string{},
		},
	}}
	r := newTestReconciler(t, store)
	r.Start(context.Background())

	prog := r.Progress()
	assert.Equal(t, []string{"history_1"}, prog.CompletedStages)
	assert.Equal(t, []string{"culture_1"}, prog.ActiveStages)
}

func TestReconcilerRecordCorrectSyncsOnce(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(t, store)
	r.Start(context.Background())

	assert.True(t, r.RecordCorrect("saga-history_1_q0", "saga-history_1_q1"))
	assert.False(t, r.RecordCorrect("saga-history_1_q0", "saga-history_1_q1"))
	r.Flush()

	updates := store.merged()
	require.Len(t, updates, 1)
	assert.Equal(t, []string{"saga-history_1_q0", "saga-history_1_q1"}, updates[0].CorrectAnswers)
	assert.Nil(t, updates[0].Progress)
}

func TestReconcilerRecordCorrectCarriesStageTransition(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(t, store)
	r.Start(context.Background())

	// The sixth distinct answer crosses the threshold; the sync must carry the
	// answers and the stage transition together.
	require.True(t, r.RecordCorrect(sagaQuestions("history_1", 6)...))
	r.Flush()

	updates := store.merged()
	require.Len(t, updates, 1)
	assert.Len(t, updates[0].CorrectAnswers, 6)
	require.NotNil(t, updates[0].Progress)
	assert.Equal(t, []string{"history_1"}, updates[0].Progress.CompletedStages)
	assert.ElementsMatch(t, []string{"culture_1", "history_2"}, updates[0].Progress.ActiveStages)
}

func TestReconcilerAddPointsAlwaysSyncsTotal(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(t, store)
	r.Start(context.Background())

	assert.Equal(t, StartingPoints+250, r.AddPoints(250))
	assert.Equal(t, StartingPoints+250, r.AddPoints(0), "zero credit still reports the total")
	assert.Equal(t, StartingPoints+250, r.AddPoints(-10))
	r.Flush()

	updates := store.merged()
	require.Len(t, updates, 2, "zero syncs, negative does not")
	for _, u := range updates {
		require.NotNil(t, u.Points)
		assert.Equal(t, StartingPoints+250, *u.Points)
	}
}

func TestReconcilerSpendPoints(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(t, store)
	r.Start(context.Background())

	assert.False(t, r.SpendPoints(StartingPoints+500))
	assert.Equal(t, StartingPoints, r.Points())

	assert.True(t, r.SpendPoints(300))
	assert.Equal(t, StartingPoints-300, r.Points())
	r.Flush()

	// The failed spend must not have synced anything.
	updates := store.merged()
	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].Points)
	assert.Equal(t, StartingPoints-300, *updates[0].Points)
}

func TestReconcilerPurchaseItem(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(t, store)
	r.Start(context.Background())

	item := Item{ID: "hat_red", Price: 400}
	assert.True(t, r.PurchaseItem(item))
	assert.True(t, r.OwnsItem("hat_red"))
	assert.Equal(t, StartingPoints-400, r.Points())

	assert.False(t, r.PurchaseItem(item), "repeat purchase must fail")
	assert.False(t, r.PurchaseItem(Item{ID: "crown", Price: 10_000}))
	assert.False(t, r.OwnsItem("crown"))
	r.Flush()

	var points, owned int
	for _, u := range store.merged() {
		if u.Points != nil {
			points++
		}
		if len(u.OwnedItems) > 0 {
			owned++
			assert.Equal(t, []string{"hat_red"}, u.OwnedItems)
		}
	}
	assert.Equal(t, 1, points)
	assert.Equal(t, 1, owned)
}

func TestReconcilerUnlocksSyncFirstTimeOnly(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(t, store)
	r.Start(context.Background())

	assert.True(t, r.UnlockAchievement("first_saga"))
	assert.False(t, r.UnlockAchievement("first_saga"))
	assert.True(t, r.UnlockArchiveEntry("ashoka_edicts"))
	assert.False(t, r.UnlockArchiveEntry("ashoka_edicts"))
	r.Flush()

	assert.Len(t, store.merged(), 2)
}

func TestReconcilerSetAvatar(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(t, store)
	r.Start(context.Background())

	r.SetAvatar("scholar")
	assert.Equal(t, "scholar", r.Avatar())
	r.Flush()

	updates := store.merged()
	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].Avatar)
	assert.Equal(t, "scholar", *updates[0].Avatar)
}

func TestReconcilerMasteryRatio(t *testing.T) {
	r := newTestReconciler(t, nil)
	r.Start(context.Background())

	assert.Zero(t, r.MasteryRatio("history_1"))
	r.RecordCorrect(sagaQuestions("history_1", 3)...)
	assert.InDelta(t, 0.3, r.MasteryRatio("history_1"), 1e-9)
	assert.Zero(t, r.MasteryRatio("unknown_stage"))
}

func TestReconcilerLocalOnlyWithoutStore(t *testing.T) {
	r := newTestReconciler(t, nil)
	r.Start(context.Background())

	assert.True(t, r.RecordCorrect("saga-history_1_q0"))
	assert.True(t, r.SpendPoints(100))
	r.SetAvatar("wanderer")
	r.Flush()

	assert.Equal(t, StartingPoints-100, r.Points())
	assert.Equal(t, "wanderer", r.Avatar())
	assert.True(t, r.HasAnswered("saga-history_1_q0"))
}

func TestReconcilerSurvivesMergeFailures(t *testing.T) {
	store := &stubStore{mergeErr: errors.New("conflict")}
	r := newTestReconciler(t, store)
	r.Start(context.Background())

	assert.True(t, r.RecordCorrect("saga-history_1_q0"))
	r.Flush()

	// Local state stays authoritative even though nothing persisted.
	assert.True(t, r.HasAnswered("saga-history_1_q0"))
	assert.Empty(t, store.merged())
}
