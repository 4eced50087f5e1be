package progress

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/culturoquest/quest-server/internal/content"
)

// Reconciler is the client-held mirror of one player's profile. It applies
// gameplay facts to the local ledger synchronously, recomputes stage
// progression after every fact change, and pushes partial updates to the
// profile store in the background. Local state is authoritative for the
// session; the store is a durable mirror that wins only on the next full
// fetch.
type Reconciler struct {
	mu         sync.Mutex
	graph      *content.Graph
	ledger     *Ledger
	prog       StageProgress
	dispatcher *Dispatcher
	store      Store
	logger     zerolog.Logger
}

// New builds a reconciler over the static stage graph. A nil store means no
// credential was issued: the session runs local-only and nothing persists.
func New(graph *content.Graph, store Store, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		graph:      graph,
		ledger:     NewLedger(),
		prog:       DefaultProgress(),
		dispatcher: NewDispatcher(store, logger),
		store:      store,
		logger:     logger.With().Str("component", "reconciler").Logger(),
	}
}

// Start initializes the mirror from the profile store. Fetch failures and
// partial documents fall back to the hardcoded defaults instead of failing
// the session; progression is evaluated once against whatever facts loaded,
// since persisted answers may already satisfy a stage threshold.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.applyDefaults()

	if r.store == nil {
		return
	}

	profile, err := r.store.FetchProfile(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("profile fetch failed; starting from defaults")
		return
	}
	if profile == nil {
		r.logger.Warn().Msg("profile not found; starting from defaults")
		return
	}

	r.ledger.hydrate(profile)
	for _, id := range defaultAchievements {
		r.ledger.UnlockAchievement(id)
	}
	if profile.Progress != nil {
		// Keep persisted completions; only the active list falls back to the
		// defaults, minus any stage already completed.
		r.prog = profile.Progress.Clone()
		if len(r.prog.ActiveStages) == 0 {
			done := sliceToSet(r.prog.CompletedStages)
			for _, id := range defaultActiveStages {
				if _, ok := done[id]; !ok {
					r.prog.ActiveStages = append(r.prog.ActiveStages, id)
				}
			}
		}
	} else {
		r.prog = DefaultProgress()
	}

	if next, changed := EvaluateStages(r.graph, r.ledger.correct, r.prog); changed {
		r.prog = next
		r.dispatchProgress()
	}
}

// Flush waits for in-flight syncs, typically at session end.
func (r *Reconciler) Flush() {
	r.dispatcher.Flush()
}

// RecordCorrect marks questions answered correctly. Idempotent: only new
// identifiers mutate state, and a single sync (carrying the new answers plus
// any resulting stage transition) fires only when something was new.
func (r *Reconciler) RecordCorrect(ids ...string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := r.ledger.RecordCorrect(ids...)
	if len(added) == 0 {
		return false
	}

	update := Update{CorrectAnswers: added}
	if next, changed := EvaluateStages(r.graph, r.ledger.correct, r.prog); changed {
		r.prog = next
		snapshot := next.Clone()
		update.Progress = &snapshot
	}
	r.dispatcher.Dispatch(update)
	return true
}

// AddPoints credits the balance and syncs the new absolute total. Negative
// amounts are ignored; a zero credit still syncs the current total.
func (r *Reconciler) AddPoints(amount int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if amount < 0 {
		return r.ledger.Points()
	}
	total := r.ledger.AddPoints(amount)
	r.dispatcher.Dispatch(Update{Points: &total})
	return total
}

// SpendPoints debits the balance if sufficient, reporting success. On failure
// nothing changes and nothing syncs.
func (r *Reconciler) SpendPoints(amount int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.spendLocked(amount)
}

func (r *Reconciler) spendLocked(amount int) bool {
	if !r.ledger.SpendPoints(amount) {
		return false
	}
	total := r.ledger.Points()
	r.dispatcher.Dispatch(Update{Points: &total})
	return true
}

// UnlockAchievement records an achievement, syncing only the first time.
func (r *Reconciler) UnlockAchievement(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ledger.UnlockAchievement(id) {
		return false
	}
	r.dispatcher.Dispatch(Update{UnlockedAchievements: []string{id}})
	return true
}

// UnlockArchiveEntry records an archive unlock, syncing only the first time.
func (r *Reconciler) UnlockArchiveEntry(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ledger.UnlockArchiveEntry(id) {
		return false
	}
	r.dispatcher.Dispatch(Update{UnlockedArchiveEntries: []string{id}})
	return true
}

// PurchaseItem buys a store item: fails if already owned or the balance
// cannot cover the price. The points debit and the ownership entry sync as
// separate updates, mirroring the store's per-field merge semantics.
func (r *Reconciler) PurchaseItem(item Item) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ledger.OwnsItem(item.ID) {
		return false
	}
	if !r.spendLocked(item.Price) {
		return false
	}
	r.ledger.AddOwnedItem(item.ID)
	r.dispatcher.Dispatch(Update{OwnedItems: []string{item.ID}})
	return true
}

// SetAvatar selects the active avatar and syncs it. Last write wins.
func (r *Reconciler) SetAvatar(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ledger.SetAvatar(id)
	r.dispatcher.Dispatch(Update{Avatar: &id})
}

// SelectQuestions picks a session's worth of questions from a bank, favoring
// ones not yet answered correctly.
func (r *Reconciler) SelectQuestions(bank []string, n int) []string {
	r.mu.Lock()
	answered := make(map[string]struct{}, len(r.ledger.correct))
	for id := range r.ledger.correct {
		answered[id] = struct{}{}
	}
	r.mu.Unlock()

	return SelectQuestionIDs(bank, answered, n)
}

// MasteryRatio reports the fraction of a stage's saga questions answered
// correctly, or 0 when the saga enumerates no questions.
func (r *Reconciler) MasteryRatio(stageID string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	stage, ok := r.graph.Stage(stageID)
	if !ok {
		return 0
	}
	ids := r.graph.SagaQuestionIDs(stage.RelatedSaga)
	if len(ids) == 0 {
		return 0
	}
	hit := 0
	for _, id := range ids {
		if r.ledger.HasAnswered(id) {
			hit++
		}
	}
	return float64(hit) / float64(len(ids))
}

// Points returns the current balance.
func (r *Reconciler) Points() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Points()
}

// Avatar returns the selected avatar identifier.
func (r *Reconciler) Avatar() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Avatar()
}

// Progress returns a copy of the current stage progress.
func (r *Reconciler) Progress() StageProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prog.Clone()
}

// HasAnswered reports whether a question is in the correct-answer set.
func (r *Reconciler) HasAnswered(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.HasAnswered(id)
}

// CorrectAnswers returns a sorted copy of the correct-answer set.
func (r *Reconciler) CorrectAnswers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.CorrectAnswers()
}

// Achievements returns a sorted copy of the unlocked achievements.
func (r *Reconciler) Achievements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Achievements()
}

// ArchiveEntries returns a sorted copy of the unlocked archive entries.
func (r *Reconciler) ArchiveEntries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.ArchiveEntries()
}

// OwnedItems returns a sorted copy of the owned item set.
func (r *Reconciler) OwnedItems() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.OwnedItems()
}

// OwnsItem reports whether an item has been purchased.
func (r *Reconciler) OwnsItem(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.OwnsItem(id)
}

func (r *Reconciler) applyDefaults() {
	r.ledger = NewLedger()
	r.ledger.AddPoints(StartingPoints)
	for _, id := range defaultAchievements {
		r.ledger.UnlockAchievement(id)
	}
	r.prog = DefaultProgress()
}

func (r *Reconciler) dispatchProgress() {
	snapshot := r.prog.Clone()
	r.dispatcher.Dispatch(Update{Progress: &snapshot})
}
