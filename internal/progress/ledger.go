package progress

import "sort"

// Ledger tracks the monotonic fact sets (correct answers, achievements,
// archive entries, owned items), the points balance, and the selected avatar.
// Set fields only ever grow; the points balance is the one counter that can
// shrink, and only through SpendPoints which refuses to go negative.
//
// Ledger is not safe for concurrent use; the Reconciler serializes access.
type Ledger struct {
	points  int
	avatar  string
	correct map[string]struct{}
	// unlocks
	achievements map[string]struct{}
	archive      map[string]struct{}
	owned        map[string]struct{}
}

// NewLedger returns an empty ledger with the default avatar.
func NewLedger() *Ledger {
	return &Ledger{
		avatar:       DefaultAvatar,
		correct:      make(map[string]struct{}),
		achievements: make(map[string]struct{}),
		archive:      make(map[string]struct{}),
		owned:        make(map[string]struct{}),
	}
}

// RecordCorrect adds question identifiers to the correct-answer set and
// returns the identifiers that were not already present, in input order.
func (l *Ledger) RecordCorrect(ids ...string) []string {
	var added []string
	for _, id := range ids {
		if _, dup := l.correct[id]; dup {
			continue
		}
		l.correct[id] = struct{}{}
		added = append(added, id)
	}
	return added
}

// AddPoints credits the balance and returns the new total. Non-positive
// amounts leave the balance untouched.
func (l *Ledger) AddPoints(amount int) int {
	if amount > 0 {
		l.points += amount
	}
	return l.points
}

// SpendPoints debits the balance if it covers the amount. This check is the
// sole guard keeping the balance non-negative.
func (l *Ledger) SpendPoints(amount int) bool {
	if amount <= 0 || l.points < amount {
		return false
	}
	l.points -= amount
	return true
}

// Points returns the current balance.
func (l *Ledger) Points() int { return l.points }

// UnlockAchievement records an achievement, reporting whether it was new.
func (l *Ledger) UnlockAchievement(id string) bool {
	return addToSet(l.achievements, id)
}

// UnlockArchiveEntry records an archive unlock, reporting whether it was new.
func (l *Ledger) UnlockArchiveEntry(id string) bool {
	return addToSet(l.archive, id)
}

// AddOwnedItem records item ownership, reporting whether it was new. Point
// spending is the caller's concern.
func (l *Ledger) AddOwnedItem(id string) bool {
	return addToSet(l.owned, id)
}

// OwnsItem reports whether an item has been purchased.
func (l *Ledger) OwnsItem(id string) bool {
	_, ok := l.owned[id]
	return ok
}

// HasAnswered reports whether a question has been answered correctly.
func (l *Ledger) HasAnswered(id string) bool {
	_, ok := l.correct[id]
	return ok
}

// SetAvatar selects the active avatar. Last write wins.
func (l *Ledger) SetAvatar(id string) { l.avatar = id }

// Avatar returns the selected avatar identifier.
func (l *Ledger) Avatar() string { return l.avatar }

// CorrectAnswers returns a sorted copy of the correct-answer set.
func (l *Ledger) CorrectAnswers() []string { return setToSlice(l.correct) }

// Achievements returns a sorted copy of the unlocked achievements.
func (l *Ledger) Achievements() []string { return setToSlice(l.achievements) }

// ArchiveEntries returns a sorted copy of the unlocked archive entries.
func (l *Ledger) ArchiveEntries() []string { return setToSlice(l.archive) }

// OwnedItems returns a sorted copy of the owned item set.
func (l *Ledger) OwnedItems() []string { return setToSlice(l.owned) }

// hydrate replaces ledger state from a fetched profile snapshot.
func (l *Ledger) hydrate(p *Profile) {
	l.points = p.Points
	if p.Avatar != "" {
		l.avatar = p.Avatar
	}
	l.correct = sliceToSet(p.CorrectAnswers)
	l.achievements = sliceToSet(p.UnlockedAchievements)
	l.archive = sliceToSet(p.UnlockedArchiveEntries)
	l.owned = sliceToSet(p.OwnedItems)
}

func addToSet(set map[string]struct{}, id string) bool {
	if _, dup := set[id]; dup {
		return false
	}
	set[id] = struct{}{}
	return true
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sliceToSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
