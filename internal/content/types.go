package content

import "strings"

// Stage is one gated unit of progression in the stage graph. Stages are
// grouped into tracks by the identifier prefix before the first underscore,
// e.g. "history_1" and "history_2" belong to the "history" track.
type Stage struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	RelatedSaga string `json:"relatedSaga"`
}

// Track returns the track grouping for a stage identifier.
func Track(stageID string) string {
	if i := strings.IndexByte(stageID, '_'); i >= 0 {
		return stageID[:i]
	}
	return stageID
}

// Saga is a named bundle of mini-game question banks. The distinct question
// identifiers it enumerates define the universe countable toward mastery of
// any stage referencing it.
type Saga struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Games map[string]Game `json:"games"`
}

// Game holds one mini-game's question material.
type Game struct {
	QuestionBank []BankEntry `json:"questionBank,omitempty"`
	Riddles      []Ref       `json:"riddles,omitempty"`
}

// BankEntry is a single question-bank record. Entries either expand into
// child questions (timeline events, ruler line-ups) or count as one question
// under their own identifier (statements, match-up items, image questions).
type BankEntry struct {
	ID     string `json:"id,omitempty"`
	Events []Ref  `json:"events,omitempty"`
	Rulers []Ref  `json:"rulers,omitempty"`
}

// Ref is a minimal question reference carrying just an identifier.
type Ref struct {
	ID string `json:"id"`
}

// QuestionIDs enumerates every question identifier a game contributes.
func (g Game) QuestionIDs() []string {
	var ids []string
	for _, entry := range g.QuestionBank {
		switch {
		case len(entry.Events) > 0:
			for _, e := range entry.Events {
				ids = append(ids, e.ID)
			}
		case len(entry.Rulers) > 0:
			for _, r := range entry.Rulers {
				ids = append(ids, r.ID)
			}
		case entry.ID != "":
			ids = append(ids, entry.ID)
		}
	}
	for _, r := range g.Riddles {
		ids = append(ids, r.ID)
	}
	return ids
}
