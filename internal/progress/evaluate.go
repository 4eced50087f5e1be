package progress

import "github.com/culturoquest/quest-server/internal/content"

// EvaluateStages recomputes stage progress from the correct-answer set. Pure:
// inputs are never mutated, and re-running on unchanged inputs is a no-op.
//
// Each currently-active stage whose saga mastery meets MasteryThreshold moves
// to completed, and the next stage in graph order joins the active set when it
// shares the completed stage's track. Stages unlocked during this pass are not
// themselves evaluated until the next fact change, so a single batch of
// answers can never cascade through multiple stages at once. Sagas that
// enumerate zero questions have undefined mastery and never complete.
func EvaluateStages(graph *content.Graph, answered map[string]struct{}, prog StageProgress) (StageProgress, bool) {
	completed := append([]string(nil), prog.CompletedStages...)
	active := append([]string(nil), prog.ActiveStages...)

	completedSet := sliceToSet(completed)
	changed := false

	for _, stageID := range prog.ActiveStages {
		if _, done := completedSet[stageID]; done {
			continue
		}
		stage, ok := graph.Stage(stageID)
		if !ok {
			continue
		}
		ids := graph.SagaQuestionIDs(stage.RelatedSaga)
		if len(ids) == 0 {
			continue
		}

		hit := 0
		for _, id := range ids {
			if _, ok := answered[id]; ok {
				hit++
			}
		}
		if float64(hit)/float64(len(ids)) < MasteryThreshold {
			continue
		}

		completed = append(completed, stageID)
		completedSet[stageID] = struct{}{}
		changed = true

		next, ok := graph.Next(stageID)
		if ok && content.Track(next.ID) == content.Track(stageID) && !contains(active, next.ID) {
			active = append(active, next.ID)
		}
	}

	if !changed {
		return prog, false
	}

	// A stage is never simultaneously active and completed.
	filtered := active[:0]
	for _, id := range active {
		if _, done := completedSet[id]; !done {
			filtered = append(filtered, id)
		}
	}

	return StageProgress{CompletedStages: completed, ActiveStages: filtered}, true
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
