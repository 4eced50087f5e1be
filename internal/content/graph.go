package content

import "sort"

// Graph is the immutable stage graph plus the sagas it references. Built once
// at startup, safe for concurrent readers.
type Graph struct {
	stages  []Stage
	byID    map[string]int
	sagas   map[string]Saga
	sagaIDs map[string][]string // saga id -> deduplicated question ids
}

// NewGraph assembles a graph from an ordered stage sequence and saga set.
func NewGraph(stages []Stage, sagas map[string]Saga) *Graph {
	g := &Graph{
		stages:  stages,
		byID:    make(map[string]int, len(stages)),
		sagas:   sagas,
		sagaIDs: make(map[string][]string, len(sagas)),
	}
	for i, s := range stages {
		g.byID[s.ID] = i
	}
	for id, saga := range sagas {
		names := make([]string, 0, len(saga.Games))
		for name := range saga.Games {
			names = append(names, name)
		}
		sort.Strings(names)

		seen := make(map[string]struct{})
		var ids []string
		for _, name := range names {
			for _, qid := range saga.Games[name].QuestionIDs() {
				if _, dup := seen[qid]; dup {
					continue
				}
				seen[qid] = struct{}{}
				ids = append(ids, qid)
			}
		}
		g.sagaIDs[id] = ids
	}
	return g
}

// Stage looks up a stage by identifier.
func (g *Graph) Stage(id string) (Stage, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Stage{}, false
	}
	return g.stages[i], true
}

// Next returns the stage immediately following the given one in graph order.
func (g *Graph) Next(id string) (Stage, bool) {
	i, ok := g.byID[id]
	if !ok || i+1 >= len(g.stages) {
		return Stage{}, false
	}
	return g.stages[i+1], true
}

// Stages returns the ordered stage sequence.
func (g *Graph) Stages() []Stage {
	out := make([]Stage, len(g.stages))
	copy(out, g.stages)
	return out
}

// SagaQuestionIDs enumerates the distinct question identifiers of a saga.
// Returns nil for unknown sagas.
func (g *Graph) SagaQuestionIDs(sagaID string) []string {
	ids, ok := g.sagaIDs[sagaID]
	if !ok {
		return nil
	}
	return append([]string(nil), ids...)
}
