package progress

import "math/rand"

// SelectQuestionIDs picks up to n question identifiers from a bank, favoring
// unseen material: unanswered questions first in random order, padded with
// already-answered ones (also randomized) when fewer than n remain. The
// result is shorter than n only when the bank itself is exhausted. Ordering
// is deliberately non-reproducible.
func SelectQuestionIDs(bank []string, answered map[string]struct{}, n int) []string {
	if n <= 0 {
		return nil
	}

	var unanswered, seen []string
	for _, id := range bank {
		if _, ok := answered[id]; ok {
			seen = append(seen, id)
		} else {
			unanswered = append(unanswered, id)
		}
	}
	shuffle(unanswered)
	shuffle(seen)

	selected := unanswered
	if len(selected) > n {
		selected = selected[:n]
	}
	if pad := n - len(selected); pad > 0 {
		if pad > len(seen) {
			pad = len(seen)
		}
		selected = append(selected, seen[:pad]...)
	}
	return selected
}

func shuffle(ids []string) {
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}
