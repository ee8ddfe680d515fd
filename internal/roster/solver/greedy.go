package solver

import (
	"roster-optimizer/internal/roster/catalog"
)

// Greedy fills slots in one pass over the candidates by value, highest first.
// Each candidate takes the eligible category with the fewest open slots,
// ties going to the lower label. A second pass offers any still open slot to
// the unused candidates in the same order. The result is never better than
// the exact search and may be incomplete.
func Greedy(candidates []catalog.Candidate, req Requirement) Result {
	sorted := sortByValue(candidates)
	remaining := make(map[string]int, len(req))
	open := 0
	for _, c := range req.active() {
		remaining[c] = req[c]
		open += req[c]
	}

	picks := make([]string, len(sorted))
	for i, c := range sorted {
		if open == 0 {
			break
		}
		best := ""
		for _, cat := range c.Categories {
			n := remaining[cat]
			if n == 0 {
				continue
			}
			if best == "" || n < remaining[best] {
				best = cat
			}
		}
		if best != "" {
			picks[i] = best
			remaining[best]--
			open--
		}
	}

	for i, c := range sorted {
		if open == 0 {
			break
		}
		if picks[i] != "" {
			continue
		}
		for _, cat := range c.Categories {
			if remaining[cat] > 0 {
				picks[i] = cat
				remaining[cat]--
				open--
				break
			}
		}
	}

	res := Result{Method: MethodGreedy, Complete: open == 0}
	for i, cat := range picks {
		if cat == "" {
			continue
		}
		res.Assignments = append(res.Assignments, Assignment{Candidate: sorted[i], Category: cat})
		res.Total += sorted[i].Value
	}
	return res
}
