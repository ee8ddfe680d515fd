package solver

import (
	"context"
	"sort"
	"time"

	"roster-optimizer/internal/roster/catalog"
)

// exactEngine holds the state of one branch-and-bound search. It is local to
// a single solve and never shared between goroutines.
type exactEngine struct {
	// Problem data, candidates sorted by value descending
	n      int
	cands  []catalog.Candidate
	values []float64
	cats   []string // active categories, ascending
	elig   [][]int  // per candidate: indexes into cats, ascending
	supply [][]int  // supply[c][i]: candidates at i.. eligible for cats[c]
	total  int      // slots to fill

	// Search state
	remaining []int // open slots per category
	pick      []int // category index per candidate on the current path, -1 = skipped

	// Incumbent
	found    bool
	best     float64
	bestPick []int

	// Budget
	ctx      context.Context
	deadline time.Time
	steps    int
	stopped  bool

	nodes      int64
	pruned     int64
	infeasible int64
}

func newExactEngine(ctx context.Context, sorted []catalog.Candidate, req Requirement, limit time.Duration) *exactEngine {
	e := &exactEngine{
		n:     len(sorted),
		cands: sorted,
		cats:  req.active(),
		total: req.Total(),
		ctx:   ctx,
	}
	if limit > 0 {
		e.deadline = time.Now().Add(limit)
	}

	index := make(map[string]int, len(e.cats))
	e.remaining = make([]int, len(e.cats))
	for i, c := range e.cats {
		index[c] = i
		e.remaining[i] = req[c]
	}

	e.values = make([]float64, e.n)
	e.elig = make([][]int, e.n)
	for i, c := range sorted {
		e.values[i] = c.Value
		for _, cat := range c.Categories {
			if k, ok := index[cat]; ok {
				e.elig[i] = append(e.elig[i], k)
			}
		}
	}

	e.supply = make([][]int, len(e.cats))
	for k := range e.cats {
		s := make([]int, e.n+1)
		for i := e.n - 1; i >= 0; i-- {
			s[i] = s[i+1]
			for _, c := range e.elig[i] {
				if c == k {
					s[i]++
					break
				}
			}
		}
		e.supply[k] = s
	}

	e.pick = make([]int, e.n)
	e.bestPick = make([]int, e.n)
	for i := range e.pick {
		e.pick[i] = -1
		e.bestPick[i] = -1
	}
	return e
}

// budgetExceeded checks the deadline and context on the first node and every
// 1024 nodes after it.
func (e *exactEngine) budgetExceeded() bool {
	if e.stopped {
		return true
	}
	e.steps++
	if e.steps&1023 != 1 {
		return false
	}
	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		e.stopped = true
	}
	if e.ctx != nil && e.ctx.Err() != nil {
		e.stopped = true
	}
	return e.stopped
}

// bound is the value so far plus the best values still reachable with the
// open slots. Values are sorted descending, so the next `slots` candidates
// are an upper bound on any completion.
func (e *exactEngine) bound(i, slots int, value float64) float64 {
	end := i + slots
	if end > e.n {
		end = e.n
	}
	for k := i; k < end; k++ {
		value += e.values[k]
	}
	return value
}

// feasible reports whether candidates i.. could still fill every open slot.
// It never rejects a path that has a complete extension.
func (e *exactEngine) feasible(i, slots int) bool {
	if e.n-i < slots {
		return false
	}
	for k, open := range e.remaining {
		if open > e.supply[k][i] {
			return false
		}
	}
	return true
}

func (e *exactEngine) record(i int, value float64) {
	e.found = true
	e.best = value
	copy(e.bestPick, e.pick[:i])
	for k := i; k < e.n; k++ {
		e.bestPick[k] = -1
	}
}

// search decides candidate i: each eligible open category in ascending
// order, then skip. A completion replaces the incumbent only when strictly
// better, so the first optimum found in branch order wins ties.
//
// Two rules cut a branch. The value bound drops paths that cannot beat the
// incumbent and is what shapes the optimum search. The supply check drops
// paths that can no longer be completed; it never removes a complete
// roster and is counted apart from the bound.
func (e *exactEngine) search(i, slots int, value float64) {
	e.nodes++
	if e.budgetExceeded() {
		return
	}

	if slots == 0 {
		if !e.found || value > e.best {
			e.record(i, value)
		}
		return
	}
	if i == e.n {
		return
	}

	if e.found && e.bound(i, slots, value) <= e.best {
		e.pruned++
		return
	}
	if !e.feasible(i, slots) {
		e.infeasible++
		return
	}

	for _, k := range e.elig[i] {
		if e.remaining[k] == 0 {
			continue
		}
		e.remaining[k]--
		e.pick[i] = k
		e.search(i+1, slots-1, value+e.values[i])
		e.remaining[k]++
		if e.stopped {
			e.pick[i] = -1
			return
		}
	}
	e.pick[i] = -1
	e.search(i+1, slots, value)
}

func (e *exactEngine) stats() Stats {
	return Stats{
		Nodes:      e.nodes,
		Pruned:     e.pruned,
		Infeasible: e.infeasible,
		TimedOut:   e.stopped,
	}
}

func (e *exactEngine) result() Result {
	res := Result{
		Total:    e.best,
		Complete: true,
		Method:   MethodExact,
		Stats:    e.stats(),
	}
	for i, k := range e.bestPick {
		if k >= 0 {
			res.Assignments = append(res.Assignments, Assignment{Candidate: e.cands[i], Category: e.cats[k]})
		}
	}
	return res
}

// Exact runs the branch-and-bound search. It reports ok=false when no
// complete roster exists or the budget ran out before one was found.
func Exact(ctx context.Context, candidates []catalog.Candidate, req Requirement, limit time.Duration) (Result, bool) {
	e := newExactEngine(ctx, sortByValue(candidates), req, limit)
	e.search(0, e.total, 0)
	if !e.found {
		return Result{Stats: e.stats()}, false
	}
	return e.result(), true
}

// sortByValue returns a copy ordered by value descending. Equal values keep
// their input order.
func sortByValue(candidates []catalog.Candidate) []catalog.Candidate {
	sorted := make([]catalog.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Value > sorted[b].Value
	})
	return sorted
}
