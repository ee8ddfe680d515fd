package solver

import (
	"context"
	"fmt"
	"time"

	"roster-optimizer/internal/roster/catalog"
)

// Mode selects the solving strategy.
type Mode string

const (
	// ModeExact searches for the optimum and falls back to greedy when no
	// complete roster exists.
	ModeExact Mode = "exact"
	// ModeGreedy runs only the greedy heuristic.
	ModeGreedy Mode = "greedy"
)

// ParseMode maps a config or flag value onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeExact, "":
		return ModeExact, nil
	case ModeGreedy:
		return ModeGreedy, nil
	default:
		return "", fmt.Errorf("unknown solve mode %q", s)
	}
}

// Options tunes a single solve.
type Options struct {
	Mode Mode
	// TimeLimit bounds the exact search. When it runs out the best complete
	// roster found so far is returned; without one the greedy result is.
	// Zero means no limit.
	TimeLimit time.Duration
}

// DefaultOptions runs the exact search with no time limit.
func DefaultOptions() Options {
	return Options{Mode: ModeExact}
}

// Solve returns the highest-value complete roster for candidates, or the
// greedy roster when no complete roster exists.
func Solve(candidates []catalog.Candidate, req Requirement) Result {
	return SolveContext(context.Background(), candidates, req, DefaultOptions())
}

// SolveWithOptions is Solve with an explicit mode and time limit.
func SolveWithOptions(candidates []catalog.Candidate, req Requirement, opts Options) Result {
	return SolveContext(context.Background(), candidates, req, opts)
}

// SolveContext is SolveWithOptions that also stops searching when ctx is
// done. A stopped search behaves like one that ran out of time.
func SolveContext(ctx context.Context, candidates []catalog.Candidate, req Requirement, opts Options) Result {
	start := time.Now()

	var res Result
	if opts.Mode == ModeGreedy {
		res = Greedy(candidates, req)
	} else {
		exact, ok := Exact(ctx, candidates, req, opts.TimeLimit)
		if ok {
			res = exact
		} else {
			res = Greedy(candidates, req)
			res.Stats = exact.Stats
		}
	}

	res.Stats.Elapsed = time.Since(start)
	return res
}
