package solver

import (
	"fmt"
	"time"

	"roster-optimizer/internal/roster/catalog"
)

// Method names the algorithm that produced a Result.
type Method string

const (
	MethodExact  Method = "exact"
	MethodGreedy Method = "greedy"
)

// Assignment places one candidate into one slot of Category.
type Assignment struct {
	Candidate catalog.Candidate
	Category  string
}

// Stats describes the work a solve did.
type Stats struct {
	Nodes int64
	// Pruned counts branches cut because their value bound could not beat
	// the incumbent.
	Pruned int64
	// Infeasible counts branches cut because the remaining candidates could
	// no longer fill every open slot.
	Infeasible int64
	TimedOut   bool
	Elapsed    time.Duration
}

// Result is the roster chosen for one group.
type Result struct {
	// Assignments are ordered by candidate value, highest first.
	Assignments []Assignment
	Total       float64
	// Complete is true when every slot of the requirement is filled.
	Complete bool
	Method   Method
	Stats    Stats
}

// ByID maps candidate id to assigned category.
func (r Result) ByID() map[string]string {
	out := make(map[string]string, len(r.Assignments))
	for _, a := range r.Assignments {
		out[a.Candidate.ID] = a.Category
	}
	return out
}

// Counts returns how many slots of each category are filled.
func (r Result) Counts() map[string]int {
	out := make(map[string]int)
	for _, a := range r.Assignments {
		out[a.Category]++
	}
	return out
}

// Check verifies that the result is a legal roster for req: each candidate
// used at most once, only in a category it is eligible for, no category over
// capacity, and Total equal to the summed values.
func (r Result) Check(req Requirement) error {
	used := make(map[string]bool, len(r.Assignments))
	counts := make(map[string]int)
	total := 0.0

	for _, a := range r.Assignments {
		if used[a.Candidate.ID] {
			return fmt.Errorf("candidate %s assigned twice", a.Candidate.ID)
		}
		used[a.Candidate.ID] = true

		if !a.Candidate.CanFill(a.Category) {
			return fmt.Errorf("candidate %s is not eligible for %s", a.Candidate.ID, a.Category)
		}
		counts[a.Category]++
		if counts[a.Category] > req[a.Category] {
			return fmt.Errorf("category %s over capacity", a.Category)
		}
		total += a.Candidate.Value
	}

	if diff := total - r.Total; diff > 1e-9 || diff < -1e-9 {
		return fmt.Errorf("total %.4f does not match assignments %.4f", r.Total, total)
	}

	complete := true
	for _, c := range req.active() {
		if counts[c] != req[c] {
			complete = false
			break
		}
	}
	if complete != r.Complete {
		return fmt.Errorf("complete flag %t does not match fill state", r.Complete)
	}
	return nil
}
