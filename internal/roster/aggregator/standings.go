package aggregator

import (
	"sort"

	"roster-optimizer/internal/models"
	"roster-optimizer/internal/roster/solver"
)

// Standing is one group's place in the league table.
type Standing struct {
	Rank     int
	Group    string
	Total    float64
	Complete bool
	Method   solver.Method
	Counts   map[string]int
}

// Rank orders groups by total value, highest first. Equal totals are ordered
// by group label so the table is stable.
func Rank(results map[string]solver.Result) []Standing {
	standings := make([]Standing, 0, len(results))
	for group, res := range results {
		standings = append(standings, Standing{
			Group:    group,
			Total:    res.Total,
			Complete: res.Complete,
			Method:   res.Method,
			Counts:   res.Counts(),
		})
	}

	sort.Slice(standings, func(a, b int) bool {
		if standings[a].Total != standings[b].Total {
			return standings[a].Total > standings[b].Total
		}
		return standings[a].Group < standings[b].Group
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// ToModels converts standings plus their rosters into job payload DTOs.
func ToModels(standings []Standing, results map[string]solver.Result) []models.Standing {
	out := make([]models.Standing, 0, len(standings))
	for _, s := range standings {
		out = append(out, models.Standing{
			Rank:     s.Rank,
			Group:    s.Group,
			Total:    s.Total,
			Complete: s.Complete,
			Method:   string(s.Method),
			Counts:   s.Counts,
			Roster:   RosterEntries(results[s.Group]),
		})
	}
	return out
}

// RosterEntries lists the filled slots of res in assignment order.
func RosterEntries(res solver.Result) []models.RosterEntry {
	roster := make([]models.RosterEntry, 0, len(res.Assignments))
	for _, a := range res.Assignments {
		roster = append(roster, models.RosterEntry{
			ID:         a.Candidate.ID,
			Name:       a.Candidate.Name,
			Category:   a.Category,
			Value:      a.Candidate.Value,
			Categories: a.Candidate.Eligible(),
		})
	}
	return roster
}
