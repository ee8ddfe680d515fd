// Package catalog turns raw league records into validated roster candidates
// partitioned by group.
package catalog

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Candidate is one player available to a single group. A Candidate is never
// mutated after parsing.
type Candidate struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Group        string   `json:"group"`
	Value        float64  `json:"value"`
	Categories   []string `json:"categories"`
	Affiliation  string   `json:"affiliation,omitempty"`
	RosterStatus string   `json:"rosterStatus,omitempty"`
}

// CanFill reports whether the candidate may occupy a slot of category.
func (c Candidate) CanFill(category string) bool {
	i := sort.SearchStrings(c.Categories, category)
	return i < len(c.Categories) && c.Categories[i] == category
}

// Eligible renders the category set the way league exports list positions.
func (c Candidate) Eligible() string {
	return strings.Join(c.Categories, ",")
}

// SplitCategories splits a delimited eligibility list into a sorted set.
// Blank entries and duplicates are dropped.
func SplitCategories(raw, delimiter string) []string {
	if delimiter == "" {
		delimiter = ","
	}

	parts := strings.Split(raw, delimiter)
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// NormalizeCategories applies SplitCategories semantics to an already split list.
func NormalizeCategories(categories []string) []string {
	return SplitCategories(strings.Join(categories, "\x00"), "\x00")
}

// ParseValue reads a fantasy point total. Blank, unparseable, non-finite and
// negative values all become 0.
func ParseValue(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return SanitizeValue(v)
}

// SanitizeValue clamps a numeric value into the solver's domain.
func SanitizeValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
