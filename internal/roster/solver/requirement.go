// Package solver assigns a group's candidates to capacity slots so that the
// summed value of the filled slots is as large as possible.
package solver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "roster-optimizer/internal/common/errors"
	"roster-optimizer/internal/models"
)

// Requirement maps a category to the number of slots it has. Categories with
// zero or negative slots are ignored by the solvers.
type Requirement map[string]int

// Validate rejects blank categories and negative slot counts.
func (r Requirement) Validate() error {
	for _, cat := range r.Categories() {
		if strings.TrimSpace(cat) == "" {
			return apperrors.NewInvalidRequirementError("blank category")
		}
		if r[cat] < 0 {
			return apperrors.NewInvalidRequirementError(fmt.Sprintf("category %s has %d slots", cat, r[cat]))
		}
	}
	return nil
}

// Total is the number of slots to fill.
func (r Requirement) Total() int {
	total := 0
	for _, n := range r {
		if n > 0 {
			total += n
		}
	}
	return total
}

// Categories returns every category label in ascending order.
func (r Requirement) Categories() []string {
	cats := make([]string, 0, len(r))
	for c := range r {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// active returns the categories with at least one slot, ascending.
func (r Requirement) active() []string {
	cats := make([]string, 0, len(r))
	for _, c := range r.Categories() {
		if r[c] > 0 {
			cats = append(cats, c)
		}
	}
	return cats
}

// Clone returns an independent copy.
func (r Requirement) Clone() Requirement {
	out := make(Requirement, len(r))
	for c, n := range r {
		out[c] = n
	}
	return out
}

// String renders "C:3 D:4" in category order.
func (r Requirement) String() string {
	parts := make([]string, 0, len(r))
	for _, c := range r.Categories() {
		parts = append(parts, c+":"+strconv.Itoa(r[c]))
	}
	return strings.Join(parts, " ")
}

// ParseRequirement reads a "C:3,RW:3,D:4" list. Repeated categories add up.
func ParseRequirement(s string) (Requirement, error) {
	req := make(Requirement)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cat, count, ok := strings.Cut(part, ":")
		if !ok {
			return nil, apperrors.NewInvalidRequirementError(fmt.Sprintf("entry %q is not category:slots", part))
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil {
			return nil, apperrors.NewInvalidRequirementError(fmt.Sprintf("entry %q: %v", part, err))
		}
		req[strings.TrimSpace(cat)] += n
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// FromSlots builds a requirement from an ordered capacity list. Repeated
// categories add up.
func FromSlots(slots []models.CapacitySlot) (Requirement, error) {
	req := make(Requirement, len(slots))
	for _, slot := range slots {
		req[strings.TrimSpace(slot.Category)] += slot.Slots
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
