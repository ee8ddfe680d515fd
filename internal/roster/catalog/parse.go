package catalog

import (
	"fmt"
	"sort"
	"strings"

	"roster-optimizer/internal/common/config"
	apperrors "roster-optimizer/internal/common/errors"
)

// Record is one raw input row keyed by column name.
type Record map[string]string

// Columns names the record fields that feed each candidate attribute.
type Columns struct {
	ID           string
	Name         string
	Group        string
	Categories   string
	Value        string
	Affiliation  string
	RosterStatus string
	// Delimiter separates entries of the Categories field.
	Delimiter string
}

// DefaultColumns matches the headers of a league player export.
func DefaultColumns() Columns {
	return Columns{
		ID:           "ID",
		Name:         "Player",
		Group:        "Status",
		Categories:   "Position",
		Value:        "FPts",
		Affiliation:  "Team",
		RosterStatus: "Roster Status",
		Delimiter:    ",",
	}
}

// ColumnsFromConfig maps the input section of the service config onto Columns.
func ColumnsFromConfig(in config.InputConfig) Columns {
	return Columns{
		ID:           in.Columns.ID,
		Name:         in.Columns.Name,
		Group:        in.Columns.Group,
		Categories:   in.Columns.Categories,
		Value:        in.Columns.Value,
		Affiliation:  in.Columns.Affiliation,
		RosterStatus: in.Columns.RosterStatus,
		Delimiter:    in.Delimiter,
	}
}

// required lists the columns every record must carry, in check order.
// Group is not among them: an unaffiliated record stays in the catalog.
func (c Columns) required() []string {
	return []string{c.ID, c.Name, c.Categories}
}

// header lists the columns a tabular input must declare.
func (c Columns) header() []string {
	return []string{c.ID, c.Name, c.Group, c.Categories, c.Value}
}

// ParseOptions controls record validation.
type ParseOptions struct {
	Columns Columns
	// Strict fails the whole batch on the first bad record instead of
	// skipping it.
	Strict bool
}

// RecordError describes why a record was left out of the catalog.
type RecordError struct {
	Row int
	ID  string
	Err *apperrors.StandardError
}

func (e RecordError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Err.Error())
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// Catalog is the validated candidate set of one input batch.
type Catalog struct {
	// All holds every accepted candidate in input order.
	All []Candidate
	// ByGroup partitions the candidates of All that have a group; each
	// slice keeps input order.
	ByGroup map[string][]Candidate
	// Rejected holds the skipped records in input order.
	Rejected []RecordError
}

// Groups returns the group labels in ascending order.
func (c *Catalog) Groups() []string {
	groups := make([]string, 0, len(c.ByGroup))
	for g := range c.ByGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Parse validates records and builds the catalog. Rows are numbered from 1.
// A record missing its id, name or category list is rejected, and so is a
// record repeating an id already accepted. A record with a blank group is
// kept in All but left out of ByGroup. In strict mode the first
// rejection is returned as the error.
func Parse(records []Record, opts ParseOptions) (*Catalog, error) {
	cols := opts.Columns
	if cols == (Columns{}) {
		cols = DefaultColumns()
	}

	cat := &Catalog{
		All:     make([]Candidate, 0, len(records)),
		ByGroup: make(map[string][]Candidate),
	}
	seen := make(map[string]bool, len(records))

	for i, rec := range records {
		row := i + 1
		c, rerr := buildCandidate(rec, cols, row)
		if rerr == nil && seen[c.ID] {
			rerr = &RecordError{Row: row, ID: c.ID, Err: apperrors.NewDuplicateCandidateError(c.ID, row)}
		}
		if rerr != nil {
			if opts.Strict {
				return nil, rerr
			}
			cat.Rejected = append(cat.Rejected, *rerr)
			continue
		}

		seen[c.ID] = true
		cat.All = append(cat.All, c)
		if c.Group != "" {
			cat.ByGroup[c.Group] = append(cat.ByGroup[c.Group], c)
		}
	}

	return cat, nil
}

func buildCandidate(rec Record, cols Columns, row int) (Candidate, *RecordError) {
	id := strings.TrimSpace(rec[cols.ID])

	for _, field := range cols.required() {
		if strings.TrimSpace(rec[field]) == "" {
			return Candidate{}, &RecordError{Row: row, ID: id, Err: apperrors.NewMissingFieldError(field, row)}
		}
	}

	categories := SplitCategories(rec[cols.Categories], cols.Delimiter)
	if len(categories) == 0 {
		return Candidate{}, &RecordError{Row: row, ID: id, Err: apperrors.NewMissingFieldError(cols.Categories, row)}
	}

	return Candidate{
		ID:           id,
		Name:         strings.TrimSpace(rec[cols.Name]),
		Group:        strings.TrimSpace(rec[cols.Group]),
		Value:        ParseValue(rec[cols.Value]),
		Categories:   categories,
		Affiliation:  strings.TrimSpace(rec[cols.Affiliation]),
		RosterStatus: strings.TrimSpace(rec[cols.RosterStatus]),
	}, nil
}
