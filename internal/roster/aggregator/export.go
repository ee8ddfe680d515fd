package aggregator

import (
	"encoding/csv"
	"io"
	"strconv"

	apperrors "roster-optimizer/internal/common/errors"
	"roster-optimizer/internal/roster/solver"
)

// ExportHeader is the column layout of the roster export file.
var ExportHeader = []string{"Team", "Player", "Assigned Position", "Eligible Positions", "FPts", "Total Team FPts"}

// ExportRow is one assigned candidate in the export file.
type ExportRow struct {
	Group      string
	Name       string
	Category   string
	Eligible   string
	Value      float64
	GroupTotal float64
}

// ExportRows lists every assignment, grouped in standings order and by value
// within a group.
func ExportRows(standings []Standing, results map[string]solver.Result) []ExportRow {
	var rows []ExportRow
	for _, s := range standings {
		res := results[s.Group]
		for _, a := range res.Assignments {
			rows = append(rows, ExportRow{
				Group:      s.Group,
				Name:       a.Candidate.Name,
				Category:   a.Category,
				Eligible:   a.Candidate.Eligible(),
				Value:      a.Candidate.Value,
				GroupTotal: res.Total,
			})
		}
	}
	return rows
}

// WriteCSV writes rows under ExportHeader.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return apperrors.NewExportFailedError(err)
	}
	for _, r := range rows {
		record := []string{
			r.Group,
			r.Name,
			r.Category,
			r.Eligible,
			formatPoints(r.Value),
			formatPoints(r.GroupTotal),
		}
		if err := cw.Write(record); err != nil {
			return apperrors.NewExportFailedError(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.NewExportFailedError(err)
	}
	return nil
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
