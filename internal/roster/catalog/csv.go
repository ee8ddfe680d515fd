package catalog

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	apperrors "roster-optimizer/internal/common/errors"
)

// ReadCSV reads a header row followed by data rows. The id, name, group,
// category and value columns must be present in the header; short rows are
// padded with blanks.
func ReadCSV(r io.Reader, cols Columns) ([]Record, error) {
	if cols == (Columns{}) {
		cols = DefaultColumns()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewCSVReadFailedError(errors.New("empty input"))
	}
	if err != nil {
		return nil, apperrors.NewCSVReadFailedError(err)
	}

	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, name := range cols.header() {
		if !present[name] {
			return nil, apperrors.NewMissingFieldError(name, 0)
		}
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewCSVReadFailedError(err)
		}

		rec := make(Record, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// Load reads CSV input and parses it into a catalog.
func Load(r io.Reader, opts ParseOptions) (*Catalog, error) {
	records, err := ReadCSV(r, opts.Columns)
	if err != nil {
		return nil, err
	}
	return Parse(records, opts)
}
