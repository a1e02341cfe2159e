// Package csvio reads uploaded CSV payloads into in-memory tables and
// writes extraction results back out as RFC 4180 CSV.
//
// The dialect is deliberately narrow: comma delimiter, first record is the
// header, double-quoted fields may contain commas, quotes, and newlines.
// Cells are trimmed of surrounding whitespace on the way in, and rows are
// keyed by header name, which is how the extraction engine addresses them.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed indicates a payload that could not be parsed as CSV:
// an unterminated quote, a missing header, or a row whose cell count does
// not match the header.
var ErrMalformed = errors.New("malformed csv")

// Row maps header names to cell values for one record.
type Row map[string]string

// Table is one fully parsed CSV payload. Columns preserves the header's
// declared order; Rows preserves record order.
type Table struct {
	Columns []string
	Rows    []Row
}

// Read parses a CSV payload. The first record is the header. Cells are
// trimmed of surrounding whitespace, empty lines are skipped, and every
// remaining record must have exactly as many cells as the header.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header row", ErrMalformed)
		}

		return nil, wrapParseError(err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	table := &Table{Columns: columns}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, wrapParseError(err)
		}

		for i, cell := range record {
			record[i] = strings.TrimSpace(cell)
		}

		// A whitespace-only line parses as a single empty cell; skip it
		// like a blank line. Rows of empty cells (",,") are real records.
		if len(record) == 1 && record[0] == "" {
			continue
		}

		if len(record) != len(columns) {
			line, _ := cr.FieldPos(0)

			return nil, fmt.Errorf("%w: line %d has %d cells, header has %d",
				ErrMalformed, line, len(record), len(columns))
		}

		row := make(Row, len(columns))
		for i, name := range columns {
			row[name] = record[i]
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// wrapParseError converts an encoding/csv error into an [ErrMalformed]
// wrapper, keeping the line information csv.ParseError carries.
func wrapParseError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: line %d: %v", ErrMalformed, parseErr.Line, parseErr.Err)
	}

	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
