package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// Write serializes rows under the given column list. The header is written
// first; each row's cells follow in column order, with missing keys emitted
// as empty cells. Fields are escaped per RFC 4180 and records end in CRLF.
func Write(w io.Writer, columns []string, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(columns))

	for i, row := range rows {
		for j, name := range columns {
			record[j] = row[name]
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// Encode renders columns and rows to a byte slice via [Write].
func Encode(columns []string, rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, columns, rows); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
