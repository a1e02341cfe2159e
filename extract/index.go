package extract

import (
	"bytes"

	"github.com/unitab-io/unitab/catalog"
	"github.com/unitab-io/unitab/csvio"
)

// refTable is the reference-index entry for one non-master data source:
// its parsed rows plus the attribute descriptors needed to address them.
type refTable struct {
	source  catalog.DataSource
	table   *csvio.Table
	attrs   map[int64]catalog.Attribute
	columns map[string]struct{}
}

// hasColumn reports whether the parsed CSV header contains the given name.
func (t *refTable) hasColumn(name string) bool {
	_, ok := t.columns[name]

	return ok
}

// lookup scans the reference rows for the first whose cell at column equals
// value, in CSV order. It also reports the total number of matching rows so
// the caller can flag duplicate join keys.
func (t *refTable) lookup(column, value string) (csvio.Row, int) {
	var (
		first   csvio.Row
		matches int
	)

	for _, row := range t.table.Rows {
		if row[column] != value {
			continue
		}

		if first == nil {
			first = row
		}

		matches++
	}

	return first, matches
}

// refIndex maps data source IDs to their materialized reference tables.
type refIndex map[int64]*refTable

// buildRefIndex eagerly parses the payload of every active non-master
// source in the snapshot. Sources without a payload are skipped with a
// warning; any malformed payload aborts the extraction.
func buildRefIndex(snap *catalog.Snapshot, payloads PayloadSource, warn func(Warning)) (refIndex, error) {
	index := make(refIndex)

	for _, src := range snap.ReferenceSources() {
		payload, ok := payloads.Payload(src.ID)
		if !ok {
			warn(warningf(WarnMissingReferencePayload,
				"data source %q has no uploaded payload; lookups into it resolve empty", src.Name))

			continue
		}

		table, err := csvio.Read(bytes.NewReader(payload.Data))
		if err != nil {
			return nil, wrapf(KindParse, err, "data source %q (%s)", src.Name, payload.Filename)
		}

		attrs := make(map[int64]catalog.Attribute)
		for _, attr := range snap.Attributes[src.ID] {
			attrs[attr.ID] = attr
		}

		columns := make(map[string]struct{}, len(table.Columns))
		for _, name := range table.Columns {
			columns[name] = struct{}{}
		}

		index[src.ID] = &refTable{
			source:  src,
			table:   table,
			attrs:   attrs,
			columns: columns,
		}
	}

	return index, nil
}
