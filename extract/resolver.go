package extract

import (
	"github.com/unitab-io/unitab/catalog"
	"github.com/unitab-io/unitab/csvio"
	"github.com/unitab-io/unitab/format"
)

// resolver fills canonical output rows for one master data source. It holds
// the catalog snapshot, the master's attribute descriptors and CSV header,
// and the shared reference index.
type resolver struct {
	snap          *catalog.Snapshot
	master        catalog.DataSource
	masterAttrs   map[int64]catalog.Attribute
	masterColumns map[string]struct{}
	refs          refIndex
	warn          func(Warning)
}

func newResolver(snap *catalog.Snapshot, master catalog.DataSource, masterTable *csvio.Table, refs refIndex, warn func(Warning)) *resolver {
	attrs := make(map[int64]catalog.Attribute)
	for _, attr := range snap.Attributes[master.ID] {
		attrs[attr.ID] = attr
	}

	columns := make(map[string]struct{}, len(masterTable.Columns))
	for _, name := range masterTable.Columns {
		columns[name] = struct{}{}
	}

	return &resolver{
		snap:          snap,
		master:        master,
		masterAttrs:   attrs,
		masterColumns: columns,
		refs:          refs,
		warn:          warn,
	}
}

// row builds the canonical output row for one master row. Every canonical
// attribute is present in the result, empty when unresolvable.
func (r *resolver) row(masterRow csvio.Row) csvio.Row {
	out := make(csvio.Row, len(r.snap.Canonicals))

	for _, c := range r.snap.Canonicals {
		out[c.Name] = r.cell(c, masterRow)
	}

	return out
}

// cell resolves one canonical attribute: primary binding first, and only
// when the primary yields an empty string, the secondary. A non-empty
// primary always wins; with a secondary present, its result is taken
// verbatim, empty or not.
func (r *resolver) cell(c catalog.Canonical, masterRow csvio.Row) string {
	dm := r.snap.DataMappings[c.ID]
	if dm == nil {
		return ""
	}

	v := r.resolve(dm.Primary, masterRow)
	if v != "" {
		return v
	}

	if dm.Secondary != nil {
		return r.resolve(*dm.Secondary, masterRow)
	}

	return v
}

// resolve produces the value of one (data source, attribute) binding for
// one master row: a direct column read when the binding points at the
// master itself, otherwise a one-hop join through the reference index.
// Unresolvable bindings yield the empty string.
func (r *resolver) resolve(b catalog.Binding, masterRow csvio.Row) string {
	if b.SourceID == r.master.ID {
		attr, ok := r.masterAttrs[b.AttributeID]
		if !ok {
			r.warn(warningf(WarnUnknownAttribute,
				"data mapping references attribute %d, which master %q does not declare", b.AttributeID, r.master.Name))

			return ""
		}

		return r.format(masterRow[attr.Name], attr)
	}

	ref, ok := r.refs[b.SourceID]
	if !ok {
		// Master, inactive, or payload-less source. Missing reference
		// payloads were warned when the index was built.
		return ""
	}

	attr, ok := ref.attrs[b.AttributeID]
	if !ok {
		r.warn(warningf(WarnUnknownAttribute,
			"data mapping references attribute %d, which data source %q does not declare", b.AttributeID, ref.source.Name))

		return ""
	}

	matched, ok := r.join(ref, masterRow)
	if !ok {
		return ""
	}

	return r.format(matched[attr.Name], attr)
}

// join locates the reference row joined to the master row. Cross-references
// are consulted in catalog order and their mappings in insertion order; the
// first evaluable mapping from the master to the target source decides the
// join. Mappings whose attributes are unknown or absent from the CSV
// headers are skipped with a warning. A join value that matches no
// reference row resolves to no row; later mappings are not retried.
func (r *resolver) join(ref *refTable, masterRow csvio.Row) (csvio.Row, bool) {
	for _, xref := range r.snap.CrossRefs {
		if !xref.Active {
			continue
		}

		for _, m := range xref.Mappings {
			if m.SourceDataSourceID != r.master.ID || m.TargetDataSourceID != ref.source.ID {
				continue
			}

			masterAttr, ok := r.masterAttrs[m.SourceAttributeID]
			if !ok {
				r.warn(warningf(WarnUnknownAttribute,
					"cross-reference %q references attribute %d, which master %q does not declare",
					xref.Name, m.SourceAttributeID, r.master.Name))

				continue
			}

			targetAttr, ok := ref.attrs[m.TargetAttributeID]
			if !ok {
				r.warn(warningf(WarnUnknownAttribute,
					"cross-reference %q references attribute %d, which data source %q does not declare",
					xref.Name, m.TargetAttributeID, ref.source.Name))

				continue
			}

			if _, ok := r.masterColumns[masterAttr.Name]; !ok {
				r.warn(warningf(WarnJoinKeyMissing,
					"join key %q is not a column of master %q; skipping mapping", masterAttr.Name, r.master.Name))

				continue
			}

			if !ref.hasColumn(targetAttr.Name) {
				r.warn(warningf(WarnJoinKeyMissing,
					"join key %q is not a column of data source %q; skipping mapping", targetAttr.Name, ref.source.Name))

				continue
			}

			value := masterRow[masterAttr.Name]

			matched, n := ref.lookup(targetAttr.Name, value)
			if matched == nil {
				return nil, false
			}

			if n > 1 {
				r.warn(warningf(WarnJoinMultiplicity,
					"%d rows of data source %q match %s=%q; using the first in CSV order",
					n, ref.source.Name, targetAttr.Name, value))
			}

			return matched, true
		}
	}

	return nil, false
}

// format runs a cell through the value formatter, downgrading date parse
// failures to warnings.
func (r *resolver) format(raw string, attr catalog.Attribute) string {
	v, err := format.Value(raw, attr)
	if err != nil {
		r.warn(warningf(WarnDateParse, "%v; keeping raw value", err))
	}

	return v
}
