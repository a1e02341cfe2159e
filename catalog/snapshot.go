package catalog

// Snapshot is a consistent, read-only view of one data system, taken at the
// start of an extraction. All slices preserve catalog order (insertion
// order, ascending ID).
type Snapshot struct {
	System DataSystem

	// Sources holds every data source of the system, active or not.
	Sources []DataSource

	// Attributes maps a data source ID to its attributes.
	Attributes map[int64][]Attribute

	// CrossRefs holds the system's cross-references with their mappings
	// (mappings in insertion order).
	CrossRefs []CrossRefView

	// DataMappings maps a canonical ID to the system's data mapping for it,
	// if any.
	DataMappings map[int64]*DataMapping

	// Canonicals is the global vocabulary in catalog order. Its names form
	// the output column list of every extraction.
	Canonicals []Canonical
}

// CrossRefView pairs a cross-reference with its equality mappings.
type CrossRefView struct {
	CrossRef
	Mappings []CrossRefMapping
}

// MasterSources returns the active master sources in catalog order.
func (s *Snapshot) MasterSources() []DataSource {
	var out []DataSource

	for _, src := range s.Sources {
		if src.Active && src.Master {
			out = append(out, src)
		}
	}

	return out
}

// ReferenceSources returns the active non-master sources in catalog order.
func (s *Snapshot) ReferenceSources() []DataSource {
	var out []DataSource

	for _, src := range s.Sources {
		if src.Active && !src.Master {
			out = append(out, src)
		}
	}

	return out
}

// Attribute finds an attribute of the given source by ID.
func (s *Snapshot) Attribute(sourceID, attributeID int64) (Attribute, bool) {
	for _, attr := range s.Attributes[sourceID] {
		if attr.ID == attributeID {
			return attr, true
		}
	}

	return Attribute{}, false
}

// ColumnNames returns the canonical attribute names in catalog order.
func (s *Snapshot) ColumnNames() []string {
	names := make([]string, len(s.Canonicals))
	for i, c := range s.Canonicals {
		names[i] = c.Name
	}

	return names
}
