package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemStore is an in-memory [Store]. Entities live in insertion-ordered
// slices, so catalog order falls out naturally. Reads may run concurrently;
// writes serialize against reads, which gives extractions the consistent
// snapshot the engine requires.
//
// Create instances with [NewMemStore].
type MemStore struct {
	mu  sync.RWMutex
	seq int64

	systems      []DataSystem
	sources      []DataSource
	attributes   []Attribute
	crossRefs    []CrossRef
	crossRefMaps []CrossRefMapping
	canonicals   []Canonical
	dataMappings []DataMapping
	filters      []FilterCondition
}

// NewMemStore creates an empty in-memory catalog store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) nextID() int64 {
	s.seq++

	return s.seq
}

//
// Reads
//

// System returns the data system with the given ID.
func (s *MemStore) System(_ context.Context, id int64) (DataSystem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sys := range s.systems {
		if sys.ID == id {
			return sys, nil
		}
	}

	return DataSystem{}, fmt.Errorf("%w: data system %d", ErrNotFound, id)
}

// Systems lists every data system in catalog order.
func (s *MemStore) Systems(_ context.Context) ([]DataSystem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.systems), nil
}

// Source returns the data source with the given ID.
func (s *MemStore) Source(_ context.Context, id int64) (DataSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, src := range s.sources {
		if src.ID == id {
			return src, nil
		}
	}

	return DataSource{}, fmt.Errorf("%w: data source %d", ErrNotFound, id)
}

// SourcesBySystem lists a system's data sources in catalog order.
func (s *MemStore) SourcesBySystem(_ context.Context, systemID int64) ([]DataSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sourcesBySystemLocked(systemID), nil
}

func (s *MemStore) sourcesBySystemLocked(systemID int64) []DataSource {
	var out []DataSource

	for _, src := range s.sources {
		if src.SystemID == systemID {
			out = append(out, src)
		}
	}

	return out
}

// AttributesBySource lists a data source's attributes in catalog order.
func (s *MemStore) AttributesBySource(_ context.Context, sourceID int64) ([]Attribute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.attributesBySourceLocked(sourceID), nil
}

func (s *MemStore) attributesBySourceLocked(sourceID int64) []Attribute {
	var out []Attribute

	for _, attr := range s.attributes {
		if attr.SourceID == sourceID {
			out = append(out, attr)
		}
	}

	return out
}

// CrossRefsBySystem lists a system's cross-references in catalog order.
func (s *MemStore) CrossRefsBySystem(_ context.Context, systemID int64) ([]CrossRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []CrossRef

	for _, xref := range s.crossRefs {
		if xref.SystemID == systemID {
			out = append(out, xref)
		}
	}

	return out, nil
}

// MappingsByCrossRef lists a cross-reference's mappings in insertion order.
func (s *MemStore) MappingsByCrossRef(_ context.Context, crossRefID int64) ([]CrossRefMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mappingsByCrossRefLocked(crossRefID), nil
}

func (s *MemStore) mappingsByCrossRefLocked(crossRefID int64) []CrossRefMapping {
	var out []CrossRefMapping

	for _, m := range s.crossRefMaps {
		if m.CrossRefID == crossRefID {
			out = append(out, m)
		}
	}

	return out
}

// DataMappingsBySystem lists a system's data mappings in insertion order.
func (s *MemStore) DataMappingsBySystem(_ context.Context, systemID int64) ([]DataMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []DataMapping

	for _, dm := range s.dataMappings {
		if dm.SystemID == systemID {
			out = append(out, dm)
		}
	}

	return out, nil
}

// Canonicals lists the global canonical vocabulary in catalog order.
func (s *MemStore) Canonicals(_ context.Context) ([]Canonical, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.canonicals), nil
}

// FiltersBySystem lists a system's filter conditions in insertion order.
func (s *MemStore) FiltersBySystem(_ context.Context, systemID int64) ([]FilterCondition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []FilterCondition

	for _, f := range s.filters {
		if f.SystemID == systemID {
			out = append(out, f)
		}
	}

	return out, nil
}

// Snapshot assembles a consistent view of one system under a single read
// lock.
func (s *MemStore) Snapshot(_ context.Context, systemID int64) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		system DataSystem
		found  bool
	)

	for _, sys := range s.systems {
		if sys.ID == systemID {
			system, found = sys, true

			break
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: data system %d", ErrNotFound, systemID)
	}

	snap := &Snapshot{
		System:       system,
		Sources:      s.sourcesBySystemLocked(systemID),
		Attributes:   make(map[int64][]Attribute),
		DataMappings: make(map[int64]*DataMapping),
		Canonicals:   slices.Clone(s.canonicals),
	}

	for _, src := range snap.Sources {
		snap.Attributes[src.ID] = s.attributesBySourceLocked(src.ID)
	}

	for _, xref := range s.crossRefs {
		if xref.SystemID != systemID {
			continue
		}

		snap.CrossRefs = append(snap.CrossRefs, CrossRefView{
			CrossRef: xref,
			Mappings: s.mappingsByCrossRefLocked(xref.ID),
		})
	}

	for _, dm := range s.dataMappings {
		if dm.SystemID == systemID {
			snap.DataMappings[dm.CanonicalID] = &dm
		}
	}

	return snap, nil
}

//
// Writes
//

// CreateSystem adds a data system. Names must be unique and non-empty.
func (s *MemStore) CreateSystem(_ context.Context, sys *DataSystem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sys.Name == "" {
		return errInvalidf("data system name must not be empty")
	}

	for _, existing := range s.systems {
		if existing.Name == sys.Name {
			return fmt.Errorf("%w: data system %q", ErrDuplicate, sys.Name)
		}
	}

	sys.ID = s.nextID()
	s.systems = append(s.systems, *sys)

	return nil
}

// DeleteSystem removes a data system. It fails with [ErrInUse] while any
// data source still references the system.
func (s *MemStore) DeleteSystem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.systems, func(sys DataSystem) bool { return sys.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: data system %d", ErrNotFound, id)
	}

	for _, src := range s.sources {
		if src.SystemID == id {
			return fmt.Errorf("%w: data system %d still has data sources", ErrInUse, id)
		}
	}

	s.systems = slices.Delete(s.systems, idx, idx+1)

	return nil
}

// CreateSource adds a data source. Source names are unique across all
// systems, not just within the owning one.
func (s *MemStore) CreateSource(_ context.Context, src *DataSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if src.Name == "" {
		return errInvalidf("data source name must not be empty")
	}

	if !s.systemExistsLocked(src.SystemID) {
		return fmt.Errorf("%w: data system %d", ErrNotFound, src.SystemID)
	}

	for _, existing := range s.sources {
		if existing.Name == src.Name {
			return fmt.Errorf("%w: data source %q", ErrDuplicate, src.Name)
		}
	}

	src.ID = s.nextID()
	s.sources = append(s.sources, *src)

	return nil
}

// DeleteSource removes a data source. It fails with [ErrInUse] while any
// attribute still references the source.
func (s *MemStore) DeleteSource(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.sources, func(src DataSource) bool { return src.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: data source %d", ErrNotFound, id)
	}

	for _, attr := range s.attributes {
		if attr.SourceID == id {
			return fmt.Errorf("%w: data source %d still has attributes", ErrInUse, id)
		}
	}

	s.sources = slices.Delete(s.sources, idx, idx+1)

	return nil
}

// CreateAttribute adds an attribute to a data source.
func (s *MemStore) CreateAttribute(_ context.Context, attr *Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attr.Name == "" {
		return errInvalidf("attribute name must not be empty")
	}

	if _, err := ParseDataType(string(attr.DataType)); err != nil {
		return err
	}

	if !s.sourceExistsLocked(attr.SourceID) {
		return fmt.Errorf("%w: data source %d", ErrNotFound, attr.SourceID)
	}

	attr.ID = s.nextID()
	s.attributes = append(s.attributes, *attr)

	return nil
}

// DeleteAttribute removes an attribute. It fails with [ErrInUse] while a
// cross-reference mapping, data mapping, or filter condition references it;
// deleting it anyway would leave dangling join keys behind.
func (s *MemStore) DeleteAttribute(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.attributes, func(attr Attribute) bool { return attr.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: attribute %d", ErrNotFound, id)
	}

	for _, m := range s.crossRefMaps {
		if m.SourceAttributeID == id || m.TargetAttributeID == id {
			return fmt.Errorf("%w: attribute %d is a cross-reference join key", ErrInUse, id)
		}
	}

	for _, dm := range s.dataMappings {
		if dm.Primary.AttributeID == id || (dm.Secondary != nil && dm.Secondary.AttributeID == id) {
			return fmt.Errorf("%w: attribute %d is bound by a data mapping", ErrInUse, id)
		}
	}

	for _, f := range s.filters {
		if f.AttributeID == id {
			return fmt.Errorf("%w: attribute %d is used by a filter condition", ErrInUse, id)
		}
	}

	s.attributes = slices.Delete(s.attributes, idx, idx+1)

	return nil
}

// CreateCrossRef adds a cross-reference. Names must be unique and non-empty.
func (s *MemStore) CreateCrossRef(_ context.Context, xref *CrossRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if xref.Name == "" {
		return errInvalidf("cross-reference name must not be empty")
	}

	if !s.systemExistsLocked(xref.SystemID) {
		return fmt.Errorf("%w: data system %d", ErrNotFound, xref.SystemID)
	}

	for _, existing := range s.crossRefs {
		if existing.Name == xref.Name {
			return fmt.Errorf("%w: cross-reference %q", ErrDuplicate, xref.Name)
		}
	}

	xref.ID = s.nextID()
	s.crossRefs = append(s.crossRefs, *xref)

	return nil
}

// DeleteCrossRef removes a cross-reference. It fails with [ErrInUse] while
// the cross-reference still holds mappings.
func (s *MemStore) DeleteCrossRef(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.crossRefs, func(x CrossRef) bool { return x.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: cross-reference %d", ErrNotFound, id)
	}

	for _, m := range s.crossRefMaps {
		if m.CrossRefID == id {
			return fmt.Errorf("%w: cross-reference %d still has mappings", ErrInUse, id)
		}
	}

	s.crossRefs = slices.Delete(s.crossRefs, idx, idx+1)

	return nil
}

// CreateCrossRefMapping adds an equality edge to a cross-reference. Both
// ends must exist, belong to the cross-reference's system, and name
// attributes of their respective sources. Source and target data sources
// must differ.
func (s *MemStore) CreateCrossRefMapping(_ context.Context, m *CrossRefMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	xref, ok := s.crossRefLocked(m.CrossRefID)
	if !ok {
		return fmt.Errorf("%w: cross-reference %d", ErrNotFound, m.CrossRefID)
	}

	if m.SourceDataSourceID == m.TargetDataSourceID {
		return errInvalidf("cross-reference mapping must join two distinct data sources")
	}

	for _, end := range []struct {
		sourceID int64
		attrID   int64
	}{
		{m.SourceDataSourceID, m.SourceAttributeID},
		{m.TargetDataSourceID, m.TargetAttributeID},
	} {
		src, ok := s.sourceLocked(end.sourceID)
		if !ok {
			return fmt.Errorf("%w: data source %d", ErrNotFound, end.sourceID)
		}

		if src.SystemID != xref.SystemID {
			return errInvalidf("data source %d does not belong to data system %d", end.sourceID, xref.SystemID)
		}

		if !s.attributeOfSourceLocked(end.sourceID, end.attrID) {
			return fmt.Errorf("%w: attribute %d of data source %d", ErrNotFound, end.attrID, end.sourceID)
		}
	}

	m.ID = s.nextID()
	s.crossRefMaps = append(s.crossRefMaps, *m)

	return nil
}

// DeleteCrossRefMapping removes a single equality edge.
func (s *MemStore) DeleteCrossRefMapping(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.crossRefMaps, func(m CrossRefMapping) bool { return m.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: cross-reference mapping %d", ErrNotFound, id)
	}

	s.crossRefMaps = slices.Delete(s.crossRefMaps, idx, idx+1)

	return nil
}

// CreateCanonical appends an entry to the global canonical vocabulary. The
// vocabulary is append-only; its insertion order is the output column order.
func (s *MemStore) CreateCanonical(_ context.Context, c *Canonical) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Name == "" {
		return errInvalidf("canonical attribute name must not be empty")
	}

	c.ID = s.nextID()
	s.canonicals = append(s.canonicals, *c)

	return nil
}

// CreateDataMapping binds a canonical attribute to source attributes within
// one system. At most one mapping may exist per (system, canonical) pair.
func (s *MemStore) CreateDataMapping(_ context.Context, dm *DataMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.systemExistsLocked(dm.SystemID) {
		return fmt.Errorf("%w: data system %d", ErrNotFound, dm.SystemID)
	}

	if !s.canonicalExistsLocked(dm.CanonicalID) {
		return fmt.Errorf("%w: canonical attribute %d", ErrNotFound, dm.CanonicalID)
	}

	for _, existing := range s.dataMappings {
		if existing.SystemID == dm.SystemID && existing.CanonicalID == dm.CanonicalID {
			return fmt.Errorf("%w: data mapping for canonical %d in system %d", ErrDuplicate, dm.CanonicalID, dm.SystemID)
		}
	}

	if err := s.checkBindingLocked(dm.SystemID, dm.Primary); err != nil {
		return fmt.Errorf("primary binding: %w", err)
	}

	if dm.Secondary != nil {
		if err := s.checkBindingLocked(dm.SystemID, *dm.Secondary); err != nil {
			return fmt.Errorf("secondary binding: %w", err)
		}
	}

	dm.ID = s.nextID()

	stored := *dm
	if dm.Secondary != nil {
		secondary := *dm.Secondary
		stored.Secondary = &secondary
	}

	s.dataMappings = append(s.dataMappings, stored)

	return nil
}

// DeleteDataMapping removes a data mapping.
func (s *MemStore) DeleteDataMapping(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.dataMappings, func(dm DataMapping) bool { return dm.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: data mapping %d", ErrNotFound, id)
	}

	s.dataMappings = slices.Delete(s.dataMappings, idx, idx+1)

	return nil
}

// CreateFilter adds a filter condition. Names must be unique.
func (s *MemStore) CreateFilter(_ context.Context, f *FilterCondition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.Name == "" {
		return errInvalidf("filter condition name must not be empty")
	}

	if _, err := ParseOperator(string(f.Operator)); err != nil {
		return err
	}

	for _, existing := range s.filters {
		if existing.Name == f.Name {
			return fmt.Errorf("%w: filter condition %q", ErrDuplicate, f.Name)
		}
	}

	if !s.systemExistsLocked(f.SystemID) {
		return fmt.Errorf("%w: data system %d", ErrNotFound, f.SystemID)
	}

	if err := s.checkBindingLocked(f.SystemID, Binding{SourceID: f.SourceID, AttributeID: f.AttributeID}); err != nil {
		return err
	}

	f.ID = s.nextID()
	s.filters = append(s.filters, *f)

	return nil
}

// DeleteFilter removes a filter condition.
func (s *MemStore) DeleteFilter(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.filters, func(f FilterCondition) bool { return f.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: filter condition %d", ErrNotFound, id)
	}

	s.filters = slices.Delete(s.filters, idx, idx+1)

	return nil
}

//
// Locked helpers
//

func (s *MemStore) systemExistsLocked(id int64) bool {
	return slices.ContainsFunc(s.systems, func(sys DataSystem) bool { return sys.ID == id })
}

func (s *MemStore) sourceLocked(id int64) (DataSource, bool) {
	for _, src := range s.sources {
		if src.ID == id {
			return src, true
		}
	}

	return DataSource{}, false
}

func (s *MemStore) sourceExistsLocked(id int64) bool {
	_, ok := s.sourceLocked(id)

	return ok
}

func (s *MemStore) crossRefLocked(id int64) (CrossRef, bool) {
	for _, xref := range s.crossRefs {
		if xref.ID == id {
			return xref, true
		}
	}

	return CrossRef{}, false
}

func (s *MemStore) canonicalExistsLocked(id int64) bool {
	return slices.ContainsFunc(s.canonicals, func(c Canonical) bool { return c.ID == id })
}

func (s *MemStore) attributeOfSourceLocked(sourceID, attrID int64) bool {
	for _, attr := range s.attributes {
		if attr.ID == attrID {
			return attr.SourceID == sourceID
		}
	}

	return false
}

// checkBindingLocked verifies that a binding points at an attribute of a
// data source inside the given system.
func (s *MemStore) checkBindingLocked(systemID int64, b Binding) error {
	src, ok := s.sourceLocked(b.SourceID)
	if !ok {
		return fmt.Errorf("%w: data source %d", ErrNotFound, b.SourceID)
	}

	if src.SystemID != systemID {
		return errInvalidf("data source %d does not belong to data system %d", b.SourceID, systemID)
	}

	if !s.attributeOfSourceLocked(b.SourceID, b.AttributeID) {
		return fmt.Errorf("%w: attribute %d of data source %d", ErrNotFound, b.AttributeID, b.SourceID)
	}

	return nil
}
