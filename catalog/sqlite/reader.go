package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unitab-io/unitab/catalog"
)

// System returns the data system with the given ID.
func (s *Store) System(ctx context.Context, id int64) (catalog.DataSystem, error) {
	return getSystem(ctx, s.db, id)
}

func getSystem(ctx context.Context, q sqlx.QueryerContext, id int64) (catalog.DataSystem, error) {
	var row systemRow

	err := sqlx.GetContext(ctx, q, &row,
		`SELECT id, name, active FROM data_systems WHERE id = ?`, id)
	if err != nil {
		return catalog.DataSystem{}, notFoundf(err, "data system %d", id)
	}

	return row.entity(), nil
}

// Systems lists every data system in catalog order.
func (s *Store) Systems(ctx context.Context) ([]catalog.DataSystem, error) {
	var rows []systemRow

	err := sqlx.SelectContext(ctx, s.db, &rows,
		`SELECT id, name, active FROM data_systems ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list data systems: %w", err)
	}

	out := make([]catalog.DataSystem, len(rows))
	for i, r := range rows {
		out[i] = r.entity()
	}

	return out, nil
}

// Source returns the data source with the given ID.
func (s *Store) Source(ctx context.Context, id int64) (catalog.DataSource, error) {
	var row sourceRow

	err := sqlx.GetContext(ctx, s.db, &row,
		`SELECT id, system_id, name, file_name, description, active, master
		 FROM data_sources WHERE id = ?`, id)
	if err != nil {
		return catalog.DataSource{}, notFoundf(err, "data source %d", id)
	}

	return row.entity(), nil
}

// SourcesBySystem lists a system's data sources in catalog order.
func (s *Store) SourcesBySystem(ctx context.Context, systemID int64) ([]catalog.DataSource, error) {
	return selectSources(ctx, s.db, systemID)
}

func selectSources(ctx context.Context, q sqlx.QueryerContext, systemID int64) ([]catalog.DataSource, error) {
	var rows []sourceRow

	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT id, system_id, name, file_name, description, active, master
		 FROM data_sources WHERE system_id = ? ORDER BY id`, systemID)
	if err != nil {
		return nil, fmt.Errorf("list data sources of system %d: %w", systemID, err)
	}

	out := make([]catalog.DataSource, len(rows))
	for i, r := range rows {
		out[i] = r.entity()
	}

	return out, nil
}

// AttributesBySource lists a data source's attributes in catalog order.
func (s *Store) AttributesBySource(ctx context.Context, sourceID int64) ([]catalog.Attribute, error) {
	return selectAttributes(ctx, s.db, sourceID)
}

func selectAttributes(ctx context.Context, q sqlx.QueryerContext, sourceID int64) ([]catalog.Attribute, error) {
	var rows []attributeRow

	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT id, source_id, name, data_type, format
		 FROM attributes WHERE source_id = ? ORDER BY id`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list attributes of data source %d: %w", sourceID, err)
	}

	out := make([]catalog.Attribute, len(rows))
	for i, r := range rows {
		out[i] = r.entity()
	}

	return out, nil
}

// CrossRefsBySystem lists a system's cross-references in catalog order.
func (s *Store) CrossRefsBySystem(ctx context.Context, systemID int64) ([]catalog.CrossRef, error) {
	return selectCrossRefs(ctx, s.db, systemID)
}

func selectCrossRefs(ctx context.Context, q sqlx.QueryerContext, systemID int64) ([]catalog.CrossRef, error) {
	var rows []crossRefRow

	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT id, system_id, name, active
		 FROM cross_refs WHERE system_id = ? ORDER BY id`, systemID)
	if err != nil {
		return nil, fmt.Errorf("list cross-references of system %d: %w", systemID, err)
	}

	out := make([]catalog.CrossRef, len(rows))
	for i, r := range rows {
		out[i] = r.entity()
	}

	return out, nil
}

// MappingsByCrossRef lists a cross-reference's equality edges in insertion
// order.
func (s *Store) MappingsByCrossRef(ctx context.Context, crossRefID int64) ([]catalog.CrossRefMapping, error) {
	return selectCrossRefMappings(ctx, s.db, crossRefID)
}

func selectCrossRefMappings(ctx context.Context, q sqlx.QueryerContext, crossRefID int64) ([]catalog.CrossRefMapping, error) {
	var rows []crossRefMappingRow

	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT id, cross_ref_id, source_source_id, source_attribute_id,
		        target_source_id, target_attribute_id
		 FROM cross_ref_mappings WHERE cross_ref_id = ? ORDER BY id`, crossRefID)
	if err != nil {
		return nil, fmt.Errorf("list mappings of cross-reference %d: %w", crossRefID, err)
	}

	out := make([]catalog.CrossRefMapping, len(rows))
	for i, r := range rows {
		out[i] = r.entity()
	}

	return out, nil
}

// DataMappingsBySystem lists a system's data mappings in catalog order.
func (s *Store) DataMappingsBySystem(ctx context.Context, systemID int64) ([]catalog.DataMapping, error) {
	return selectDataMappings(ctx, s.db, systemID)
}

func selectDataMappings(ctx context.Context, q sqlx.QueryerContext, systemID int64) ([]catalog.DataMapping, error) {
	var rows []dataMappingRow

	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT id, system_id, canonical_id, primary_source_id, primary_attribute_id,
		        secondary_source_id, secondary_attribute_id
		 FROM data_mappings WHERE system_id = ? ORDER BY id`, systemID)
	if err != nil {
		return nil, fmt.Errorf("list data mappings of system %d: %w", systemID, err)
	}

	out := make([]catalog.DataMapping, len(rows))
	for i, r := range rows {
		out[i] = r.entity()
	}

	return out, nil
}

// Canonicals lists the global canonical vocabulary in catalog order.
func (s *Store) Canonicals(ctx context.Context) ([]catalog.Canonical, error) {
	return selectCanonicals(ctx, s.db)
}

func selectCanonicals(ctx context.Context, q sqlx.QueryerContext) ([]catalog.Canonical, error) {
	var rows []catalog.Canonical

	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT id, name FROM canonicals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list canonicals: %w", err)
	}

	return rows, nil
}

// FiltersBySystem lists a system's filter conditions in catalog order.
func (s *Store) FiltersBySystem(ctx context.Context, systemID int64) ([]catalog.FilterCondition, error) {
	var rows []filterRow

	err := sqlx.SelectContext(ctx, s.db, &rows,
		`SELECT id, name, system_id, source_id, attribute_id, operator, value
		 FROM filter_conditions WHERE system_id = ? ORDER BY id`, systemID)
	if err != nil {
		return nil, fmt.Errorf("list filter conditions of system %d: %w", systemID, err)
	}

	out := make([]catalog.FilterCondition, len(rows))
	for i, r := range rows {
		out[i] = r.entity()
	}

	return out, nil
}

// Snapshot assembles a consistent per-system view in one read transaction.
func (s *Store) Snapshot(ctx context.Context, systemID int64) (*catalog.Snapshot, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sys, err := getSystem(ctx, tx, systemID)
	if err != nil {
		return nil, err
	}

	snap := &catalog.Snapshot{
		System:       sys,
		Attributes:   make(map[int64][]catalog.Attribute),
		DataMappings: make(map[int64]*catalog.DataMapping),
	}

	snap.Sources, err = selectSources(ctx, tx, systemID)
	if err != nil {
		return nil, err
	}

	for _, src := range snap.Sources {
		attrs, err := selectAttributes(ctx, tx, src.ID)
		if err != nil {
			return nil, err
		}

		snap.Attributes[src.ID] = attrs
	}

	xrefs, err := selectCrossRefs(ctx, tx, systemID)
	if err != nil {
		return nil, err
	}

	for _, xref := range xrefs {
		mappings, err := selectCrossRefMappings(ctx, tx, xref.ID)
		if err != nil {
			return nil, err
		}

		snap.CrossRefs = append(snap.CrossRefs, catalog.CrossRefView{
			CrossRef: xref,
			Mappings: mappings,
		})
	}

	dms, err := selectDataMappings(ctx, tx, systemID)
	if err != nil {
		return nil, err
	}

	for _, dm := range dms {
		snap.DataMappings[dm.CanonicalID] = &dm
	}

	snap.Canonicals, err = selectCanonicals(ctx, tx)
	if err != nil {
		return nil, err
	}

	return snap, nil
}
