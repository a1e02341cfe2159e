package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unitab-io/unitab/catalog"
)

// withTx runs fn in a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func exists(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (bool, error) {
	var one int

	err := tx.GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func insert(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	return id, nil
}

// deleteByID removes one row, translating a zero row count to ErrNotFound.
func deleteByID(ctx context.Context, tx *sqlx.Tx, table, label string, id int64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", label, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", label, id, err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s %d", catalog.ErrNotFound, label, id)
	}

	return nil
}

func (s *Store) systemExists(ctx context.Context, tx *sqlx.Tx, id int64) error {
	ok, err := exists(ctx, tx, `SELECT 1 FROM data_systems WHERE id = ?`, id)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: data system %d", catalog.ErrNotFound, id)
	}

	return nil
}

// checkBinding verifies that a (source, attribute) pair exists and belongs
// to the given system.
func (s *Store) checkBinding(ctx context.Context, tx *sqlx.Tx, systemID int64, b catalog.Binding) error {
	var srcSystemID int64

	err := tx.GetContext(ctx, &srcSystemID,
		`SELECT system_id FROM data_sources WHERE id = ?`, b.SourceID)
	if err != nil {
		return notFoundf(err, "data source %d", b.SourceID)
	}

	if srcSystemID != systemID {
		return fmt.Errorf("%w: data source %d does not belong to data system %d",
			catalog.ErrInvalid, b.SourceID, systemID)
	}

	ok, err := exists(ctx, tx,
		`SELECT 1 FROM attributes WHERE id = ? AND source_id = ?`, b.AttributeID, b.SourceID)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: attribute %d of data source %d",
			catalog.ErrNotFound, b.AttributeID, b.SourceID)
	}

	return nil
}

// CreateSystem adds a data system. Names must be unique and non-empty.
func (s *Store) CreateSystem(ctx context.Context, sys *catalog.DataSystem) error {
	if sys.Name == "" {
		return fmt.Errorf("%w: data system name must not be empty", catalog.ErrInvalid)
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		taken, err := exists(ctx, tx, `SELECT 1 FROM data_systems WHERE name = ?`, sys.Name)
		if err != nil {
			return err
		}

		if taken {
			return fmt.Errorf("%w: data system %q", catalog.ErrDuplicate, sys.Name)
		}

		sys.ID, err = insert(ctx, tx,
			`INSERT INTO data_systems (name, active) VALUES (?, ?)`, sys.Name, sys.Active)

		return err
	})
}

// DeleteSystem removes a data system. It fails with [catalog.ErrInUse]
// while any data source still references the system.
func (s *Store) DeleteSystem(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		used, err := exists(ctx, tx, `SELECT 1 FROM data_sources WHERE system_id = ?`, id)
		if err != nil {
			return err
		}

		if used {
			return fmt.Errorf("%w: data system %d still has data sources", catalog.ErrInUse, id)
		}

		return deleteByID(ctx, tx, "data_systems", "data system", id)
	})
}

// CreateSource adds a data source. Source names are unique across all
// systems, not just within the owning one.
func (s *Store) CreateSource(ctx context.Context, src *catalog.DataSource) error {
	if src.Name == "" {
		return fmt.Errorf("%w: data source name must not be empty", catalog.ErrInvalid)
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.systemExists(ctx, tx, src.SystemID); err != nil {
			return err
		}

		taken, err := exists(ctx, tx, `SELECT 1 FROM data_sources WHERE name = ?`, src.Name)
		if err != nil {
			return err
		}

		if taken {
			return fmt.Errorf("%w: data source %q", catalog.ErrDuplicate, src.Name)
		}

		src.ID, err = insert(ctx, tx,
			`INSERT INTO data_sources (system_id, name, file_name, description, active, master)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			src.SystemID, src.Name, src.FileName, src.Description, src.Active, src.Master)

		return err
	})
}

// DeleteSource removes a data source. It fails with [catalog.ErrInUse]
// while any attribute still references the source.
func (s *Store) DeleteSource(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		used, err := exists(ctx, tx, `SELECT 1 FROM attributes WHERE source_id = ?`, id)
		if err != nil {
			return err
		}

		if used {
			return fmt.Errorf("%w: data source %d still has attributes", catalog.ErrInUse, id)
		}

		return deleteByID(ctx, tx, "data_sources", "data source", id)
	})
}

// CreateAttribute adds an attribute to a data source.
func (s *Store) CreateAttribute(ctx context.Context, attr *catalog.Attribute) error {
	if attr.Name == "" {
		return fmt.Errorf("%w: attribute name must not be empty", catalog.ErrInvalid)
	}

	if _, err := catalog.ParseDataType(string(attr.DataType)); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := exists(ctx, tx, `SELECT 1 FROM data_sources WHERE id = ?`, attr.SourceID)
		if err != nil {
			return err
		}

		if !ok {
			return fmt.Errorf("%w: data source %d", catalog.ErrNotFound, attr.SourceID)
		}

		attr.ID, err = insert(ctx, tx,
			`INSERT INTO attributes (source_id, name, data_type, format) VALUES (?, ?, ?, ?)`,
			attr.SourceID, attr.Name, string(attr.DataType), attr.Format)

		return err
	})
}

// DeleteAttribute removes an attribute. It fails with [catalog.ErrInUse]
// while a cross-reference mapping, data mapping, or filter condition
// references it.
func (s *Store) DeleteAttribute(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		joined, err := exists(ctx, tx,
			`SELECT 1 FROM cross_ref_mappings WHERE source_attribute_id = ? OR target_attribute_id = ?`, id, id)
		if err != nil {
			return err
		}

		if joined {
			return fmt.Errorf("%w: attribute %d is a cross-reference join key", catalog.ErrInUse, id)
		}

		bound, err := exists(ctx, tx,
			`SELECT 1 FROM data_mappings WHERE primary_attribute_id = ? OR secondary_attribute_id = ?`, id, id)
		if err != nil {
			return err
		}

		if bound {
			return fmt.Errorf("%w: attribute %d is bound by a data mapping", catalog.ErrInUse, id)
		}

		filtered, err := exists(ctx, tx,
			`SELECT 1 FROM filter_conditions WHERE attribute_id = ?`, id)
		if err != nil {
			return err
		}

		if filtered {
			return fmt.Errorf("%w: attribute %d is used by a filter condition", catalog.ErrInUse, id)
		}

		return deleteByID(ctx, tx, "attributes", "attribute", id)
	})
}

// CreateCrossRef adds a cross-reference. Names must be unique and
// non-empty.
func (s *Store) CreateCrossRef(ctx context.Context, xref *catalog.CrossRef) error {
	if xref.Name == "" {
		return fmt.Errorf("%w: cross-reference name must not be empty", catalog.ErrInvalid)
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.systemExists(ctx, tx, xref.SystemID); err != nil {
			return err
		}

		taken, err := exists(ctx, tx, `SELECT 1 FROM cross_refs WHERE name = ?`, xref.Name)
		if err != nil {
			return err
		}

		if taken {
			return fmt.Errorf("%w: cross-reference %q", catalog.ErrDuplicate, xref.Name)
		}

		xref.ID, err = insert(ctx, tx,
			`INSERT INTO cross_refs (system_id, name, active) VALUES (?, ?, ?)`,
			xref.SystemID, xref.Name, xref.Active)

		return err
	})
}

// DeleteCrossRef removes a cross-reference. It fails with
// [catalog.ErrInUse] while the cross-reference still holds mappings.
func (s *Store) DeleteCrossRef(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		used, err := exists(ctx, tx, `SELECT 1 FROM cross_ref_mappings WHERE cross_ref_id = ?`, id)
		if err != nil {
			return err
		}

		if used {
			return fmt.Errorf("%w: cross-reference %d still has mappings", catalog.ErrInUse, id)
		}

		return deleteByID(ctx, tx, "cross_refs", "cross-reference", id)
	})
}

// CreateCrossRefMapping adds an equality edge to a cross-reference. Both
// ends must name attributes of sources inside the cross-reference's system,
// and the two data sources must differ.
func (s *Store) CreateCrossRefMapping(ctx context.Context, m *catalog.CrossRefMapping) error {
	if m.SourceDataSourceID == m.TargetDataSourceID {
		return fmt.Errorf("%w: cross-reference mapping must join two distinct data sources", catalog.ErrInvalid)
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var systemID int64

		err := tx.GetContext(ctx, &systemID,
			`SELECT system_id FROM cross_refs WHERE id = ?`, m.CrossRefID)
		if err != nil {
			return notFoundf(err, "cross-reference %d", m.CrossRefID)
		}

		for _, end := range []catalog.Binding{
			{SourceID: m.SourceDataSourceID, AttributeID: m.SourceAttributeID},
			{SourceID: m.TargetDataSourceID, AttributeID: m.TargetAttributeID},
		} {
			if err := s.checkBinding(ctx, tx, systemID, end); err != nil {
				return err
			}
		}

		m.ID, err = insert(ctx, tx,
			`INSERT INTO cross_ref_mappings
			 (cross_ref_id, source_source_id, source_attribute_id, target_source_id, target_attribute_id)
			 VALUES (?, ?, ?, ?, ?)`,
			m.CrossRefID, m.SourceDataSourceID, m.SourceAttributeID, m.TargetDataSourceID, m.TargetAttributeID)

		return err
	})
}

// DeleteCrossRefMapping removes a single equality edge.
func (s *Store) DeleteCrossRefMapping(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return deleteByID(ctx, tx, "cross_ref_mappings", "cross-reference mapping", id)
	})
}

// CreateCanonical appends an entry to the global canonical vocabulary.
func (s *Store) CreateCanonical(ctx context.Context, c *catalog.Canonical) error {
	if c.Name == "" {
		return fmt.Errorf("%w: canonical attribute name must not be empty", catalog.ErrInvalid)
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error

		c.ID, err = insert(ctx, tx, `INSERT INTO canonicals (name) VALUES (?)`, c.Name)

		return err
	})
}

// CreateDataMapping binds a canonical attribute to source attributes within
// one system. At most one mapping may exist per (system, canonical) pair.
func (s *Store) CreateDataMapping(ctx context.Context, dm *catalog.DataMapping) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.systemExists(ctx, tx, dm.SystemID); err != nil {
			return err
		}

		ok, err := exists(ctx, tx, `SELECT 1 FROM canonicals WHERE id = ?`, dm.CanonicalID)
		if err != nil {
			return err
		}

		if !ok {
			return fmt.Errorf("%w: canonical attribute %d", catalog.ErrNotFound, dm.CanonicalID)
		}

		taken, err := exists(ctx, tx,
			`SELECT 1 FROM data_mappings WHERE system_id = ? AND canonical_id = ?`,
			dm.SystemID, dm.CanonicalID)
		if err != nil {
			return err
		}

		if taken {
			return fmt.Errorf("%w: data mapping for canonical %d in system %d",
				catalog.ErrDuplicate, dm.CanonicalID, dm.SystemID)
		}

		if err := s.checkBinding(ctx, tx, dm.SystemID, dm.Primary); err != nil {
			return fmt.Errorf("primary binding: %w", err)
		}

		secondarySource := sql.NullInt64{}
		secondaryAttr := sql.NullInt64{}

		if dm.Secondary != nil {
			if err := s.checkBinding(ctx, tx, dm.SystemID, *dm.Secondary); err != nil {
				return fmt.Errorf("secondary binding: %w", err)
			}

			secondarySource = sql.NullInt64{Int64: dm.Secondary.SourceID, Valid: true}
			secondaryAttr = sql.NullInt64{Int64: dm.Secondary.AttributeID, Valid: true}
		}

		dm.ID, err = insert(ctx, tx,
			`INSERT INTO data_mappings
			 (system_id, canonical_id, primary_source_id, primary_attribute_id,
			  secondary_source_id, secondary_attribute_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			dm.SystemID, dm.CanonicalID, dm.Primary.SourceID, dm.Primary.AttributeID,
			secondarySource, secondaryAttr)

		return err
	})
}

// DeleteDataMapping removes a data mapping.
func (s *Store) DeleteDataMapping(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return deleteByID(ctx, tx, "data_mappings", "data mapping", id)
	})
}

// CreateFilter adds a filter condition. Names must be unique.
func (s *Store) CreateFilter(ctx context.Context, f *catalog.FilterCondition) error {
	if f.Name == "" {
		return fmt.Errorf("%w: filter condition name must not be empty", catalog.ErrInvalid)
	}

	if _, err := catalog.ParseOperator(string(f.Operator)); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		taken, err := exists(ctx, tx, `SELECT 1 FROM filter_conditions WHERE name = ?`, f.Name)
		if err != nil {
			return err
		}

		if taken {
			return fmt.Errorf("%w: filter condition %q", catalog.ErrDuplicate, f.Name)
		}

		if err := s.systemExists(ctx, tx, f.SystemID); err != nil {
			return err
		}

		err = s.checkBinding(ctx, tx, f.SystemID, catalog.Binding{
			SourceID:    f.SourceID,
			AttributeID: f.AttributeID,
		})
		if err != nil {
			return err
		}

		f.ID, err = insert(ctx, tx,
			`INSERT INTO filter_conditions (name, system_id, source_id, attribute_id, operator, value)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			f.Name, f.SystemID, f.SourceID, f.AttributeID, string(f.Operator), f.Value)

		return err
	})
}

// DeleteFilter removes a filter condition.
func (s *Store) DeleteFilter(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return deleteByID(ctx, tx, "filter_conditions", "filter condition", id)
	})
}
