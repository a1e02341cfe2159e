// Package sqlite persists the catalog in a SQLite database while exposing
// the same [catalog.Store] contract as the in-memory store.
//
// Every write runs in its own transaction and re-checks the referential
// invariants explicitly, so callers see the catalog sentinel errors
// ([catalog.ErrDuplicate], [catalog.ErrInUse], ...) rather than driver
// errors. Catalog order is ascending ID, which SQLite's AUTOINCREMENT
// rowids preserve across restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // database/sql driver

	"github.com/unitab-io/unitab/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS data_systems (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	name   TEXT    NOT NULL UNIQUE,
	active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS data_sources (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	system_id   INTEGER NOT NULL REFERENCES data_systems(id),
	name        TEXT    NOT NULL UNIQUE,
	file_name   TEXT    NOT NULL DEFAULT '',
	description TEXT    NOT NULL DEFAULT '',
	active      INTEGER NOT NULL DEFAULT 1,
	master      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS attributes (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id INTEGER NOT NULL REFERENCES data_sources(id),
	name      TEXT    NOT NULL,
	data_type TEXT    NOT NULL DEFAULT '',
	format    TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cross_refs (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	system_id INTEGER NOT NULL REFERENCES data_systems(id),
	name      TEXT    NOT NULL UNIQUE,
	active    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS cross_ref_mappings (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	cross_ref_id        INTEGER NOT NULL REFERENCES cross_refs(id),
	source_source_id    INTEGER NOT NULL REFERENCES data_sources(id),
	source_attribute_id INTEGER NOT NULL REFERENCES attributes(id),
	target_source_id    INTEGER NOT NULL REFERENCES data_sources(id),
	target_attribute_id INTEGER NOT NULL REFERENCES attributes(id),
	CHECK (source_source_id <> target_source_id)
);

CREATE TABLE IF NOT EXISTS canonicals (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS data_mappings (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	system_id              INTEGER NOT NULL REFERENCES data_systems(id),
	canonical_id           INTEGER NOT NULL REFERENCES canonicals(id),
	primary_source_id      INTEGER NOT NULL REFERENCES data_sources(id),
	primary_attribute_id   INTEGER NOT NULL REFERENCES attributes(id),
	secondary_source_id    INTEGER REFERENCES data_sources(id),
	secondary_attribute_id INTEGER REFERENCES attributes(id),
	UNIQUE (system_id, canonical_id)
);

CREATE TABLE IF NOT EXISTS filter_conditions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT    NOT NULL UNIQUE,
	system_id    INTEGER NOT NULL REFERENCES data_systems(id),
	source_id    INTEGER NOT NULL REFERENCES data_sources(id),
	attribute_id INTEGER NOT NULL REFERENCES attributes(id),
	operator     TEXT    NOT NULL,
	value        TEXT    NOT NULL DEFAULT ''
);
`

// Store is a SQLite-backed [catalog.Store].
//
// Create instances with [Open].
type Store struct {
	db *sqlx.DB
}

var _ catalog.Store = (*Store)(nil)

// Open opens (creating if needed) the catalog database at path and
// bootstraps the schema. Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open catalog database %q: %w", path, err)
	}

	// A single connection sidesteps SQLite writer contention and keeps
	// ":memory:" databases from silently splitting per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("bootstrap catalog schema: %w", err)
	}

	return &Store{db: db}, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}

	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func notFoundf(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", catalog.ErrNotFound, fmt.Sprintf(format, args...))
	}

	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

//
// Row types
//

type systemRow struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	Active bool   `db:"active"`
}

func (r systemRow) entity() catalog.DataSystem {
	return catalog.DataSystem{ID: r.ID, Name: r.Name, Active: r.Active}
}

type sourceRow struct {
	ID          int64  `db:"id"`
	SystemID    int64  `db:"system_id"`
	Name        string `db:"name"`
	FileName    string `db:"file_name"`
	Description string `db:"description"`
	Active      bool   `db:"active"`
	Master      bool   `db:"master"`
}

func (r sourceRow) entity() catalog.DataSource {
	return catalog.DataSource{
		ID:          r.ID,
		SystemID:    r.SystemID,
		Name:        r.Name,
		FileName:    r.FileName,
		Description: r.Description,
		Active:      r.Active,
		Master:      r.Master,
	}
}

type attributeRow struct {
	ID       int64  `db:"id"`
	SourceID int64  `db:"source_id"`
	Name     string `db:"name"`
	DataType string `db:"data_type"`
	Format   string `db:"format"`
}

func (r attributeRow) entity() catalog.Attribute {
	return catalog.Attribute{
		ID:       r.ID,
		SourceID: r.SourceID,
		Name:     r.Name,
		DataType: catalog.DataType(r.DataType),
		Format:   r.Format,
	}
}

type crossRefRow struct {
	ID       int64  `db:"id"`
	SystemID int64  `db:"system_id"`
	Name     string `db:"name"`
	Active   bool   `db:"active"`
}

func (r crossRefRow) entity() catalog.CrossRef {
	return catalog.CrossRef{ID: r.ID, SystemID: r.SystemID, Name: r.Name, Active: r.Active}
}

type crossRefMappingRow struct {
	ID                int64 `db:"id"`
	CrossRefID        int64 `db:"cross_ref_id"`
	SourceSourceID    int64 `db:"source_source_id"`
	SourceAttributeID int64 `db:"source_attribute_id"`
	TargetSourceID    int64 `db:"target_source_id"`
	TargetAttributeID int64 `db:"target_attribute_id"`
}

func (r crossRefMappingRow) entity() catalog.CrossRefMapping {
	return catalog.CrossRefMapping{
		ID:                 r.ID,
		CrossRefID:         r.CrossRefID,
		SourceDataSourceID: r.SourceSourceID,
		SourceAttributeID:  r.SourceAttributeID,
		TargetDataSourceID: r.TargetSourceID,
		TargetAttributeID:  r.TargetAttributeID,
	}
}

type dataMappingRow struct {
	ID                   int64         `db:"id"`
	SystemID             int64         `db:"system_id"`
	CanonicalID          int64         `db:"canonical_id"`
	PrimarySourceID      int64         `db:"primary_source_id"`
	PrimaryAttributeID   int64         `db:"primary_attribute_id"`
	SecondarySourceID    sql.NullInt64 `db:"secondary_source_id"`
	SecondaryAttributeID sql.NullInt64 `db:"secondary_attribute_id"`
}

func (r dataMappingRow) entity() catalog.DataMapping {
	dm := catalog.DataMapping{
		ID:          r.ID,
		SystemID:    r.SystemID,
		CanonicalID: r.CanonicalID,
		Primary: catalog.Binding{
			SourceID:    r.PrimarySourceID,
			AttributeID: r.PrimaryAttributeID,
		},
	}

	if r.SecondarySourceID.Valid {
		dm.Secondary = &catalog.Binding{
			SourceID:    r.SecondarySourceID.Int64,
			AttributeID: r.SecondaryAttributeID.Int64,
		}
	}

	return dm
}

type filterRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	SystemID    int64  `db:"system_id"`
	SourceID    int64  `db:"source_id"`
	AttributeID int64  `db:"attribute_id"`
	Operator    string `db:"operator"`
	Value       string `db:"value"`
}

func (r filterRow) entity() catalog.FilterCondition {
	return catalog.FilterCondition{
		ID:          r.ID,
		Name:        r.Name,
		SystemID:    r.SystemID,
		SourceID:    r.SourceID,
		AttributeID: r.AttributeID,
		Operator:    catalog.Operator(r.Operator),
		Value:       r.Value,
	}
}
