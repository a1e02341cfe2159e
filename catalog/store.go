package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors shared by every [Store] implementation.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a name-uniqueness violation.
	ErrDuplicate = errors.New("duplicate name")
	// ErrInUse indicates a delete was refused because other entities still
	// reference the target.
	ErrInUse = errors.New("in use")
	// ErrInvalid indicates a write violated a structural invariant.
	ErrInvalid = errors.New("invalid")
)

func errInvalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Reader is the read-only catalog view the extraction engine consumes.
type Reader interface {
	System(ctx context.Context, id int64) (DataSystem, error)
	Systems(ctx context.Context) ([]DataSystem, error)
	Source(ctx context.Context, id int64) (DataSource, error)
	SourcesBySystem(ctx context.Context, systemID int64) ([]DataSource, error)
	AttributesBySource(ctx context.Context, sourceID int64) ([]Attribute, error)
	CrossRefsBySystem(ctx context.Context, systemID int64) ([]CrossRef, error)
	MappingsByCrossRef(ctx context.Context, crossRefID int64) ([]CrossRefMapping, error)
	DataMappingsBySystem(ctx context.Context, systemID int64) ([]DataMapping, error)
	Canonicals(ctx context.Context) ([]Canonical, error)
	FiltersBySystem(ctx context.Context, systemID int64) ([]FilterCondition, error)

	// Snapshot assembles a consistent per-system view in one read
	// transaction. Extractions read only the snapshot and never re-read
	// the store afterwards.
	Snapshot(ctx context.Context, systemID int64) (*Snapshot, error)
}

// Writer mutates the catalog while enforcing its referential invariants:
// name uniqueness for systems, sources, cross-references and filter
// conditions; foreign keys must resolve; systems, sources and
// cross-references may only be deleted when nothing references them; a
// cross-reference mapping may not join a data source to itself; at most one
// data mapping per (system, canonical) pair.
//
// Create methods assign the entity ID on success.
type Writer interface {
	CreateSystem(ctx context.Context, sys *DataSystem) error
	DeleteSystem(ctx context.Context, id int64) error
	CreateSource(ctx context.Context, src *DataSource) error
	DeleteSource(ctx context.Context, id int64) error
	CreateAttribute(ctx context.Context, attr *Attribute) error
	DeleteAttribute(ctx context.Context, id int64) error
	CreateCrossRef(ctx context.Context, xref *CrossRef) error
	DeleteCrossRef(ctx context.Context, id int64) error
	CreateCrossRefMapping(ctx context.Context, m *CrossRefMapping) error
	DeleteCrossRefMapping(ctx context.Context, id int64) error
	CreateCanonical(ctx context.Context, c *Canonical) error
	CreateDataMapping(ctx context.Context, dm *DataMapping) error
	DeleteDataMapping(ctx context.Context, id int64) error
	CreateFilter(ctx context.Context, f *FilterCondition) error
	DeleteFilter(ctx context.Context, id int64) error
}

// Store is the full catalog contract. The catalog is the sole writer of its
// entities; the extraction engine only ever uses the [Reader] half.
type Store interface {
	Reader
	Writer
}
