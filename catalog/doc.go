// Package catalog defines the metadata model driving extractions: data
// systems containing data sources, the attributes (CSV columns) of each
// source, cross-references declaring which attribute pairs are joinable,
// and data mappings binding the global canonical vocabulary to source
// attributes.
//
// A [Store] combines the [Reader] view the extraction engine consumes with
// the [Writer] used by the configuration surface. Two implementations
// exist: [MemStore] here, and the sqlite-backed store in
// [github.com/unitab-io/unitab/catalog/sqlite]. Both enforce the same
// invariants:
//
//   - Data system, cross-reference, and filter condition names are unique;
//     data source names are unique across all systems.
//   - Foreign keys must resolve at write time, and entities cannot be
//     deleted while others reference them.
//   - A cross-reference mapping joins two distinct data sources of the
//     owning system, on attributes those sources declare.
//   - At most one data mapping exists per (system, canonical attribute)
//     pair.
//
// Catalog order means insertion order: listings return entities in the
// order they were created, and the engine derives output column order and
// master precedence from it.
//
// Extractions never read the store directly; they take one [Snapshot] up
// front and work from that, so catalog writes mid-extraction cannot tear a
// run. [Reader.Snapshot] must assemble the view in a single read
// transaction.
//
// Catalogs can also be declared in YAML files and loaded with
// [github.com/unitab-io/unitab/catalog/catfile].
package catalog
