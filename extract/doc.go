// Package extract joins session-uploaded CSV files along the
// cross-references declared in a [catalog] and emits one wide CSV in the
// system's canonical vocabulary.
//
// An [Extractor] is created over a [Snapshotter] (any catalog store) and
// executed with [Extractor.Run], which consumes a [Request] pairing a data
// system with a [PayloadSource] of uploaded files. The output [Result]
// carries the canonical header, the resolved rows, the non-fatal
// [Warning] list, and run statistics.
//
// # Resolution Pipeline
//
// [Extractor.Run] processes a request in four phases:
//
//  1. Snapshot: the system's catalog is read once into an immutable
//     [catalog.Snapshot]. Mutations made to the store after this point do
//     not affect the run.
//
//  2. Index: every active non-master data source with an uploaded payload
//     is parsed and indexed by column. Sources without a payload are
//     skipped with [WarnMissingReferencePayload]; rows mapped to them
//     resolve to empty cells. A malformed reference file fails the run
//     with [KindParse].
//
//  3. Resolve: masters are walked in catalog order. Each master row
//     produces exactly one output row holding a value for every canonical
//     attribute of the system. A canonical attribute with no data mapping
//     is always empty. Otherwise the mapping's primary binding is
//     resolved first and a non-empty value wins; only an empty primary
//     consults the secondary, whose value is taken verbatim.
//
//  4. Collect: resolved rows are appended master by master, preserving
//     each master file's row order, and encoded with [Result.Encode].
//
// A binding pointing at the master itself reads the master row directly.
// A binding pointing at another source joins through the system's
// cross-references: cross-references are consulted in catalog order, their
// mappings in insertion order, and the first evaluable mapping from the
// master to the target source decides the join. The join compares trimmed
// cell values for equality, so an empty master key matches reference rows
// whose key is also empty. When several reference rows match, the first in
// CSV order is used and [WarnJoinMultiplicity] is recorded. A join value
// matching no reference row resolves to an empty cell without consulting
// later mappings.
//
// Date-typed attributes with a render format are reformatted on the way
// out via [format.Value]; unparsable dates pass through verbatim with
// [WarnDateParse].
//
// Two runs over the same snapshot and payloads produce byte-identical
// output.
//
// # Errors
//
// Fatal conditions surface as [*Error] with a [Kind] that maps onto an
// HTTP status via [Error.HTTPStatus]:
//
//   - [KindBadInput]: the request is malformed (non-positive system ID,
//     nil payload source).
//   - [KindNotFound]: the system does not exist.
//   - [KindNoMaster]: the system has no active master data source.
//   - [KindParse]: an uploaded file is not well-formed CSV.
//   - [KindEmptyResult]: the run completed but produced zero rows.
//   - [KindInternal]: everything else, including context cancellation.
//
// Recoverable conditions never fail a run; they are appended to
// [Result.Warnings] in occurrence order. [KindOf] classifies any error for
// callers that do not want to unwrap.
//
// # Basic Usage
//
//	eng := extract.New(store)
//	res, err := eng.Run(ctx, extract.Request{
//	    SystemID: systemID,
//	    Payloads: registry.Session(sessionID),
//	})
//	if err != nil {
//	    return err
//	}
//	csv, err := res.Encode()
//
// [catalog]: https://pkg.go.dev/github.com/unitab-io/unitab/catalog
package extract
