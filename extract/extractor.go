package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/unitab-io/unitab/catalog"
	"github.com/unitab-io/unitab/csvio"
	"github.com/unitab-io/unitab/uploads"
)

// Snapshotter supplies the catalog snapshot an extraction runs against.
// [catalog.MemStore] and the sqlite store both satisfy it.
type Snapshotter interface {
	Snapshot(ctx context.Context, systemID int64) (*catalog.Snapshot, error)
}

// PayloadSource supplies the uploaded file bound to a data source, if any.
// [uploads.SessionView] satisfies it; [PayloadMap] is a static alternative
// for tests and batch runs.
type PayloadSource interface {
	Payload(sourceID int64) (uploads.Payload, bool)
}

// PayloadMap is a PayloadSource backed by a plain map keyed by data source
// ID.
type PayloadMap map[int64]uploads.Payload

// Payload implements [PayloadSource].
func (m PayloadMap) Payload(sourceID int64) (uploads.Payload, bool) {
	p, ok := m[sourceID]

	return p, ok
}

// RowFilter decides whether a resolved canonical row is kept. It receives
// the master data source the row came from and the resolved row.
type RowFilter func(master catalog.DataSource, row csvio.Row) bool

// Extractor joins uploaded CSV payloads along a catalog's cross-references
// and emits rows in the canonical vocabulary.
type Extractor struct {
	store  Snapshotter
	logger *slog.Logger
	filter RowFilter
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for per-run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithRowFilter sets a filter applied to each resolved row before it is
// collected. Rows for which the filter returns false are dropped.
func WithRowFilter(filter RowFilter) Option {
	return func(e *Extractor) {
		e.filter = filter
	}
}

// New creates an Extractor reading catalog snapshots from store.
func New(store Snapshotter, opts ...Option) *Extractor {
	e := &Extractor{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Request identifies one extraction run: the data system whose catalog
// drives it and the uploaded payloads it consumes.
type Request struct {
	// SystemID is the data system to extract.
	SystemID int64

	// Payloads supplies the uploaded file for each data source.
	Payloads PayloadSource
}

// Stats summarizes one extraction run.
type Stats struct {
	// Masters is the number of master data sources that contributed rows.
	Masters int `json:"masters"`

	// Rows is the number of canonical rows emitted.
	Rows int `json:"rows"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Result is the outcome of a successful extraction.
type Result struct {
	// Columns is the output header: every canonical attribute of the
	// system, in catalog order.
	Columns []string

	// Rows holds the canonical rows, master by master in catalog order,
	// preserving each master file's row order.
	Rows []csvio.Row

	// Warnings lists the non-fatal conditions encountered, in the order
	// they occurred.
	Warnings []Warning

	// Stats summarizes the run.
	Stats Stats

	finished time.Time
}

// Encode renders the result as a CSV document.
func (r *Result) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := csvio.Write(&buf, r.Columns, r.Rows); err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	return buf.Bytes(), nil
}

// Filename returns the download name for the result,
// "extracted_data_YYYY-MM-DD.csv" stamped with the run's completion date.
func (r *Result) Filename() string {
	return "extracted_data_" + r.finished.Format("2006-01-02") + ".csv"
}

// Run executes one extraction. Fatal conditions are reported as [*Error];
// recoverable ones are collected on [Result.Warnings] and the run
// continues.
func (e *Extractor) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	if req.SystemID <= 0 {
		return nil, errorf(KindBadInput, "system id must be positive, got %d", req.SystemID)
	}

	if req.Payloads == nil {
		return nil, errorf(KindBadInput, "no payloads supplied")
	}

	snap, err := e.store.Snapshot(ctx, req.SystemID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, wrapf(KindNotFound, err, "system %d", req.SystemID)
		}

		return nil, wrapf(KindInternal, err, "snapshot system %d", req.SystemID)
	}

	logger := e.logger.With(slog.Int64("system_id", snap.System.ID), slog.String("system", snap.System.Name))

	masters := snap.MasterSources()
	if len(masters) == 0 {
		return nil, errorf(KindNoMaster, "system %q has no active master data source", snap.System.Name)
	}

	result := &Result{Columns: snap.ColumnNames()}

	warn := func(w Warning) {
		result.Warnings = append(result.Warnings, w)
		logger.Warn(w.Message, slog.String("kind", string(w.Kind)))
	}

	refs, err := buildRefIndex(snap, req.Payloads, warn)
	if err != nil {
		return nil, err
	}

	for _, master := range masters {
		payload, ok := req.Payloads.Payload(master.ID)
		if !ok {
			warn(warningf(WarnMissingMasterPayload,
				"no file uploaded for master data source %q; skipping", master.Name))

			continue
		}

		table, err := csvio.Read(bytes.NewReader(payload.Data))
		if err != nil {
			return nil, wrapf(KindParse, err, "master data source %q", master.Name)
		}

		res := newResolver(snap, master, table, refs, warn)

		for _, masterRow := range table.Rows {
			if err := ctx.Err(); err != nil {
				return nil, wrapf(KindInternal, err, "extraction canceled")
			}

			row := res.row(masterRow)
			if e.filter != nil && !e.filter(master, row) {
				continue
			}

			result.Rows = append(result.Rows, row)
		}

		result.Stats.Masters++
	}

	if len(result.Rows) == 0 {
		return nil, errorf(KindEmptyResult, "no rows extracted for system %q", snap.System.Name)
	}

	result.finished = time.Now()
	result.Stats.Rows = len(result.Rows)
	result.Stats.Elapsed = result.finished.Sub(started)

	logger.Info("extraction complete",
		slog.Int("masters", result.Stats.Masters),
		slog.Int("rows", result.Stats.Rows),
		slog.Int("warnings", len(result.Warnings)),
		slog.Duration("elapsed", result.Stats.Elapsed),
	)

	return result, nil
}
