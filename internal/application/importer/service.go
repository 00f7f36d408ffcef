// Package importer implements the CSV import orchestrator: it turns a parsed
// table plus a column mapping into validated molecule records and an
// auditable per-row import result.
package importer

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chemlattice/molimport/internal/domain/catalog"
	"github.com/chemlattice/molimport/internal/domain/molecule"
	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
	"github.com/chemlattice/molimport/internal/validate"
	"github.com/chemlattice/molimport/pkg/errors"
	mtypes "github.com/chemlattice/molimport/pkg/types/molecule"
)

// duplicateRowMessage is the diagnostic recorded for every duplicate row.
const duplicateRowMessage = "Duplicate molecule"

// Sink receives each accepted record in row order.  A sink failure is an
// infrastructure error and aborts the import.
type Sink func(ctx context.Context, rec *molecule.Record) error

// DiscardSink accepts every record without persisting it.  Used for dry runs
// and tests.
func DiscardSink(context.Context, *molecule.Record) error { return nil }

// ExistsChecker answers whether a canonical key is already persisted,
// extending duplicate detection beyond the current batch.
type ExistsChecker interface {
	Exists(ctx context.Context, canonicalKey string) (bool, error)
}

// Metrics is the instrumentation hook for import runs.  The Prometheus
// implementation lives under internal/infrastructure/monitoring.
type Metrics interface {
	ImportStarted()
	RowValidated(outcome string)
	ImportFinished(res *ImportResult, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ImportStarted()                              {}
func (nopMetrics) RowValidated(string)                         {}
func (nopMetrics) ImportFinished(*ImportResult, time.Duration) {}

// Service orchestrates imports.  It is safe for concurrent use; each Import
// call owns its per-batch state.
type Service struct {
	catalog    *catalog.Catalog
	parser     molecule.Parser
	mappings   *validate.MappingValidator
	properties *validate.PropertyValidator
	logger     logging.Logger
	metrics    Metrics
	exists     ExistsChecker
	workers    int
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers sets the number of goroutines validating rows concurrently.
// Values below 2 keep the single-threaded path.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 1 {
			s.workers = n
		}
	}
}

// WithExistsChecker extends duplicate detection to previously persisted
// molecules.
func WithExistsChecker(c ExistsChecker) Option {
	return func(s *Service) { s.exists = c }
}

// WithMetrics installs an instrumentation hook.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService constructs an import Service over the given catalog and
// structure parser.
func NewService(cat *catalog.Catalog, parser molecule.Parser, logger logging.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:    cat,
		parser:     parser,
		mappings:   validate.NewMappingValidator(cat),
		properties: validate.NewPropertyValidator(cat),
		logger:     logger.Named("importer"),
		metrics:    nopMetrics{},
		workers:    1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// rowOutcome is the result of validating one row, produced by the (possibly
// concurrent) validation stage and consumed by the sequential
// duplicate-detection fold.
type rowOutcome struct {
	index    int
	errMsg   string // non-empty means the row failed validation
	notation string
	parsed   molecule.ParseResult
	props    map[string]interface{}
	infraErr error
}

// Import processes table under mapping and returns the import result.
//
// An invalid mapping fails the whole run with an ErrCodeMappingInvalid error
// before any row is touched: it is a configuration error, not a data error.
// Row-level problems never abort the run.  The error return is reserved for
// infrastructure failures (parser crash, sink failure, exists-check failure);
// on such an error the partially filled result is returned alongside it.
func (s *Service) Import(ctx context.Context, table mtypes.Table, mapping *mtypes.ColumnMapping, sink Sink) (*ImportResult, error) {
	start := time.Now()
	if sink == nil {
		sink = DiscardSink
	}

	if mres := s.mappings.Validate(mapping); !mres.Valid {
		return nil, errors.New(errors.ErrCodeMappingInvalid, "column mapping rejected").
			WithDetail(strings.Join(mres.Errors, "; "))
	}

	cols, err := resolveColumns(table.Headers, mapping)
	if err != nil {
		return nil, err
	}

	importID := uuid.New()
	log := s.logger.With(logging.String("import_id", importID.String()))
	log.Info("import started",
		logging.Int("rows", len(table.Rows)),
		logging.Int("mapped_columns", len(mapping.Entries)))
	s.metrics.ImportStarted()

	result := &ImportResult{ImportID: importID, Errors: []RowError{}}

	outcomes, cancelled := s.validateRows(ctx, table.Rows, cols)

	// Sequential duplicate-detection fold, in original row order.  The seen
	// set is owned by this loop alone.
	seen := make(map[string]struct{})
	for i := range outcomes {
		out := &outcomes[i]
		result.TotalRows++

		if out.infraErr != nil {
			result.Cancelled = cancelled
			result.DurationMs = time.Since(start).Milliseconds()
			// The row that hit the failure is not in any bucket; keep the
			// invariant by excluding it from the total.
			result.TotalRows--
			return result, errors.Wrap(out.infraErr, errors.ErrCodeStructureParseFailed, "structure parser failed")
		}

		if out.errMsg != "" {
			result.Failed++
			result.Errors = append(result.Errors, RowError{Row: out.index, Message: out.errMsg})
			s.metrics.RowValidated("failed")
			continue
		}

		dup, derr := s.isDuplicate(ctx, seen, out.parsed.CanonicalKey)
		if derr != nil {
			result.TotalRows--
			result.DurationMs = time.Since(start).Milliseconds()
			return result, errors.Wrap(derr, errors.CodeUnknown, "duplicate check failed")
		}
		if dup {
			result.Duplicates++
			result.Errors = append(result.Errors, RowError{Row: out.index, Message: duplicateRowMessage})
			s.metrics.RowValidated("duplicate")
			continue
		}

		seen[out.parsed.CanonicalKey] = struct{}{}
		rec := molecule.NewRecord(importID, out.index+1, out.parsed, out.notation, out.props)
		if serr := sink(ctx, rec); serr != nil {
			result.TotalRows--
			result.DurationMs = time.Since(start).Milliseconds()
			return result, errors.Wrap(serr, errors.CodeUnknown, "record sink failed")
		}
		result.Successful++
		s.metrics.RowValidated("successful")
	}

	result.Cancelled = cancelled
	result.DurationMs = time.Since(start).Milliseconds()

	log.Info("import completed",
		logging.Int("total_rows", result.TotalRows),
		logging.Int("successful", result.Successful),
		logging.Int("failed", result.Failed),
		logging.Int("duplicates", result.Duplicates),
		logging.Bool("cancelled", result.Cancelled),
		logging.Int64("duration_ms", result.DurationMs))
	s.metrics.ImportFinished(result, time.Since(start))

	return result, nil
}

// columnPlan is the resolved mapping from table columns to properties.
type columnPlan struct {
	structureCol  int
	structureName string
	fields        []fieldColumn
}

type fieldColumn struct {
	col      int
	name     string
	coerceAs mtypes.PropertyType
}

// resolveColumns binds every mapping entry to a header index.  A mapped
// column that is absent from the table is a configuration error.
func resolveColumns(headers []string, mapping *mtypes.ColumnMapping) (*columnPlan, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}

	plan := &columnPlan{structureCol: -1}
	for _, e := range mapping.Entries {
		col, found := index[e.CSVColumn]
		if !found {
			return nil, errors.New(errors.ErrCodeMappingInvalid, "mapped column not present in table").
				WithDetail(e.CSVColumn)
		}
		if e.IsStructureColumn() {
			plan.structureCol = col
			plan.structureName = e.PropertyName
			continue
		}
		plan.fields = append(plan.fields, fieldColumn{col: col, name: e.PropertyName, coerceAs: e.PropertyType})
	}
	return plan, nil
}

// validateRows runs the per-row validation stage.  Rows share no mutable
// state, so they may be validated concurrently; dispatch stays in row order
// and stops at the first cancellation check that fires, so the returned
// outcomes are always a prefix of the batch.
func (s *Service) validateRows(ctx context.Context, rows [][]string, cols *columnPlan) ([]rowOutcome, bool) {
	if s.workers <= 1 {
		outcomes := make([]rowOutcome, 0, len(rows))
		for i, row := range rows {
			if ctx.Err() != nil {
				return outcomes, true
			}
			outcomes = append(outcomes, s.validateRow(i, row, cols))
		}
		return outcomes, false
	}

	outcomes := make([]rowOutcome, len(rows))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	dispatched := 0
	cancelled := false
	for i, row := range rows {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, row []string) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.validateRow(i, row, cols)
		}(i, row)
		dispatched++
	}
	wg.Wait()

	return outcomes[:dispatched], cancelled
}

// validateRow performs steps (a)-(d) for a single row: structure extraction
// and validation, cell coercion, and property validation.
func (s *Service) validateRow(index int, row []string, cols *columnPlan) rowOutcome {
	out := rowOutcome{index: index}

	notation := cell(row, cols.structureCol)
	out.notation = strings.TrimSpace(notation)

	sres, err := validate.Structure(s.parser, notation, cols.structureName)
	if err != nil {
		out.infraErr = err
		return out
	}
	if !sres.Valid {
		out.errMsg = sres.Error
		return out
	}
	// Re-parse for the canonical key.  NotationParser is deterministic, but
	// Parser is an interface: a failure here is an infrastructure error just
	// like one from the validation call above.
	out.parsed, err = s.parser.Parse(notation)
	if err != nil {
		out.infraErr = err
		return out
	}

	out.props = make(map[string]interface{}, len(cols.fields))
	for _, fc := range cols.fields {
		raw := strings.TrimSpace(cell(row, fc.col))
		if raw == "" {
			// Blank cells mean "absent", so optional properties stay optional.
			continue
		}
		out.props[fc.name] = s.coerce(raw, fc)
	}

	pres := s.properties.Validate(out.props)
	if !pres.Valid {
		out.errMsg = joinPropertyErrors(pres.Errors)
	}
	return out
}

// coerce converts a raw cell into the value shape its property expects.  The
// catalog definition wins over the mapping's declared type.  A cell that does
// not parse as the target type passes through as the raw string so the
// property validator reports the mismatch.
func (s *Service) coerce(raw string, fc fieldColumn) interface{} {
	target := fc.coerceAs
	if def, known := s.catalog.Definition(fc.name); known {
		target = def.Type
	}

	switch target {
	case mtypes.PropertyNumeric, mtypes.PropertyInteger:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	case mtypes.PropertyBoolean:
		if b, err := strconv.ParseBool(strings.ToLower(raw)); err == nil {
			return b
		}
	}
	return raw
}

func (s *Service) isDuplicate(ctx context.Context, seen map[string]struct{}, key string) (bool, error) {
	if _, inBatch := seen[key]; inBatch {
		return true, nil
	}
	if s.exists == nil {
		return false, nil
	}
	return s.exists.Exists(ctx, key)
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// joinPropertyErrors concatenates a row's property errors into one message,
// sorted by property name for stable output.
func joinPropertyErrors(errs map[string]string) string {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, errs[name])
	}
	return strings.Join(msgs, "; ")
}
