package importer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemlattice/molimport/internal/domain/catalog"
	"github.com/chemlattice/molimport/internal/domain/molecule"
	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
	"github.com/chemlattice/molimport/pkg/errors"
	mtypes "github.com/chemlattice/molimport/pkg/types/molecule"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewService(catalog.Default(), molecule.NewNotationParser(), logging.NewNopLogger(), opts...)
}

func standardMapping() *mtypes.ColumnMapping {
	return &mtypes.ColumnMapping{Entries: []mtypes.ColumnMappingEntry{
		{CSVColumn: "SMILES", PropertyName: "smiles"},
		{CSVColumn: "Compound_ID", PropertyName: "compound_id"},
		{CSVColumn: "Molecular_Weight", PropertyName: "molecular_weight"},
	}}
}

func standardTable(rows ...[]string) mtypes.Table {
	return mtypes.Table{
		Headers: []string{"SMILES", "Compound_ID", "Molecular_Weight"},
		Rows:    rows,
	}
}

// recordingSink collects accepted records.
type recordingSink struct {
	mu   sync.Mutex
	recs []*molecule.Record
}

func (rs *recordingSink) sink(_ context.Context, rec *molecule.Record) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.recs = append(rs.recs, rec)
	return nil
}

type fakeExistsChecker struct {
	known map[string]bool
	err   error
	calls int
}

func (f *fakeExistsChecker) Exists(_ context.Context, key string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.known[key], nil
}

func TestImport_SingleValidRow(t *testing.T) {
	svc := newTestService(t)
	sink := &recordingSink{}

	res, err := svc.Import(context.Background(),
		standardTable([]string{"CC(C)CCO", "CPND-001", "88.15"}),
		standardMapping(), sink.sink)
	require.NoError(t, err)

	assert.Equal(t, 1, res.TotalRows)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 0, res.Duplicates)
	assert.Empty(t, res.Errors)
	assert.False(t, res.Cancelled)

	require.Len(t, sink.recs, 1)
	rec := sink.recs[0]
	assert.Equal(t, "CC(C)CCO", rec.Notation)
	assert.Equal(t, molecule.CanonicalKey("CC(C)CCO"), rec.CanonicalKey)
	assert.Equal(t, 88.15, rec.Properties["molecular_weight"])
	assert.Equal(t, "CPND-001", rec.Properties["compound_id"])
	assert.Equal(t, res.ImportID, rec.ImportID)
	assert.Equal(t, 1, rec.SourceRow)
}

func TestImport_RangeViolation(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Import(context.Background(),
		standardTable([]string{"CC(C)CCO", "CPND-001", "-5"}),
		standardMapping(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.TotalRows)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Successful)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 0, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Message, "molecular_weight")
}

func TestImport_DuplicateWithinBatch(t *testing.T) {
	svc := newTestService(t)
	sink := &recordingSink{}

	res, err := svc.Import(context.Background(),
		standardTable(
			[]string{"CC(C)CCO", "CPND-001", "88.15"},
			[]string{"CC(C)CCO", "CPND-002", "88.15"},
		),
		standardMapping(), sink.sink)
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 0, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, RowError{Row: 1, Message: "Duplicate molecule"}, res.Errors[0])

	// First occurrence wins.
	require.Len(t, sink.recs, 1)
	assert.Equal(t, "CPND-001", sink.recs[0].Properties["compound_id"])
}

func TestImport_InvalidStructure(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Import(context.Background(),
		standardTable(
			[]string{"CC(=O", "CPND-001", "88.15"},
			[]string{"", "CPND-002", "90"},
		),
		standardMapping(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0].Message, "smiles")
	assert.Contains(t, res.Errors[1].Message, "smiles")
}

func TestImport_InvalidMappingFailsWholeRun(t *testing.T) {
	svc := newTestService(t)

	mapping := &mtypes.ColumnMapping{Entries: []mtypes.ColumnMappingEntry{
		{CSVColumn: "Molecular_Weight", PropertyName: "molecular_weight"},
	}}
	res, err := svc.Import(context.Background(),
		standardTable([]string{"CCO", "x", "1"}), mapping, nil)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMappingInvalid))
	assert.Contains(t, err.Error(), "SMILES")
}

func TestImport_NilMapping(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Import(context.Background(), standardTable(), nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMappingInvalid))
}

func TestImport_MappedColumnMissingFromTable(t *testing.T) {
	svc := newTestService(t)

	table := mtypes.Table{Headers: []string{"SMILES"}, Rows: [][]string{{"CCO"}}}
	_, err := svc.Import(context.Background(), table, standardMapping(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMappingInvalid))
	assert.Contains(t, err.Error(), "Compound_ID")
}

func TestImport_BlankOptionalCell(t *testing.T) {
	svc := newTestService(t)
	sink := &recordingSink{}

	res, err := svc.Import(context.Background(),
		standardTable([]string{"CCO", "CPND-001", ""}),
		standardMapping(), sink.sink)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Successful)
	require.Len(t, sink.recs, 1)
	_, present := sink.recs[0].Properties["molecular_weight"]
	assert.False(t, present)
}

func TestImport_UnparsableNumericCell(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Import(context.Background(),
		standardTable([]string{"CCO", "CPND-001", "heavy"}),
		standardMapping(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "molecular_weight must be a finite number")
}

func TestImport_MixedBatchKeepsInvariant(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Import(context.Background(),
		standardTable(
			[]string{"CCO", "A", "46.07"},        // ok
			[]string{"not a smiles", "B", "1"},   // failed (space)
			[]string{"CCO", "C", "46.07"},        // duplicate
			[]string{"c1ccccc1", "D", "78.11"},   // ok
			[]string{"CCN", "E", "999999"},       // failed range
		),
		standardMapping(), nil)
	require.NoError(t, err)

	assert.Equal(t, 5, res.TotalRows)
	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, res.TotalRows, res.Successful+res.Failed+res.Duplicates)
	assert.Len(t, res.Errors, 3)
}

func TestImport_ExistsChecker(t *testing.T) {
	checker := &fakeExistsChecker{known: map[string]bool{
		molecule.CanonicalKey("CCO"): true,
	}}
	svc := newTestService(t, WithExistsChecker(checker))

	res, err := svc.Import(context.Background(),
		standardTable(
			[]string{"CCO", "A", "46.07"},
			[]string{"CCN", "B", "45.08"},
		),
		standardMapping(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 2, checker.calls)
}

func TestImport_ExistsCheckerFailure(t *testing.T) {
	checker := &fakeExistsChecker{err: errors.New(errors.ErrCodeCacheError, "redis down")}
	svc := newTestService(t, WithExistsChecker(checker))

	res, err := svc.Import(context.Background(),
		standardTable([]string{"CCO", "A", "46.07"}),
		standardMapping(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheError))
	// The partial result still satisfies the invariant.
	require.NotNil(t, res)
	assert.Equal(t, res.TotalRows, res.Successful+res.Failed+res.Duplicates)
}

func TestImport_SinkFailureAborts(t *testing.T) {
	svc := newTestService(t)

	boom := errors.New(errors.ErrCodeDatabaseError, "insert failed")
	_, err := svc.Import(context.Background(),
		standardTable([]string{"CCO", "A", "46.07"}),
		standardMapping(),
		func(context.Context, *molecule.Record) error { return boom })
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestImport_Cancellation(t *testing.T) {
	svc := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.Import(ctx,
		standardTable(
			[]string{"CCO", "A", "46.07"},
			[]string{"CCN", "B", "45.08"},
		),
		standardMapping(), nil)
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	assert.Equal(t, 0, res.TotalRows)
	assert.Equal(t, res.TotalRows, res.Successful+res.Failed+res.Duplicates)
}

func TestImport_ConcurrentWorkersMatchSequential(t *testing.T) {
	rows := make([][]string, 0, 200)
	for i := 0; i < 200; i++ {
		// 100 distinct molecules, each appearing twice.
		rows = append(rows, []string{fmt.Sprintf("C%s", ringOf(i%100)), fmt.Sprintf("CPND-%03d", i), "100"})
	}

	seqRes, err := newTestService(t).Import(context.Background(),
		standardTable(rows...), standardMapping(), nil)
	require.NoError(t, err)

	sink := &recordingSink{}
	conRes, err := newTestService(t, WithWorkers(8)).Import(context.Background(),
		standardTable(rows...), standardMapping(), sink.sink)
	require.NoError(t, err)

	assert.Equal(t, seqRes.TotalRows, conRes.TotalRows)
	assert.Equal(t, seqRes.Successful, conRes.Successful)
	assert.Equal(t, seqRes.Failed, conRes.Failed)
	assert.Equal(t, seqRes.Duplicates, conRes.Duplicates)
	assert.Equal(t, 200, conRes.TotalRows)
	assert.Equal(t, 100, conRes.Successful)
	assert.Equal(t, 100, conRes.Duplicates)

	// First occurrence of each molecule is the accepted one: accepted rows
	// come from the first half of the pattern.
	for _, rec := range sink.recs {
		assert.LessOrEqual(t, rec.SourceRow, 100)
	}
}

// ringOf builds a distinct valid notation per index: a carbon chain of
// varying length.
func ringOf(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += "C"
	}
	return out
}

func TestImport_EmptyTable(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Import(context.Background(), standardTable(), standardMapping(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalRows)
	assert.Empty(t, res.Errors)
}

// flakyParser delegates to the real parser but fails every second call, so a
// row can pass validation and then hit a parser failure on the key re-parse.
type flakyParser struct {
	inner molecule.Parser
	calls int
}

func (p *flakyParser) Parse(notation string) (molecule.ParseResult, error) {
	p.calls++
	if p.calls%2 == 0 {
		return molecule.ParseResult{}, fmt.Errorf("parser backend unavailable")
	}
	return p.inner.Parse(notation)
}

func TestImport_ReparseFailureIsFatal(t *testing.T) {
	parser := &flakyParser{inner: molecule.NewNotationParser()}
	svc := NewService(catalog.Default(), parser, logging.NewNopLogger())
	sink := &recordingSink{}

	res, err := svc.Import(context.Background(),
		standardTable(
			[]string{"C", "CPND-001", ""},
			[]string{"N", "CPND-002", ""},
		),
		standardMapping(), sink.sink)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStructureParseFailed, errors.GetCode(err))

	// The failing row lands in no bucket and nothing is misreported as a
	// duplicate under an empty canonical key.
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Duplicates)
	assert.Equal(t, res.TotalRows, res.Successful+res.Failed+res.Duplicates)
	assert.Empty(t, sink.recs)
}
