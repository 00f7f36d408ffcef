package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chemlattice/molimport/internal/application/importer"
	"github.com/chemlattice/molimport/internal/domain/catalog"
	"github.com/chemlattice/molimport/internal/domain/molecule"
	"github.com/chemlattice/molimport/pkg/errors"
	mtypes "github.com/chemlattice/molimport/pkg/types/molecule"
)

type importOptions struct {
	root        *rootOptions
	mappingPath string
	workers     int
	jsonOutput  bool
}

func newImportCommand(root *rootOptions) *cobra.Command {
	opts := &importOptions{root: root}

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Validate a CSV dataset and report per-row results",
		Long: "import runs the full validation pipeline over a CSV file without\n" +
			"persisting anything: structure validation, property coercion and\n" +
			"validation, and duplicate detection within the file.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.mappingPath, "mapping", "m", "", "path to the column mapping JSON file (required)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 1, "number of concurrent validation workers")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "emit the result as JSON")
	_ = cmd.MarkFlagRequired("mapping")

	return cmd
}

func (o *importOptions) run(cmd *cobra.Command, csvPath string) error {
	logger, err := o.root.newLogger()
	if err != nil {
		return err
	}

	cat, err := loadCatalog(o.root.catalogPath)
	if err != nil {
		return err
	}

	mapping, err := loadMappingFile(o.mappingPath)
	if err != nil {
		return err
	}

	table, err := loadCSVFile(csvPath)
	if err != nil {
		return err
	}

	svc := importer.NewService(cat, molecule.NewNotationParser(), logger,
		importer.WithWorkers(o.workers))
	result, err := svc.Import(cmd.Context(), table, mapping, importer.DiscardSink)
	if err != nil {
		return err
	}

	if o.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(cmd, result)
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d rows failed validation", result.Failed, result.TotalRows)
	}
	return nil
}

func printResult(cmd *cobra.Command, res *importer.ImportResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rows processed: %d\n", res.TotalRows)
	fmt.Fprintf(out, "  valid:      %d\n", res.Successful)
	fmt.Fprintf(out, "  failed:     %d\n", res.Failed)
	fmt.Fprintf(out, "  duplicates: %d\n", res.Duplicates)
	if res.Cancelled {
		fmt.Fprintln(out, "  (run was cancelled before completion)")
	}
	for _, re := range res.Errors {
		fmt.Fprintf(out, "row %d: %s\n", re.Row+1, re.Message)
	}
}

// loadCatalog returns the catalog at path, or the built-in one when path is
// empty.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(path)
}

// mappingFile is the on-disk shape of a column mapping.
type mappingFile struct {
	Columns []struct {
		CSVColumn    string `json:"csv_column"`
		PropertyName string `json:"property_name"`
		PropertyType string `json:"property_type,omitempty"`
	} `json:"columns"`
}

func loadMappingFile(path string) (*mtypes.ColumnMapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMappingInvalid, "failed to read mapping file")
	}
	var mf mappingFile
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMappingInvalid, "mapping file is not valid JSON")
	}
	entries := make([]mtypes.ColumnMappingEntry, 0, len(mf.Columns))
	for _, c := range mf.Columns {
		entries = append(entries, mtypes.ColumnMappingEntry{
			CSVColumn:    c.CSVColumn,
			PropertyName: c.PropertyName,
			PropertyType: mtypes.PropertyType(strings.ToUpper(c.PropertyType)),
		})
	}
	return &mtypes.ColumnMapping{Entries: entries}, nil
}

func loadCSVFile(path string) (mtypes.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return mtypes.Table{}, errors.Wrap(err, errors.ErrCodeTableUnreadable, "failed to open CSV file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return mtypes.Table{}, errors.Wrap(err, errors.ErrCodeTableUnreadable, "failed to parse CSV file")
	}
	if len(records) == 0 {
		return mtypes.Table{}, errors.New(errors.ErrCodeTableUnreadable, "CSV file is empty")
	}
	return mtypes.Table{Headers: records[0], Rows: records[1:]}, nil
}
