package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chemlattice/molimport/internal/validate"
)

type validateOptions struct {
	root        *rootOptions
	mappingPath string
}

func newValidateCommand(root *rootOptions) *cobra.Command {
	opts := &validateOptions{root: root}

	cmd := &cobra.Command{
		Use:   "validate-mapping",
		Short: "Check a column mapping file against the property catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.mappingPath, "mapping", "m", "", "path to the column mapping JSON file (required)")
	_ = cmd.MarkFlagRequired("mapping")

	return cmd
}

func (o *validateOptions) run(cmd *cobra.Command) error {
	cat, err := loadCatalog(o.root.catalogPath)
	if err != nil {
		return err
	}

	mapping, err := loadMappingFile(o.mappingPath)
	if err != nil {
		return err
	}

	res := validate.NewMappingValidator(cat).Validate(mapping)
	if res.Valid {
		fmt.Fprintln(cmd.OutOrStdout(), "mapping is valid")
		return nil
	}
	for _, msg := range res.Errors {
		fmt.Fprintln(cmd.OutOrStdout(), msg)
	}
	return fmt.Errorf("mapping is invalid (%d errors)", len(res.Errors))
}
