// Package cli implements the molimport command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	catalogPath string
	logLevel    string
}

// NewRootCommand builds the root command and mounts the subcommands.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "molimport",
		Short:         "Validate and import molecular CSV datasets",
		Long:          "molimport validates CSV datasets of molecules (SMILES plus properties)\nagainst a property catalog and reports per-row results.",
		Version:       Version + " (" + GitCommit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "path to a property catalog file (defaults to the built-in catalog)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))

	return cmd
}

// newLogger builds the CLI logger; console output, quiet by default.
func (o *rootOptions) newLogger() (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:       o.logLevel,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
}
