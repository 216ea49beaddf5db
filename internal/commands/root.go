package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spendwise-dev/spendwise/internal/buildinfo"
	"github.com/spendwise-dev/spendwise/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:     "spendwise",
		Short:   "Track spending and reconcile bank statements",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "path to spendwise.yaml")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAccountCommand(&opts))
	rootCmd.AddCommand(newExpenseCommand(&opts))
	rootCmd.AddCommand(newImportCommand(&opts))
	rootCmd.AddCommand(newExportCommand(&opts))

	return rootCmd
}

type rootOptions struct {
	configPath string
	noColor    bool
}
