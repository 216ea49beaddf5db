package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spendwise-dev/spendwise/internal/accounts"
	"github.com/spendwise-dev/spendwise/internal/ledger"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var ff filterFlags
	var output string
	var exportAccounts bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions or accounts as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating export file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if exportAccounts {
				accts, err := a.accts.List(a.ctx, a.cfg.User.ID)
				if err != nil {
					return err
				}
				return accounts.WriteAccounts(w, accts)
			}

			f, err := ff.build(a)
			if err != nil {
				return err
			}
			txns, err := a.ledger.List(a.ctx, a.cfg.User.ID, f)
			if err != nil {
				return err
			}
			if err := ledger.WriteTransactions(w, txns); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&exportAccounts, "accounts", false, "export accounts instead of transactions")
	return cmd
}
