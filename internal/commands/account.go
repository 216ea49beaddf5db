package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newAccountCommand(opts *rootOptions) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	accountCmd.AddCommand(
		newAccountAddCommand(opts),
		newAccountListCommand(opts),
		newAccountRenameCommand(opts),
		newAccountDeleteCommand(opts),
	)
	return accountCmd
}

func newAccountAddCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.accts.Create(a.ctx, a.cfg.User.ID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s (%s)\n", acct.Name, acct.ID)
			return nil
		},
	}
}

func newAccountListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			accts, err := a.accts.List(a.ctx, a.cfg.User.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			name := color.New(color.Bold).SprintFunc()
			for _, acct := range accts {
				fmt.Fprintf(out, "%s  %s\n", acct.ID, name(acct.Name))
			}
			return nil
		},
	}
}

func newAccountRenameCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <account> <new-name>",
		Short: "Rename an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.account(args[0])
			if err != nil {
				return err
			}
			acct, err = a.accts.Rename(a.ctx, a.cfg.User.ID, acct.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed account to %s\n", acct.Name)
			return nil
		},
	}
}

func newAccountDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <account>",
		Short: "Delete an account and all of its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.account(args[0])
			if err != nil {
				return err
			}
			if err := a.accts.Delete(a.ctx, a.cfg.User.ID, acct.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %s\n", acct.Name)
			return nil
		},
	}
}
