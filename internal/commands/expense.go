package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spendwise-dev/spendwise/internal/ledger"
	"github.com/spendwise-dev/spendwise/internal/model"
	"github.com/spendwise-dev/spendwise/internal/store"
)

func newExpenseCommand(opts *rootOptions) *cobra.Command {
	expenseCmd := &cobra.Command{
		Use:   "expense",
		Short: "Record and review expenses",
	}
	expenseCmd.AddCommand(
		newExpenseAddCommand(opts),
		newExpenseListCommand(opts),
		newExpenseEditCommand(opts),
		newExpenseDeleteCommand(opts),
		newExpenseSummaryCommand(opts),
	)
	return expenseCmd
}

func newExpenseAddCommand(opts *rootOptions) *cobra.Command {
	var account, merchant, amount, date, category, note string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense by hand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := model.ParseCents(amount)
			if err != nil {
				return err
			}
			day := time.Now().UTC().Truncate(24 * time.Hour)
			if date != "" {
				if day, err = parseDay(date); err != nil {
					return err
				}
			}
			cat, err := model.ParseCategory(category)
			if err != nil {
				return err
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.account(account)
			if err != nil {
				return err
			}
			txn, err := a.ledger.AddExpense(a.ctx, a.cfg.User.ID, ledger.AddExpenseParams{
				AccountID: acct.ID,
				Merchant:  merchant,
				Amount:    cents,
				Date:      day,
				Category:  cat,
				Note:      note,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s (%s)\n", model.FormatCents(txn.Amount), txn.Merchant, txn.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name or id (required)")
	cmd.Flags().StringVar(&merchant, "merchant", "", "merchant (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 12.34 (required)")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("merchant")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

type filterFlags struct {
	account  string
	category string
	merchant string
	from     string
	to       string
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ff.account, "account", "", "only this account")
	cmd.Flags().StringVar(&ff.category, "category", "", "only this category")
	cmd.Flags().StringVar(&ff.merchant, "merchant", "", "only this exact merchant")
	cmd.Flags().StringVar(&ff.from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&ff.to, "to", "", "last date, YYYY-MM-DD")
}

func (ff *filterFlags) build(a *app) (store.Filter, error) {
	f := store.Filter{Merchant: ff.merchant}
	var err error
	if ff.account != "" {
		acct, err := a.account(ff.account)
		if err != nil {
			return f, err
		}
		f.AccountID = acct.ID
	}
	if ff.category != "" {
		if f.Category, err = model.ParseCategory(ff.category); err != nil {
			return f, err
		}
	}
	if ff.from != "" {
		if f.From, err = parseDay(ff.from); err != nil {
			return f, err
		}
	}
	if ff.to != "" {
		if f.To, err = parseDay(ff.to); err != nil {
			return f, err
		}
	}
	return f, nil
}

func newExpenseListCommand(opts *rootOptions) *cobra.Command {
	var ff filterFlags
	var uncategorized bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := ff.build(a)
			if err != nil {
				return err
			}
			if uncategorized {
				f.Category = model.CategoryUncategorized
			}
			txns, err := a.ledger.List(a.ctx, a.cfg.User.ID, f)
			if err != nil {
				return err
			}
			printTransactions(cmd.OutOrStdout(), txns)
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().BoolVar(&uncategorized, "uncategorized", false, "only transactions without a category")
	return cmd
}

func newExpenseEditCommand(opts *rootOptions) *cobra.Command {
	var merchant, amount, date, category, note string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing id: %w", err)
			}

			var u ledger.ExpenseUpdate
			flags := cmd.Flags()
			if flags.Changed("merchant") {
				u.Merchant = &merchant
			}
			if flags.Changed("amount") {
				cents, err := model.ParseCents(amount)
				if err != nil {
					return err
				}
				u.Amount = &cents
			}
			if flags.Changed("date") {
				day, err := parseDay(date)
				if err != nil {
					return err
				}
				u.Date = &day
			}
			if flags.Changed("category") {
				cat, err := model.ParseCategory(category)
				if err != nil {
					return err
				}
				u.Category = &cat
			}
			if flags.Changed("note") {
				u.Note = &note
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.ledger.UpdateExpense(a.ctx, a.cfg.User.ID, id, u)
			if err != nil {
				return err
			}
			printTransactions(cmd.OutOrStdout(), []model.Transaction{txn})
			return nil
		},
	}

	cmd.Flags().StringVar(&merchant, "merchant", "", "new merchant")
	cmd.Flags().StringVar(&amount, "amount", "", "new amount")
	cmd.Flags().StringVar(&date, "date", "", "new date, YYYY-MM-DD")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().StringVar(&note, "note", "", "new note")
	return cmd
}

func newExpenseDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing id: %w", err)
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.DeleteExpense(a.ctx, a.cfg.User.ID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}

func newExpenseSummaryCommand(opts *rootOptions) *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Total spending by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := ff.build(a)
			if err != nil {
				return err
			}
			sum, err := a.ledger.Summary(a.ctx, a.cfg.User.ID, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range model.Categories {
				tot, ok := sum.ByCategory[c]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "%s %s  (%d)\n",
					categoryColor.Sprintf("%-14s", c),
					amountColor.Sprintf("%12s", model.FormatCents(tot.Amount)),
					tot.Count)
			}
			fmt.Fprintf(out, "%-14s %12s  (%d)\n", "total", model.FormatCents(sum.Total.Amount), sum.Total.Count)
			return nil
		},
	}

	ff.register(cmd)
	return cmd
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(model.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
