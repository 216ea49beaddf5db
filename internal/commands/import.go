package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/spendwise-dev/spendwise/internal/importer"
	"github.com/spendwise-dev/spendwise/internal/importlog"
	"github.com/spendwise-dev/spendwise/internal/model"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank statement CSV files",
	}
	importCmd.AddCommand(
		newImportPreviewCommand(opts),
		newImportCommitCommand(opts),
		newImportInboxCommand(opts),
		newImportLogCommand(opts),
	)
	return importCmd
}

func newImportPreviewCommand(opts *rootOptions) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "preview <file.csv>",
		Short: "Show what importing a statement would do",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.account(account)
			if err != nil {
				return err
			}
			res, err := a.parseFile(acct, args[0])
			if err != nil {
				return err
			}
			printParseResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name or id (required)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newImportCommitCommand(opts *rootOptions) *cobra.Command {
	var account string
	var skipImports, skipMatches []int

	cmd := &cobra.Command{
		Use:   "commit <file.csv>",
		Short: "Import a statement into an account",
		Long: "Import a statement into an account. Every candidate shown by preview is\n" +
			"committed unless skipped by index with --skip-import or --skip-match.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.account(account)
			if err != nil {
				return err
			}
			res, err := a.parseFile(acct, args[0])
			if err != nil {
				return err
			}
			sel, err := selectionExcept(res, skipImports, skipMatches)
			if err != nil {
				return err
			}
			return a.commit(cmd.OutOrStdout(), acct, res, sel)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name or id (required)")
	cmd.Flags().IntSliceVar(&skipImports, "skip-import", nil, "indexes of new transactions to leave out")
	cmd.Flags().IntSliceVar(&skipMatches, "skip-match", nil, "indexes of matches to leave out")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newImportInboxCommand(opts *rootOptions) *cobra.Command {
	var account string
	var commit bool

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Preview or commit every CSV waiting in the import directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.account(account)
			if err != nil {
				return err
			}
			inbox := a.path(a.cfg.Import.InboxDir)
			files, err := importer.Scan(inbox)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintf(out, "No CSV files in %s\n", inbox)
				return nil
			}
			var errs []error
			for _, f := range files {
				headingColor.Fprintln(out, f.Name)
				res, err := a.parseFile(acct, f.Path)
				if err != nil {
					return err
				}
				if !commit {
					printParseResult(out, res)
					continue
				}
				if res.Empty() && res.Feedback != "" && res.Feedback != importer.FeedbackAllImported {
					// Leave unusable files in the inbox for the user to look at.
					printParseResult(out, res)
					continue
				}
				if err := a.commit(out, acct, res, importer.Selection{}); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
					continue
				}
				if err := importer.MarkProcessed(inbox, a.path(a.cfg.Import.ProcessedDir), f.Name); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name or id (required)")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit everything and move files to the processed directory")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newImportLogCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show the import audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := importlog.Read(a.path(a.cfg.Import.LogDir))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				if e.UserID != a.cfg.User.ID {
					continue
				}
				fmt.Fprintf(out, "%s  %-8s %s  %-32s %s  %s\n",
					dateColor.Sprint(e.Timestamp.Format(time.RFC3339)),
					e.Action,
					e.TransactionID,
					e.Merchant,
					amountColor.Sprintf("%10s", model.FormatCents(e.Amount)),
					e.Reference,
				)
			}
			return nil
		},
	}
}

func (a *app) parseFile(acct model.Account, path string) (model.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ParseResult{}, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	a.log.Info().Str("file", filepath.Base(path)).Str("account", acct.Name).Msg("parsing statement")
	return a.importer.Parse(a.ctx, a.cfg.User.ID, acct.ID, f)
}

// commit writes the selection, records it in the import log and reports the
// outcome. Per-candidate failures are printed and returned together.
func (a *app) commit(w io.Writer, acct model.Account, res model.ParseResult, sel importer.Selection) error {
	if res.Empty() {
		printParseResult(w, res)
		return nil
	}
	summary, commitErr := a.importer.Commit(a.ctx, a.cfg.User.ID, acct.ID, res, sel)

	entries := importlog.FromCommit(time.Now(), a.cfg.User.ID, acct.ID, summary.Created, summary.Matched)
	if err := importlog.Append(a.path(a.cfg.Import.LogDir), entries); err != nil {
		a.log.Warn().Err(err).Msg("writing import log")
	}

	fmt.Fprintf(w, "Imported %d new, matched %d into %s\n", len(summary.Created), len(summary.Matched), acct.Name)
	if commitErr != nil {
		warnColor.Fprintln(w, commitErr)
	}
	return commitErr
}

// selectionExcept selects every candidate except the skipped indexes.
func selectionExcept(res model.ParseResult, skipImports, skipMatches []int) (importer.Selection, error) {
	var sel importer.Selection
	var err error
	if len(skipImports) > 0 {
		if sel.Imports, err = allExcept(len(res.ImportCandidates), skipImports, "import"); err != nil {
			return sel, err
		}
	}
	if len(skipMatches) > 0 {
		if sel.Matches, err = allExcept(len(res.MatchCandidates), skipMatches, "match"); err != nil {
			return sel, err
		}
	}
	return sel, nil
}

func allExcept(n int, skip []int, kind string) ([]int, error) {
	skipped := make(map[int]bool, len(skip))
	for _, idx := range skip {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%s index %d out of range [0,%d): %w", kind, idx, n, importer.ErrInvalidSelection)
		}
		skipped[idx] = true
	}
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !skipped[i] {
			keep = append(keep, i)
		}
	}
	return keep, nil
}
