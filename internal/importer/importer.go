// Package importer parses bank CSV exports and reconciles them against an
// account's existing transactions.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spendwise-dev/spendwise/internal/authz"
	"github.com/spendwise-dev/spendwise/internal/model"
	"github.com/spendwise-dev/spendwise/internal/store"
)

// User-facing feedback for results that contain nothing to commit.
const (
	FeedbackUnreadable  = "Could not read the CSV file."
	FeedbackEmpty       = "The CSV file is empty."
	FeedbackAllImported = "All transactions in this file have already been imported."
	feedbackColumns     = "Could not detect columns: missing %s."
)

// ErrInvalidSelection is returned by Commit for out-of-range indexes.
var ErrInvalidSelection = errors.New("invalid selection")

// Store is the subset of store.Store the importer needs.
type Store interface {
	GetAccount(ctx context.Context, id uuid.UUID) (model.Account, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (model.Transaction, error)
	CreateTransaction(ctx context.Context, t model.Transaction) (model.Transaction, error)
	UpdateTransaction(ctx context.Context, t model.Transaction) error
	ReferenceNumbers(ctx context.Context, owner, account uuid.UUID) (map[string]struct{}, error)
	UnimportedTransactions(ctx context.Context, owner, account uuid.UUID) ([]model.Transaction, error)
	LatestCategorized(ctx context.Context, owner uuid.UUID, merchant string) (model.Transaction, bool, error)
}

var _ Store = (store.Store)(nil)

// Importer parses statements and commits the user's selection.
type Importer struct {
	store Store
	log   zerolog.Logger
}

// New creates an Importer.
func New(st Store, log zerolog.Logger) *Importer {
	return &Importer{store: st, log: log.With().Str("component", "importer").Logger()}
}

// Parse reads a CSV statement and classifies each row as already imported
// (dropped), a match for an unreconciled manual entry, or a new transaction.
// Problems with the file itself are reported through Feedback; the returned
// error is reserved for authorization and store failures.
func (im *Importer) Parse(ctx context.Context, actor, accountID uuid.UUID, r io.Reader) (model.ParseResult, error) {
	if err := im.authorizeAccount(ctx, actor, accountID); err != nil {
		return model.ParseResult{}, err
	}
	log := im.log.With().Str("account", accountID.String()).Logger()

	records, err := readRecords(r)
	if err != nil {
		log.Warn().Err(err).Msg("unreadable csv")
		return model.ParseResult{Feedback: FeedbackUnreadable}, nil
	}
	if len(records) == 0 {
		return model.ParseResult{Feedback: FeedbackEmpty}, nil
	}

	cols := DetectColumns(records[0])
	if missing := cols.Missing(); len(missing) > 0 {
		log.Info().Strs("missing", missing).Msg("column detection failed")
		return model.ParseResult{Feedback: fmt.Sprintf(feedbackColumns, strings.Join(missing, ", "))}, nil
	}

	st := scanStatement(records[1:], cols)
	rows := normalize(st)
	log.Debug().
		Int("data_rows", st.dataRows).
		Int("scanned", len(st.rows)).
		Int("normalized", len(rows)).
		Bool("signed", st.hasNegative).
		Msg("statement scanned")

	existing, err := im.store.ReferenceNumbers(ctx, actor, accountID)
	if err != nil {
		return model.ParseResult{}, fmt.Errorf("loading reference numbers: %w", err)
	}
	fresh := make([]model.ParsedRow, 0, len(rows))
	inFile := make(map[string]bool, len(rows))
	for _, pr := range rows {
		ref := pr.row.ReferenceNumber
		if _, dup := existing[ref]; dup {
			log.Debug().Int("line", pr.line).Str("ref", ref).Msg("already imported")
			continue
		}
		// A bank reference repeated within one file is the same transaction.
		if inFile[ref] {
			log.Debug().Int("line", pr.line).Str("ref", ref).Msg("duplicate reference in file")
			continue
		}
		inFile[ref] = true
		fresh = append(fresh, pr.row)
	}

	unimported, err := im.store.UnimportedTransactions(ctx, actor, accountID)
	if err != nil {
		return model.ParseResult{}, fmt.Errorf("loading unimported transactions: %w", err)
	}
	p := newPool(unimported)
	matches, imports := reconcile(fresh, p)

	if err := im.inferCategories(ctx, actor, imports); err != nil {
		return model.ParseResult{}, err
	}

	res := model.ParseResult{ImportCandidates: imports, MatchCandidates: matches}
	if res.Empty() && st.dataRows > 0 {
		res.Feedback = FeedbackAllImported
	}
	log.Info().
		Int("imports", len(imports)).
		Int("matches", len(matches)).
		Int("pool_left", p.len()).
		Msg("statement parsed")
	return res, nil
}

// inferCategories copies the category of the most recent categorized
// transaction with the same merchant.
func (im *Importer) inferCategories(ctx context.Context, actor uuid.UUID, rows []model.ParsedRow) error {
	cache := make(map[string]model.Category)
	for i := range rows {
		merchant := rows[i].Merchant
		cat, ok := cache[merchant]
		if !ok {
			prev, found, err := im.store.LatestCategorized(ctx, actor, merchant)
			if err != nil {
				return fmt.Errorf("looking up category for %q: %w", merchant, err)
			}
			cat = model.CategoryUncategorized
			if found {
				cat = prev.Category
			}
			cache[merchant] = cat
		}
		rows[i].Category = cat
	}
	return nil
}

// readRecords buffers the whole file. Rows may have differing lengths.
func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}
	return records, nil
}

func (im *Importer) authorizeAccount(ctx context.Context, actor, accountID uuid.UUID) error {
	acct, err := im.store.GetAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	return authz.CheckOwner(actor, acct.OwnerID, "account "+accountID.String())
}

// Selection picks which candidates to commit. A nil slice selects all.
type Selection struct {
	Imports []int
	Matches []int
}

// CommitSummary reports what Commit wrote.
type CommitSummary struct {
	Created []model.Transaction
	Matched []model.Transaction
}

// Commit persists the selected candidates of res into the account. Ownership
// of the account and of every selected manual transaction is checked before
// anything is written. After that each candidate is written independently:
// failures are joined into the returned error and the rest still commit.
func (im *Importer) Commit(ctx context.Context, actor, accountID uuid.UUID, res model.ParseResult, sel Selection) (CommitSummary, error) {
	if err := im.authorizeAccount(ctx, actor, accountID); err != nil {
		return CommitSummary{}, err
	}
	importIdx, err := resolve(sel.Imports, len(res.ImportCandidates), "import")
	if err != nil {
		return CommitSummary{}, err
	}
	matchIdx, err := resolve(sel.Matches, len(res.MatchCandidates), "match")
	if err != nil {
		return CommitSummary{}, err
	}

	manual := make([]model.Transaction, len(matchIdx))
	for i, idx := range matchIdx {
		mc := res.MatchCandidates[idx]
		t, err := im.store.GetTransaction(ctx, mc.TransactionID)
		if err != nil {
			return CommitSummary{}, fmt.Errorf("loading matched transaction: %w", err)
		}
		if err := authz.CheckOwner(actor, t.OwnerID, "transaction "+t.ID.String()); err != nil {
			return CommitSummary{}, err
		}
		if t.AccountID != accountID {
			return CommitSummary{}, fmt.Errorf("transaction %s is not in account %s: %w", t.ID, accountID, authz.ErrForbidden)
		}
		manual[i] = t
	}

	log := im.log.With().Str("account", accountID.String()).Logger()
	var summary CommitSummary
	var errs []error

	for _, idx := range importIdx {
		row := res.ImportCandidates[idx]
		date, err := time.Parse(model.DateFormat, row.Date)
		if err != nil {
			errs = append(errs, fmt.Errorf("import %d: parsing date %q: %w", idx, row.Date, err))
			continue
		}
		created, err := im.store.CreateTransaction(ctx, model.Transaction{
			OwnerID:         actor,
			AccountID:       accountID,
			Merchant:        row.Merchant,
			Amount:          row.Amount,
			Date:            date,
			Category:        row.Category,
			IsImported:      true,
			ReferenceNumber: row.ReferenceNumber,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("import %d: %w", idx, err))
			continue
		}
		summary.Created = append(summary.Created, created)
	}

	for i, idx := range matchIdx {
		t := manual[i]
		t.IsImported = true
		t.ReferenceNumber = res.MatchCandidates[idx].ReferenceNumber
		if err := im.store.UpdateTransaction(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("match %d: %w", idx, err))
			continue
		}
		summary.Matched = append(summary.Matched, t)
	}

	log.Info().
		Int("created", len(summary.Created)).
		Int("matched", len(summary.Matched)).
		Int("failed", len(errs)).
		Msg("import committed")
	return summary, errors.Join(errs...)
}

// resolve expands a nil selection to every index and validates the rest.
// Duplicate indexes are committed once.
func resolve(sel []int, n int, kind string) ([]int, error) {
	if sel == nil {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	seen := make(map[int]bool, len(sel))
	out := make([]int, 0, len(sel))
	for _, idx := range sel {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%s index %d out of range [0,%d): %w", kind, idx, n, ErrInvalidSelection)
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out, nil
}
