// Package ledger manages the expenses a user records by hand and the views
// over all of an account's transactions.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spendwise-dev/spendwise/internal/authz"
	"github.com/spendwise-dev/spendwise/internal/model"
	"github.com/spendwise-dev/spendwise/internal/store"
)

// Service provides business logic for expenses.
type Service struct {
	store store.Store
	log   zerolog.Logger
}

// NewService creates a ledger Service.
func NewService(st store.Store, log zerolog.Logger) *Service {
	return &Service{store: st, log: log.With().Str("component", "ledger").Logger()}
}

// AddExpenseParams holds the fields of a manually entered expense.
type AddExpenseParams struct {
	AccountID uuid.UUID
	Merchant  string
	Amount    int64 // cents
	Date      time.Time
	Category  model.Category
	Note      string
}

// AddExpense validates and records a manual expense. The new record is not
// imported and has no reference number, so the next statement import can
// match it.
func (s *Service) AddExpense(ctx context.Context, actor uuid.UUID, p AddExpenseParams) (model.Transaction, error) {
	if err := s.authorizeAccount(ctx, actor, p.AccountID); err != nil {
		return model.Transaction{}, err
	}
	if p.Category == "" {
		p.Category = model.CategoryUncategorized
	}
	t := model.Transaction{
		OwnerID:   actor,
		AccountID: p.AccountID,
		Merchant:  strings.TrimSpace(p.Merchant),
		Amount:    p.Amount,
		Date:      p.Date,
		Category:  p.Category,
		Note:      p.Note,
	}
	if err := joinValidation(ValidateTransaction(t)); err != nil {
		return model.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("creating expense: %w", err)
	}
	s.log.Debug().Str("id", created.ID.String()).Int64("amount", created.Amount).Msg("expense added")
	return created, nil
}

// ExpenseUpdate lists the fields to change. Nil fields are left alone.
type ExpenseUpdate struct {
	Merchant *string
	Amount   *int64
	Date     *time.Time
	Category *model.Category
	Note     *string
}

// UpdateExpense applies a direct user edit to any of actor's transactions.
// Import state and reference number are never changed here.
func (s *Service) UpdateExpense(ctx context.Context, actor, id uuid.UUID, u ExpenseUpdate) (model.Transaction, error) {
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return model.Transaction{}, err
	}
	if u.Merchant != nil {
		t.Merchant = strings.TrimSpace(*u.Merchant)
	}
	if u.Amount != nil {
		t.Amount = *u.Amount
	}
	if u.Date != nil {
		t.Date = *u.Date
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.Note != nil {
		t.Note = *u.Note
	}
	if err := joinValidation(ValidateTransaction(t)); err != nil {
		return model.Transaction{}, err
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return model.Transaction{}, fmt.Errorf("updating expense: %w", err)
	}
	return t, nil
}

// DeleteExpense removes one of actor's transactions.
func (s *Service) DeleteExpense(ctx context.Context, actor, id uuid.UUID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	return nil
}

// Get returns a transaction owned by actor.
func (s *Service) Get(ctx context.Context, actor, id uuid.UUID) (model.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return model.Transaction{}, err
	}
	if err := authz.CheckOwner(actor, t.OwnerID, "transaction "+id.String()); err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// List returns actor's transactions matching f in insertion order.
// f.OwnerID is always replaced by actor.
func (s *Service) List(ctx context.Context, actor uuid.UUID, f store.Filter) ([]model.Transaction, error) {
	f, err := s.scope(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return txns, nil
}

// Uncategorized returns the transactions still waiting for a category.
func (s *Service) Uncategorized(ctx context.Context, actor uuid.UUID, accountID uuid.UUID) ([]model.Transaction, error) {
	return s.List(ctx, actor, store.Filter{AccountID: accountID, Category: model.CategoryUncategorized})
}

// Summary is a spending total with a per-category breakdown.
type Summary struct {
	Total      store.Totals
	ByCategory map[model.Category]store.Totals
}

// Summary aggregates actor's transactions matching f.
func (s *Service) Summary(ctx context.Context, actor uuid.UUID, f store.Filter) (Summary, error) {
	f, err := s.scope(ctx, actor, f)
	if err != nil {
		return Summary{}, err
	}
	total, err := s.store.Totals(ctx, f)
	if err != nil {
		return Summary{}, fmt.Errorf("summing transactions: %w", err)
	}
	sum := Summary{Total: total, ByCategory: make(map[model.Category]store.Totals)}
	for _, c := range model.Categories {
		cf := f
		cf.Category = c
		tot, err := s.store.Totals(ctx, cf)
		if err != nil {
			return Summary{}, fmt.Errorf("summing %s: %w", c, err)
		}
		if tot.Count > 0 {
			sum.ByCategory[c] = tot
		}
	}
	return sum, nil
}

func (s *Service) scope(ctx context.Context, actor uuid.UUID, f store.Filter) (store.Filter, error) {
	if actor == uuid.Nil {
		return f, fmt.Errorf("listing transactions: %w", authz.ErrForbidden)
	}
	if f.AccountID != uuid.Nil {
		if err := s.authorizeAccount(ctx, actor, f.AccountID); err != nil {
			return f, err
		}
	}
	f.OwnerID = actor
	return f, nil
}

func (s *Service) authorizeAccount(ctx context.Context, actor, accountID uuid.UUID) error {
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	return authz.CheckOwner(actor, acct.OwnerID, "account "+accountID.String())
}
