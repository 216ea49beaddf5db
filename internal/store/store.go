// Package store defines the keyed record store for accounts and transactions.
//
// Store methods do not check ownership beyond the owner-scoped queries; callers
// authorize with package authz before mutating. Listings are returned in
// insertion order.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spendwise-dev/spendwise/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence layer used by the services and the importer.
type Store interface {
	CreateAccount(ctx context.Context, a model.Account) (model.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (model.Account, error)
	ListAccounts(ctx context.Context, owner uuid.UUID) ([]model.Account, error)
	UpdateAccount(ctx context.Context, a model.Account) error
	// DeleteAccount removes the account and every transaction in it.
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	CreateTransaction(ctx context.Context, t model.Transaction) (model.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (model.Transaction, error)
	UpdateTransaction(ctx context.Context, t model.Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	ListTransactions(ctx context.Context, f Filter) ([]model.Transaction, error)
	Totals(ctx context.Context, f Filter) (Totals, error)

	// ReferenceNumbers returns every reference number recorded in the account.
	ReferenceNumbers(ctx context.Context, owner, account uuid.UUID) (map[string]struct{}, error)
	// UnimportedTransactions returns the account's manual entries not yet
	// matched by an import.
	UnimportedTransactions(ctx context.Context, owner, account uuid.UUID) ([]model.Transaction, error)
	// LatestCategorized returns the owner's most recent categorized
	// transaction with exactly this merchant, across all accounts.
	LatestCategorized(ctx context.Context, owner uuid.UUID, merchant string) (model.Transaction, bool, error)

	Close() error
}

// Filter selects transactions. Zero fields match everything except OwnerID,
// which is always required.
type Filter struct {
	OwnerID   uuid.UUID
	AccountID uuid.UUID
	Category  model.Category
	Merchant  string
	From      time.Time // inclusive
	To        time.Time // inclusive
	Imported  *bool
}

// Totals is the aggregate of a filtered transaction query.
type Totals struct {
	Count  int
	Amount int64 // cents
}

// Match reports whether t satisfies f.
func (f Filter) Match(t model.Transaction) bool {
	if t.OwnerID != f.OwnerID {
		return false
	}
	if f.AccountID != uuid.Nil && t.AccountID != f.AccountID {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Merchant != "" && t.Merchant != f.Merchant {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if f.Imported != nil && t.IsImported != *f.Imported {
		return false
	}
	return true
}

// Sum aggregates txns.
func Sum(txns []model.Transaction) Totals {
	var tot Totals
	for _, t := range txns {
		tot.Count++
		tot.Amount += t.Amount
	}
	return tot
}

// Latest picks the categorized transaction with the greatest date. Ties go to
// the later-inserted one, so txns must be in insertion order.
func Latest(txns []model.Transaction) (model.Transaction, bool) {
	var best model.Transaction
	found := false
	for _, t := range txns {
		if !t.Category.IsCategorized() {
			continue
		}
		if !found || !t.Date.Before(best.Date) {
			best = t
			found = true
		}
	}
	return best, found
}

// Bool returns a pointer to b, for Filter.Imported.
func Bool(b bool) *bool {
	return &b
}
