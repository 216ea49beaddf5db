// Package memstore is an in-memory implementation of store.Store.
// It is safe for concurrent use. Data is lost when the process exits.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spendwise-dev/spendwise/internal/model"
	"github.com/spendwise-dev/spendwise/internal/store"
)

type accountRecord struct {
	seq     uint64
	account model.Account
}

type txnRecord struct {
	seq uint64
	txn model.Transaction
}

// Store keeps accounts and transactions in maps keyed by id.
type Store struct {
	mu       sync.RWMutex
	seq      uint64
	accounts map[uuid.UUID]accountRecord
	txns     map[uuid.UUID]txnRecord
	now      func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]accountRecord),
		txns:     make(map[uuid.UUID]txnRecord),
		now:      time.Now,
	}
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// CreateAccount implements store.Store.
func (s *Store) CreateAccount(_ context.Context, a model.Account) (model.Account, error) {
	if a.OwnerID == uuid.Nil {
		return model.Account{}, fmt.Errorf("account owner is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	if _, ok := s.accounts[a.ID]; ok {
		return model.Account{}, fmt.Errorf("account %s already exists", a.ID)
	}
	s.accounts[a.ID] = accountRecord{seq: s.nextSeq(), account: a}
	return a, nil
}

// GetAccount implements store.Store.
func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.accounts[id]
	if !ok {
		return model.Account{}, fmt.Errorf("account %s: %w", id, store.ErrNotFound)
	}
	return rec.account, nil
}

// ListAccounts implements store.Store.
func (s *Store) ListAccounts(_ context.Context, owner uuid.UUID) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []accountRecord
	for _, rec := range s.accounts {
		if rec.account.OwnerID == owner {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	result := make([]model.Account, 0, len(recs))
	for _, rec := range recs {
		result = append(result, rec.account)
	}
	return result, nil
}

// UpdateAccount implements store.Store.
func (s *Store) UpdateAccount(_ context.Context, a model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.accounts[a.ID]
	if !ok {
		return fmt.Errorf("account %s: %w", a.ID, store.ErrNotFound)
	}
	rec.account = a
	s.accounts[a.ID] = rec
	return nil
}

// DeleteAccount implements store.Store.
func (s *Store) DeleteAccount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return fmt.Errorf("account %s: %w", id, store.ErrNotFound)
	}
	delete(s.accounts, id)
	for tid, rec := range s.txns {
		if rec.txn.AccountID == id {
			delete(s.txns, tid)
		}
	}
	return nil
}

// CreateTransaction implements store.Store.
func (s *Store) CreateTransaction(_ context.Context, t model.Transaction) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[t.AccountID]; !ok {
		return model.Transaction{}, fmt.Errorf("account %s: %w", t.AccountID, store.ErrNotFound)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	if t.Category == "" {
		t.Category = model.CategoryUncategorized
	}
	s.txns[t.ID] = txnRecord{seq: s.nextSeq(), txn: t}
	return t, nil
}

// GetTransaction implements store.Store.
func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.txns[id]
	if !ok {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return rec.txn, nil
}

// UpdateTransaction implements store.Store.
func (s *Store) UpdateTransaction(_ context.Context, t model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.txns[t.ID]
	if !ok {
		return fmt.Errorf("transaction %s: %w", t.ID, store.ErrNotFound)
	}
	if t.Category == "" {
		t.Category = model.CategoryUncategorized
	}
	rec.txn = t
	s.txns[t.ID] = rec
	return nil
}

// DeleteTransaction implements store.Store.
func (s *Store) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txns[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	delete(s.txns, id)
	return nil
}

// ListTransactions implements store.Store.
func (s *Store) ListTransactions(_ context.Context, f store.Filter) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(f), nil
}

func (s *Store) list(f store.Filter) []model.Transaction {
	var recs []txnRecord
	for _, rec := range s.txns {
		if f.Match(rec.txn) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	result := make([]model.Transaction, 0, len(recs))
	for _, rec := range recs {
		result = append(result, rec.txn)
	}
	return result
}

// Totals implements store.Store.
func (s *Store) Totals(_ context.Context, f store.Filter) (store.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Sum(s.list(f)), nil
}

// ReferenceNumbers implements store.Store.
func (s *Store) ReferenceNumbers(_ context.Context, owner, account uuid.UUID) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make(map[string]struct{})
	for _, t := range s.list(store.Filter{OwnerID: owner, AccountID: account}) {
		if t.ReferenceNumber != "" {
			refs[t.ReferenceNumber] = struct{}{}
		}
	}
	return refs, nil
}

// UnimportedTransactions implements store.Store.
func (s *Store) UnimportedTransactions(_ context.Context, owner, account uuid.UUID) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(store.Filter{OwnerID: owner, AccountID: account, Imported: store.Bool(false)}), nil
}

// LatestCategorized implements store.Store.
func (s *Store) LatestCategorized(_ context.Context, owner uuid.UUID, merchant string) (model.Transaction, bool, error) {
	if merchant == "" {
		return model.Transaction{}, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := store.Latest(s.list(store.Filter{OwnerID: owner, Merchant: merchant}))
	return t, ok, nil
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }
