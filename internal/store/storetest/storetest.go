// Package storetest is a conformance suite run against every store.Store
// backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendwise-dev/spendwise/internal/model"
	"github.com/spendwise-dev/spendwise/internal/store"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run executes every conformance test against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"AccountCRUD", testAccountCRUD},
		{"ListAccountsScopedToOwner", testListAccountsScoped},
		{"TransactionCRUD", testTransactionCRUD},
		{"CreateTransactionUnknownAccount", testCreateTransactionUnknownAccount},
		{"DeleteAccountCascades", testDeleteAccountCascades},
		{"ListInsertionOrder", testListInsertionOrder},
		{"FilterAndTotals", testFilterAndTotals},
		{"ReferenceNumbersScoped", testReferenceNumbersScoped},
		{"UnimportedTransactions", testUnimportedTransactions},
		{"LatestCategorized", testLatestCategorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			tt.fn(t, s)
		})
	}
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func mustAccount(t *testing.T, s store.Store, owner uuid.UUID, name string) model.Account {
	t.Helper()
	a, err := s.CreateAccount(context.Background(), model.Account{OwnerID: owner, Name: name})
	require.NoError(t, err)
	return a
}

func mustTxn(t *testing.T, s store.Store, txn model.Transaction) model.Transaction {
	t.Helper()
	got, err := s.CreateTransaction(context.Background(), txn)
	require.NoError(t, err)
	return got
}

func testAccountCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := uuid.New()

	a := mustAccount(t, s, owner, "Checking")
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Checking", got.Name)
	assert.Equal(t, owner, got.OwnerID)

	got.Name = "Joint Checking"
	require.NoError(t, s.UpdateAccount(ctx, got))
	got, err = s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Joint Checking", got.Name)

	require.NoError(t, s.DeleteAccount(ctx, a.ID))
	_, err = s.GetAccount(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteAccount(ctx, a.ID), store.ErrNotFound)
}

func testListAccountsScoped(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	mustAccount(t, s, alice, "A1")
	mustAccount(t, s, bob, "B1")
	mustAccount(t, s, alice, "A2")

	accts, err := s.ListAccounts(ctx, alice)
	require.NoError(t, err)
	require.Len(t, accts, 2)
	assert.Equal(t, "A1", accts[0].Name)
	assert.Equal(t, "A2", accts[1].Name)
}

func testTransactionCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := uuid.New()
	a := mustAccount(t, s, owner, "Checking")

	txn := mustTxn(t, s, model.Transaction{
		OwnerID:   owner,
		AccountID: a.ID,
		Merchant:  "Corner Cafe",
		Amount:    550,
		Date:      date(2025, 1, 15),
		Category:  model.CategoryGuiltFree,
		Note:      "latte",
	})
	assert.NotEqual(t, uuid.Nil, txn.ID)

	got, err := s.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", got.Merchant)
	assert.Equal(t, int64(550), got.Amount)
	assert.True(t, date(2025, 1, 15).Equal(got.Date))
	assert.Equal(t, model.CategoryGuiltFree, got.Category)
	assert.False(t, got.IsImported)
	assert.Empty(t, got.ReferenceNumber)
	assert.Equal(t, "latte", got.Note)

	got.IsImported = true
	got.ReferenceNumber = "REF-1"
	require.NoError(t, s.UpdateTransaction(ctx, got))
	got, err = s.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, got.IsImported)
	assert.Equal(t, "REF-1", got.ReferenceNumber)

	require.NoError(t, s.DeleteTransaction(ctx, txn.ID))
	_, err = s.GetTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateTransaction(ctx, got), store.ErrNotFound)
}

func testCreateTransactionUnknownAccount(t *testing.T, s store.Store) {
	_, err := s.CreateTransaction(context.Background(), model.Transaction{
		OwnerID:   uuid.New(),
		AccountID: uuid.New(),
		Merchant:  "Nowhere",
		Amount:    100,
		Date:      date(2025, 1, 1),
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDeleteAccountCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := uuid.New()
	doomed := mustAccount(t, s, owner, "Old Card")
	kept := mustAccount(t, s, owner, "Checking")

	gone := mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: doomed.ID, Merchant: "A", Amount: 100, Date: date(2025, 1, 1)})
	stay := mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: kept.ID, Merchant: "B", Amount: 200, Date: date(2025, 1, 2)})

	require.NoError(t, s.DeleteAccount(ctx, doomed.ID))

	_, err := s.GetTransaction(ctx, gone.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetTransaction(ctx, stay.ID)
	assert.NoError(t, err)
}

func testListInsertionOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := uuid.New()
	a := mustAccount(t, s, owner, "Checking")

	merchants := []string{"Zeta", "Alpha", "Mid", "Beta", "Omega"}
	for i, m := range merchants {
		mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: a.ID, Merchant: m, Amount: int64(100 + i), Date: date(2025, 1, 5-i)})
	}

	txns, err := s.ListTransactions(ctx, store.Filter{OwnerID: owner})
	require.NoError(t, err)
	require.Len(t, txns, len(merchants))
	for i, m := range merchants {
		assert.Equal(t, m, txns[i].Merchant)
	}
}

func testFilterAndTotals(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := uuid.New()
	checking := mustAccount(t, s, owner, "Checking")
	card := mustAccount(t, s, owner, "Card")

	mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: checking.ID, Merchant: "Rent", Amount: 150000, Date: date(2025, 1, 1), Category: model.CategoryFixedCosts})
	mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: card.ID, Merchant: "Cafe", Amount: 550, Date: date(2025, 1, 10), Category: model.CategoryGuiltFree, IsImported: true, ReferenceNumber: "R1"})
	mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: card.ID, Merchant: "Cafe", Amount: 450, Date: date(2025, 2, 3), Category: model.CategoryGuiltFree})
	mustTxn(t, s, model.Transaction{OwnerID: uuid.New(), AccountID: card.ID, Merchant: "Cafe", Amount: 999, Date: date(2025, 1, 10)})

	tests := []struct {
		name   string
		filter store.Filter
		count  int
		amount int64
	}{
		{"owner", store.Filter{OwnerID: owner}, 3, 151000},
		{"account", store.Filter{OwnerID: owner, AccountID: card.ID}, 2, 1000},
		{"category", store.Filter{OwnerID: owner, Category: model.CategoryFixedCosts}, 1, 150000},
		{"january", store.Filter{OwnerID: owner, From: date(2025, 1, 1), To: date(2025, 1, 31)}, 2, 150550},
		{"imported", store.Filter{OwnerID: owner, Imported: store.Bool(true)}, 1, 550},
		{"manual", store.Filter{OwnerID: owner, Imported: store.Bool(false)}, 2, 150450},
		{"merchant", store.Filter{OwnerID: owner, Merchant: "Cafe"}, 2, 1000},
	}
	for _, tt := range tests {
		tot, err := s.Totals(ctx, tt.filter)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.count, tot.Count, tt.name)
		assert.Equal(t, tt.amount, tot.Amount, tt.name)
	}
}

func testReferenceNumbersScoped(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	a1 := mustAccount(t, s, alice, "A1")
	a2 := mustAccount(t, s, alice, "A2")
	b1 := mustAccount(t, s, bob, "B1")

	mustTxn(t, s, model.Transaction{OwnerID: alice, AccountID: a1.ID, Merchant: "X", Amount: 1, Date: date(2025, 1, 1), IsImported: true, ReferenceNumber: "in-a1"})
	mustTxn(t, s, model.Transaction{OwnerID: alice, AccountID: a1.ID, Merchant: "Y", Amount: 1, Date: date(2025, 1, 1)})
	mustTxn(t, s, model.Transaction{OwnerID: alice, AccountID: a2.ID, Merchant: "X", Amount: 1, Date: date(2025, 1, 1), IsImported: true, ReferenceNumber: "in-a2"})
	mustTxn(t, s, model.Transaction{OwnerID: bob, AccountID: b1.ID, Merchant: "X", Amount: 1, Date: date(2025, 1, 1), IsImported: true, ReferenceNumber: "in-b1"})

	refs, err := s.ReferenceNumbers(ctx, alice, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"in-a1": {}}, refs)

	// Bob cannot see Alice's refs even when naming her account.
	refs, err = s.ReferenceNumbers(ctx, bob, a1.ID)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func testUnimportedTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := uuid.New()
	a := mustAccount(t, s, owner, "Checking")
	other := mustAccount(t, s, owner, "Card")

	first := mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: a.ID, Merchant: "first", Amount: 550, Date: date(2025, 1, 2)})
	mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: a.ID, Merchant: "done", Amount: 550, Date: date(2025, 1, 1), IsImported: true, ReferenceNumber: "R"})
	second := mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: a.ID, Merchant: "second", Amount: 550, Date: date(2025, 1, 1)})
	mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: other.ID, Merchant: "elsewhere", Amount: 550, Date: date(2025, 1, 1)})

	pool, err := s.UnimportedTransactions(ctx, owner, a.ID)
	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, first.ID, pool[0].ID)
	assert.Equal(t, second.ID, pool[1].ID)
}

func testLatestCategorized(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := uuid.New()
	a1 := mustAccount(t, s, owner, "Checking")
	a2 := mustAccount(t, s, owner, "Card")

	mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: a1.ID, Merchant: "NETFLIX", Amount: 1599, Date: date(2025, 3, 1), Category: model.CategoryFixedCosts})
	mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: a2.ID, Merchant: "NETFLIX", Amount: 1599, Date: date(2025, 1, 1), Category: model.CategoryGuiltFree})
	mustTxn(t, s, model.Transaction{OwnerID: owner, AccountID: a2.ID, Merchant: "NETFLIX", Amount: 1599, Date: date(2025, 4, 1)})
	mustTxn(t, s, model.Transaction{OwnerID: uuid.New(), AccountID: a2.ID, Merchant: "NETFLIX", Amount: 1599, Date: date(2025, 5, 1), Category: model.CategorySavings})

	got, ok, err := s.LatestCategorized(ctx, owner, "NETFLIX")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.CategoryFixedCosts, got.Category)

	_, ok, err = s.LatestCategorized(ctx, owner, "netflix")
	require.NoError(t, err)
	assert.False(t, ok, "merchant match is exact")

	_, ok, err = s.LatestCategorized(ctx, owner, "")
	require.NoError(t, err)
	assert.False(t, ok)
}
