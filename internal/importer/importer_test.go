package importer

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendwise-dev/spendwise/internal/authz"
	"github.com/spendwise-dev/spendwise/internal/model"
	"github.com/spendwise-dev/spendwise/internal/store"
	"github.com/spendwise-dev/spendwise/internal/store/memstore"
)

type fixture struct {
	ctx  context.Context
	st   *memstore.Store
	im   *Importer
	user uuid.UUID
	acct model.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:  context.Background(),
		st:   memstore.New(),
		user: uuid.New(),
	}
	f.im = New(f.st, zerolog.Nop())
	f.acct = f.account(t, f.user, "Checking")
	return f
}

func (f *fixture) account(t *testing.T, owner uuid.UUID, name string) model.Account {
	t.Helper()
	a, err := f.st.CreateAccount(f.ctx, model.Account{OwnerID: owner, Name: name})
	require.NoError(t, err)
	return a
}

func (f *fixture) manual(t *testing.T, acct model.Account, merchant string, cents int64, date string) model.Transaction {
	t.Helper()
	d, err := time.Parse(model.DateFormat, date)
	require.NoError(t, err)
	txn, err := f.st.CreateTransaction(f.ctx, model.Transaction{
		OwnerID:   acct.OwnerID,
		AccountID: acct.ID,
		Merchant:  merchant,
		Amount:    cents,
		Date:      d,
	})
	require.NoError(t, err)
	return txn
}

func (f *fixture) parse(t *testing.T, acct model.Account, csv string) model.ParseResult {
	t.Helper()
	res, err := f.im.Parse(f.ctx, f.user, acct.ID, strings.NewReader(csv))
	require.NoError(t, err)
	return res
}

func (f *fixture) parseFile(t *testing.T, path string) model.ParseResult {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return f.parse(t, f.acct, string(data))
}

func candidateAmounts(rows []model.ParsedRow) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.Amount
	}
	return out
}

func TestParse_ChaseSigned(t *testing.T) {
	f := newFixture(t)
	res := f.parseFile(t, "../../testdata/chase_checking.csv")

	assert.Empty(t, res.Feedback)
	assert.Empty(t, res.MatchCandidates)
	assert.Equal(t, []int64{400, 550, 1599, 104210, 4217}, candidateAmounts(res.ImportCandidates))

	first := res.ImportCandidates[0]
	assert.Equal(t, "2025-01-03", first.Date)
	assert.Equal(t, "GITHUB *PRO SUBSCRIPTION", first.Merchant)
	assert.Equal(t, model.CategoryUncategorized, first.Category)
	assert.NotEmpty(t, first.ReferenceNumber)

	assert.Equal(t, "WHOLE FOODS, #123", res.ImportCandidates[3].Merchant)
}

func TestParse_DebitOnly(t *testing.T) {
	f := newFixture(t)
	res := f.parseFile(t, "../../testdata/amex_debit_only.csv")

	assert.Equal(t, []int64{2345, 120456, 1999}, candidateAmounts(res.ImportCandidates))
	assert.Equal(t, "TRADER JOE'S", res.ImportCandidates[1].Merchant)
}

func TestParse_StatusAndBankReference(t *testing.T) {
	f := newFixture(t)
	res := f.parseFile(t, "../../testdata/credit_union_status.csv")

	require.Len(t, res.ImportCandidates, 2)
	assert.Equal(t, "RENT LLC", res.ImportCandidates[0].Merchant)
	assert.Equal(t, "TX-1001", res.ImportCandidates[0].ReferenceNumber)
	assert.Equal(t, "2025-02-01", res.ImportCandidates[0].Date)
	assert.Equal(t, "ELECTRIC CO", res.ImportCandidates[1].Merchant)
	assert.Equal(t, "TX-1003", res.ImportCandidates[1].ReferenceNumber)
}

func TestParse_SignHandling(t *testing.T) {
	f := newFixture(t)
	res := f.parse(t, f.acct, "Date,Description,Amount\n01/01/2025,A,-20.66\n01/02/2025,B,29.59\n01/03/2025,C,-24.00\n")

	assert.Equal(t, []int64{2066, 2400}, candidateAmounts(res.ImportCandidates))
	assert.Equal(t, "A", res.ImportCandidates[0].Merchant)
	assert.Equal(t, "C", res.ImportCandidates[1].Merchant)
}

func TestParse_ZeroAmountNeverAppears(t *testing.T) {
	f := newFixture(t)
	f.manual(t, f.acct, "Anything", 0, "2025-01-01")

	res := f.parse(t, f.acct, "Date,Description,Amount\n01/01/2025,VOID,0.00\n01/02/2025,REAL,-3.00\n")
	assert.Empty(t, res.MatchCandidates)
	require.Len(t, res.ImportCandidates, 1)
	assert.Equal(t, "REAL", res.ImportCandidates[0].Merchant)
}

func TestParse_DuplicateLinesGetDistinctReferences(t *testing.T) {
	f := newFixture(t)
	csv := "Date,Description,Amount\n01/10/2025,NETFLIX.COM,-15.99\n01/10/2025,NETFLIX.COM,-15.99\n"
	res := f.parse(t, f.acct, csv)

	require.Len(t, res.ImportCandidates, 2)
	assert.NotEqual(t, res.ImportCandidates[0].ReferenceNumber, res.ImportCandidates[1].ReferenceNumber)
}

func TestParse_RepeatedBankReferenceCollapses(t *testing.T) {
	f := newFixture(t)
	csv := "Date,Description,Amount,Reference\n01/10/2025,NETFLIX.COM,-15.99,R1\n01/10/2025,NETFLIX.COM,-15.99,R1\n"
	res := f.parse(t, f.acct, csv)
	assert.Len(t, res.ImportCandidates, 1)
}

func TestParse_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.manual(t, f.acct, "Cafe", 550, "2025-01-04")
	data, err := os.ReadFile("../../testdata/chase_checking.csv")
	require.NoError(t, err)

	first := f.parse(t, f.acct, string(data))
	require.Len(t, first.MatchCandidates, 1)
	require.Len(t, first.ImportCandidates, 4)
	_, err = f.im.Commit(f.ctx, f.user, f.acct.ID, first, Selection{})
	require.NoError(t, err)

	second := f.parse(t, f.acct, string(data))
	assert.Empty(t, second.ImportCandidates)
	assert.Empty(t, second.MatchCandidates)
	assert.Equal(t, FeedbackAllImported, second.Feedback)
}

func TestParse_MatchIsAmountOnlyAndOneToOne(t *testing.T) {
	f := newFixture(t)
	manual := f.manual(t, f.acct, "Coffee with Sam", 550, "2025-01-02")

	res := f.parse(t, f.acct, "Date,Description,Amount\n01/05/2025,CORNER CAFE,-5.50\n01/06/2025,CORNER CAFE,-5.50\n")

	require.Len(t, res.MatchCandidates, 1)
	require.Len(t, res.ImportCandidates, 1)

	mc := res.MatchCandidates[0]
	assert.Equal(t, manual.ID, mc.TransactionID)
	assert.Equal(t, "Coffee with Sam", mc.ManualMerchant)
	assert.Equal(t, "2025-01-02", mc.ManualDate)
	assert.Equal(t, "CORNER CAFE", mc.ImportMerchant)
	assert.Equal(t, "2025-01-05", mc.ImportDate)
	assert.Equal(t, int64(550), mc.Amount)
	assert.NotEmpty(t, mc.ReferenceNumber)

	assert.Equal(t, "2025-01-06", res.ImportCandidates[0].Date)
	assert.NotEqual(t, mc.ReferenceNumber, res.ImportCandidates[0].ReferenceNumber)
}

func TestParse_FirstPoolEntryWins(t *testing.T) {
	f := newFixture(t)
	older := f.manual(t, f.acct, "first typed", 1200, "2025-01-09")
	newer := f.manual(t, f.acct, "second typed", 1200, "2025-01-01")
	f.manual(t, f.acct, "other amount", 999, "2025-01-01")

	res := f.parse(t, f.acct, "Date,Description,Amount\n01/10/2025,LUNCH,-12.00\n01/11/2025,LUNCH,-12.00\n01/12/2025,LUNCH,-12.00\n")

	require.Len(t, res.MatchCandidates, 2)
	assert.Equal(t, older.ID, res.MatchCandidates[0].TransactionID)
	assert.Equal(t, newer.ID, res.MatchCandidates[1].TransactionID)
	assert.Len(t, res.ImportCandidates, 1)
}

func TestParse_ImportedEntriesAreNotInPool(t *testing.T) {
	f := newFixture(t)
	_, err := f.st.CreateTransaction(f.ctx, model.Transaction{
		OwnerID: f.user, AccountID: f.acct.ID, Merchant: "Cafe", Amount: 550,
		Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), IsImported: true, ReferenceNumber: "OLD",
	})
	require.NoError(t, err)

	res := f.parse(t, f.acct, "Date,Description,Amount\n01/05/2025,CORNER CAFE,-5.50\n")
	assert.Empty(t, res.MatchCandidates)
	assert.Len(t, res.ImportCandidates, 1)
}

func TestParse_CrossAccountIsolation(t *testing.T) {
	f := newFixture(t)
	other := f.account(t, f.user, "Credit Card")
	f.manual(t, f.acct, "Cafe", 550, "2025-01-02")

	res := f.parse(t, other, "Date,Description,Amount\n01/05/2025,CORNER CAFE,-5.50\n")
	assert.Empty(t, res.MatchCandidates)
	require.Len(t, res.ImportCandidates, 1)
	assert.Equal(t, int64(550), res.ImportCandidates[0].Amount)
}

func TestParse_ReferencesScopedToAccount(t *testing.T) {
	f := newFixture(t)
	other := f.account(t, f.user, "Credit Card")
	csv := "Date,Description,Amount,Reference\n01/05/2025,CORNER CAFE,-5.50,R-77\n"

	res := f.parse(t, f.acct, csv)
	_, err := f.im.Commit(f.ctx, f.user, f.acct.ID, res, Selection{})
	require.NoError(t, err)

	res = f.parse(t, other, csv)
	assert.Len(t, res.ImportCandidates, 1, "same reference in another account is not a duplicate")
}

func TestParse_CategoryCarryOver(t *testing.T) {
	f := newFixture(t)
	card := f.account(t, f.user, "Credit Card")
	_, err := f.st.CreateTransaction(f.ctx, model.Transaction{
		OwnerID: f.user, AccountID: card.ID, Merchant: "NETFLIX.COM", Amount: 1599,
		Date: time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC), Category: model.CategoryFixedCosts,
		IsImported: true, ReferenceNumber: "X",
	})
	require.NoError(t, err)

	res := f.parse(t, f.acct, "Date,Description,Amount\n01/10/2025,NETFLIX.COM,-15.99\n01/11/2025,NEW PLACE,-3.00\n")
	require.Len(t, res.ImportCandidates, 2)
	assert.Equal(t, model.CategoryFixedCosts, res.ImportCandidates[0].Category)
	assert.Equal(t, model.CategoryUncategorized, res.ImportCandidates[1].Category)
}

func TestParse_CategoryNotBorrowedFromOtherUsers(t *testing.T) {
	f := newFixture(t)
	stranger := uuid.New()
	theirs := f.account(t, stranger, "Theirs")
	_, err := f.st.CreateTransaction(f.ctx, model.Transaction{
		OwnerID: stranger, AccountID: theirs.ID, Merchant: "NETFLIX.COM", Amount: 1599,
		Date: time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC), Category: model.CategoryGuiltFree,
	})
	require.NoError(t, err)

	res := f.parse(t, f.acct, "Date,Description,Amount\n01/10/2025,NETFLIX.COM,-15.99\n")
	require.Len(t, res.ImportCandidates, 1)
	assert.Equal(t, model.CategoryUncategorized, res.ImportCandidates[0].Category)
}

func TestParse_Feedback(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"empty file", "", FeedbackEmpty},
		{"header only", "Date,Description,Amount\n", ""},
		{"missing date", "When,Description,Amount\n1,2,3\n", "Could not detect columns: missing date."},
		{"missing two", "Date,Vendor,Value\n1,2,3\n", "Could not detect columns: missing description, amount."},
		{"nothing importable", "Date,Description,Amount\n01/01/2025,VOID,0.00\n", FeedbackAllImported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res := f.parse(t, f.acct, tt.csv)
			assert.Equal(t, tt.want, res.Feedback)
			assert.True(t, res.Empty())
		})
	}
}

func TestParse_UnreadableFile(t *testing.T) {
	f := newFixture(t)
	res, err := f.im.Parse(f.ctx, f.user, f.acct.ID, iotest.ErrReader(errors.New("disk gone")))
	require.NoError(t, err)
	assert.Equal(t, FeedbackUnreadable, res.Feedback)
	assert.True(t, res.Empty())
}

func TestParse_ForbiddenAccount(t *testing.T) {
	f := newFixture(t)
	theirs := f.account(t, uuid.New(), "Not yours")

	_, err := f.im.Parse(f.ctx, f.user, theirs.ID, strings.NewReader("Date,Description,Amount\n"))
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestParse_UnknownAccount(t *testing.T) {
	f := newFixture(t)
	_, err := f.im.Parse(f.ctx, f.user, uuid.New(), strings.NewReader("Date,Description,Amount\n"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCommit_CreatesImportedTransactions(t *testing.T) {
	f := newFixture(t)
	res := f.parse(t, f.acct, "Date,Description,Amount\n01/10/2025,NETFLIX.COM,-15.99\n")

	summary, err := f.im.Commit(f.ctx, f.user, f.acct.ID, res, Selection{})
	require.NoError(t, err)
	require.Len(t, summary.Created, 1)

	got, err := f.st.GetTransaction(f.ctx, summary.Created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, f.user, got.OwnerID)
	assert.Equal(t, f.acct.ID, got.AccountID)
	assert.Equal(t, "NETFLIX.COM", got.Merchant)
	assert.Equal(t, int64(1599), got.Amount)
	assert.Equal(t, "2025-01-10", got.Date.Format(model.DateFormat))
	assert.True(t, got.IsImported)
	assert.Equal(t, res.ImportCandidates[0].ReferenceNumber, got.ReferenceNumber)
}

func TestCommit_MatchSelectedUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	manual := f.manual(t, f.acct, "Coffee with Sam", 550, "2025-01-02")
	res := f.parse(t, f.acct, "Date,Description,Amount\n01/05/2025,CORNER CAFE,-5.50\n")
	require.Len(t, res.MatchCandidates, 1)

	summary, err := f.im.Commit(f.ctx, f.user, f.acct.ID, res, Selection{})
	require.NoError(t, err)
	assert.Len(t, summary.Matched, 1)
	assert.Empty(t, summary.Created)

	got, err := f.st.GetTransaction(f.ctx, manual.ID)
	require.NoError(t, err)
	assert.True(t, got.IsImported)
	assert.Equal(t, res.MatchCandidates[0].ReferenceNumber, got.ReferenceNumber)
	assert.Equal(t, "Coffee with Sam", got.Merchant)
	assert.Equal(t, int64(550), got.Amount)
	assert.True(t, manual.Date.Equal(got.Date))

	tot, err := f.st.Totals(f.ctx, store.Filter{OwnerID: f.user})
	require.NoError(t, err)
	assert.Equal(t, 1, tot.Count, "a match creates no new record")
}

func TestCommit_MatchDeselectedLeavesRecordAlone(t *testing.T) {
	f := newFixture(t)
	manual := f.manual(t, f.acct, "Coffee with Sam", 550, "2025-01-02")
	res := f.parse(t, f.acct, "Date,Description,Amount\n01/05/2025,CORNER CAFE,-5.50\n01/07/2025,BAKERY,-3.25\n")
	require.Len(t, res.MatchCandidates, 1)

	summary, err := f.im.Commit(f.ctx, f.user, f.acct.ID, res, Selection{Matches: []int{}})
	require.NoError(t, err)
	assert.Empty(t, summary.Matched)
	assert.Len(t, summary.Created, 1)

	got, err := f.st.GetTransaction(f.ctx, manual.ID)
	require.NoError(t, err)
	assert.Equal(t, manual, got)
}

func TestCommit_PartialImportSelection(t *testing.T) {
	f := newFixture(t)
	res := f.parse(t, f.acct, "Date,Description,Amount\n01/05/2025,A,-1.00\n01/06/2025,B,-2.00\n01/07/2025,C,-3.00\n")

	summary, err := f.im.Commit(f.ctx, f.user, f.acct.ID, res, Selection{Imports: []int{2, 0, 2}})
	require.NoError(t, err)
	require.Len(t, summary.Created, 2)
	assert.Equal(t, "C", summary.Created[0].Merchant)
	assert.Equal(t, "A", summary.Created[1].Merchant)

	// The unselected row is still importable.
	again := f.parse(t, f.acct, "Date,Description,Amount\n01/05/2025,A,-1.00\n01/06/2025,B,-2.00\n01/07/2025,C,-3.00\n")
	require.Len(t, again.ImportCandidates, 1)
	assert.Equal(t, "B", again.ImportCandidates[0].Merchant)
}

func TestCommit_InvalidSelection(t *testing.T) {
	f := newFixture(t)
	res := f.parse(t, f.acct, "Date,Description,Amount\n01/05/2025,A,-1.00\n")

	_, err := f.im.Commit(f.ctx, f.user, f.acct.ID, res, Selection{Imports: []int{0, 5}})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = f.im.Commit(f.ctx, f.user, f.acct.ID, res, Selection{Matches: []int{0}})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	tot, err := f.st.Totals(f.ctx, store.Filter{OwnerID: f.user})
	require.NoError(t, err)
	assert.Zero(t, tot.Count, "nothing written on a rejected commit")
}

func TestCommit_ForbiddenAccount(t *testing.T) {
	f := newFixture(t)
	res := f.parse(t, f.acct, "Date,Description,Amount\n01/05/2025,A,-1.00\n")

	intruder := uuid.New()
	_, err := f.im.Commit(f.ctx, intruder, f.acct.ID, res, Selection{})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	tot, err := f.st.Totals(f.ctx, store.Filter{OwnerID: intruder})
	require.NoError(t, err)
	assert.Zero(t, tot.Count)
}

func TestCommit_ForeignMatchRejectsWholeCommit(t *testing.T) {
	f := newFixture(t)
	stranger := uuid.New()
	theirs := f.account(t, stranger, "Theirs")
	foreign := f.manual(t, theirs, "Their coffee", 550, "2025-01-02")

	res := model.ParseResult{
		ImportCandidates: []model.ParsedRow{{Date: "2025-01-05", Merchant: "A", Amount: 100, ReferenceNumber: "r1"}},
		MatchCandidates:  []model.MatchCandidate{{TransactionID: foreign.ID, Amount: 550, ReferenceNumber: "r2"}},
	}
	_, err := f.im.Commit(f.ctx, f.user, f.acct.ID, res, Selection{})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	got, err := f.st.GetTransaction(f.ctx, foreign.ID)
	require.NoError(t, err)
	assert.False(t, got.IsImported)

	tot, err := f.st.Totals(f.ctx, store.Filter{OwnerID: f.user})
	require.NoError(t, err)
	assert.Zero(t, tot.Count)
}

func TestCommit_MatchFromOtherAccountRejected(t *testing.T) {
	f := newFixture(t)
	card := f.account(t, f.user, "Card")
	onCard := f.manual(t, card, "Cafe", 550, "2025-01-02")

	res := model.ParseResult{
		MatchCandidates: []model.MatchCandidate{{TransactionID: onCard.ID, Amount: 550, ReferenceNumber: "r"}},
	}
	_, err := f.im.Commit(f.ctx, f.user, f.acct.ID, res, Selection{})
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestCommit_PerCandidateFailuresAreJoined(t *testing.T) {
	f := newFixture(t)
	res := model.ParseResult{
		ImportCandidates: []model.ParsedRow{
			{Date: "not-a-date", Merchant: "Bad", Amount: 100, ReferenceNumber: "r1"},
			{Date: "2025-01-05", Merchant: "Good", Amount: 200, ReferenceNumber: "r2"},
		},
	}
	summary, err := f.im.Commit(f.ctx, f.user, f.acct.ID, res, Selection{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import 0")
	require.Len(t, summary.Created, 1)
	assert.Equal(t, "Good", summary.Created[0].Merchant)
}
