package model

import (
	"time"

	"github.com/google/uuid"
)

// DateFormat is the ISO layout used for parsed rows and CSV exports.
const DateFormat = "2006-01-02"

// Transaction is a persisted expense. Amount is always positive, in cents.
type Transaction struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	AccountID       uuid.UUID
	Merchant        string
	Amount          int64 // cents
	Date            time.Time
	Category        Category
	IsImported      bool
	ReferenceNumber string // empty for manual entries not yet matched
	Note            string
	CreatedAt       time.Time
}

// ParsedRow is one importable CSV row, not yet persisted.
type ParsedRow struct {
	Date            string // YYYY-MM-DD
	Merchant        string
	Amount          int64 // cents, always positive
	Category        Category
	ReferenceNumber string
}

// MatchCandidate pairs an unreconciled manual transaction with a CSV row of
// the same amount.
type MatchCandidate struct {
	TransactionID   uuid.UUID
	ManualMerchant  string
	ManualDate      string
	Amount          int64
	ImportMerchant  string
	ImportDate      string
	ReferenceNumber string
}

// ParseResult is the output of parsing one CSV file against an account.
type ParseResult struct {
	ImportCandidates []ParsedRow
	MatchCandidates  []MatchCandidate
	Feedback         string
}

// Empty reports whether nothing in the result can be committed.
func (r ParseResult) Empty() bool {
	return len(r.ImportCandidates) == 0 && len(r.MatchCandidates) == 0
}
