// Package importlog keeps an append-only CSV record of committed imports.
package importlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spendwise-dev/spendwise/internal/model"
)

// Actions recorded in the log.
const (
	ActionCreated = "created"
	ActionMatched = "matched"
)

// Entry is one row in the import log.
type Entry struct {
	Timestamp     time.Time
	UserID        uuid.UUID
	AccountID     uuid.UUID
	Action        string
	TransactionID uuid.UUID
	Merchant      string
	Amount        int64 // cents
	Reference     string
}

// Header is the CSV header for import-log.csv.
const Header = "timestamp,user_id,account_id,action,transaction_id,merchant,amount,reference_number"

// FileName is the log file inside the log directory.
const FileName = "import-log.csv"

const (
	numFields    = 8
	colTimestamp = 0
	colUser      = 1
	colAccount   = 2
	colAction    = 3
	colTxn       = 4
	colMerchant  = 5
	colAmount    = 6
	colRef       = 7
)

// FromCommit builds log entries for the records a commit created and matched.
func FromCommit(ts time.Time, user, account uuid.UUID, created, matched []model.Transaction) []Entry {
	entries := make([]Entry, 0, len(created)+len(matched))
	add := func(action string, txns []model.Transaction) {
		for _, t := range txns {
			entries = append(entries, Entry{
				Timestamp:     ts,
				UserID:        user,
				AccountID:     account,
				Action:        action,
				TransactionID: t.ID,
				Merchant:      t.Merchant,
				Amount:        t.Amount,
				Reference:     t.ReferenceNumber,
			})
		}
	}
	add(ActionCreated, created)
	add(ActionMatched, matched)
	return entries
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colUser] = e.UserID.String()
	row[colAccount] = e.AccountID.String()
	row[colAction] = e.Action
	row[colTxn] = e.TransactionID.String()
	row[colMerchant] = e.Merchant
	row[colAmount] = strconv.FormatInt(e.Amount, 10)
	row[colRef] = e.Reference
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	user, err := uuid.Parse(record[colUser])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing user_id %q: %w", record[colUser], err)
	}
	account, err := uuid.Parse(record[colAccount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing account_id %q: %w", record[colAccount], err)
	}
	txn, err := uuid.Parse(record[colTxn])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing transaction_id %q: %w", record[colTxn], err)
	}
	amount, err := strconv.ParseInt(record[colAmount], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return Entry{
		Timestamp:     ts,
		UserID:        user,
		AccountID:     account,
		Action:        record[colAction],
		TransactionID: txn,
		Merchant:      record[colMerchant],
		Amount:        amount,
		Reference:     record[colRef],
	}, nil
}

// Append writes entries to <dir>/import-log.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/import-log.csv.
// Returns nil if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
