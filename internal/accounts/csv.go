package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/spendwise-dev/spendwise/internal/model"
)

const (
	numFields  = 3
	colID      = 0
	colName    = 1
	colCreated = 2
)

// WriteAccounts writes accounts as CSV with a header row.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"account_id", "name", "created_at"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID.String()
	row[colName] = acct.Name
	row[colCreated] = acct.CreatedAt.UTC().Format(time.RFC3339)
	return row
}
