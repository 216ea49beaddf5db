package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spendwise-dev/spendwise/internal/model"
)

// Header is the CSV header for transaction exports.
const Header = "id,account_id,date,merchant,amount,category,imported,reference_number,note,created_at"

const (
	numFields   = 10
	colID       = 0
	colAcctID   = 1
	colDate     = 2
	colMerchant = 3
	colAmount   = 4
	colCategory = 5
	colImported = 6
	colRef      = 7
	colNote     = 8
	colCreated  = 9
)

// WriteTransactions writes txns with a header row.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = t.ID.String()
	row[colAcctID] = t.AccountID.String()
	row[colDate] = t.Date.Format(model.DateFormat)
	row[colMerchant] = t.Merchant
	row[colAmount] = model.FormatCents(t.Amount)
	row[colCategory] = t.Category.String()
	row[colImported] = strconv.FormatBool(t.IsImported)
	row[colRef] = t.ReferenceNumber
	row[colNote] = t.Note
	if !t.CreatedAt.IsZero() {
		row[colCreated] = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	return row
}
