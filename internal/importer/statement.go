package importer

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/spendwise-dev/spendwise/internal/model"
)

// rawRow is a data row that survived the structural filters of the first pass.
// Amount keeps the file's sign.
type rawRow struct {
	line      int // 1-based CSV record number, header is 1
	date      string
	merchant  string
	amount    decimal.Decimal
	reference string
}

// statement is the immutable output of the first pass.
type statement struct {
	rows        []rawRow
	dataRows    int // data rows before any filtering
	hasNegative bool
}

var (
	hundred        = decimal.NewFromInt(100)
	amountReplacer = strings.NewReplacer(",", "", "$", "", " ", "")
)

// scanStatement is the first pass: it drops truncated and non-cleared rows,
// parses amounts, assigns reference numbers and records whether any amount in
// the file is negative.
func scanStatement(records [][]string, cols Columns) statement {
	st := statement{dataRows: len(records)}
	refs := newReferencer()
	need := cols.maxRequired()

	for i, rec := range records {
		ref := refs.assign(rec, cols)

		if len(rec) <= need {
			continue
		}
		if cols.Status >= 0 && cols.Status < len(rec) {
			if strings.ToLower(strings.TrimSpace(rec[cols.Status])) != "cleared" {
				continue
			}
		}

		amount := parseAmount(rec[cols.Amount])
		if amount.IsNegative() {
			st.hasNegative = true
		}
		st.rows = append(st.rows, rawRow{
			line:      i + 2,
			date:      rec[cols.Date],
			merchant:  strings.TrimSpace(rec[cols.Merchant]),
			amount:    amount,
			reference: ref,
		})
	}
	return st
}

// parseAmount strips currency formatting. Unparseable text is zero.
func parseAmount(cell string) decimal.Decimal {
	d, err := decimal.NewFromString(amountReplacer.Replace(cell))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// normalize is the second pass. In a file with any negative amount, positive
// rows are credits and are dropped. Survivors become positive cents; zero
// amounts and unparseable dates are dropped.
func normalize(st statement) []parsedRow {
	var out []parsedRow
	for _, r := range st.rows {
		if st.hasNegative && r.amount.IsPositive() {
			continue
		}
		cents := r.amount.Abs().Mul(hundred).Round(0).IntPart()
		if cents == 0 {
			continue
		}
		date, ok := parseDate(r.date)
		if !ok {
			continue
		}
		out = append(out, parsedRow{
			line: r.line,
			row: model.ParsedRow{
				Date:            date,
				Merchant:        r.merchant,
				Amount:          cents,
				Category:        model.CategoryUncategorized,
				ReferenceNumber: r.reference,
			},
		})
	}
	return out
}

type parsedRow struct {
	line int
	row  model.ParsedRow
}

// parseDate accepts the common bank formats (1/3/2025, 2025-01-03,
// Jan 3 2025, ...) and returns YYYY-MM-DD.
func parseDate(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return "", false
	}
	t, err := dateparse.ParseIn(cell, time.UTC)
	if err != nil {
		return "", false
	}
	return t.Format(model.DateFormat), true
}
