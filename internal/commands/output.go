package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/spendwise-dev/spendwise/internal/model"
)

var (
	dateColor     = color.New(color.FgYellow)
	amountColor   = color.New(color.FgRed)
	categoryColor = color.New(color.FgGreen)
	headingColor  = color.New(color.Bold, color.Underline)
	warnColor     = color.New(color.FgYellow, color.Bold)
)

func printTransactions(w io.Writer, txns []model.Transaction) {
	for _, t := range txns {
		state := "manual"
		if t.IsImported {
			state = "imported"
		}
		fmt.Fprintf(w, "%s  %s  %-32s %s  %s  %s\n",
			t.ID,
			dateColor.Sprint(t.Date.Format(model.DateFormat)),
			t.Merchant,
			amountColor.Sprintf("%10s", model.FormatCents(t.Amount)),
			categoryColor.Sprintf("%-13s", t.Category),
			state,
		)
	}
}

func printImportCandidates(w io.Writer, rows []model.ParsedRow) {
	for i, r := range rows {
		fmt.Fprintf(w, "%4d  %s  %-32s %s  %s\n",
			i,
			dateColor.Sprint(r.Date),
			r.Merchant,
			amountColor.Sprintf("%10s", model.FormatCents(r.Amount)),
			categoryColor.Sprint(r.Category),
		)
	}
}

func printMatchCandidates(w io.Writer, matches []model.MatchCandidate) {
	for i, m := range matches {
		fmt.Fprintf(w, "%4d  %s  %s %s  <->  %s %s\n",
			i,
			amountColor.Sprintf("%10s", model.FormatCents(m.Amount)),
			dateColor.Sprint(m.ManualDate),
			m.ManualMerchant,
			dateColor.Sprint(m.ImportDate),
			m.ImportMerchant,
		)
	}
}

func printParseResult(w io.Writer, res model.ParseResult) {
	if res.Feedback != "" {
		warnColor.Fprintln(w, res.Feedback)
	}
	if len(res.MatchCandidates) > 0 {
		headingColor.Fprintf(w, "Matches (%d)\n", len(res.MatchCandidates))
		printMatchCandidates(w, res.MatchCandidates)
	}
	if len(res.ImportCandidates) > 0 {
		headingColor.Fprintf(w, "New transactions (%d)\n", len(res.ImportCandidates))
		printImportCandidates(w, res.ImportCandidates)
	}
}
