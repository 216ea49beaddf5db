package importer

import (
	"github.com/spendwise-dev/spendwise/internal/model"
)

// pool is the working set of an account's unimported manual transactions
// during one parse. Each entry can be matched at most once.
type pool struct {
	entries []model.Transaction
}

func newPool(txns []model.Transaction) *pool {
	return &pool{entries: append([]model.Transaction(nil), txns...)}
}

// take removes and returns the first entry with exactly this amount.
func (p *pool) take(amount int64) (model.Transaction, bool) {
	for i, t := range p.entries {
		if t.Amount == amount {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return t, true
		}
	}
	return model.Transaction{}, false
}

func (p *pool) len() int {
	return len(p.entries)
}

// reconcile splits rows into match candidates and import candidates. Amount
// is the only key; merchant and date often differ between what the user
// typed and what the bank reports.
func reconcile(rows []model.ParsedRow, p *pool) ([]model.MatchCandidate, []model.ParsedRow) {
	var matches []model.MatchCandidate
	var imports []model.ParsedRow
	for _, row := range rows {
		manual, ok := p.take(row.Amount)
		if !ok {
			imports = append(imports, row)
			continue
		}
		matches = append(matches, model.MatchCandidate{
			TransactionID:   manual.ID,
			ManualMerchant:  manual.Merchant,
			ManualDate:      manual.Date.Format(model.DateFormat),
			Amount:          row.Amount,
			ImportMerchant:  row.Merchant,
			ImportDate:      row.Date,
			ReferenceNumber: row.ReferenceNumber,
		})
	}
	return matches, imports
}
