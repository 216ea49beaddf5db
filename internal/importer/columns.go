package importer

import "strings"

// Candidate header names per field, in priority order. Matching is exact on
// the lower-cased, trimmed header cell.
var (
	dateHeaders      = []string{"date", "transaction date", "posted date", "posting date", "post date"}
	merchantHeaders  = []string{"description", "merchant", "name", "memo", "payee", "transaction"}
	amountHeaders    = []string{"amount", "debit", "total", "charge"}
	referenceHeaders = []string{"reference number", "transaction id", "reference", "ref"}
	statusHeaders    = []string{"status"}
)

// Columns holds detected column indexes. Absent columns are -1.
type Columns struct {
	Date      int
	Merchant  int
	Amount    int
	Reference int
	Status    int
}

// DetectColumns finds each field's column in a header row.
func DetectColumns(header []string) Columns {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}
	return Columns{
		Date:      findColumn(norm, dateHeaders),
		Merchant:  findColumn(norm, merchantHeaders),
		Amount:    findColumn(norm, amountHeaders),
		Reference: findColumn(norm, referenceHeaders),
		Status:    findColumn(norm, statusHeaders),
	}
}

// findColumn returns the column of the highest-priority candidate present.
func findColumn(header, candidates []string) int {
	for _, c := range candidates {
		for i, h := range header {
			if h == c {
				return i
			}
		}
	}
	return -1
}

func normalizeHeader(h string) string {
	// Excel exports often prefix the first cell with a BOM.
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// Missing names the required fields that were not detected.
func (c Columns) Missing() []string {
	var missing []string
	if c.Date < 0 {
		missing = append(missing, "date")
	}
	if c.Merchant < 0 {
		missing = append(missing, "description")
	}
	if c.Amount < 0 {
		missing = append(missing, "amount")
	}
	return missing
}

// maxRequired is the highest index a row must reach to be usable.
func (c Columns) maxRequired() int {
	return max(c.Date, c.Merchant, c.Amount)
}
