package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   Columns
	}{
		{
			name:   "chase checking",
			header: []string{"Details", "Posting Date", "Description", "Amount", "Type", "Balance", "Check or Slip #"},
			want:   Columns{Date: 1, Merchant: 2, Amount: 3, Reference: -1, Status: -1},
		},
		{
			name:   "chase card prefers transaction date and description",
			header: []string{"Transaction Date", "Post Date", "Description", "Category", "Type", "Amount", "Memo"},
			want:   Columns{Date: 0, Merchant: 2, Amount: 5, Reference: -1, Status: -1},
		},
		{
			name:   "debit column",
			header: []string{"Transaction Date", "Posted Date", "Card No.", "Description", "Category", "Debit", "Credit"},
			want:   Columns{Date: 0, Merchant: 3, Amount: 5, Reference: -1, Status: -1},
		},
		{
			name:   "reference and status",
			header: []string{"Transaction ID", "Status", "Date", "Payee", "Amount"},
			want:   Columns{Date: 2, Merchant: 3, Amount: 4, Reference: 0, Status: 1},
		},
		{
			name:   "case and whitespace",
			header: []string{"  DATE ", "Name", " Total", "Ref"},
			want:   Columns{Date: 0, Merchant: 1, Amount: 2, Reference: 3, Status: -1},
		},
		{
			name:   "bom on first header",
			header: []string{"\ufeffDate", "Description", "Amount"},
			want:   Columns{Date: 0, Merchant: 1, Amount: 2, Reference: -1, Status: -1},
		},
		{
			name:   "partial names do not match",
			header: []string{"Date of purchase", "Descriptions", "Amount (USD)"},
			want:   Columns{Date: -1, Merchant: -1, Amount: -1, Reference: -1, Status: -1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectColumns(tt.header))
		})
	}
}

func TestColumnsMissing(t *testing.T) {
	assert.Empty(t, Columns{Date: 0, Merchant: 1, Amount: 2}.Missing())
	assert.Equal(t, []string{"date"}, Columns{Date: -1, Merchant: 1, Amount: 2}.Missing())
	assert.Equal(t, []string{"description", "amount"}, Columns{Date: 0, Merchant: -1, Amount: -1}.Missing())
}

func TestColumnsMaxRequired(t *testing.T) {
	cols := Columns{Date: 2, Merchant: 0, Amount: 4, Reference: 9, Status: 7}
	assert.Equal(t, 4, cols.maxRequired(), "optional columns do not count")
}
