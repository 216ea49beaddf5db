package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseCents parses a user-entered amount like "12.34" or "$1,200" into cents.
func ParseCents(s string) (int64, error) {
	clean := strings.NewReplacer(",", "", "$", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	scaled := d.Mul(hundred)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than 2 decimal places", s)
	}
	return scaled.IntPart(), nil
}

// FormatCents renders cents as a fixed two-decimal string.
// 123456 -> "1234.56"
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
