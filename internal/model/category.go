package model

import (
	"fmt"
	"strings"
)

// Category is a spending plan bucket.
type Category string

const (
	CategoryUncategorized Category = "uncategorized"
	CategoryFixedCosts    Category = "fixed_costs"
	CategorySavings       Category = "savings"
	CategoryInvestments   Category = "investments"
	CategoryGuiltFree     Category = "guilt_free"
	CategoryIncome        Category = "income"
)

// Categories lists every known category, uncategorized first.
var Categories = []Category{
	CategoryUncategorized,
	CategoryFixedCosts,
	CategorySavings,
	CategoryInvestments,
	CategoryGuiltFree,
	CategoryIncome,
}

// ParseCategory validates s. The empty string maps to CategoryUncategorized.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryUncategorized, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return CategoryUncategorized, fmt.Errorf("unknown category %q", s)
}

// IsCategorized reports whether c is a real bucket.
func (c Category) IsCategorized() bool {
	return c != "" && c != CategoryUncategorized
}

func (c Category) String() string {
	if c == "" {
		return string(CategoryUncategorized)
	}
	return string(c)
}
