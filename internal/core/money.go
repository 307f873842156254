// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing signed statement amounts and for
// robust aggregation of amounts.
package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a statement amount to a decimal.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. When
// both appear the last one is the decimal separator and the other one groups
// thousands. A leading sign is kept: negative amounts are expenses.
//
// Examples:
//   ParseAmount("-12,34")    -> -12.34
//   ParseAmount("1.234,56")  -> 1234.56
//   ParseAmount("1,234.56")  -> 1234.56
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// MedianAmount returns the median of amounts, averaging the two middle
// values for even counts. It returns zero for an empty slice.
func MedianAmount(amounts []decimal.Decimal) decimal.Decimal {
	if len(amounts) == 0 {
		return decimal.Zero
	}
	sorted := append([]decimal.Decimal(nil), amounts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}
