// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by users
// and formatting them for display.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// plainAmount is the only accepted syntax. Exponent forms such as 1e9 are
// rejected because they expand to arbitrarily many digits when rendered.
var plainAmount = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseAmount converts a user-entered amount to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional sign, in plain positional notation only. Zero and negative values are accepted; only empty or
// malformed input is rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-5")    -> -5, nil
//	ParseAmount("")      -> 0, ErrEmptyAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if !plainAmount.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals and the given symbol.
func FormatAmount(symbol string, d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + symbol + d.Neg().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}
