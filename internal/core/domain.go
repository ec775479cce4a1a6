package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCategory replaces a blank category when a record is created.
const DefaultCategory = "Other"

type (
	// Expense is a single recorded spending entry. Date keeps the value
	// exactly as supplied; use ParsedDate for calendar comparisons.
	Expense struct {
		ID       string          `json:"id" yaml:"id"`
		Amount   decimal.Decimal `json:"amount" yaml:"amount"`
		Category string          `json:"category" yaml:"category"`
		Note     string          `json:"note" yaml:"note"`
		Date     string          `json:"date" yaml:"date"`
	}

	// ExpenseInput is what a caller supplies to create an Expense; the
	// store assigns the ID.
	ExpenseInput struct {
		Amount   decimal.Decimal
		Category string
		Note     string
		Date     string
	}
)

var (
	ErrEmptyAmount   = errors.New("empty amount")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidMonth  = errors.New("invalid month")
)

func init() {
	// Amounts travel as JSON numbers in the persisted payload and the API.
	decimal.MarshalJSONWithoutQuotes = true
}

// NormalizeCategory trims the label and falls back to DefaultCategory.
func NormalizeCategory(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return DefaultCategory
}

// Normalize applies the creation-time rules: category is trimmed (blank
// becomes "Other") and the note is trimmed.
func (in ExpenseInput) Normalize() ExpenseInput {
	in.Category = NormalizeCategory(in.Category)
	in.Note = strings.TrimSpace(in.Note)
	return in
}

// ParsedDate parses the stored date. ok is false for values that would be
// an "Invalid Date".
func (e Expense) ParsedDate() (Date, bool) {
	d, err := ParseDate(e.Date)
	if err != nil {
		return Date{}, false
	}
	return d, true
}
