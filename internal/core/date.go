package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISODate is the preferred storage layout for Expense.Date.
const ISODate = "2006-01-02"

type (
	// Date is a calendar day held as UTC midnight.
	Date struct {
		time.Time
	}

	// YearMonth identifies a calendar month.
	YearMonth struct {
		Year  int
		Month time.Month
	}
)

// dayLayouts are tried in order. Layouts carrying a time of day keep the
// calendar date in the offset they were written in.
var dayLayouts = []string{
	ISODate,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current local calendar day.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate accepts the date forms users and older payloads produce.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dayLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// SameDay reports whether both dates fall on the same calendar day.
func (d Date) SameDay(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month() && d.Day() == other.Day()
}

// YearMonth returns the month the date falls in.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: time.Month(d.Month())}
}

func (d Date) String() string {
	return d.Format(ISODate)
}

// ParseYearMonth parses the "YYYY-MM" form produced by month pickers.
func ParseYearMonth(s string) (YearMonth, error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	ym := YearMonth{Year: year, Month: time.Month(month)}
	if err := ym.Validate(); err != nil {
		return YearMonth{}, err
	}
	return ym, nil
}

func (ym YearMonth) Validate() error {
	if ym.Month < time.January || ym.Month > time.December {
		return ErrInvalidMonth
	}
	if ym.Year < 1 || ym.Year > 9999 {
		return ErrInvalidMonth
	}
	return nil
}

// Contains reports whether d falls within the month.
func (ym YearMonth) Contains(d Date) bool {
	return d.Year() == ym.Year && d.Month() == int(ym.Month)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}
