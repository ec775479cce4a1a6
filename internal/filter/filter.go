// Package filter narrows an expense list by day and month criteria.
//
// Filtering never mutates its input. Records whose date does not parse
// match no criterion, so they only show up in the unfiltered view.
package filter

import (
	"strings"

	"spendsmart/internal/core"
)

// AllLabel is the caption of the unfiltered view.
const AllLabel = "All"

// Criteria is the explicit filter state. Day and Month compose: when both
// are set a record must satisfy both.
type Criteria struct {
	Day   *core.Date
	Month *core.YearMonth
}

// ParseCriteria builds Criteria from "YYYY-MM-DD" and "YYYY-MM" inputs;
// blank strings leave the criterion unset.
func ParseCriteria(day, month string) (Criteria, error) {
	var c Criteria
	if strings.TrimSpace(day) != "" {
		d, err := core.ParseDate(day)
		if err != nil {
			return Criteria{}, err
		}
		c.Day = &d
	}
	if strings.TrimSpace(month) != "" {
		ym, err := core.ParseYearMonth(month)
		if err != nil {
			return Criteria{}, err
		}
		c.Month = &ym
	}
	return c, nil
}

// WithDay returns a copy with the day criterion replaced; nil clears it.
func (c Criteria) WithDay(day *core.Date) Criteria {
	if day != nil {
		d := *day
		day = &d
	}
	c.Day = day
	return c
}

// WithMonth returns a copy with the month criterion replaced; nil clears it.
func (c Criteria) WithMonth(month *core.YearMonth) Criteria {
	if month != nil {
		m := *month
		month = &m
	}
	c.Month = month
	return c
}

// Clear drops both criteria.
func (c Criteria) Clear() Criteria {
	return Criteria{}
}

func (c Criteria) IsZero() bool {
	return c.Day == nil && c.Month == nil
}

// Label is the "Showing:" caption: the day, else the month, else "All".
func (c Criteria) Label() string {
	switch {
	case c.Day != nil:
		return c.Day.String()
	case c.Month != nil:
		return c.Month.String()
	default:
		return AllLabel
	}
}

// Key is a stable string form for cache keys.
func (c Criteria) Key() string {
	var day, month string
	if c.Day != nil {
		day = c.Day.String()
	}
	if c.Month != nil {
		month = c.Month.String()
	}
	return "day=" + day + "&month=" + month
}

// Apply returns the records matching c. With no criteria the input slice
// itself is returned.
func Apply(records []core.Expense, c Criteria) []core.Expense {
	out := records
	if c.Day != nil {
		out = ByDay(out, *c.Day)
	}
	if c.Month != nil {
		out = ByMonth(out, *c.Month)
	}
	return out
}

// ByDay keeps records dated on the same calendar day as day.
func ByDay(records []core.Expense, day core.Date) []core.Expense {
	return keep(records, func(d core.Date) bool { return d.SameDay(day) })
}

// ByMonth keeps records dated within month.
func ByMonth(records []core.Expense, month core.YearMonth) []core.Expense {
	return keep(records, month.Contains)
}

func keep(records []core.Expense, match func(core.Date) bool) []core.Expense {
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		d, ok := e.ParsedDate()
		if !ok {
			continue
		}
		if match(d) {
			out = append(out, e)
		}
	}
	return out
}
