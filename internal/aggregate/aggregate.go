// Package aggregate turns a record subset into chart-ready series.
package aggregate

import (
	"github.com/shopspring/decimal"

	"spendsmart/internal/core"
)

const (
	// DefaultDateLayout renders labels the way en-US toLocaleDateString does.
	DefaultDateLayout = "1/2/2006"

	// InvalidDateLabel buckets records whose date does not parse.
	InvalidDateLabel = "Invalid Date"
)

// Options tunes Summarize.
type Options struct {
	DateLayout string
}

// Summarize computes the time series, category series and total of records.
func Summarize(records []core.Expense, opts Options) core.Summary {
	return core.Summary{
		TimeSeries:     TimeSeries(records, opts.DateLayout),
		CategorySeries: CategorySeries(records),
		Total:          Total(records),
	}
}

// DateLabel renders the bar-chart label of a record date.
func DateLabel(e core.Expense, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	d, ok := e.ParsedDate()
	if !ok {
		return InvalidDateLabel
	}
	return d.Format(layout)
}

// TimeSeries sums amounts per date label in first-seen order.
func TimeSeries(records []core.Expense, layout string) []core.SeriesPoint {
	var acc orderedSums
	for _, e := range records {
		acc.add(DateLabel(e, layout), e.Amount)
	}
	out := make([]core.SeriesPoint, len(acc.keys))
	for i, k := range acc.keys {
		out[i] = core.SeriesPoint{Label: k, Value: acc.sums[i]}
	}
	return out
}

// CategorySeries sums amounts per exact category in first-seen order and
// colours each slice by its position.
func CategorySeries(records []core.Expense) []core.CategorySlice {
	var acc orderedSums
	for _, e := range records {
		acc.add(e.Category, e.Amount)
	}
	out := make([]core.CategorySlice, len(acc.keys))
	for i, k := range acc.keys {
		out[i] = core.CategorySlice{Name: k, Value: acc.sums[i], Color: PickColor(i)}
	}
	return out
}

// Total sums every amount.
func Total(records []core.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range records {
		total = total.Add(e.Amount)
	}
	return total
}

// orderedSums accumulates per-key totals and remembers insertion order.
type orderedSums struct {
	keys  []string
	sums  []decimal.Decimal
	index map[string]int
}

func (o *orderedSums) add(key string, amount decimal.Decimal) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	i, ok := o.index[key]
	if !ok {
		o.index[key] = len(o.keys)
		o.keys = append(o.keys, key)
		o.sums = append(o.sums, amount)
		return
	}
	o.sums[i] = o.sums[i].Add(amount)
}
