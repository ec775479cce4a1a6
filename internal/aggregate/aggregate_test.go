package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendsmart/internal/core"
	"spendsmart/internal/filter"
)

func expense(amount string, category, date string) core.Expense {
	return core.Expense{Amount: decimal.RequireFromString(amount), Category: category, Date: date}
}

func sumSeries(points []core.SeriesPoint) decimal.Decimal {
	total := decimal.Zero
	for _, p := range points {
		total = total.Add(p.Value)
	}
	return total
}

func sumSlices(slices []core.CategorySlice) decimal.Decimal {
	total := decimal.Zero
	for _, s := range slices {
		total = total.Add(s.Value)
	}
	return total
}

func TestJanuaryExample(t *testing.T) {
	records := []core.Expense{
		expense("100", "Food", "2024-01-05"),
		expense("50", "Food", "2024-01-05"),
		expense("200", "Travel", "2024-02-10"),
	}
	month := core.YearMonth{Year: 2024, Month: time.January}
	s := Summarize(filter.Apply(records, filter.Criteria{Month: &month}), Options{})

	if !s.Total.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("total = %s, want 150", s.Total)
	}
	if len(s.CategorySeries) != 1 || s.CategorySeries[0].Name != "Food" || !s.CategorySeries[0].Value.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected category series: %+v", s.CategorySeries)
	}
	if len(s.TimeSeries) != 1 || s.TimeSeries[0].Label != "1/5/2024" || !s.TimeSeries[0].Value.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected time series: %+v", s.TimeSeries)
	}
}

func TestSeriesKeepFirstSeenOrder(t *testing.T) {
	records := []core.Expense{
		expense("1", "Travel", "2024-03-01"),
		expense("2", "Food", "2024-01-01"),
		expense("3", "Travel", "2024-02-01"),
		expense("4", "Bills", "2024-01-01"),
	}

	ts := TimeSeries(records, "")
	wantLabels := []string{"3/1/2024", "1/1/2024", "2/1/2024"}
	if len(ts) != len(wantLabels) {
		t.Fatalf("unexpected time series: %+v", ts)
	}
	for i, want := range wantLabels {
		if ts[i].Label != want {
			t.Fatalf("label %d = %q, want %q (not chronological)", i, ts[i].Label, want)
		}
	}
	if !ts[1].Value.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("1/1/2024 bucket = %s, want 6", ts[1].Value)
	}

	cs := CategorySeries(records)
	wantNames := []string{"Travel", "Food", "Bills"}
	for i, want := range wantNames {
		if cs[i].Name != want {
			t.Fatalf("category %d = %q, want %q", i, cs[i].Name, want)
		}
		if cs[i].Color != PickColor(i) {
			t.Fatalf("category %d colour = %q", i, cs[i].Color)
		}
	}
	if !cs[0].Value.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("Travel = %s, want 4", cs[0].Value)
	}
}

func TestSeriesSumsEqualTotal(t *testing.T) {
	records := []core.Expense{
		expense("0.1", "a", "2024-01-01"),
		expense("0.2", "b", "2024-01-02"),
		expense("-5", "a", "2024-01-01"),
		expense("0", "Other", "garbage"),
		expense("1234.56", "c", "2024-01-02T10:00:00Z"),
	}
	s := Summarize(records, Options{DateLayout: "2006-01-02"})
	if !sumSeries(s.TimeSeries).Equal(s.Total) {
		t.Fatalf("time series sum %s != total %s", sumSeries(s.TimeSeries), s.Total)
	}
	if !sumSlices(s.CategorySeries).Equal(s.Total) {
		t.Fatalf("category series sum %s != total %s", sumSlices(s.CategorySeries), s.Total)
	}
	if !s.Total.Equal(decimal.RequireFromString("1229.86")) {
		t.Fatalf("total = %s", s.Total)
	}
}

func TestCategoriesAreCaseSensitive(t *testing.T) {
	cs := CategorySeries([]core.Expense{
		expense("1", "food", "2024-01-01"),
		expense("1", "Food", "2024-01-01"),
	})
	if len(cs) != 2 {
		t.Fatalf("expected two buckets, got %+v", cs)
	}
}

func TestInvalidDateBucket(t *testing.T) {
	ts := TimeSeries([]core.Expense{
		expense("2", "a", "nope"),
		expense("3", "a", ""),
	}, "")
	if len(ts) != 1 || ts[0].Label != InvalidDateLabel || !ts[0].Value.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected invalid-date bucket: %+v", ts)
	}
}

func TestBlankCategoryGroupsAsOther(t *testing.T) {
	in := core.ExpenseInput{Amount: decimal.NewFromInt(7), Category: "  ", Date: "2024-01-01"}.Normalize()
	records := []core.Expense{
		{Amount: in.Amount, Category: in.Category, Date: in.Date},
		expense("3", "Other", "2024-01-02"),
	}
	cs := CategorySeries(records)
	if len(cs) != 1 || cs[0].Name != core.DefaultCategory || !cs[0].Value.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected grouping: %+v", cs)
	}
}

func TestEmptyInput(t *testing.T) {
	s := Summarize(nil, Options{})
	if len(s.TimeSeries) != 0 || len(s.CategorySeries) != 0 || !s.Total.IsZero() {
		t.Fatalf("expected empty summary, got %+v", s)
	}
	if s.TimeSeries == nil || s.CategorySeries == nil {
		t.Fatalf("series should be empty slices so they encode as []")
	}
}

func TestPickColorCycles(t *testing.T) {
	if PickColor(0) != "#8B5CF6" || PickColor(5) != "#60A5FA" {
		t.Fatalf("unexpected palette order")
	}
	for i := 0; i < 50; i++ {
		if PickColor(i) != PickColor(i+6) {
			t.Fatalf("PickColor(%d) != PickColor(%d)", i, i+6)
		}
	}
	if PickColor(-1) != PickColor(5) {
		t.Fatalf("negative indexes wrap")
	}
}
