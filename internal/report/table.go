package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"spendsmart/internal/core"
)

// WriteTable prints the records, the per-date series and the per-category
// series as three tables.
func WriteTable(w io.Writer, doc Document, opts Options) error {
	bold := func(s string) string {
		if opts.Color {
			return text.Bold.Sprint(s)
		}
		return s
	}
	money := func(d decimal.Decimal) string { return core.FormatAmount(opts.Currency, d) }
	total := bold(money(doc.Summary.Total))

	records := newTable(w, "Showing: "+doc.Showing)
	records.AppendHeader(table.Row{"Date", "Category", "Note", "Amount"})
	for _, e := range doc.Records {
		records.AppendRow(table.Row{e.Date, e.Category, e.Note, money(e.Amount)})
	}
	records.AppendFooter(table.Row{"", "", bold("Total"), total})
	records.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight}})
	records.Render()

	byDate := newTable(w, "By Date")
	byDate.AppendHeader(table.Row{"Date", "Amount"})
	for _, p := range doc.Summary.TimeSeries {
		byDate.AppendRow(table.Row{p.Label, money(p.Value)})
	}
	byDate.AppendFooter(table.Row{bold("Total"), total})
	byDate.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight}})
	byDate.Render()

	byCategory := newTable(w, "By Category")
	byCategory.AppendHeader(table.Row{"Category", "Color", "Share", "Amount"})
	for _, s := range doc.Summary.CategorySeries {
		byCategory.AppendRow(table.Row{s.Name, s.Color, share(s.Value, doc.Summary.Total), money(s.Value)})
	}
	byCategory.AppendFooter(table.Row{bold("Total"), "", "", total})
	byCategory.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	byCategory.Render()
	return nil
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// share renders part as a percentage of whole, or "-" when whole is zero.
func share(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return "-"
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}
