package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetExpenses   = "Expenses"
	sheetByDate     = "By Date"
	sheetByCategory = "By Category"
)

// WriteXLSX writes doc as a workbook with one sheet for the records and
// one per series.
func WriteXLSX(w io.Writer, doc Document, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetExpenses); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetByDate, sheetByCategory} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#7C3AED"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	moneyFmt := "#,##0.00"
	if opts.Currency != "" {
		moneyFmt = `"` + strings.ReplaceAll(opts.Currency, `"`, `""`) + `"#,##0.00`
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("total style: %w", err)
	}

	sw := sheetWriter{f: f, headerStyle: headerStyle, moneyStyle: moneyStyle, totalStyle: totalStyle}

	// Expenses
	sw.header(sheetExpenses, "Date", "Category", "Note", "Amount")
	for i, e := range doc.Records {
		row := i + 2
		sw.set(sheetExpenses, "A", row, e.Date)
		sw.set(sheetExpenses, "B", row, e.Category)
		sw.set(sheetExpenses, "C", row, e.Note)
		sw.amount(sheetExpenses, "D", row, e.Amount, sw.moneyStyle)
	}
	sw.totalRow(sheetExpenses, "C", "D", len(doc.Records)+2, doc.Summary.Total)
	sw.widths(sheetExpenses, map[string]float64{"A": 14, "B": 18, "C": 36, "D": 14})

	// By Date
	sw.header(sheetByDate, "Date", "Amount")
	for i, p := range doc.Summary.TimeSeries {
		sw.set(sheetByDate, "A", i+2, p.Label)
		sw.amount(sheetByDate, "B", i+2, p.Value, sw.moneyStyle)
	}
	sw.totalRow(sheetByDate, "A", "B", len(doc.Summary.TimeSeries)+2, doc.Summary.Total)
	sw.widths(sheetByDate, map[string]float64{"A": 14, "B": 14})

	// By Category, each name cell tinted with its chart colour
	sw.header(sheetByCategory, "Category", "Color", "Amount")
	for i, s := range doc.Summary.CategorySeries {
		row := i + 2
		sw.set(sheetByCategory, "A", row, s.Name)
		sw.set(sheetByCategory, "B", row, s.Color)
		sw.amount(sheetByCategory, "C", row, s.Value, sw.moneyStyle)
		if style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{s.Color}, Pattern: 1},
		}); err == nil {
			cell := fmt.Sprintf("B%d", row)
			sw.err = firstErr(sw.err, f.SetCellStyle(sheetByCategory, cell, cell, style))
		}
	}
	sw.totalRow(sheetByCategory, "A", "C", len(doc.Summary.CategorySeries)+2, doc.Summary.Total)
	sw.widths(sheetByCategory, map[string]float64{"A": 18, "B": 12, "C": 14})

	if sw.err != nil {
		return fmt.Errorf("build workbook: %w", sw.err)
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first cell error so the layout code stays flat.
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	moneyStyle  int
	totalStyle  int
	err         error
}

func (s *sheetWriter) set(sheet, col string, row int, v any) {
	s.err = firstErr(s.err, s.f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v))
}

func (s *sheetWriter) amount(sheet, col string, row int, d decimal.Decimal, style int) {
	cell := fmt.Sprintf("%s%d", col, row)
	s.err = firstErr(s.err, s.f.SetCellValue(sheet, cell, d.InexactFloat64()))
	s.err = firstErr(s.err, s.f.SetCellStyle(sheet, cell, cell, style))
}

func (s *sheetWriter) header(sheet string, titles ...string) {
	for i, title := range titles {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			s.err = firstErr(s.err, err)
			return
		}
		s.err = firstErr(s.err, s.f.SetCellValue(sheet, cell, title))
	}
	last, _ := excelize.CoordinatesToCellName(len(titles), 1)
	s.err = firstErr(s.err, s.f.SetCellStyle(sheet, "A1", last, s.headerStyle))
}

func (s *sheetWriter) totalRow(sheet, labelCol, amountCol string, row int, total decimal.Decimal) {
	s.set(sheet, labelCol, row, "Total")
	s.amount(sheet, amountCol, row, total, s.totalStyle)
}

func (s *sheetWriter) widths(sheet string, cols map[string]float64) {
	for col, width := range cols {
		s.err = firstErr(s.err, s.f.SetColWidth(sheet, col, col, width))
	}
}

func firstErr(current, next error) error {
	if current != nil {
		return current
	}
	return next
}
