package core

import "github.com/shopspring/decimal"

// SeriesPoint is one bar of the time series.
type SeriesPoint struct {
	Label string          `json:"label" yaml:"label"`
	Value decimal.Decimal `json:"value" yaml:"value"`
}

// CategorySlice is one segment of the category series.
type CategorySlice struct {
	Name  string          `json:"name" yaml:"name"`
	Value decimal.Decimal `json:"value" yaml:"value"`
	Color string          `json:"color" yaml:"color"`
}

// Summary is the chart-ready view of a record subset. Total reflects the
// subset it was computed from, whatever filter produced it.
type Summary struct {
	TimeSeries     []SeriesPoint   `json:"timeSeries" yaml:"timeSeries"`
	CategorySeries []CategorySlice `json:"categorySeries" yaml:"categorySeries"`
	Total          decimal.Decimal `json:"total" yaml:"total"`
}
