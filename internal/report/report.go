// Package report renders a filtered expense view as a terminal table,
// JSON, YAML or an XLSX workbook.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"spendsmart/internal/core"
)

// Format selects the report renderer.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatXLSX  Format = "xlsx"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatYAML, FormatXLSX}
}

// ParseFormat accepts a format name case-insensitively; "yml" is an alias.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatXLSX:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown report format %q, want one of %v", s, Formats())
	}
}

// Document is the serialisable content of a report.
type Document struct {
	Showing string         `json:"showing" yaml:"showing"`
	Records []core.Expense `json:"records" yaml:"records"`
	Summary core.Summary   `json:"summary" yaml:"summary"`
}

// NewDocument assembles a report over the filtered records.
func NewDocument(showing string, filtered []core.Expense, summary core.Summary) Document {
	if filtered == nil {
		filtered = []core.Expense{}
	}
	return Document{Showing: showing, Records: filtered, Summary: summary}
}

// Options tunes human-facing renderers.
type Options struct {
	Currency string
	// Color enables ANSI styling in tables.
	Color bool
}

// Write renders doc in format to w.
func Write(w io.Writer, format Format, doc Document, opts Options) error {
	switch format {
	case FormatTable:
		return WriteTable(w, doc, opts)
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatYAML:
		return WriteYAML(w, doc)
	case FormatXLSX:
		return WriteXLSX(w, doc, opts)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

// WriteYAML writes doc as YAML. Amounts are emitted as exact decimal
// strings.
func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}
