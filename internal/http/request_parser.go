package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"spendsmart/internal/core"
	"spendsmart/internal/filter"
)

// parseCriteria reads the day and month query parameters.
func parseCriteria(r *http.Request) (filter.Criteria, error) {
	q := r.URL.Query()
	return filter.ParseCriteria(q.Get("day"), q.Get("month"))
}

// parseExpenseInput reads an expense from a JSON or form body. Amount and
// category must be present; a category of only spaces is accepted and
// later stored as "Other". A missing date becomes today().
func parseExpenseInput(r *http.Request, today func() string) (core.ExpenseInput, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return core.ExpenseInput{}, err
	}

	rawAmount := p.GetRaw("amount")
	if rawAmount == "" {
		return core.ExpenseInput{}, core.ErrEmptyAmount
	}
	if p.GetRaw("category") == "" {
		return core.ExpenseInput{}, core.ErrEmptyCategory
	}
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return core.ExpenseInput{}, err
	}

	date := p.Get("date")
	if date == "" {
		date = today()
	} else if _, err := core.ParseDate(date); err != nil {
		return core.ExpenseInput{}, err
	}

	return core.ExpenseInput{
		Amount:   amount,
		Category: p.GetRaw("category"),
		Note:     p.GetRaw("note"),
		Date:     date,
	}, nil
}

// RequestBodyParser handles JSON and form-encoded request bodies.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once and keeps it for Parse.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(r.Body)
	}
	return p
}

// Parse decodes the body as JSON when it looks like JSON, otherwise as a
// form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(body))
	if p.err != nil {
		p.err = fmt.Errorf("invalid form body: %w", p.err)
	}
	return p.err
}

// Get returns a trimmed, sanitized value.
func (p *RequestBodyParser) Get(key string) string {
	return strings.TrimSpace(p.GetRaw(key))
}

// GetRaw returns the sanitized value without trimming.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
