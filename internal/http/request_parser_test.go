package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"spendsmart/internal/core"
)

func fixedToday() string { return "2024-03-01" }

func newBodyRequest(body, contentType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func TestParseExpenseInput(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        core.ExpenseInput
		wantErr     error
	}{
		{
			name: "json number amount",
			body: `{"amount": 12.50, "category": "Food", "note": " lunch ", "date": "2024-01-05"}`,
			want: core.ExpenseInput{Amount: decimal.RequireFromString("12.5"), Category: "Food", Note: " lunch ", Date: "2024-01-05"},
		},
		{
			name: "json string amount with comma",
			body: `{"amount": "7,25", "category": "Bills"}`,
			want: core.ExpenseInput{Amount: decimal.RequireFromString("7.25"), Category: "Bills", Date: "2024-03-01"},
		},
		{
			name:        "form body",
			body:        "amount=3&category=Travel&date=2024-02-10",
			contentType: "application/x-www-form-urlencoded",
			want:        core.ExpenseInput{Amount: decimal.NewFromInt(3), Category: "Travel", Date: "2024-02-10"},
		},
		{
			name: "whitespace category passes",
			body: `{"amount": 1, "category": "   "}`,
			want: core.ExpenseInput{Amount: decimal.NewFromInt(1), Category: "   ", Date: "2024-03-01"},
		},
		{
			name: "zero amount accepted",
			body: `{"amount": 0, "category": "Misc"}`,
			want: core.ExpenseInput{Amount: decimal.Zero, Category: "Misc", Date: "2024-03-01"},
		},
		{name: "missing amount", body: `{"category": "Food"}`, wantErr: core.ErrEmptyAmount},
		{name: "missing category", body: `{"amount": 5}`, wantErr: core.ErrEmptyCategory},
		{name: "empty category", body: `amount=5&category=`, wantErr: core.ErrEmptyCategory},
		{name: "bad amount", body: `{"amount": "ten", "category": "Food"}`, wantErr: core.ErrInvalidAmount},
		{name: "bad date", body: `{"amount": 1, "category": "Food", "date": "soon"}`, wantErr: core.ErrInvalidDate},
		{name: "empty body", body: ``, wantErr: core.ErrEmptyAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExpenseInput(newBodyRequest(tt.body, tt.contentType), fixedToday)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Amount.Equal(tt.want.Amount) || got.Category != tt.want.Category || got.Note != tt.want.Note || got.Date != tt.want.Date {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseExpenseInput_MalformedJSON(t *testing.T) {
	_, err := parseExpenseInput(newBodyRequest(`{"amount": `, "application/json"), fixedToday)
	if err == nil || !strings.Contains(err.Error(), "invalid JSON body") {
		t.Fatalf("expected JSON error, got %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("a\x00b\tc\n"); got != "ab\tc\n" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}

func TestParseCriteria(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/expenses?day=2024-01-05&month=2024-01", nil)
	c, err := parseCriteria(req)
	if err != nil || c.Day == nil || c.Month == nil {
		t.Fatalf("parseCriteria() = %+v, %v", c, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/expenses?month=2024-13", nil)
	if _, err := parseCriteria(req); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}
