package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-05", "2024-01-05", true},
		{" 2024-01-05 ", "2024-01-05", true},
		{"2024-01-05T23:30:00Z", "2024-01-05", true},
		{"2024-01-05T23:30:00-05:00", "2024-01-05", true},
		{"2024-01-05T08:15:00", "2024-01-05", true},
		{"2024/01/05", "2024-01-05", true},
		{"1/5/2024", "2024-01-05", true},
		{"January 5, 2024", "2024-01-05", true},
		{"Jan 5, 2024", "2024-01-05", true},
		{"Fri Jan 05 2024", "2024-01-05", true},
		{"", "", false},
		{"garbage", "", false},
		{"2024-13-01", "", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || d.String() != tc.want {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, d, err)
		}
	}
}

func TestDateSameDay(t *testing.T) {
	a := NewDate(2024, 1, 5)
	b, _ := ParseDate("2024-01-05T22:00:00Z")
	if !a.SameDay(b) {
		t.Fatalf("expected same day")
	}
	if a.SameDay(NewDate(2023, 1, 5)) {
		t.Fatalf("different year must not match")
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}

func TestParseYearMonth(t *testing.T) {
	ym, err := ParseYearMonth("2024-01")
	if err != nil || ym.Year != 2024 || ym.Month != time.January {
		t.Fatalf("unexpected %v %v", ym, err)
	}
	if ym.String() != "2024-01" {
		t.Fatalf("String() = %q", ym.String())
	}
	for _, bad := range []string{"", "2024", "2024-13", "2024-00", "abcd-01", "2024-xx"} {
		if _, err := ParseYearMonth(bad); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("%q expected ErrInvalidMonth, got %v", bad, err)
		}
	}
}

func TestYearMonthContains(t *testing.T) {
	ym := YearMonth{Year: 2024, Month: time.February}
	if !ym.Contains(NewDate(2024, 2, 29)) {
		t.Fatalf("expected leap day inside February 2024")
	}
	if ym.Contains(NewDate(2023, 2, 1)) || ym.Contains(NewDate(2024, 3, 1)) {
		t.Fatalf("unexpected containment")
	}
	if NewDate(2024, 2, 10).YearMonth() != ym {
		t.Fatalf("YearMonth() mismatch")
	}
}
