package extract

import (
	"errors"
	"testing"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only whitespace", " \n\t\r\n ", ""},
		{"collapses spaces", "a   b\t\tc", "a b c"},
		{"collapses newlines", "line one\n\n\nline two", "line one line two"},
		{"trims", "\n  padded  \n", "padded"},
		{"unicode spaces", "a\u00a0\u00a0b", "a b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeText(tc.in); got != tc.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeText_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Hello   World\n\n\nSecond   paragraph\t end",
		"  leading and trailing  ",
		"already normalized text",
	}
	for _, in := range inputs {
		once := NormalizeText(in)
		if twice := NormalizeText(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("D:20240315123456-07'00'")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if s := got.Format(ISOLayout); s != "2024-03-15T12:34:56.000Z" {
		t.Errorf("got %s, want 2024-03-15T12:34:56.000Z", s)
	}
}

func TestParseDate_NoPrefix(t *testing.T) {
	got, err := ParseDate("20231201080910Z")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if s := got.Format(ISOLayout); s != "2023-12-01T08:09:10.000Z" {
		t.Errorf("got %s", s)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, raw := range []string{"", "D:", "D:2024", "D:20241399000000", "garbage-value-xx"} {
		if _, err := ParseDate(raw); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", raw, err)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	got := NormalizeDate("D:20240315123456-07'00'")
	if got == nil || *got != "2024-03-15T12:34:56.000Z" {
		t.Errorf("NormalizeDate = %v, want 2024-03-15T12:34:56.000Z", got)
	}

	for _, raw := range []string{"", "   ", "D:not-a-date"} {
		if got := NormalizeDate(raw); got != nil {
			t.Errorf("NormalizeDate(%q) = %q, want nil", raw, *got)
		}
	}
}
