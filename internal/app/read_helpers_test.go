package app

import (
	"testing"
	"time"
)

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "table", "JSON", " json "} {
		if _, err := parseOutputFormat(raw); err != nil {
			t.Errorf("parseOutputFormat(%q) returned error: %v", raw, err)
		}
	}
	if _, err := parseOutputFormat("yaml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseUTCDate(t *testing.T) {
	t.Parallel()

	day, err := parseUTCDate("2026-08-29")
	if err != nil {
		t.Fatalf("parseUTCDate: %v", err)
	}
	want := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	if !day.Equal(want) {
		t.Fatalf("expected %v, got %v", want, day)
	}

	if _, err := parseUTCDate("29/08/2026"); err == nil {
		t.Error("expected error for malformed date")
	}

	today, err := parseUTCDate("")
	if err != nil {
		t.Fatalf("parseUTCDate empty: %v", err)
	}
	if today.Hour() != 0 || today.Location() != time.UTC {
		t.Fatalf("expected UTC midnight, got %v", today)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := truncate("a very long headline indeed", 10); got != "a very ..." {
		t.Errorf("unexpected truncation: %q", got)
	}
}

func TestSplitCommaList(t *testing.T) {
	t.Parallel()

	got := splitCommaList(" ad fraud , malvertising ,, ")
	if len(got) != 2 || got[0] != "ad fraud" || got[1] != "malvertising" {
		t.Fatalf("unexpected split: %v", got)
	}
}
