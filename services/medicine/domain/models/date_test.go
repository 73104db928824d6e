package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-12-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2026-12-31" {
		t.Fatalf("expected 2026-12-31, got %s", d)
	}

	for _, bad := range []string{"", "31/12/2026", "2026-13-01", "2026-02-30"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q): expected error", bad)
		}
	}
}

func TestDate_JSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2026-01-15"`), &d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `"2026-01-15"` {
		t.Fatalf("unexpected JSON: %s", b)
	}

	if err := json.Unmarshal([]byte(`"2026-01-15T10:30:00Z"`), &d); err != nil {
		t.Fatalf("RFC 3339 should be accepted: %v", err)
	}
	if d.String() != "2026-01-15" {
		t.Fatalf("expected date part, got %s", d)
	}

	if err := json.Unmarshal([]byte(`""`), &d); err != nil {
		t.Fatalf("empty string should decode: %v", err)
	}
	if !d.IsZero() {
		t.Fatalf("empty string should decode to the zero date, got %s", d)
	}

	if err := json.Unmarshal([]byte(`20260115`), &d); err == nil {
		t.Fatal("expected error for non-string date")
	}
	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestDate_Arithmetic(t *testing.T) {
	now := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	d := DateOf(now)

	if got := d.AddDays(1).String(); got != "2026-02-01" {
		t.Fatalf("AddDays(1): got %s", got)
	}
	if !d.Before(d.AddDays(1)) || !d.AddDays(1).After(d) {
		t.Fatal("ordering broken")
	}
	if (Date{}).IsZero() != true {
		t.Fatal("zero Date should report IsZero")
	}
}
