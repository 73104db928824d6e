package models

import (
	"testing"
	"time"
)

func TestComputeStats(t *testing.T) {
	now := time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)
	cutoff := ExpiringSoonCutoff(now, ExpiringSoonDays)
	if cutoff.String() != "2026-07-01" {
		t.Fatalf("cutoff: got %s", cutoff)
	}

	date := func(s string) *Date {
		d, err := ParseDate(s)
		if err != nil {
			t.Fatal(err)
		}
		return &d
	}

	meds := []*Medicine{
		{Name: "A", Quantity: 0},                                 // low
		{Name: "B", Quantity: 5, ExpiresAt: date("2026-07-01")},  // low + boundary expiry
		{Name: "C", Quantity: 6, ExpiresAt: date("2026-07-02")},  // neither
		{Name: "D", Quantity: 50, ExpiresAt: date("2025-01-01")}, // already expired
		{Name: "E", Quantity: 100},
	}

	got := ComputeStats(meds, StatsQuery{LowStockThreshold: LowStockThreshold, Cutoff: cutoff})
	want := Stats{Total: 5, LowStock: 2, ExpiringSoon: 2}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
