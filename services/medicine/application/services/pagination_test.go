package services

import (
	"math"
	"testing"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name                   string
		page, pageSize         int
		wantPage, wantPageSize int
	}{
		{"defaults", 0, 0, 1, DefaultPageSize},
		{"passthrough", 3, 25, 3, 25},
		{"negative page", -4, 10, 1, 10},
		{"negative size clamps to one", 1, -5, 1, 1},
		{"oversize clamps to max", 2, 10000, 2, MaxPageSize},
		{"max is allowed", 1, MaxPageSize, 1, MaxPageSize},
		{"huge page capped", math.MaxInt, 10, MaxPage, 10},
		{"last page kept", MaxPage, MaxPageSize, MaxPage, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ps := NormalizePage(tt.page, tt.pageSize)
			if p != tt.wantPage || ps != tt.wantPageSize {
				t.Fatalf("NormalizePage(%d, %d) = (%d, %d), want (%d, %d)",
					tt.page, tt.pageSize, p, ps, tt.wantPage, tt.wantPageSize)
			}
			if offset := (p - 1) * ps; offset < 0 {
				t.Fatalf("offset %d overflowed for page %d", offset, p)
			}
		})
	}
}
