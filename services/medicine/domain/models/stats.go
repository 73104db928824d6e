package models

import "time"

const (
	// LowStockThreshold is the default quantity at or below which a medicine
	// counts as low stock.
	LowStockThreshold = 5
	// ExpiringSoonDays is the default look-ahead window for expiry. Already
	// expired medicines fall inside it.
	ExpiringSoonDays = 30
)

// Stats are the dashboard aggregates over a set of medicines.
type Stats struct {
	Total        int
	LowStock     int
	ExpiringSoon int
}

// StatsQuery scopes and parameterizes a Stats computation.
type StatsQuery struct {
	Search            string
	LowStockThreshold int
	Cutoff            Date
}

// ExpiringSoonCutoff returns the last calendar day that still counts as
// "expiring soon" when looking withinDays ahead of now.
func ExpiringSoonCutoff(now time.Time, withinDays int) Date {
	return DateOf(now).AddDays(withinDays)
}

// IsLowStock reports quantity <= threshold.
func (m *Medicine) IsLowStock(threshold int) bool {
	return m.Quantity <= threshold
}

// ExpiresBy reports whether the medicine has an expiry on or before cutoff.
func (m *Medicine) ExpiresBy(cutoff Date) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(cutoff)
}

// ComputeStats aggregates in memory using the same rules the store applies in SQL.
func ComputeStats(meds []*Medicine, q StatsQuery) Stats {
	s := Stats{Total: len(meds)}
	for _, m := range meds {
		if m.IsLowStock(q.LowStockThreshold) {
			s.LowStock++
		}
		if m.ExpiresBy(q.Cutoff) {
			s.ExpiringSoon++
		}
	}
	return s
}
