package models

import (
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestNewMedicine(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("defaults quantity to zero and stamps both timestamps", func(t *testing.T) {
		m, err := NewMedicine(NewMedicineParams{Name: "Paracetamol"}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Quantity != 0 {
			t.Fatalf("expected quantity 0, got %d", m.Quantity)
		}
		if !m.CreatedAt.Equal(now) || !m.UpdatedAt.Equal(m.CreatedAt) {
			t.Fatalf("expected created_at == updated_at == now, got %v / %v", m.CreatedAt, m.UpdatedAt)
		}
		if m.ID != 0 {
			t.Fatal("id is assigned by the store")
		}
	})

	t.Run("copies optional fields", func(t *testing.T) {
		exp, _ := ParseDate("2027-01-01")
		m, err := NewMedicine(NewMedicineParams{
			Name:      "Ibuprofen",
			Brand:     ptr("Advil"),
			Quantity:  ptr(12),
			ExpiresAt: &exp,
		}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *m.Brand != "Advil" || m.Quantity != 12 || m.ExpiresAt.String() != "2027-01-01" {
			t.Fatalf("unexpected medicine: %+v", m)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := NewMedicine(NewMedicineParams{Name: " "}, now)
		if err == nil || err.Error() != "name is required" {
			t.Fatalf("expected 'name is required', got %v", err)
		}
	})

	t.Run("negative quantity", func(t *testing.T) {
		if _, err := NewMedicine(NewMedicineParams{Name: "X", Quantity: ptr(-1)}, now); err == nil {
			t.Fatal("expected error for negative quantity")
		}
	})
}

func TestNow_MicrosecondUTC(t *testing.T) {
	n := Now()
	if n.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", n.Location())
	}
	if n.Nanosecond()%1000 != 0 {
		t.Fatalf("expected microsecond precision, got %d ns", n.Nanosecond())
	}
}
