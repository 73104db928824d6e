package models

import (
	"time"
)

// Medicine is the only aggregate in the inventory: one row per stocked item.
type Medicine struct {
	ID        int64
	Name      MedicineName
	Brand     *string
	Dosage    *string
	Quantity  int
	ExpiresAt *Date
	Lot       *string
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMedicineParams carries the already-decoded create request.
type NewMedicineParams struct {
	Name      string
	Brand     *string
	Dosage    *string
	Quantity  *int
	ExpiresAt *Date
	Lot       *string
	Notes     *string
}

// NewMedicine validates p and returns an unsaved Medicine stamped with a
// single clock reading for both timestamps.
func NewMedicine(p NewMedicineParams, now time.Time) (*Medicine, error) {
	name, err := NewMedicineName(p.Name)
	if err != nil {
		return nil, err
	}

	m := &Medicine{
		Name:      name,
		Brand:     p.Brand,
		Dosage:    p.Dosage,
		ExpiresAt: p.ExpiresAt,
		Lot:       p.Lot,
		Notes:     p.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Quantity != nil {
		m.Quantity = *p.Quantity
	}
	if err := validateQuantity(m.Quantity); err != nil {
		return nil, err
	}
	return m, nil
}

// Now is the clock used for record timestamps: UTC at microsecond precision,
// which both stores round-trip exactly.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
