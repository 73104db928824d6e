// Package services contains stateless domain services for the medicine bounded context.
package services

import (
	"fmt"

	"github.com/ghuser/medshelf/services/medicine/domain"
	"github.com/ghuser/medshelf/services/medicine/domain/events"
	"github.com/ghuser/medshelf/services/medicine/domain/models"
)

// ValidateForCreation checks an aggregate built by models.NewMedicine
// before it is persisted.
func ValidateForCreation(m *models.Medicine) error {
	if m == nil {
		return fmt.Errorf("medicine cannot be nil")
	}
	if m.ID != 0 {
		return fmt.Errorf("id is assigned by the store, got %d", m.ID)
	}
	if _, err := models.NewMedicineName(m.Name.String()); err != nil {
		return err
	}
	if m.Quantity < 0 {
		return domain.Invalid("quantity", "quantity must be a non-negative integer")
	}
	if m.UpdatedAt.Before(m.CreatedAt) {
		return fmt.Errorf("updated_at precedes created_at")
	}
	return nil
}

// ValidatePatch rejects patches that change nothing or write invalid values.
func ValidatePatch(p models.Patch) error {
	if p.IsEmpty() {
		return domain.ErrNoFieldsToUpdate
	}
	return p.Validate()
}

// Snapshot converts a Medicine into its event payload.
func Snapshot(m *models.Medicine) *events.MedicineSnapshot {
	s := &events.MedicineSnapshot{
		ID:        m.ID,
		Name:      m.Name.String(),
		Brand:     m.Brand,
		Dosage:    m.Dosage,
		Quantity:  m.Quantity,
		Lot:       m.Lot,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.ExpiresAt != nil {
		d := m.ExpiresAt.String()
		s.ExpiresAt = &d
	}
	return s
}
