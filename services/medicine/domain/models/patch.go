package models

import (
	"time"

	"github.com/ghuser/medshelf/services/medicine/domain"
)

// Field is a nullable column in a Patch. Set=false leaves the column alone;
// Set=true with a nil Value clears it.
type Field[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Field that writes v.
func SetTo[T any](v T) Field[T] { return Field[T]{Set: true, Value: &v} }

// Clear returns a Field that writes NULL.
func Clear[T any]() Field[T] { return Field[T]{Set: true} }

func (f Field[T]) apply(dst **T) {
	if f.Set {
		*dst = f.Value
	}
}

// Patch lists the columns an update touches. Name and Quantity are not
// nullable, so they are plain pointers: nil means "leave alone".
type Patch struct {
	Name      *MedicineName
	Brand     Field[string]
	Dosage    Field[string]
	Quantity  *int
	ExpiresAt Field[Date]
	Lot       Field[string]
	Notes     Field[string]
}

// IsEmpty reports whether the patch touches no column.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Quantity == nil &&
		!p.Brand.Set && !p.Dosage.Set && !p.ExpiresAt.Set && !p.Lot.Set && !p.Notes.Set
}

// Validate checks the values being written.
func (p Patch) Validate() error {
	if p.Quantity != nil {
		return validateQuantity(*p.Quantity)
	}
	return nil
}

// Apply writes the patch onto m in memory and stamps UpdatedAt with
// max(now, CreatedAt).
func (p Patch) Apply(m *Medicine, now time.Time) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Quantity != nil {
		m.Quantity = *p.Quantity
	}
	p.Brand.apply(&m.Brand)
	p.Dosage.apply(&m.Dosage)
	p.ExpiresAt.apply(&m.ExpiresAt)
	p.Lot.apply(&m.Lot)
	p.Notes.apply(&m.Notes)

	if now.Before(m.CreatedAt) {
		now = m.CreatedAt
	}
	m.UpdatedAt = now
}

func validateQuantity(q int) error {
	if q < 0 {
		return domain.Invalid("quantity", "quantity must be a non-negative integer")
	}
	return nil
}
