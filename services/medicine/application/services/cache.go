package services

import (
	"context"
	"time"

	"github.com/ghuser/medshelf/pkg/cache"
	"github.com/ghuser/medshelf/services/medicine/domain/models"
)

// MedicineCache is the read-through cache used by GetByID. *cache.MedicineCache
// implements it; a nil MedicineCache disables caching.
//
// Set must ignore a copy whose UpdatedAt is older than an earlier Invalidate
// or cached copy for the same id, and must ignore every copy after Delete.
type MedicineCache interface {
	Get(ctx context.Context, id int64) (*cache.CachedMedicine, error)
	Set(ctx context.Context, m *cache.CachedMedicine) (bool, error)
	Invalidate(ctx context.Context, id int64, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

// ToCached converts a Medicine into its cache read model.
func ToCached(m *models.Medicine) *cache.CachedMedicine {
	c := &cache.CachedMedicine{
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
		s := m.ExpiresAt.String()
		c.ExpiresAt = &s
	}
	return c
}

func fromCached(c *cache.CachedMedicine) (*models.Medicine, error) {
	m := &models.Medicine{
		ID:        c.ID,
		Name:      models.MedicineName(c.Name),
		Brand:     c.Brand,
		Dosage:    c.Dosage,
		Quantity:  c.Quantity,
		Lot:       c.Lot,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.ExpiresAt != nil {
		d, err := models.ParseDate(*c.ExpiresAt)
		if err != nil {
			return nil, err
		}
		m.ExpiresAt = &d
	}
	return m, nil
}
