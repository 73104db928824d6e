package repositories

import (
	"context"
	"time"

	"github.com/ghuser/medshelf/services/medicine/domain/models"
)

// ListQuery filters and paginates List. Search is a case-insensitive
// substring matched against name, brand and notes.
type ListQuery struct {
	Search string
	Limit  int
	Offset int
}

// MedicineRepository is the persistence interface for the Medicine aggregate.
// The domain layer owns this interface; infrastructure implements it.
type MedicineRepository interface {
	// Insert assigns m.ID and persists m.
	Insert(ctx context.Context, m *models.Medicine) error
	GetByID(ctx context.Context, id int64) (*models.Medicine, error)

	// List returns one page ordered by updated_at DESC, id DESC, plus the
	// total number of matching rows.
	List(ctx context.Context, q ListQuery) ([]*models.Medicine, int, error)

	// Update writes the columns named by patch, refreshes updated_at and
	// returns the stored row.
	Update(ctx context.Context, id int64, patch models.Patch, now time.Time) (*models.Medicine, error)

	Delete(ctx context.Context, id int64) error

	Stats(ctx context.Context, q models.StatsQuery) (models.Stats, error)
}
