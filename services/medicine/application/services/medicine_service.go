package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/ghuser/medshelf/pkg/cache"
	"github.com/ghuser/medshelf/pkg/logger"
	"github.com/ghuser/medshelf/services/medicine/domain/models"
	"github.com/ghuser/medshelf/services/medicine/domain/repositories"
	domainsvcs "github.com/ghuser/medshelf/services/medicine/domain/services"
)

// MedicinePage is one page of List results. Page and PageSize are the
// clamped values actually used.
type MedicinePage struct {
	Items    []*models.Medicine
	Total    int
	Page     int
	PageSize int
}

// ListParams are the raw list inputs; zero values take defaults.
type ListParams struct {
	Search   string
	Page     int
	PageSize int
}

// StatsParams override the dashboard thresholds; nil takes the default.
type StatsParams struct {
	Search     string
	LowStock   *int
	WithinDays *int
}

// StatsResult is Stats plus the thresholds it was computed with.
type StatsResult struct {
	models.Stats
	LowStockThreshold  int
	ExpiringWithinDays int
}

// Report is every medicine matching a search, plus aggregates.
type Report struct {
	Search      string
	Medicines   []*models.Medicine
	Stats       StatsResult
	GeneratedAt time.Time
}

// MedicineService orchestrates the medicine use cases. Event publishing is
// handled by the repository; reads by id go through the cache when present.
type MedicineService struct {
	repo      repositories.MedicineRepository
	cache     MedicineCache
	log       logger.Logger
	mutations metric.Int64Counter
	now       func() time.Time
}

// NewMedicineService wires the service. medCache and meter may be nil.
func NewMedicineService(repo repositories.MedicineRepository, medCache MedicineCache, log logger.Logger, meter metric.Meter) *MedicineService {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}
	mutations, err := meter.Int64Counter("medshelf.medicine.mutations",
		metric.WithDescription("Successful medicine create, update and delete operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		log.Warn("medicine mutations counter unavailable", "error", err)
		mutations, _ = noop.NewMeterProvider().Meter("").Int64Counter("medshelf.medicine.mutations")
	}
	return &MedicineService{
		repo:      repo,
		cache:     medCache,
		log:       log,
		mutations: mutations,
		now:       models.Now,
	}
}

// Create validates and persists a new medicine.
func (s *MedicineService) Create(ctx context.Context, p models.NewMedicineParams) (*models.Medicine, error) {
	m, err := models.NewMedicine(p, s.now())
	if err != nil {
		return nil, err
	}
	if err := domainsvcs.ValidateForCreation(m); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("insert medicine: %w", err)
	}
	s.recordMutation(ctx, "create")
	return m, nil
}

// GetByID reads through the cache: a hit is returned directly, a miss or
// cache failure falls back to the store and repopulates the cache.
func (s *MedicineService) GetByID(ctx context.Context, id int64) (*models.Medicine, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		switch {
		case err == nil:
			if m, convErr := fromCached(cached); convErr == nil {
				return m, nil
			}
		case !errors.Is(err, cache.ErrMiss):
			s.log.WarnContext(ctx, "medicine cache read failed", "medicine_id", id, "error", err)
		}
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get medicine: %w", err)
	}

	if s.cache != nil {
		stored, err := s.cache.Set(context.WithoutCancel(ctx), ToCached(m))
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "medicine cache write failed", "medicine_id", id, "error", err)
		case !stored:
			s.log.DebugContext(ctx, "medicine changed during read, not cached", "medicine_id", id)
		}
	}
	return m, nil
}

// List returns one page of medicines matching p.Search.
func (s *MedicineService) List(ctx context.Context, p ListParams) (*MedicinePage, error) {
	page, pageSize := NormalizePage(p.Page, p.PageSize)
	items, total, err := s.repo.List(ctx, repositories.ListQuery{
		Search: p.Search,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	if items == nil {
		items = []*models.Medicine{}
	}
	return &MedicinePage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Update applies a partial update. A patch naming no fields is
// ErrNoFieldsToUpdate.
func (s *MedicineService) Update(ctx context.Context, id int64, patch models.Patch) (*models.Medicine, error) {
	if err := domainsvcs.ValidatePatch(patch); err != nil {
		return nil, err
	}
	return s.write(ctx, "update", id, patch)
}

// Replace applies a full update where absent fields keep their stored
// value. An empty patch only refreshes updated_at.
func (s *MedicineService) Replace(ctx context.Context, id int64, patch models.Patch) (*models.Medicine, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.write(ctx, "replace", id, patch)
}

func (s *MedicineService) write(ctx context.Context, op string, id int64, patch models.Patch) (*models.Medicine, error) {
	m, err := s.repo.Update(ctx, id, patch, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s medicine: %w", op, err)
	}
	s.invalidate(ctx, id, func(ctx context.Context) error {
		return s.cache.Invalidate(ctx, id, m.UpdatedAt)
	})
	s.recordMutation(ctx, op)
	return m, nil
}

// Delete hard-deletes the medicine.
func (s *MedicineService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}
	s.invalidate(ctx, id, func(ctx context.Context) error {
		return s.cache.Delete(ctx, id)
	})
	s.recordMutation(ctx, "delete")
	return nil
}

// Stats computes the dashboard aggregates over medicines matching p.Search.
func (s *MedicineService) Stats(ctx context.Context, p StatsParams) (StatsResult, error) {
	threshold := models.LowStockThreshold
	if p.LowStock != nil && *p.LowStock >= 0 {
		threshold = *p.LowStock
	}
	within := models.ExpiringSoonDays
	if p.WithinDays != nil && *p.WithinDays >= 0 {
		within = *p.WithinDays
	}

	st, err := s.repo.Stats(ctx, models.StatsQuery{
		Search:            p.Search,
		LowStockThreshold: threshold,
		Cutoff:            models.ExpiringSoonCutoff(s.now(), within),
	})
	if err != nil {
		return StatsResult{}, fmt.Errorf("medicine stats: %w", err)
	}
	return StatsResult{Stats: st, LowStockThreshold: threshold, ExpiringWithinDays: within}, nil
}

// Report collects every medicine matching search, page by page.
func (s *MedicineService) Report(ctx context.Context, search string) (*Report, error) {
	var all []*models.Medicine
	for offset := 0; ; offset += MaxPageSize {
		items, total, err := s.repo.List(ctx, repositories.ListQuery{Search: search, Limit: MaxPageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("report medicines: %w", err)
		}
		all = append(all, items...)
		if len(items) < MaxPageSize || len(all) >= total {
			break
		}
	}

	st, err := s.Stats(ctx, StatsParams{Search: search})
	if err != nil {
		return nil, err
	}
	return &Report{Search: search, Medicines: all, Stats: st, GeneratedAt: s.now()}, nil
}

func (s *MedicineService) invalidate(ctx context.Context, id int64, fn func(context.Context) error) {
	if s.cache == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		s.log.WarnContext(ctx, "medicine cache invalidation failed", "medicine_id", id, "error", err)
	}
}

func (s *MedicineService) recordMutation(ctx context.Context, op string) {
	s.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}
