package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ghuser/medshelf/pkg/cache"
	"github.com/ghuser/medshelf/pkg/cache/cachetest"
	"github.com/ghuser/medshelf/pkg/logger"
	medicinedomain "github.com/ghuser/medshelf/services/medicine/domain"
	"github.com/ghuser/medshelf/services/medicine/domain/models"
	"github.com/ghuser/medshelf/services/medicine/domain/repositories"
)

type mockRepo struct {
	InsertFn  func(ctx context.Context, m *models.Medicine) error
	GetByIDFn func(ctx context.Context, id int64) (*models.Medicine, error)
	ListFn    func(ctx context.Context, q repositories.ListQuery) ([]*models.Medicine, int, error)
	UpdateFn  func(ctx context.Context, id int64, p models.Patch, now time.Time) (*models.Medicine, error)
	DeleteFn  func(ctx context.Context, id int64) error
	StatsFn   func(ctx context.Context, q models.StatsQuery) (models.Stats, error)
}

func (m *mockRepo) Insert(ctx context.Context, med *models.Medicine) error {
	return m.InsertFn(ctx, med)
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*models.Medicine, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockRepo) List(ctx context.Context, q repositories.ListQuery) ([]*models.Medicine, int, error) {
	return m.ListFn(ctx, q)
}

func (m *mockRepo) Update(ctx context.Context, id int64, p models.Patch, now time.Time) (*models.Medicine, error) {
	return m.UpdateFn(ctx, id, p, now)
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	return m.DeleteFn(ctx, id)
}

func (m *mockRepo) Stats(ctx context.Context, q models.StatsQuery) (models.Stats, error) {
	return m.StatsFn(ctx, q)
}

var fixedNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newService(repo repositories.MedicineRepository, c MedicineCache) *MedicineService {
	s := NewMedicineService(repo, c, logger.Nop(), nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestCreate(t *testing.T) {
	var inserted *models.Medicine
	repo := &mockRepo{InsertFn: func(_ context.Context, m *models.Medicine) error {
		m.ID = 1
		inserted = m
		return nil
	}}
	svc := newService(repo, nil)

	m, err := svc.Create(context.Background(), models.NewMedicineParams{Name: " Paracetamol "})
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ID)
	assert.Equal(t, "Paracetamol", m.Name.String())
	assert.Equal(t, 0, m.Quantity)
	assert.Equal(t, fixedNow, m.CreatedAt)
	assert.Equal(t, m.CreatedAt, m.UpdatedAt)
	assert.Same(t, inserted, m)
}

func TestCreate_InvalidNeverReachesStore(t *testing.T) {
	repo := &mockRepo{InsertFn: func(context.Context, *models.Medicine) error {
		t.Fatal("Insert must not be called")
		return nil
	}}
	svc := newService(repo, nil)

	_, err := svc.Create(context.Background(), models.NewMedicineParams{Name: ""})
	assert.ErrorIs(t, err, medicinedomain.ErrInvalidMedicine)
	assert.EqualError(t, err, "name is required")

	neg := -1
	_, err = svc.Create(context.Background(), models.NewMedicineParams{Name: "X", Quantity: &neg})
	assert.ErrorIs(t, err, medicinedomain.ErrInvalidMedicine)
}

func TestGetByID_ReadThroughCache(t *testing.T) {
	calls := 0
	exp, _ := models.ParseDate("2027-01-01")
	repo := &mockRepo{GetByIDFn: func(_ context.Context, id int64) (*models.Medicine, error) {
		calls++
		return &models.Medicine{ID: id, Name: "Aspirin", Quantity: 4, ExpiresAt: &exp, CreatedAt: fixedNow, UpdatedAt: fixedNow}, nil
	}}
	c := cachetest.NewMemory()
	svc := newService(repo, c)

	first, err := svc.GetByID(context.Background(), 9)
	require.NoError(t, err)
	_, cached := c.Entry(9)
	require.True(t, cached)

	second, err := svc.GetByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second read should be served from cache")
	assert.Equal(t, first, second)
}

func TestGetByID_CacheErrorFallsBackToStore(t *testing.T) {
	repo := &mockRepo{GetByIDFn: func(_ context.Context, id int64) (*models.Medicine, error) {
		return &models.Medicine{ID: id, Name: "Aspirin"}, nil
	}}
	c := cachetest.NewMemory()
	c.GetErr = errors.New("connection refused")
	svc := newService(repo, c)

	m, err := svc.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), m.ID)
}

func TestGetByID_NotFound(t *testing.T) {
	repo := &mockRepo{GetByIDFn: func(context.Context, int64) (*models.Medicine, error) {
		return nil, medicinedomain.ErrMedicineNotFound
	}}
	svc := newService(repo, cachetest.NewMemory())

	_, err := svc.GetByID(context.Background(), 3)
	assert.ErrorIs(t, err, medicinedomain.ErrMedicineNotFound)
}

func TestList_ClampsAndComputesOffset(t *testing.T) {
	var got repositories.ListQuery
	repo := &mockRepo{ListFn: func(_ context.Context, q repositories.ListQuery) ([]*models.Medicine, int, error) {
		got = q
		return nil, 0, nil
	}}
	svc := newService(repo, nil)

	page, err := svc.List(context.Background(), ListParams{Search: "para", Page: 3, PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, repositories.ListQuery{Search: "para", Limit: MaxPageSize, Offset: 2 * MaxPageSize}, got)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, MaxPageSize, page.PageSize)
	assert.NotNil(t, page.Items, "items must be an empty slice, not nil")
}

func TestUpdate_EmptyPatch(t *testing.T) {
	repo := &mockRepo{UpdateFn: func(context.Context, int64, models.Patch, time.Time) (*models.Medicine, error) {
		t.Fatal("Update must not be called")
		return nil, nil
	}}
	svc := newService(repo, nil)

	_, err := svc.Update(context.Background(), 1, models.Patch{})
	assert.ErrorIs(t, err, medicinedomain.ErrNoFieldsToUpdate)
}

func TestUpdate_InvalidatesCache(t *testing.T) {
	var gotNow time.Time
	repo := &mockRepo{UpdateFn: func(_ context.Context, id int64, _ models.Patch, now time.Time) (*models.Medicine, error) {
		gotNow = now
		return &models.Medicine{ID: id, Name: "X", Quantity: 2, UpdatedAt: now}, nil
	}}
	c := cachetest.NewMemory()
	c.Put(&cache.CachedMedicine{ID: 5, Name: "X", Quantity: 9, UpdatedAt: fixedNow.Add(-time.Hour)})
	svc := newService(repo, c)

	q := 2
	m, err := svc.Update(context.Background(), 5, models.Patch{Quantity: &q})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Quantity)
	assert.Equal(t, fixedNow, gotNow)
	_, cached := c.Entry(5)
	assert.False(t, cached)
	assert.Equal(t, []int64{5}, c.Invalidated())
}

// A read that loads a row just before a write and caches it just after
// must not leave the pre-write copy behind.
func TestGetByID_StaleReadAfterWriteIsNotCached(t *testing.T) {
	before := fixedNow.Add(-time.Hour)
	stored := &models.Medicine{ID: 5, Name: "X", Quantity: 9, CreatedAt: before, UpdatedAt: before}

	var svc *MedicineService
	repo := &mockRepo{
		UpdateFn: func(_ context.Context, id int64, p models.Patch, now time.Time) (*models.Medicine, error) {
			next := *stored
			next.Quantity = *p.Quantity
			next.UpdatedAt = now
			stored = &next
			return stored, nil
		},
		DeleteFn: func(context.Context, int64) error {
			stored = nil
			return nil
		},
	}
	repo.GetByIDFn = func(_ context.Context, id int64) (*models.Medicine, error) {
		if stored == nil {
			return nil, medicinedomain.ErrMedicineNotFound
		}
		loaded := stored
		if loaded.Quantity == 9 {
			q := 2
			_, err := svc.Update(context.Background(), id, models.Patch{Quantity: &q})
			require.NoError(t, err)
		}
		return loaded, nil
	}
	c := cachetest.NewMemory()
	svc = newService(repo, c)

	m, err := svc.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 9, m.Quantity, "the racing read still returns what it loaded")
	_, cached := c.Entry(5)
	assert.False(t, cached, "pre-update copy must not be cached")

	m, err = svc.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Quantity)
	got, cached := c.Entry(5)
	require.True(t, cached)
	assert.Equal(t, 2, got.Quantity)

	stale := ToCached(&models.Medicine{ID: 5, Name: "X", Quantity: 2, CreatedAt: before, UpdatedAt: fixedNow})
	require.NoError(t, svc.Delete(context.Background(), 5))
	ok, err := c.Set(context.Background(), stale)
	require.NoError(t, err)
	assert.False(t, ok, "a copy loaded before the delete must be refused")

	_, err = svc.GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, medicinedomain.ErrMedicineNotFound)
}

func TestUpdate_NotFoundKeepsCache(t *testing.T) {
	repo := &mockRepo{UpdateFn: func(context.Context, int64, models.Patch, time.Time) (*models.Medicine, error) {
		return nil, medicinedomain.ErrMedicineNotFound
	}}
	c := cachetest.NewMemory()
	svc := newService(repo, c)

	q := 1
	_, err := svc.Update(context.Background(), 5, models.Patch{Quantity: &q})
	assert.ErrorIs(t, err, medicinedomain.ErrMedicineNotFound)
	assert.Empty(t, c.Invalidated())
}

func TestReplace_AllowsEmptyPatch(t *testing.T) {
	called := false
	repo := &mockRepo{UpdateFn: func(_ context.Context, id int64, p models.Patch, _ time.Time) (*models.Medicine, error) {
		called = true
		assert.True(t, p.IsEmpty())
		return &models.Medicine{ID: id, Name: "X"}, nil
	}}
	svc := newService(repo, nil)

	_, err := svc.Replace(context.Background(), 1, models.Patch{})
	require.NoError(t, err)
	assert.True(t, called)

	neg := -4
	_, err = svc.Replace(context.Background(), 1, models.Patch{Quantity: &neg})
	assert.ErrorIs(t, err, medicinedomain.ErrInvalidMedicine)
}

func TestDelete(t *testing.T) {
	repo := &mockRepo{DeleteFn: func(_ context.Context, id int64) error {
		if id == 404 {
			return medicinedomain.ErrMedicineNotFound
		}
		return nil
	}}
	c := cachetest.NewMemory()
	svc := newService(repo, c)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.Equal(t, []int64{1}, c.Deleted())
	assert.ErrorIs(t, svc.Delete(context.Background(), 404), medicinedomain.ErrMedicineNotFound)
}

func TestStats_Defaults(t *testing.T) {
	var got models.StatsQuery
	repo := &mockRepo{StatsFn: func(_ context.Context, q models.StatsQuery) (models.Stats, error) {
		got = q
		return models.Stats{Total: 3, LowStock: 1, ExpiringSoon: 2}, nil
	}}
	svc := newService(repo, nil)

	res, err := svc.Stats(context.Background(), StatsParams{Search: "x"})
	require.NoError(t, err)
	assert.Equal(t, models.LowStockThreshold, got.LowStockThreshold)
	assert.Equal(t, "2026-06-09", got.Cutoff.String())
	assert.Equal(t, "x", got.Search)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, models.LowStockThreshold, res.LowStockThreshold)
	assert.Equal(t, models.ExpiringSoonDays, res.ExpiringWithinDays)

	low, within, negative := 10, 7, -1
	res, err = svc.Stats(context.Background(), StatsParams{LowStock: &low, WithinDays: &within})
	require.NoError(t, err)
	assert.Equal(t, 10, got.LowStockThreshold)
	assert.Equal(t, "2026-05-17", got.Cutoff.String())
	assert.Equal(t, 7, res.ExpiringWithinDays)

	_, err = svc.Stats(context.Background(), StatsParams{LowStock: &negative})
	require.NoError(t, err)
	assert.Equal(t, models.LowStockThreshold, got.LowStockThreshold)
}

func TestReport_CollectsAllPages(t *testing.T) {
	const total = MaxPageSize + 17
	var offsets []int
	repo := &mockRepo{
		ListFn: func(_ context.Context, q repositories.ListQuery) ([]*models.Medicine, int, error) {
			offsets = append(offsets, q.Offset)
			n := min(q.Limit, total-q.Offset)
			items := make([]*models.Medicine, n)
			for i := range items {
				items[i] = &models.Medicine{ID: int64(q.Offset + i + 1), Name: "M"}
			}
			return items, total, nil
		},
		StatsFn: func(context.Context, models.StatsQuery) (models.Stats, error) {
			return models.Stats{Total: total}, nil
		},
	}
	svc := newService(repo, nil)

	r, err := svc.Report(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, r.Medicines, total)
	assert.Equal(t, []int{0, MaxPageSize}, offsets)
	assert.Equal(t, total, r.Stats.Total)
	assert.Equal(t, fixedNow, r.GeneratedAt)
}

func TestMutationsCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background()) //nolint:errcheck

	repo := &mockRepo{
		InsertFn: func(_ context.Context, m *models.Medicine) error { m.ID = 1; return nil },
		DeleteFn: func(context.Context, int64) error { return nil },
	}
	svc := NewMedicineService(repo, nil, logger.Nop(), provider.Meter("test"))

	_, err := svc.Create(context.Background(), models.NewMedicineParams{Name: "A"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), 1))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var sum int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "medshelf.medicine.mutations" {
				continue
			}
			data, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range data.DataPoints {
				sum += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), sum)
}
