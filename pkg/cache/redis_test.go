package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-valid-url")
	if err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
}

func TestNewRedisClient_UnreachableHost(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "redis://localhost:19999")
	if err == nil {
		t.Fatal("expected error when Redis is unreachable, got nil")
	}
}

func TestRedisClient_NilClose(t *testing.T) {
	var rc *RedisClient
	if err := rc.Close(); err != nil {
		t.Fatalf("Close on nil client: %v", err)
	}
}

func TestMedicineKey(t *testing.T) {
	if got := medicineKey(42); got != "medicine:42" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestFenceKey(t *testing.T) {
	if got := fenceKey(42); got != "medicine:42:fence" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestVersion_OrdersAsStrings(t *testing.T) {
	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	times := []time.Time{
		{},
		base,
		base.Add(time.Nanosecond),
		base.Add(time.Second),
		base.AddDate(200, 0, 0),
	}
	for i := 1; i < len(times); i++ {
		prev, cur := Version(times[i-1]), Version(times[i])
		if len(cur) != len(Tombstone) {
			t.Fatalf("Version(%v) = %q, want %d digits", times[i], cur, len(Tombstone))
		}
		if prev >= cur {
			t.Fatalf("Version(%v) = %q should sort before Version(%v) = %q", times[i-1], prev, times[i], cur)
		}
		if cur >= Tombstone {
			t.Fatalf("Version(%v) = %q should sort before the tombstone", times[i], cur)
		}
	}
}

func TestHashRoundTrip(t *testing.T) {
	brand, exp := "Tylenol", "2027-01-31"
	in := &CachedMedicine{
		ID:        7,
		Name:      "Paracetamol",
		Brand:     &brand,
		Quantity:  12,
		ExpiresAt: &exp,
		CreatedAt: time.Date(2026, 1, 1, 8, 0, 0, 123000, time.UTC),
		UpdatedAt: time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC),
	}

	h := toHash(in)
	if _, ok := h["notes"]; ok {
		t.Fatal("nil fields must not be written")
	}

	vals := make(map[string]string, len(h))
	for k, v := range h {
		vals[k] = v.(string)
	}
	out, err := fromHash(vals)
	if err != nil {
		t.Fatalf("fromHash: %v", err)
	}

	if out.ID != 7 || out.Name != "Paracetamol" || out.Quantity != 12 {
		t.Fatalf("scalar mismatch: %+v", out)
	}
	if out.Brand == nil || *out.Brand != brand || out.ExpiresAt == nil || *out.ExpiresAt != exp {
		t.Fatalf("optional mismatch: %+v", out)
	}
	if out.Dosage != nil || out.Lot != nil || out.Notes != nil {
		t.Fatal("absent fields should read back as nil")
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || !out.UpdatedAt.Equal(in.UpdatedAt) {
		t.Fatalf("timestamps mismatch: %v %v", out.CreatedAt, out.UpdatedAt)
	}
}

func TestFromHash_Corrupt(t *testing.T) {
	if _, err := fromHash(map[string]string{"id": "x"}); err == nil {
		t.Fatal("expected error for corrupt hash")
	}
}

// Integration tests, skipped unless REDIS_URL is set.
func TestMedicineCacheIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	ctx := context.Background()
	rc, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close() //nolint:errcheck

	if err := rc.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	c := NewMedicineCache(rc)
	const id = int64(987654321)
	_ = rc.Client().Del(ctx, medicineKey(id), fenceKey(id)).Err()

	if _, err := c.Get(ctx, id); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}

	set := func(m *CachedMedicine) bool {
		t.Helper()
		stored, err := c.Set(ctx, m)
		if err != nil {
			t.Fatalf("Set: %v", err)
		}
		return stored
	}

	notes := "fridge"
	now := time.Now().UTC()
	if !set(&CachedMedicine{ID: id, Name: "Insulin", Notes: &notes, CreatedAt: now, UpdatedAt: now}) {
		t.Fatal("first Set was refused")
	}
	// Rewriting without notes must drop the stale field.
	if !set(&CachedMedicine{ID: id, Name: "Insulin", Quantity: 3, CreatedAt: now, UpdatedAt: now}) {
		t.Fatal("same-version Set was refused")
	}

	got, err := c.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Notes != nil || got.Quantity != 3 {
		t.Fatalf("unexpected cached medicine: %+v", got)
	}

	ttl, err := rc.Client().TTL(ctx, medicineKey(id)).Result()
	if err != nil || ttl <= 0 || ttl > MedicineCacheTTL {
		t.Fatalf("unexpected TTL %v (err %v)", ttl, err)
	}

	// An older copy never replaces a newer one.
	if set(&CachedMedicine{ID: id, Name: "Insulin", Quantity: 99, CreatedAt: now, UpdatedAt: now.Add(-time.Minute)}) {
		t.Fatal("older Set overwrote a newer copy")
	}

	// Invalidate at a newer version drops the copy and refuses older writes.
	later := now.Add(time.Minute)
	if err := c.Invalidate(ctx, id, later); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := c.Get(ctx, id); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after invalidate, got %v", err)
	}
	if set(&CachedMedicine{ID: id, Name: "Insulin", Quantity: 3, CreatedAt: now, UpdatedAt: now}) {
		t.Fatal("Set older than the fence was accepted")
	}
	if !set(&CachedMedicine{ID: id, Name: "Insulin", Quantity: 1, CreatedAt: now, UpdatedAt: later}) {
		t.Fatal("Set at the fence version was refused")
	}

	// Invalidating at an older version keeps the newer copy.
	if err := c.Invalidate(ctx, id, now); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if got, err := c.Get(ctx, id); err != nil || got.Quantity != 1 {
		t.Fatalf("newer copy lost: %+v, %v", got, err)
	}

	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, id); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after delete, got %v", err)
	}
	if set(&CachedMedicine{ID: id, Name: "Insulin", CreatedAt: now, UpdatedAt: later.Add(time.Hour)}) {
		t.Fatal("Set after delete was accepted")
	}
	if ttl, err := rc.Client().TTL(ctx, fenceKey(id)).Result(); err != nil || ttl <= 0 {
		t.Fatalf("fence must expire, TTL %v (err %v)", ttl, err)
	}
	_ = rc.Client().Del(ctx, medicineKey(id), fenceKey(id)).Err()
}
