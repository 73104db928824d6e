package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// MedicineCacheTTL bounds staleness if an invalidation is ever missed. Fences
// live as long, so an event or read delayed past it can repopulate the cache.
const MedicineCacheTTL = 24 * time.Hour

// Tombstone is the fence written on delete. It sorts after every Version,
// so no copy of the deleted row is cached again until the fence expires.
const Tombstone = "99999999999999999999"

const medicineKeyPrefix = "medicine"

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// CachedMedicine is the read model stored as a Redis hash. Nil pointer
// fields are simply not written, so a missing hash field reads back as nil.
type CachedMedicine struct {
	ID        int64
	Name      string
	Brand     *string
	Dosage    *string
	Quantity  int
	ExpiresAt *string
	Lot       *string
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Version encodes a row's updated_at as fixed-width digits so Lua can order
// versions with plain string comparison.
func Version(updatedAt time.Time) string {
	return fmt.Sprintf("%020d", max(updatedAt.UnixNano(), 0))
}

// setMedicineScript writes the hash only when its version is not older than
// the fence or the copy already cached.
//
// KEYS[1] hash, KEYS[2] fence; ARGV[1] version, ARGV[2] ttl seconds, then
// field/value pairs.
var setMedicineScript = redis.NewScript(`
local fence = redis.call("GET", KEYS[2])
if fence and ARGV[1] < fence then
	return 0
end
local current = redis.call("HGET", KEYS[1], "version")
if current and ARGV[1] < current then
	return 0
end
redis.call("DEL", KEYS[1])
redis.call("HSET", KEYS[1], "version", ARGV[1], unpack(ARGV, 3))
redis.call("EXPIRE", KEYS[1], ARGV[2])
return 1
`)

// invalidateMedicineScript raises the fence to ARGV[1] and drops a cached
// copy older than it.
//
// KEYS[1] hash, KEYS[2] fence; ARGV[1] version, ARGV[2] ttl seconds.
var invalidateMedicineScript = redis.NewScript(`
local fence = redis.call("GET", KEYS[2])
if not fence or fence < ARGV[1] then
	redis.call("SET", KEYS[2], ARGV[1], "EX", ARGV[2])
end
local current = redis.call("HGET", KEYS[1], "version")
if not current or current < ARGV[1] then
	redis.call("DEL", KEYS[1])
end
return 1
`)

// MedicineCache reads and writes medicine hashes under "medicine:{id}".
// Writes are versioned by updated_at and guarded by a fence key
// "medicine:{id}:fence", so a reader or event that loses a race with a
// newer write or a delete cannot put an older copy back.
type MedicineCache struct {
	client *redis.Client
}

func NewMedicineCache(r *RedisClient) *MedicineCache {
	return &MedicineCache{client: r.Client()}
}

func (c *MedicineCache) Get(ctx context.Context, id int64) (*CachedMedicine, error) {
	vals, err := c.client.HGetAll(ctx, medicineKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrMiss
	}
	m, err := fromHash(vals)
	if err != nil {
		return nil, fmt.Errorf("cache decode medicine %d: %w", id, err)
	}
	return m, nil
}

// Set replaces the whole hash so fields cleared since the last write do not
// linger. It reports false, with a nil error, when m is older than what the
// cache already knows about.
func (c *MedicineCache) Set(ctx context.Context, m *CachedMedicine) (bool, error) {
	h := toHash(m)
	args := make([]any, 0, 2+2*len(h))
	args = append(args, Version(m.UpdatedAt), ttlSeconds())
	for k, v := range h {
		args = append(args, k, v)
	}
	stored, err := setMedicineScript.Run(ctx, c.client, []string{medicineKey(m.ID), fenceKey(m.ID)}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("cache set: %w", err)
	}
	return stored == 1, nil
}

// Invalidate drops the cached copy of id unless it is at least as new as
// updatedAt, and refuses later writes older than updatedAt.
func (c *MedicineCache) Invalidate(ctx context.Context, id int64, updatedAt time.Time) error {
	return c.fence(ctx, id, Version(updatedAt))
}

// Delete drops id and refuses every later write for it.
func (c *MedicineCache) Delete(ctx context.Context, id int64) error {
	return c.fence(ctx, id, Tombstone)
}

func (c *MedicineCache) fence(ctx context.Context, id int64, version string) error {
	err := invalidateMedicineScript.Run(ctx, c.client, []string{medicineKey(id), fenceKey(id)}, version, ttlSeconds()).Err()
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

func medicineKey(id int64) string {
	return medicineKeyPrefix + ":" + strconv.FormatInt(id, 10)
}

func fenceKey(id int64) string {
	return medicineKey(id) + ":fence"
}

func ttlSeconds() int {
	return int(MedicineCacheTTL / time.Second)
}

func toHash(m *CachedMedicine) map[string]any {
	h := map[string]any{
		"id":         strconv.FormatInt(m.ID, 10),
		"name":       m.Name,
		"quantity":   strconv.Itoa(m.Quantity),
		"created_at": m.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": m.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	optional := map[string]*string{
		"brand":      m.Brand,
		"dosage":     m.Dosage,
		"expires_at": m.ExpiresAt,
		"lot":        m.Lot,
		"notes":      m.Notes,
	}
	for k, v := range optional {
		if v != nil {
			h[k] = *v
		}
	}
	return h
}

func fromHash(vals map[string]string) (*CachedMedicine, error) {
	id, err := strconv.ParseInt(vals["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	qty, err := strconv.Atoi(vals["quantity"])
	if err != nil {
		return nil, fmt.Errorf("parse quantity: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, vals["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	opt := func(k string) *string {
		if v, ok := vals[k]; ok {
			return &v
		}
		return nil
	}
	return &CachedMedicine{
		ID:        id,
		Name:      vals["name"],
		Brand:     opt("brand"),
		Dosage:    opt("dosage"),
		Quantity:  qty,
		ExpiresAt: opt("expires_at"),
		Lot:       opt("lot"),
		Notes:     opt("notes"),
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}, nil
}
