// Package cachetest provides an in-memory medicine cache that follows the
// same versioning rules as the Redis one, for service and subscriber tests.
package cachetest

import (
	"context"
	"sync"
	"time"

	"github.com/ghuser/medshelf/pkg/cache"
)

// Memory keeps medicines and fences in maps. It has no TTL.
type Memory struct {
	mu          sync.Mutex
	entries     map[int64]*cache.CachedMedicine
	fences      map[int64]string
	deleted     []int64
	invalidated []int64

	// GetErr and WriteErr, when set, are returned by Get and by
	// Invalidate/Delete respectively.
	GetErr   error
	WriteErr error
}

func NewMemory() *Memory {
	return &Memory{
		entries: map[int64]*cache.CachedMedicine{},
		fences:  map[int64]string{},
	}
}

func (c *Memory) Get(_ context.Context, id int64) (*cache.CachedMedicine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GetErr != nil {
		return nil, c.GetErr
	}
	if m, ok := c.entries[id]; ok {
		return m, nil
	}
	return nil, cache.ErrMiss
}

func (c *Memory) Set(_ context.Context, m *cache.CachedMedicine) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := cache.Version(m.UpdatedAt)
	if fence, ok := c.fences[m.ID]; ok && v < fence {
		return false, nil
	}
	if cur, ok := c.entries[m.ID]; ok && v < cache.Version(cur.UpdatedAt) {
		return false, nil
	}
	c.entries[m.ID] = m
	return true, nil
}

func (c *Memory) Invalidate(_ context.Context, id int64, updatedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.WriteErr != nil {
		return c.WriteErr
	}
	c.invalidated = append(c.invalidated, id)
	c.fence(id, cache.Version(updatedAt))
	return nil
}

func (c *Memory) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.WriteErr != nil {
		return c.WriteErr
	}
	c.deleted = append(c.deleted, id)
	c.fence(id, cache.Tombstone)
	return nil
}

func (c *Memory) fence(id int64, v string) {
	if cur, ok := c.fences[id]; !ok || cur < v {
		c.fences[id] = v
	}
	if m, ok := c.entries[id]; ok && cache.Version(m.UpdatedAt) < v {
		delete(c.entries, id)
	}
}

// Put stores m without any version check.
func (c *Memory) Put(m *cache.CachedMedicine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[m.ID] = m
}

// Entry returns the cached copy of id, if any.
func (c *Memory) Entry(id int64) (*cache.CachedMedicine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[id]
	return m, ok
}

// Deleted lists the ids passed to Delete, in call order.
func (c *Memory) Deleted() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.deleted...)
}

// Invalidated lists the ids passed to Invalidate, in call order.
func (c *Memory) Invalidated() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.invalidated...)
}
