package subscribers

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/medshelf/pkg/cache/cachetest"
	"github.com/ghuser/medshelf/pkg/events"
	"github.com/ghuser/medshelf/pkg/logger"
	domainevents "github.com/ghuser/medshelf/services/medicine/domain/events"
)

func eventMessage(t *testing.T, evt domainevents.MedicineEvent) *message.Message {
	t.Helper()
	msg, err := events.NewJSONMessage(evt)
	require.NoError(t, err)
	return msg
}

var createdAt = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func snapshot(id int64, qty int) *domainevents.MedicineSnapshot {
	return &domainevents.MedicineSnapshot{ID: id, Name: "Paracetamol", Quantity: qty, CreatedAt: createdAt, UpdatedAt: createdAt}
}

func updatedSnapshot(id int64, qty int, after time.Duration) *domainevents.MedicineSnapshot {
	m := snapshot(id, qty)
	m.UpdatedAt = createdAt.Add(after)
	return m
}

func TestOnCreated_WarmsCache(t *testing.T) {
	c := cachetest.NewMemory()
	s := New(c, logger.Nop())

	err := s.OnCreated(context.Background(), eventMessage(t, domainevents.New(7, snapshot(7, 20), time.Now())))
	require.NoError(t, err)

	got, ok := c.Entry(7)
	require.True(t, ok)
	assert.Equal(t, "Paracetamol", got.Name)
	assert.Equal(t, 20, got.Quantity)
}

func TestOnCreated_AfterDeleteIsNotCached(t *testing.T) {
	c := cachetest.NewMemory()
	s := New(c, logger.Nop())
	ctx := context.Background()

	require.NoError(t, s.OnDeleted(ctx, eventMessage(t, domainevents.New(7, nil, createdAt.Add(time.Minute)))))
	require.NoError(t, s.OnCreated(ctx, eventMessage(t, domainevents.New(7, snapshot(7, 20), createdAt))))

	_, ok := c.Entry(7)
	assert.False(t, ok, "a deleted medicine must not be served from cache")
}

func TestOnCreated_AfterUpdateIsNotCached(t *testing.T) {
	c := cachetest.NewMemory()
	s := New(c, logger.Nop())
	ctx := context.Background()

	require.NoError(t, s.OnUpdated(ctx, eventMessage(t, domainevents.New(7, updatedSnapshot(7, 3, time.Minute), createdAt.Add(time.Minute)))))
	require.NoError(t, s.OnCreated(ctx, eventMessage(t, domainevents.New(7, snapshot(7, 20), createdAt))))

	_, ok := c.Entry(7)
	assert.False(t, ok, "the pre-update quantity must not be cached")
}

func TestOnUpdated_KeepsNewerCachedCopy(t *testing.T) {
	c := cachetest.NewMemory()
	s := New(c, logger.Nop())
	ctx := context.Background()

	require.NoError(t, s.OnCreated(ctx, eventMessage(t, domainevents.New(7, updatedSnapshot(7, 3, 2*time.Minute), createdAt))))
	require.NoError(t, s.OnUpdated(ctx, eventMessage(t, domainevents.New(7, updatedSnapshot(7, 9, time.Minute), createdAt.Add(time.Minute)))))

	got, ok := c.Entry(7)
	require.True(t, ok)
	assert.Equal(t, 3, got.Quantity)
}

func TestOnCreated_NoCache(t *testing.T) {
	s := New(nil, logger.Nop())
	assert.NoError(t, s.OnCreated(context.Background(), eventMessage(t, domainevents.New(1, snapshot(1, 1), time.Now()))))
}

func TestOnUpdatedAndDeleted_Invalidate(t *testing.T) {
	c := cachetest.NewMemory()
	s := New(c, logger.Nop())
	ctx := context.Background()

	require.NoError(t, s.OnUpdated(ctx, eventMessage(t, domainevents.New(3, snapshot(3, 9), time.Now()))))
	require.NoError(t, s.OnDeleted(ctx, eventMessage(t, domainevents.New(4, nil, time.Now()))))

	assert.Equal(t, []int64{3}, c.Invalidated())
	assert.Equal(t, []int64{4}, c.Deleted())
}

func TestOnDeleted_InvalidationFailureIsRetried(t *testing.T) {
	c := cachetest.NewMemory()
	c.WriteErr = errors.New("redis down")
	s := New(c, logger.Nop())

	err := s.OnDeleted(context.Background(), eventMessage(t, domainevents.New(4, nil, time.Now())))
	assert.ErrorContains(t, err, "redis down")
}

func TestDecode_BadPayload(t *testing.T) {
	s := New(nil, logger.Nop())
	msg := message.NewMessage("1", []byte("not json"))

	assert.Error(t, s.OnCreated(context.Background(), msg))
}

func TestDecode_NewerSchemaSkipped(t *testing.T) {
	c := cachetest.NewMemory()
	s := New(c, logger.Nop())
	evt := domainevents.New(5, nil, time.Now())
	evt.Version = domainevents.EventVersion + 1

	require.NoError(t, s.OnDeleted(context.Background(), eventMessage(t, evt)))
	assert.Empty(t, c.Deleted())
}

func TestLowStockWarning(t *testing.T) {
	var buf bytes.Buffer
	s := New(nil, logger.NewWithWriter(&buf, "json", "debug"))
	ctx := context.Background()

	require.NoError(t, s.OnCreated(ctx, eventMessage(t, domainevents.New(1, snapshot(1, 50), time.Now()))))
	assert.NotContains(t, buf.String(), "low on stock")

	require.NoError(t, s.OnUpdated(ctx, eventMessage(t, domainevents.New(1, snapshot(1, 5), time.Now()))))
	assert.Contains(t, buf.String(), "medicine low on stock")
	assert.Contains(t, buf.String(), `"quantity":5`)
}

func TestRegister_DeliversThroughInMemoryBus(t *testing.T) {
	bus := events.NewInMemoryEventBus(logger.Nop()).WithRetryDelay(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		_ = bus.Close()
	}()

	c := cachetest.NewMemory()
	require.NoError(t, New(c, logger.Nop()).Register(ctx, bus))

	require.NoError(t, bus.Publish(ctx, domainevents.TopicMedicineCreated,
		eventMessage(t, domainevents.New(11, snapshot(11, 30), time.Now()))))
	require.NoError(t, bus.Publish(ctx, domainevents.TopicMedicineDeleted,
		eventMessage(t, domainevents.New(12, nil, time.Now()))))

	assert.Eventually(t, func() bool {
		_, warmed := c.Entry(11)
		deleted := c.Deleted()
		return warmed && len(deleted) == 1 && deleted[0] == 12
	}, 2*time.Second, 10*time.Millisecond)
}
