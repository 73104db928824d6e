// Package subscribers reacts to medicine lifecycle events: it keeps the
// Redis read model in step with the store and warns when stock runs low.
// Handlers are idempotent; the event bus retries them on failure.
package subscribers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/medshelf/pkg/cache"
	"github.com/ghuser/medshelf/pkg/events"
	"github.com/ghuser/medshelf/pkg/logger"
	appsvcs "github.com/ghuser/medshelf/services/medicine/application/services"
	domainevents "github.com/ghuser/medshelf/services/medicine/domain/events"
	"github.com/ghuser/medshelf/services/medicine/domain/models"
)

// Bus is the subscribing half of *events.EventBus.
type Bus interface {
	Subscribe(ctx context.Context, topic string, handler events.Handler) (<-chan error, error)
}

// Subscribers holds the medicine event handlers.
type Subscribers struct {
	cache    appsvcs.MedicineCache
	log      logger.Logger
	lowStock int
}

// New returns the handlers. medCache may be nil, in which case only the
// low-stock warning runs.
func New(medCache appsvcs.MedicineCache, log logger.Logger) *Subscribers {
	return &Subscribers{cache: medCache, log: log, lowStock: models.LowStockThreshold}
}

// Register subscribes every handler and drains their error channels in the
// background until ctx is done.
func (s *Subscribers) Register(ctx context.Context, bus Bus) error {
	handlers := map[string]events.Handler{
		domainevents.TopicMedicineCreated: s.OnCreated,
		domainevents.TopicMedicineUpdated: s.OnUpdated,
		domainevents.TopicMedicineDeleted: s.OnDeleted,
	}

	topics := make([]string, 0, len(handlers))
	for topic, h := range handlers {
		errCh, err := bus.Subscribe(ctx, topic, h)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		go func() {
			for err := range errCh {
				s.log.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}()
		topics = append(topics, topic)
	}

	s.log.Info("event subscribers registered", "topics", topics)
	return nil
}

// OnCreated warms the cache with the new record. The cache ignores the
// snapshot if an update or delete for the same id got there first.
func (s *Subscribers) OnCreated(ctx context.Context, msg *message.Message) error {
	evt, ok, err := s.decode(ctx, msg)
	if err != nil || !ok {
		return err
	}
	if evt.Medicine == nil {
		return nil
	}

	if s.cache != nil {
		stored, err := s.cache.Set(ctx, fromSnapshot(evt.Medicine))
		switch {
		case err != nil:
			// Cache warming is best-effort; GetByID repopulates on a miss.
			s.log.WarnContext(ctx, "cache warm failed for medicine.created",
				"medicine_id", evt.MedicineID, "error", err)
		case stored:
			s.log.DebugContext(ctx, "cache warmed", "medicine_id", evt.MedicineID)
		default:
			s.log.DebugContext(ctx, "stale medicine.created not cached", "medicine_id", evt.MedicineID)
		}
	}
	s.warnLowStock(ctx, evt.Medicine)
	return nil
}

// OnUpdated drops cached copies older than the update. Events can arrive out
// of order across consumers, so the cache is refilled by the next read.
func (s *Subscribers) OnUpdated(ctx context.Context, msg *message.Message) error {
	evt, ok, err := s.decode(ctx, msg)
	if err != nil || !ok {
		return err
	}
	version := evt.OccurredAt
	if evt.Medicine != nil {
		version = evt.Medicine.UpdatedAt
	}
	if err := s.invalidate(ctx, evt.MedicineID, func(ctx context.Context) error {
		return s.cache.Invalidate(ctx, evt.MedicineID, version)
	}); err != nil {
		return err
	}
	if evt.Medicine != nil {
		s.warnLowStock(ctx, evt.Medicine)
	}
	return nil
}

// OnDeleted drops the cached copy and keeps late events from restoring it.
func (s *Subscribers) OnDeleted(ctx context.Context, msg *message.Message) error {
	evt, ok, err := s.decode(ctx, msg)
	if err != nil || !ok {
		return err
	}
	return s.invalidate(ctx, evt.MedicineID, func(ctx context.Context) error {
		return s.cache.Delete(ctx, evt.MedicineID)
	})
}

// decode returns ok=false for events from a newer schema, which this
// consumer acks without acting on.
func (s *Subscribers) decode(ctx context.Context, msg *message.Message) (domainevents.MedicineEvent, bool, error) {
	var evt domainevents.MedicineEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return evt, false, fmt.Errorf("decode medicine event %s: %w", msg.UUID, err)
	}
	if evt.Version > domainevents.EventVersion {
		s.log.WarnContext(ctx, "skipping medicine event from newer schema",
			"event_id", evt.EventID, "version", evt.Version)
		return evt, false, nil
	}
	return evt, true, nil
}

func (s *Subscribers) invalidate(ctx context.Context, id int64, fn func(context.Context) error) error {
	if s.cache == nil {
		return nil
	}
	if err := fn(ctx); err != nil {
		// A stale entry would be served for up to a day, so retry.
		return fmt.Errorf("invalidate medicine %d: %w", id, err)
	}
	return nil
}

func (s *Subscribers) warnLowStock(ctx context.Context, m *domainevents.MedicineSnapshot) {
	if m.Quantity > s.lowStock {
		return
	}
	s.log.WarnContext(ctx, "medicine low on stock",
		"medicine_id", m.ID, "name", m.Name, "quantity", m.Quantity, "threshold", s.lowStock)
}

func fromSnapshot(m *domainevents.MedicineSnapshot) *cache.CachedMedicine {
	return &cache.CachedMedicine{
		ID:        m.ID,
		Name:      m.Name,
		Brand:     m.Brand,
		Dosage:    m.Dosage,
		Quantity:  m.Quantity,
		ExpiresAt: m.ExpiresAt,
		Lot:       m.Lot,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
