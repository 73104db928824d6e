// Package sqlstore implements repositories.MedicineRepository over
// database/sql for both PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/medshelf/pkg/database"
	"github.com/ghuser/medshelf/pkg/events"
	"github.com/ghuser/medshelf/pkg/logger"
	medicinedomain "github.com/ghuser/medshelf/services/medicine/domain"
	domainevents "github.com/ghuser/medshelf/services/medicine/domain/events"
	"github.com/ghuser/medshelf/services/medicine/domain/models"
	"github.com/ghuser/medshelf/services/medicine/domain/repositories"
	domainservices "github.com/ghuser/medshelf/services/medicine/domain/services"
)

// EventPublisher is the slice of *events.EventBus the repository needs.
type EventPublisher interface {
	Transactional() bool
	NewTxPublisher(tx *sql.Tx) (message.Publisher, error)
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// MedicineRepository implements repositories.MedicineRepository.
//
// Every mutation publishes a MedicineEvent. On a transactional bus the
// event is written in the same transaction as the row; otherwise it is
// published after commit and a publish failure is logged, not returned.
type MedicineRepository struct {
	db  *database.Database
	d   dialect
	bus EventPublisher
	log logger.Logger
}

var _ repositories.MedicineRepository = (*MedicineRepository)(nil)

// NewMedicineRepository returns a repository for db. bus may be nil to
// disable event publishing.
func NewMedicineRepository(db *database.Database, bus EventPublisher, log logger.Logger) *MedicineRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &MedicineRepository{db: db, d: dialectFor(db.Driver()), bus: bus, log: log}
}

// Insert persists m, assigns m.ID and publishes medicine.created.
func (r *MedicineRepository) Insert(ctx context.Context, m *models.Medicine) error {
	a := &argList{d: r.d}
	query := "INSERT INTO medicines (name, brand, dosage, quantity, expires_at, lot, notes, created_at, updated_at) VALUES (" +
		strings.Join([]string{
			a.add(m.Name.String()),
			a.add(m.Brand),
			a.add(m.Dosage),
			a.add(m.Quantity),
			a.add(r.d.encodeDate(m.ExpiresAt)),
			a.add(m.Lot),
			a.add(m.Notes),
			a.add(r.d.encodeTime(m.CreatedAt)),
			a.add(r.d.encodeTime(m.UpdatedAt)),
		}, ", ") + ") RETURNING id"

	return r.mutate(ctx, domainevents.TopicMedicineCreated, func(tx *sql.Tx) (domainevents.MedicineEvent, error) {
		if err := tx.QueryRowContext(ctx, query, a.args...).Scan(&m.ID); err != nil {
			return domainevents.MedicineEvent{}, fmt.Errorf("insert medicine: %w", err)
		}
		return domainevents.New(m.ID, domainservices.Snapshot(m), m.CreatedAt), nil
	})
}

// GetByID returns ErrMedicineNotFound when no row has id.
func (r *MedicineRepository) GetByID(ctx context.Context, id int64) (*models.Medicine, error) {
	query := "SELECT " + medicineColumns + " FROM medicines WHERE id = " + r.d.bind(1)
	m, err := scanMedicine(r.db.DB().QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, medicinedomain.ErrMedicineNotFound
		}
		return nil, fmt.Errorf("query medicine: %w", err)
	}
	return m, nil
}

// List returns a page of medicines matching q.Search, newest change first,
// and the total number of matches.
func (r *MedicineRepository) List(ctx context.Context, q repositories.ListQuery) ([]*models.Medicine, int, error) {
	a := &argList{d: r.d}
	where := searchClause(a, q.Search)

	var total int
	if err := r.db.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM medicines"+where, a.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medicines: %w", err)
	}

	query := "SELECT " + medicineColumns + " FROM medicines" + where +
		" ORDER BY updated_at DESC, id DESC LIMIT " + a.add(q.Limit) + " OFFSET " + a.add(q.Offset)
	rows, err := r.db.DB().QueryContext(ctx, query, a.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query medicines: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	items := make([]*models.Medicine, 0)
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan medicine: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate medicines: %w", err)
	}
	return items, total, nil
}

// Update writes the columns named by patch in one UPDATE ... RETURNING and
// publishes medicine.updated. updated_at becomes max(now, created_at).
// An empty patch still refreshes updated_at.
func (r *MedicineRepository) Update(ctx context.Context, id int64, patch models.Patch, now time.Time) (*models.Medicine, error) {
	a := &argList{d: r.d}
	var sets []string
	set := func(col string, v any) { sets = append(sets, col+" = "+a.add(v)) }

	if patch.Name != nil {
		set("name", patch.Name.String())
	}
	if patch.Brand.Set {
		set("brand", patch.Brand.Value)
	}
	if patch.Dosage.Set {
		set("dosage", patch.Dosage.Value)
	}
	if patch.Quantity != nil {
		set("quantity", *patch.Quantity)
	}
	if patch.ExpiresAt.Set {
		set("expires_at", r.d.encodeDate(patch.ExpiresAt.Value))
	}
	if patch.Lot.Set {
		set("lot", patch.Lot.Value)
	}
	if patch.Notes.Set {
		set("notes", patch.Notes.Value)
	}
	sets = append(sets, "updated_at = "+r.d.greatest+"("+a.add(r.d.encodeTime(now))+", created_at)")

	query := "UPDATE medicines SET " + strings.Join(sets, ", ") +
		" WHERE id = " + a.add(id) + " RETURNING " + medicineColumns

	var updated *models.Medicine
	err := r.mutate(ctx, domainevents.TopicMedicineUpdated, func(tx *sql.Tx) (domainevents.MedicineEvent, error) {
		m, err := scanMedicine(tx.QueryRowContext(ctx, query, a.args...))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domainevents.MedicineEvent{}, medicinedomain.ErrMedicineNotFound
			}
			return domainevents.MedicineEvent{}, fmt.Errorf("update medicine: %w", err)
		}
		updated = m
		return domainevents.New(m.ID, domainservices.Snapshot(m), m.UpdatedAt), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete hard-deletes the row and publishes medicine.deleted.
func (r *MedicineRepository) Delete(ctx context.Context, id int64) error {
	query := "DELETE FROM medicines WHERE id = " + r.d.bind(1)
	return r.mutate(ctx, domainevents.TopicMedicineDeleted, func(tx *sql.Tx) (domainevents.MedicineEvent, error) {
		res, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return domainevents.MedicineEvent{}, fmt.Errorf("delete medicine: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return domainevents.MedicineEvent{}, fmt.Errorf("delete medicine: %w", err)
		}
		if n == 0 {
			return domainevents.MedicineEvent{}, medicinedomain.ErrMedicineNotFound
		}
		return domainevents.New(id, nil, models.Now()), nil
	})
}

// Stats counts matching, low-stock and expiring medicines in one pass.
func (r *MedicineRepository) Stats(ctx context.Context, q models.StatsQuery) (models.Stats, error) {
	a := &argList{d: r.d}
	threshold := a.add(q.LowStockThreshold)
	cutoff := a.add(r.d.encodeDate(&q.Cutoff))
	query := "SELECT COUNT(*)," +
		" COALESCE(SUM(CASE WHEN quantity <= " + threshold + " THEN 1 ELSE 0 END), 0)," +
		" COALESCE(SUM(CASE WHEN expires_at IS NOT NULL AND expires_at <= " + cutoff + " THEN 1 ELSE 0 END), 0)" +
		" FROM medicines" + searchClause(a, q.Search)

	var s models.Stats
	if err := r.db.DB().QueryRowContext(ctx, query, a.args...).Scan(&s.Total, &s.LowStock, &s.ExpiringSoon); err != nil {
		return models.Stats{}, fmt.Errorf("medicine stats: %w", err)
	}
	return s, nil
}

// mutate runs fn in a transaction and publishes the event it returns.
func (r *MedicineRepository) mutate(ctx context.Context, topic string, fn func(tx *sql.Tx) (domainevents.MedicineEvent, error)) error {
	var event domainevents.MedicineEvent
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if event, err = fn(tx); err != nil {
			return err
		}
		if r.bus == nil || !r.bus.Transactional() {
			return nil
		}
		pub, err := r.bus.NewTxPublisher(tx)
		if err != nil {
			return fmt.Errorf("create publisher: %w", err)
		}
		return r.publish(ctx, topic, event, func(msg *message.Message) error {
			return events.PublishWith(ctx, pub, topic, msg)
		})
	})
	if err != nil {
		return err
	}

	if r.bus != nil && !r.bus.Transactional() {
		err := r.publish(ctx, topic, event, func(msg *message.Message) error {
			return r.bus.Publish(ctx, topic, msg)
		})
		if err != nil {
			r.log.ErrorContext(ctx, "publish medicine event failed",
				"topic", topic, "medicine_id", event.MedicineID, "error", err)
		}
	}
	return nil
}

func (r *MedicineRepository) publish(ctx context.Context, topic string, event domainevents.MedicineEvent, send func(*message.Message) error) error {
	msg, err := events.NewJSONMessage(event)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	msg.Metadata.Set("event_id", event.EventID.String())
	msg.Metadata.Set("event_version", strconv.Itoa(event.Version))
	if err := send(msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
