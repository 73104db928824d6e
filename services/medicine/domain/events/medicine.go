package events

import (
	"time"

	"github.com/google/uuid"
)

// Watermill topics for medicine lifecycle changes.
const (
	TopicMedicineCreated = "medicine.created"
	TopicMedicineUpdated = "medicine.updated"
	TopicMedicineDeleted = "medicine.deleted"
)

// EventVersion is bumped on breaking changes to MedicineEvent.
const EventVersion = 1

// MedicineSnapshot is the record as it stood after the change.
type MedicineSnapshot struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Brand     *string   `json:"brand"`
	Dosage    *string   `json:"dosage"`
	Quantity  int       `json:"quantity"`
	ExpiresAt *string   `json:"expires_at"`
	Lot       *string   `json:"lot"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MedicineEvent is published on every topic above. Medicine is nil for deletions.
type MedicineEvent struct {
	EventID    uuid.UUID         `json:"event_id"` // for consumer-side deduplication
	Version    int               `json:"version"`
	MedicineID int64             `json:"medicine_id"`
	Medicine   *MedicineSnapshot `json:"medicine,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// New stamps a fresh event id and the current schema version.
func New(medicineID int64, snapshot *MedicineSnapshot, at time.Time) MedicineEvent {
	return MedicineEvent{
		EventID:    uuid.New(),
		Version:    EventVersion,
		MedicineID: medicineID,
		Medicine:   snapshot,
		OccurredAt: at,
	}
}
