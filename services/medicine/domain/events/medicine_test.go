package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e := New(42, nil, at)

	if e.EventID == uuid.Nil {
		t.Fatal("expected event id")
	}
	if e.Version != EventVersion || e.MedicineID != 42 || !e.OccurredAt.Equal(at) {
		t.Fatalf("unexpected event: %+v", e)
	}
	if New(42, nil, at).EventID == e.EventID {
		t.Fatal("event ids must be unique")
	}
}

func TestMedicineEvent_JSON(t *testing.T) {
	lot := "L1"
	e := New(7, &MedicineSnapshot{ID: 7, Name: "Aspirin", Quantity: 3, Lot: &lot}, time.Now().UTC())

	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got MedicineEvent
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Medicine == nil || got.Medicine.Name != "Aspirin" || *got.Medicine.Lot != "L1" {
		t.Fatalf("snapshot lost: %+v", got.Medicine)
	}

	b, _ = json.Marshal(New(7, nil, time.Now()))
	var raw map[string]any
	_ = json.Unmarshal(b, &raw)
	if _, ok := raw["medicine"]; ok {
		t.Fatal("deletion events should omit the snapshot")
	}
}
