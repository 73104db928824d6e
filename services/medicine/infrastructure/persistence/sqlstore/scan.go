package sqlstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ghuser/medshelf/services/medicine/domain/models"
)

const medicineColumns = "id, name, brand, dosage, quantity, expires_at, lot, notes, created_at, updated_at"

// timestamp scans TIMESTAMPTZ (time.Time) and SQLite TEXT timestamps.
type timestamp struct{ t *time.Time }

var timestampLayouts = []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"}

func (s timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*s.t = v.UTC()
		return nil
	case []byte:
		return s.parse(string(v))
	case string:
		return s.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (s timestamp) parse(v string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*s.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", v)
}

// nullDate scans DATE (time.Time) and SQLite TEXT dates, NULL to nil.
type nullDate struct{ d **models.Date }

func (s nullDate) Scan(src any) error {
	var parsed models.Date
	switch v := src.(type) {
	case nil:
		*s.d = nil
		return nil
	case time.Time:
		parsed = models.DateOf(v)
	case []byte:
		return s.Scan(string(v))
	case string:
		if len(v) > len(models.DateLayout) {
			v = v[:len(models.DateLayout)]
		}
		d, err := models.ParseDate(v)
		if err != nil {
			return err
		}
		parsed = d
	default:
		return fmt.Errorf("cannot scan %T into date", src)
	}
	*s.d = &parsed
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedicine(row rowScanner) (*models.Medicine, error) {
	var m models.Medicine
	var name string
	var brand, dosage, lot, notes sql.NullString
	err := row.Scan(
		&m.ID,
		&name,
		&brand,
		&dosage,
		&m.Quantity,
		nullDate{&m.ExpiresAt},
		&lot,
		&notes,
		timestamp{&m.CreatedAt},
		timestamp{&m.UpdatedAt},
	)
	if err != nil {
		return nil, err
	}
	m.Name = models.MedicineName(name)
	m.Brand = nullString(brand)
	m.Dosage = nullString(dosage)
	m.Lot = nullString(lot)
	m.Notes = nullString(notes)
	return &m, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
