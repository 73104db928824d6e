package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ghuser/medshelf/pkg/optional"
	medicinedomain "github.com/ghuser/medshelf/services/medicine/domain"
	"github.com/ghuser/medshelf/services/medicine/domain/models"
)

// Quantity accepts a JSON number or a numeric string ("10"). An empty
// string is 0. Fractions, non-numeric strings and negatives are rejected.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return errInvalidQuantity
		}
		raw = []byte(strings.TrimSpace(s))
		if len(raw) == 0 {
			*q = 0
			return nil
		}
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return errInvalidQuantity
	}
	*q = Quantity(f)
	return nil
}

var errInvalidQuantity = medicinedomain.Invalid("quantity", "quantity must be a non-negative integer")

// MedicineResponse is the wire form of a medicine record.
type MedicineResponse struct {
	ID        int64        `json:"id"         example:"1"`
	Name      string       `json:"name"       example:"Paracetamol"`
	Brand     *string      `json:"brand"      example:"Tylenol"`
	Dosage    *string      `json:"dosage"     example:"500mg"`
	Quantity  int          `json:"quantity"   example:"10"`
	Lot       *string      `json:"lot"        example:"L-2291"`
	ExpiresAt *models.Date `json:"expires_at" swaggertype:"string" example:"2025-01-01"`
	Notes     *string      `json:"notes"      example:"Keep below 25C"`
	CreatedAt time.Time    `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time    `json:"updated_at" example:"2024-01-15T10:30:00Z"`
} // @name Medicine

func toResponse(m *models.Medicine) MedicineResponse {
	return MedicineResponse{
		ID:        m.ID,
		Name:      m.Name.String(),
		Brand:     m.Brand,
		Dosage:    m.Dosage,
		Quantity:  m.Quantity,
		Lot:       m.Lot,
		ExpiresAt: m.ExpiresAt,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CreateMedicineRequest is the request body for POST /medicines.
type CreateMedicineRequest struct {
	Name      string       `json:"name"       validate:"required,max=255" example:"Paracetamol"`
	Brand     *string      `json:"brand"      example:"Tylenol"`
	Dosage    *string      `json:"dosage"     example:"500mg"`
	Quantity  *Quantity    `json:"quantity"   swaggertype:"integer" example:"10"`
	Lot       *string      `json:"lot"        example:"L-2291"`
	ExpiresAt *models.Date `json:"expires_at" swaggertype:"string" example:"2025-01-01"`
	Notes     *string      `json:"notes"`
} // @name CreateMedicineRequest

func (req *CreateMedicineRequest) params() models.NewMedicineParams {
	p := models.NewMedicineParams{
		Name:      req.Name,
		Brand:     req.Brand,
		Dosage:    req.Dosage,
		ExpiresAt: req.ExpiresAt,
		Lot:       req.Lot,
		Notes:     req.Notes,
	}
	// "expires_at": "" means no expiry.
	if p.ExpiresAt != nil && p.ExpiresAt.IsZero() {
		p.ExpiresAt = nil
	}
	if req.Quantity != nil {
		q := int(*req.Quantity)
		p.Quantity = &q
	}
	return p
}

// UpdateMedicineRequest is the body for PUT and PATCH /medicines/{id}.
// Every field is optional; PATCH distinguishes an absent field from an
// explicit null, PUT treats both as "keep the stored value".
type UpdateMedicineRequest struct {
	Name      optional.Value[string]      `json:"name"       swaggertype:"string" example:"Paracetamol"`
	Brand     optional.Value[string]      `json:"brand"      swaggertype:"string"`
	Dosage    optional.Value[string]      `json:"dosage"     swaggertype:"string"`
	Quantity  optional.Value[Quantity]    `json:"quantity"   swaggertype:"integer" example:"5"`
	Lot       optional.Value[string]      `json:"lot"        swaggertype:"string"`
	ExpiresAt optional.Value[models.Date] `json:"expires_at" swaggertype:"string" example:"2025-01-01"`
	Notes     optional.Value[string]      `json:"notes"      swaggertype:"string"`
} // @name UpdateMedicineRequest

// patch converts the request. With keepOnNull, nulls leave the stored value
// alone; otherwise they clear nullable columns and are rejected for name
// and quantity.
func (req *UpdateMedicineRequest) patch(keepOnNull bool) (models.Patch, error) {
	var p models.Patch

	if req.Name.Set {
		if v, ok := req.Name.Get(); ok {
			name, err := models.NewMedicineName(v)
			if err != nil {
				return models.Patch{}, err
			}
			p.Name = &name
		} else if !keepOnNull {
			return models.Patch{}, medicinedomain.Invalid("name", "name is required")
		}
	}

	if req.Quantity.Set {
		if v, ok := req.Quantity.Get(); ok {
			q := int(v)
			p.Quantity = &q
		} else if !keepOnNull {
			return models.Patch{}, errInvalidQuantity
		}
	}

	p.Brand = field(req.Brand, keepOnNull)
	p.Dosage = field(req.Dosage, keepOnNull)
	expires := req.ExpiresAt
	if v, ok := expires.Get(); ok && v.IsZero() {
		expires = optional.Null[models.Date]()
	}
	p.ExpiresAt = field(expires, keepOnNull)
	p.Lot = field(req.Lot, keepOnNull)
	p.Notes = field(req.Notes, keepOnNull)
	return p, nil
}

func field[T any](v optional.Value[T], keepOnNull bool) models.Field[T] {
	if !v.Set || (keepOnNull && v.IsNull()) {
		return models.Field[T]{}
	}
	return models.Field[T]{Set: true, Value: v.Value}
}
