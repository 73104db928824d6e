package handlers

import (
	"net/http"

	"github.com/ghuser/medshelf/pkg/httpx"
	pkgvalidator "github.com/ghuser/medshelf/pkg/validator"
)

// PatchMedicineHandler handles PATCH /medicines/{id} requests.
type PatchMedicineHandler struct {
	base
}

func NewPatchMedicineHandler(d Deps) *PatchMedicineHandler {
	return &PatchMedicineHandler{base: newBase(d)}
}

// Execute applies a partial update.
//
//	@Summary		Update medicine fields
//	@Description	Writes only the fields present in the body. null clears brand, dosage, lot, expires_at and notes.
//	@Tags			medicines
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Medicine ID"
//	@Param			request	body		UpdateMedicineRequest	true	"Fields to change"
//	@Success		200		{object}	MedicineResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/medicines/{id} [patch]
func (h *PatchMedicineHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.medicineID(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[UpdateMedicineRequest](w, r)
	if !ok {
		return
	}
	patch, err := req.patch(false)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	m, err := h.svc.Medicine.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(m))
}

// PutMedicineHandler handles PUT /medicines/{id} requests.
type PutMedicineHandler struct {
	base
}

func NewPutMedicineHandler(d Deps) *PutMedicineHandler {
	return &PutMedicineHandler{base: newBase(d)}
}

// Execute replaces the record. Absent and null fields keep their stored value.
//
//	@Summary	Replace medicine
//	@Tags		medicines
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int						true	"Medicine ID"
//	@Param		request	body		UpdateMedicineRequest	true	"Full record"
//	@Success	200		{object}	MedicineResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/medicines/{id} [put]
func (h *PutMedicineHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.medicineID(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[UpdateMedicineRequest](w, r)
	if !ok {
		return
	}
	patch, err := req.patch(true)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	m, err := h.svc.Medicine.Replace(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(m))
}
