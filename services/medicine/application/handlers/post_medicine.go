package handlers

import (
	"net/http"

	"github.com/ghuser/medshelf/pkg/httpx"
	pkgvalidator "github.com/ghuser/medshelf/pkg/validator"
)

// PostMedicineHandler handles POST /medicines requests.
type PostMedicineHandler struct {
	base
}

// NewPostMedicineHandler returns a PostMedicineHandler backed by d.
func NewPostMedicineHandler(d Deps) *PostMedicineHandler {
	return &PostMedicineHandler{base: newBase(d)}
}

// Execute creates a new medicine.
//
//	@Summary		Create medicine
//	@Description	Creates a medicine. quantity defaults to 0 and accepts a number or numeric string.
//	@Tags			medicines
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateMedicineRequest	true	"Medicine to create"
//	@Success		201		{object}	MedicineResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Router			/medicines [post]
func (h *PostMedicineHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateMedicineRequest](w, r)
	if !ok {
		return
	}

	m, err := h.svc.Medicine.Create(r.Context(), req.params())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toResponse(m))
}
