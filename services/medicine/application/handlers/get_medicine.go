package handlers

import (
	"net/http"

	"github.com/ghuser/medshelf/pkg/httpx"
)

// GetMedicineHandler handles GET /medicines/{id} requests.
type GetMedicineHandler struct {
	base
}

func NewGetMedicineHandler(d Deps) *GetMedicineHandler {
	return &GetMedicineHandler{base: newBase(d)}
}

// Execute returns one medicine.
//
//	@Summary	Get medicine
//	@Tags		medicines
//	@Produce	json
//	@Param		id	path		int	true	"Medicine ID"
//	@Success	200	{object}	MedicineResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/medicines/{id} [get]
func (h *GetMedicineHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.medicineID(w, r)
	if !ok {
		return
	}

	m, err := h.svc.Medicine.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(m))
}
