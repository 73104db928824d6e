package handlers

import (
	"net/http"

	"github.com/ghuser/medshelf/pkg/httpx"
)

// DeleteMedicineHandler handles DELETE /medicines/{id} requests.
type DeleteMedicineHandler struct {
	base
}

func NewDeleteMedicineHandler(d Deps) *DeleteMedicineHandler {
	return &DeleteMedicineHandler{base: newBase(d)}
}

// Execute hard-deletes a medicine.
//
//	@Summary	Delete medicine
//	@Tags		medicines
//	@Param		id	path	int	true	"Medicine ID"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/medicines/{id} [delete]
func (h *DeleteMedicineHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.medicineID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Medicine.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.NoContent(w)
}
