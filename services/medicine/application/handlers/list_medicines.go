package handlers

import (
	"net/http"

	"github.com/ghuser/medshelf/pkg/httpx"
	appsvcs "github.com/ghuser/medshelf/services/medicine/application/services"
)

// MedicineListResponse is one page of medicines.
type MedicineListResponse struct {
	Items    []MedicineResponse `json:"items"`
	Total    int                `json:"total"    example:"42"`
	Page     int                `json:"page"     example:"1"`
	PageSize int                `json:"pageSize" example:"50"`
} // @name MedicineList

// ListMedicinesHandler handles GET /medicines requests.
type ListMedicinesHandler struct {
	base
}

func NewListMedicinesHandler(d Deps) *ListMedicinesHandler {
	return &ListMedicinesHandler{base: newBase(d)}
}

// Execute lists medicines, most recently changed first.
//
//	@Summary		List medicines
//	@Description	Case-insensitive search over name, brand and notes. pageSize is clamped to [1, 200].
//	@Tags			medicines
//	@Produce		json
//	@Param			q			query		string	false	"Search term"
//	@Param			page		query		int		false	"Page number (default 1)"
//	@Param			pageSize	query		int		false	"Page size (default 50, max 200)"
//	@Success		200			{object}	MedicineListResponse
//	@Router			/medicines [get]
func (h *ListMedicinesHandler) Execute(w http.ResponseWriter, r *http.Request) {
	params := appsvcs.ListParams{Search: r.URL.Query().Get("q")}
	if p := queryInt(r, "page"); p != nil {
		params.Page = *p
	}
	if ps := queryInt(r, "pageSize"); ps != nil {
		params.PageSize = *ps
	}

	page, err := h.svc.Medicine.List(r.Context(), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	items := make([]MedicineResponse, 0, len(page.Items))
	for _, m := range page.Items {
		items = append(items, toResponse(m))
	}
	httpx.JSON(w, http.StatusOK, MedicineListResponse{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}
