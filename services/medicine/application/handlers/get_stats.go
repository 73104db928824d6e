package handlers

import (
	"net/http"

	"github.com/ghuser/medshelf/pkg/httpx"
	appsvcs "github.com/ghuser/medshelf/services/medicine/application/services"
)

// StatsResponse carries the dashboard aggregates and the thresholds used.
type StatsResponse struct {
	Total              int `json:"total"              example:"42"`
	LowStock           int `json:"lowStock"           example:"3"`
	ExpiringSoon       int `json:"expiringSoon"       example:"5"`
	LowStockThreshold  int `json:"lowStockThreshold"  example:"5"`
	ExpiringWithinDays int `json:"expiringWithinDays" example:"30"`
} // @name MedicineStats

// GetStatsHandler handles GET /medicines/stats requests.
type GetStatsHandler struct {
	base
}

func NewGetStatsHandler(d Deps) *GetStatsHandler {
	return &GetStatsHandler{base: newBase(d)}
}

// Execute computes the low-stock and expiring-soon counts.
//
//	@Summary		Medicine statistics
//	@Description	lowStock counts quantity <= threshold; expiringSoon counts expiry on or before today + withinDays, expired included.
//	@Tags			medicines
//	@Produce		json
//	@Param			q			query		string	false	"Search term"
//	@Param			lowStock	query		int		false	"Low-stock threshold (default 5)"
//	@Param			withinDays	query		int		false	"Expiry window in days (default 30)"
//	@Success		200			{object}	StatsResponse
//	@Router			/medicines/stats [get]
func (h *GetStatsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Medicine.Stats(r.Context(), appsvcs.StatsParams{
		Search:     r.URL.Query().Get("q"),
		LowStock:   queryInt(r, "lowStock"),
		WithinDays: queryInt(r, "withinDays"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, StatsResponse{
		Total:              st.Total,
		LowStock:           st.LowStock,
		ExpiringSoon:       st.ExpiringSoon,
		LowStockThreshold:  st.LowStockThreshold,
		ExpiringWithinDays: st.ExpiringWithinDays,
	})
}
