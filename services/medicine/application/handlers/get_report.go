package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ghuser/medshelf/services/medicine/infrastructure/export/xlsx"
)

// GetReportHandler handles GET /medicines/report.xlsx requests.
type GetReportHandler struct {
	base
}

func NewGetReportHandler(d Deps) *GetReportHandler {
	return &GetReportHandler{base: newBase(d)}
}

// Execute streams an Excel report of every medicine matching q.
//
//	@Summary	Inventory report
//	@Tags		medicines
//	@Produce	application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param		q	query		string	false	"Search term"
//	@Success	200	{file}		binary
//	@Failure	500	{object}	ErrorResponse
//	@Router		/medicines/report.xlsx [get]
func (h *GetReportHandler) Execute(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Medicine.Report(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Render fully before writing so a failure can still become a JSON 500.
	var buf bytes.Buffer
	err = xlsx.Write(&buf, report.Medicines, xlsx.Summary{
		Search:             report.Search,
		GeneratedAt:        report.GeneratedAt,
		Stats:              report.Stats.Stats,
		LowStockThreshold:  report.Stats.LowStockThreshold,
		ExpiringWithinDays: report.Stats.ExpiringWithinDays,
	})
	if err != nil {
		h.fail(w, r, fmt.Errorf("render report: %w", err))
		return
	}

	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", xlsx.Filename(report.GeneratedAt)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
