package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/addotey/musician-payments/internal/httpx"
	"github.com/addotey/musician-payments/internal/services"
)

// ReportHandler serves the read-only aggregations consumed by the external
// report-rendering collaborators.
type ReportHandler struct {
	Reports *services.ReportingService
}

func NewReportHandler(reports *services.ReportingService) *ReportHandler {
	return &ReportHandler{Reports: reports}
}

// Pending: GET /reports/pending
func (h *ReportHandler) Pending(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Reports.Pending()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_pending", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

// Summary: GET /reports/summary?month=2026-08
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	monthStr := r.URL.Query().Get("month")
	month, err := time.Parse("2006-01", monthStr)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"month": "expected YYYY-MM"})
		return
	}
	rows, err := h.Reports.MonthlySummary(month.Year(), month.Month())
	if err != nil {
		httpx.ServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"month": monthStr, "statuses": rows})
}

// History: GET /reports/history?instrumentalist_id=&limit=
func (h *ReportHandler) History(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.URL.Query().Get("instrumentalist_id"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	payments, err := h.Reports.InstrumentalistHistory(uint(id), limit)
	if err != nil {
		httpx.ServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": payments, "count": len(payments)})
}
