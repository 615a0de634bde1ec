package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/addotey/musician-payments/internal/httpx"
	"github.com/addotey/musician-payments/internal/metrics"
	"github.com/addotey/musician-payments/internal/services"
)

// BatchHandler exposes batch aggregation over HTTP.
type BatchHandler struct {
	Batches *services.BatchService
}

func NewBatchHandler(batches *services.BatchService) *BatchHandler {
	return &BatchHandler{Batches: batches}
}

// Create: POST /batches
func (h *BatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	type createReq struct {
		Name       string `json:"name"`
		PaymentIDs []uint `json:"payment_ids"`
		CreatedBy  string `json:"created_by"`
		Notes      string `json:"notes"`
	}
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	batch, err := h.Batches.CreateBatch(req.Name, req.PaymentIDs, req.CreatedBy, req.Notes)
	if err != nil {
		httpx.ServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, batch)
}

// List: GET /batches?status=&limit=
func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	batches, err := h.Batches.List(r.URL.Query().Get("status"), limit)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_batches", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": batches, "count": len(batches)})
}

// Approve: POST /batches/approve
func (h *BatchHandler) Approve(w http.ResponseWriter, r *http.Request) {
	type approveReq struct {
		BatchID    uint   `json:"batch_id"`
		ApprovedBy string `json:"approved_by"`
	}
	var req approveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.Batches.ApproveBatch(req.BatchID, req.ApprovedBy); err != nil {
		httpx.ServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// Process: POST /batches/process. All-or-nothing across the member payments.
func (h *BatchHandler) Process(w http.ResponseWriter, r *http.Request) {
	type processReq struct {
		BatchID     uint   `json:"batch_id"`
		Method      string `json:"method"`
		PaidBy      string `json:"paid_by"`
		PaymentDate string `json:"payment_date"`
	}
	var req processReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	when, ok := parseOptionalDate(w, req.PaymentDate)
	if !ok {
		return
	}
	updated, err := h.Batches.ProcessBatch(req.BatchID, req.Method, req.PaidBy, when)
	if err != nil {
		httpx.ServiceError(w, err)
		return
	}
	metrics.BatchesProcessed.Inc()
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "completed", "payments_updated": updated})
}
