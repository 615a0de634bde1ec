package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/addotey/musician-payments/internal/httpx"
	"github.com/addotey/musician-payments/internal/metrics"
	"github.com/addotey/musician-payments/internal/models"
	"github.com/addotey/musician-payments/internal/services"
	"github.com/addotey/musician-payments/internal/validation"
)

const dateLayout = "2006-01-02"

// PaymentHandler exposes the ledger over HTTP.
type PaymentHandler struct {
	DB        *gorm.DB
	Ledger    *services.LedgerService
	Rates     *services.RateResolver
	Roster    services.RosterStore
	Directory services.ServiceDirectory
}

func NewPaymentHandler(db *gorm.DB, ledger *services.LedgerService, rates *services.RateResolver,
	roster services.RosterStore, directory services.ServiceDirectory) *PaymentHandler {
	return &PaymentHandler{DB: db, Ledger: ledger, Rates: rates, Roster: roster, Directory: directory}
}

// Create: POST /payments. Resolves the service and the amount, then inserts a
// pending payment. A zero hourly amount is treated as "not computable" and
// requires confirm_zero_amount.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	type createReq struct {
		InstrumentalistID uint             `json:"instrumentalist_id"`
		ServiceDate       string           `json:"service_date"`
		ServiceType       string           `json:"service_type"`
		PaymentType       string           `json:"payment_type"`
		HoursWorked       *decimal.Decimal `json:"hours_worked"`
		FixedAmount       *decimal.Decimal `json:"fixed_amount"`
		Notes             string           `json:"notes"`
		ConfirmZeroAmount bool             `json:"confirm_zero_amount"`
	}
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	v := validation.Violations{}
	validation.RequiredID("instrumentalist_id", req.InstrumentalistID, v)
	validation.Required("service_date", req.ServiceDate, v)
	validation.Required("service_type", req.ServiceType, v)
	validation.OneOf("payment_type", req.PaymentType,
		[]string{models.PaymentTypePerService, models.PaymentTypeHourly, models.PaymentTypeFixedAmount}, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	serviceDate, err := time.Parse(dateLayout, req.ServiceDate)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"service_date": "expected YYYY-MM-DD"})
		return
	}

	inst, err := h.Roster.GetInstrumentalist(req.InstrumentalistID)
	if err != nil {
		httpx.ServiceError(w, err)
		return
	}

	amount := h.Rates.Resolve(inst, req.PaymentType, req.HoursWorked, req.FixedAmount)
	if amount.IsZero() && !req.ConfirmZeroAmount {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed",
			map[string]string{"amount": "resolved to zero; set confirm_zero_amount to persist"})
		return
	}

	serviceID, err := h.Directory.FindOrCreateService(serviceDate, req.ServiceType)
	if err != nil {
		httpx.ServiceError(w, err)
		return
	}

	payment, err := h.Ledger.Create(services.CreatePaymentInput{
		InstrumentalistID: req.InstrumentalistID,
		ServiceID:         serviceID,
		Amount:            amount,
		PaymentType:       req.PaymentType,
		HoursWorked:       req.HoursWorked,
		Notes:             req.Notes,
	})
	if err != nil {
		httpx.ServiceError(w, err)
		return
	}
	metrics.PaymentsCreated.Inc()
	httpx.JSON(w, http.StatusCreated, payment)
}

// List: GET /payments?status=&instrumentalist_id=&from=&to=&limit=
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	f := services.ListFilter{Status: r.URL.Query().Get("status")}
	if s := r.URL.Query().Get("instrumentalist_id"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			f.InstrumentalistID = uint(n)
		}
	}
	if s := r.URL.Query().Get("from"); s != "" {
		if t, err := time.Parse(dateLayout, s); err == nil {
			f.From = t
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if t, err := time.Parse(dateLayout, s); err == nil {
			f.To = t
		}
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			f.Limit = n
		}
	}
	payments, err := h.Ledger.List(f)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_payments", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": payments, "count": len(payments)})
}

// Approve: POST /payments/approve
func (h *PaymentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	type approveReq struct {
		PaymentID  uint   `json:"payment_id"`
		ApprovedBy string `json:"approved_by"`
		Notes      string `json:"notes"`
	}
	var req approveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.Ledger.Approve(req.PaymentID, req.ApprovedBy, req.Notes); err != nil {
		httpx.ServiceError(w, err)
		return
	}
	metrics.PaymentsApproved.Inc()
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// MarkPaid: POST /payments/mark-paid
func (h *PaymentHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	type paidReq struct {
		PaymentID   uint   `json:"payment_id"`
		Method      string `json:"method"`
		Reference   string `json:"reference"`
		PaidBy      string `json:"paid_by"`
		PaymentDate string `json:"payment_date"`
	}
	var req paidReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	when, ok := parseOptionalDate(w, req.PaymentDate)
	if !ok {
		return
	}
	err := h.Ledger.MarkPaid(req.PaymentID, services.MarkPaidInput{
		Method:      req.Method,
		Reference:   req.Reference,
		PaidBy:      req.PaidBy,
		PaymentDate: when,
	})
	if err != nil {
		httpx.ServiceError(w, err)
		return
	}
	metrics.PaymentsSettled.WithLabelValues("paid").Inc()
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

// MarkFailed: POST /payments/mark-failed
func (h *PaymentHandler) MarkFailed(w http.ResponseWriter, r *http.Request) {
	type failReq struct {
		PaymentID uint   `json:"payment_id"`
		Reason    string `json:"reason"`
	}
	var req failReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.Ledger.MarkFailed(req.PaymentID, req.Reason); err != nil {
		httpx.ServiceError(w, err)
		return
	}
	metrics.PaymentsSettled.WithLabelValues("failed").Inc()
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "failed"})
}

// BulkMarkPaid: POST /payments/bulk-mark-paid. Partial failure by design: the
// response carries a success count plus per-item errors.
func (h *PaymentHandler) BulkMarkPaid(w http.ResponseWriter, r *http.Request) {
	type bulkReq struct {
		PaymentIDs  []uint `json:"payment_ids"`
		Method      string `json:"method"`
		Reference   string `json:"reference"`
		PaidBy      string `json:"paid_by"`
		PaymentDate string `json:"payment_date"`
	}
	var req bulkReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if len(req.PaymentIDs) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"payment_ids": "required"})
		return
	}
	when, ok := parseOptionalDate(w, req.PaymentDate)
	if !ok {
		return
	}
	processed, itemErrors := h.Ledger.BulkMarkPaid(req.PaymentIDs, req.Method, req.Reference, req.PaidBy, when)
	for i := 0; i < processed; i++ {
		metrics.PaymentsSettled.WithLabelValues("paid").Inc()
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"processed_count": processed,
		"errors":          itemErrors,
	})
}

// parseOptionalDate writes the validation error itself; callers just return on !ok.
func parseOptionalDate(w http.ResponseWriter, s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"payment_date": "expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}
