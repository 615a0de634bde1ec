package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/addotey/musician-payments/internal/gateway"
	"github.com/addotey/musician-payments/internal/httpx"
	"github.com/addotey/musician-payments/internal/metrics"
	"github.com/addotey/musician-payments/internal/services"
)

// TransferHandler exposes the gateway adapter over HTTP.
type TransferHandler struct {
	Adapter *gateway.Adapter
}

func NewTransferHandler(adapter *gateway.Adapter) *TransferHandler {
	return &TransferHandler{Adapter: adapter}
}

// EnsureRecipient: POST /transfers/recipient
func (h *TransferHandler) EnsureRecipient(w http.ResponseWriter, r *http.Request) {
	type req struct {
		InstrumentalistID uint `json:"instrumentalist_id"`
	}
	var body req
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	recipientID, err := h.Adapter.EnsureRecipient(r.Context(), body.InstrumentalistID)
	if err != nil {
		httpx.ServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"recipient_id": recipientID})
}

// Initiate: POST /transfers/initiate
func (h *TransferHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	type req struct {
		PaymentID   uint   `json:"payment_id"`
		InitiatedBy string `json:"initiated_by"`
	}
	var body req
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	result, err := h.Adapter.InitiateTransfer(r.Context(), body.PaymentID, body.InitiatedBy)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGatewayRejected):
			metrics.TransfersInitiated.WithLabelValues("rejected").Inc()
		case errors.Is(err, services.ErrGatewayUnavailable):
			metrics.TransfersInitiated.WithLabelValues("unavailable").Inc()
		}
		httpx.ServiceError(w, err)
		return
	}
	metrics.TransfersInitiated.WithLabelValues("success").Inc()
	httpx.JSON(w, http.StatusOK, result)
}

// Verify: GET /transfers/verify?code=
func (h *TransferHandler) Verify(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	status, err := h.Adapter.VerifyTransfer(r.Context(), code)
	if err != nil {
		httpx.ServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

// Balance: GET /transfers/balance
func (h *TransferHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.Adapter.Balance(r.Context())
	if err != nil {
		httpx.ServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}
