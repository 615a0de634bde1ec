package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/addotey/musician-payments/internal/services"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// ServiceError maps the core's error kinds onto HTTP statuses with stable
// machine-readable codes. The human-readable chain goes into details.
func ServiceError(w http.ResponseWriter, err error) {
	type mapping struct {
		kind   error
		status int
		code   string
	}
	mappings := []mapping{
		{services.ErrValidation, http.StatusBadRequest, "validation_failed"},
		{services.ErrNotFound, http.StatusNotFound, "not_found"},
		{services.ErrDuplicatePayment, http.StatusConflict, "duplicate_payment"},
		{services.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{services.ErrIncompleteBatchSet, http.StatusUnprocessableEntity, "incomplete_batch_set"},
		{services.ErrIncompletePayoutProfile, http.StatusUnprocessableEntity, "incomplete_payout_profile"},
		{services.ErrGatewayUnavailable, http.StatusBadGateway, "gateway_unavailable"},
		{services.ErrGatewayRejected, http.StatusBadGateway, "gateway_rejected"},
	}
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			JSONError(w, m.status, m.code, err.Error())
			return
		}
	}
	JSONError(w, http.StatusInternalServerError, "internal_error", nil)
}
