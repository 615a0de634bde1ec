package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/addotey/musician-payments/internal/gateway"
	"github.com/addotey/musician-payments/internal/models"
)

type stubProvider struct {
	recipientCalls int
	transferCalls  int
}

func (s *stubProvider) CreateRecipient(context.Context, gateway.RecipientProfile) (string, error) {
	s.recipientCalls++
	return "RCP_stub", nil
}

func (s *stubProvider) InitiateTransfer(_ context.Context, req gateway.TransferRequest) (*gateway.TransferResult, error) {
	s.transferCalls++
	return &gateway.TransferResult{TransferCode: "TRF_stub", TransferID: "7", Status: "success"}, nil
}

func (s *stubProvider) VerifyTransfer(context.Context, string) (*gateway.TransferStatus, error) {
	return &gateway.TransferStatus{Status: "success", Amount: decimal.NewFromInt(150)}, nil
}

func (s *stubProvider) Balance(context.Context) (*gateway.Balance, error) {
	return &gateway.Balance{Amount: decimal.NewFromInt(5000), Currency: "GHS"}, nil
}

func setupRouter(t *testing.T) (http.Handler, *gorm.DB, *stubProvider) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Instrumentalist{}, &models.Service{}, &models.Payment{},
		&models.PaymentBatch{}, &models.BatchItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	provider := &stubProvider{}
	return New(db, provider, time.Second), db, provider
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	h, _, _ := setupRouter(t)
	if w := doJSON(t, h, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _, _ := setupRouter(t)
	w := doJSON(t, h, http.MethodDelete, "/payments", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
	if allow := w.Header().Get("Allow"); !strings.Contains(allow, "POST") {
		t.Fatalf("missing Allow header, got %q", allow)
	}
}

// Full path: create -> approve -> gateway transfer -> reports.
func TestPaymentSettlementThroughRouter(t *testing.T) {
	h, db, provider := setupRouter(t)
	inst := models.Instrumentalist{
		Name: "Ama Serwaa", Active: true,
		PerServiceRate: decimal.NewFromInt(150),
		PayoutMethod:   models.PayoutMobileMoney,
		MomoProvider:   "MTN", MomoNumber: "0204000002", MomoName: "Ama Serwaa",
	}
	if err := db.Create(&inst).Error; err != nil {
		t.Fatalf("instrumentalist: %v", err)
	}

	w := doJSON(t, h, http.MethodPost, "/payments",
		`{"instrumentalist_id":`+strconv.Itoa(int(inst.ID))+`,"service_date":"2026-08-02","service_type":"sunday_first","payment_type":"per_service"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create payment: %d %s", w.Code, w.Body.String())
	}
	var payment models.Payment
	if err := json.Unmarshal(w.Body.Bytes(), &payment); err != nil {
		t.Fatalf("decode: %v", err)
	}
	paymentID := strconv.Itoa(int(payment.ID))

	// Transfer before approval is rejected locally, without a provider call.
	w = doJSON(t, h, http.MethodPost, "/transfers/initiate",
		`{"payment_id":`+paymentID+`,"initiated_by":"treasurer"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 before approval, got %d %s", w.Code, w.Body.String())
	}
	if provider.transferCalls != 0 {
		t.Fatalf("provider called before local preconditions held")
	}

	w = doJSON(t, h, http.MethodPost, "/payments/approve",
		`{"payment_id":`+paymentID+`,"approved_by":"treasurer"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, http.MethodPost, "/transfers/initiate",
		`{"payment_id":`+paymentID+`,"initiated_by":"treasurer"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("initiate: %d %s", w.Code, w.Body.String())
	}
	if provider.recipientCalls != 1 || provider.transferCalls != 1 {
		t.Fatalf("expected recipient+transfer provisioning, got %d/%d", provider.recipientCalls, provider.transferCalls)
	}

	var settled models.Payment
	db.First(&settled, payment.ID)
	if settled.Status != models.PaymentStatusPaid || settled.TransferCode != "TRF_stub" {
		t.Fatalf("payment not settled through gateway: %+v", settled)
	}

	// Reporting surface sees it.
	w = doJSON(t, h, http.MethodGet, "/reports/summary?month="+time.Now().Format("2006-01"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("summary: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), models.PaymentStatusPaid) {
		t.Fatalf("summary missing paid bucket: %s", w.Body.String())
	}

	w = doJSON(t, h, http.MethodGet, "/transfers/balance", "")
	if w.Code != http.StatusOK {
		t.Fatalf("balance: %d %s", w.Code, w.Body.String())
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	h, _, _ := setupRouter(t)
	w := doJSON(t, h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
}
