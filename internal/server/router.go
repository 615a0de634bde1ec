package server

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/addotey/musician-payments/internal/gateway"
	"github.com/addotey/musician-payments/internal/handlers"
	"github.com/addotey/musician-payments/internal/httpx"
	"github.com/addotey/musician-payments/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, provider gateway.TransferProvider, gatewayTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// Lightweight DB check; the body never carries error details.
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.Handler())

	ledger := services.NewLedgerService(db)
	rates := services.NewRateResolver()
	roster := services.NewGormRosterStore(db)
	directory := services.NewGormServiceDirectory(db)
	batches := services.NewBatchService(db)
	reports := services.NewReportingService(db)
	adapter := gateway.NewAdapter(provider, roster, ledger, gatewayTimeout)

	// Payment endpoints
	ph := handlers.NewPaymentHandler(db, ledger, rates, roster, directory)
	mux.Handle("/payments", methodSwitch(map[string]http.HandlerFunc{
		http.MethodGet:  ph.List,
		http.MethodPost: ph.Create,
	}))
	mux.Handle("/payments/approve", postOnly(ph.Approve))
	mux.Handle("/payments/mark-paid", postOnly(ph.MarkPaid))
	mux.Handle("/payments/mark-failed", postOnly(ph.MarkFailed))
	mux.Handle("/payments/bulk-mark-paid", postOnly(ph.BulkMarkPaid))

	// Batch endpoints
	bh := handlers.NewBatchHandler(batches)
	mux.Handle("/batches", methodSwitch(map[string]http.HandlerFunc{
		http.MethodGet:  bh.List,
		http.MethodPost: bh.Create,
	}))
	mux.Handle("/batches/approve", postOnly(bh.Approve))
	mux.Handle("/batches/process", postOnly(bh.Process))

	// Transfer gateway endpoints
	th := handlers.NewTransferHandler(adapter)
	mux.Handle("/transfers/recipient", postOnly(th.EnsureRecipient))
	mux.Handle("/transfers/initiate", postOnly(th.Initiate))
	mux.Handle("/transfers/verify", getOnly(th.Verify))
	mux.Handle("/transfers/balance", getOnly(th.Balance))

	// Reporting endpoints (read-only collaborator surface)
	rh := handlers.NewReportHandler(reports)
	mux.Handle("/reports/pending", getOnly(rh.Pending))
	mux.Handle("/reports/summary", getOnly(rh.Summary))
	mux.Handle("/reports/history", getOnly(rh.History))

	return withRecover(withLogging(mux))
}

func methodSwitch(routes map[string]http.HandlerFunc) http.Handler {
	allow := ""
	for m := range routes {
		if allow != "" {
			allow += ","
		}
		allow += m
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.Method]; ok {
			h(w, r)
			return
		}
		w.Header().Set("Allow", allow)
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
}

func postOnly(h http.HandlerFunc) http.Handler {
	return methodSwitch(map[string]http.HandlerFunc{http.MethodPost: h})
}

func getOnly(h http.HandlerFunc) http.Handler {
	return methodSwitch(map[string]http.HandlerFunc{http.MethodGet: h})
}

// Simple middleware logging & recovery kept private to this package to avoid duplication.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
