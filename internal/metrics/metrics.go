// Package metrics exposes Prometheus counters for the payment core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "musipay",
		Name:      "payments_created_total",
		Help:      "Payments inserted into the ledger.",
	})
	PaymentsApproved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "musipay",
		Name:      "payments_approved_total",
		Help:      "Payments transitioned pending to approved.",
	})
	PaymentsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "musipay",
		Name:      "payments_settled_total",
		Help:      "Payments reaching a terminal status, by outcome.",
	}, []string{"outcome"}) // paid or failed
	TransfersInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "musipay",
		Name:      "transfers_initiated_total",
		Help:      "Gateway transfer attempts, by outcome.",
	}, []string{"outcome"}) // success, rejected, unavailable
	BatchesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "musipay",
		Name:      "batches_processed_total",
		Help:      "Batches driven to completed.",
	})
)
