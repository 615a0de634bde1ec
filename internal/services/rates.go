package services

import (
	"github.com/shopspring/decimal"

	"github.com/addotey/musician-payments/internal/models"
)

// RateResolver computes the amount owed for a payment. Pure over its inputs
// plus the instrumentalist's current rates; no DB access.
type RateResolver struct{}

func NewRateResolver() *RateResolver { return &RateResolver{} }

// Resolve returns the amount for the given payment type, rounded to 2dp.
//   - per_service: the instrumentalist's per-service rate (zero if unset)
//   - hourly: hours * hourly rate; zero when either is missing, which callers
//     must treat as "not computable" and confirm explicitly before persisting
//   - fixed_amount: the caller-supplied amount, zero if absent
func (RateResolver) Resolve(inst *models.Instrumentalist, paymentType string, hoursWorked, fixedAmount *decimal.Decimal) decimal.Decimal {
	switch paymentType {
	case models.PaymentTypePerService:
		return inst.PerServiceRate.Round(2)
	case models.PaymentTypeHourly:
		if hoursWorked == nil || inst.HourlyRate.IsZero() {
			return decimal.Zero
		}
		return hoursWorked.Mul(inst.HourlyRate).Round(2)
	case models.PaymentTypeFixedAmount:
		if fixedAmount == nil {
			return decimal.Zero
		}
		return fixedAmount.Round(2)
	}
	return decimal.Zero
}
