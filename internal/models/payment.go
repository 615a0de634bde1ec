package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses. A payment moves pending -> approved -> paid|failed and
// never leaves paid or failed.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
)

// Payment types.
const (
	PaymentTypePerService  = "per_service"
	PaymentTypeHourly      = "hourly"
	PaymentTypeFixedAmount = "fixed_amount"
)

// Payment is one instrumentalist's compensation record for one service.
// The composite unique index enforces at most one payment per
// (instrumentalist, service) pair, whatever its status.
type Payment struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	InstrumentalistID uint             `gorm:"not null;uniqueIndex:idx_payments_musician_service" json:"instrumentalist_id"`
	ServiceID         uint             `gorm:"not null;uniqueIndex:idx_payments_musician_service" json:"service_id"`
	Amount            decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaymentType       string           `gorm:"not null" json:"payment_type"`
	HoursWorked       *decimal.Decimal `gorm:"type:numeric(6,2)" json:"hours_worked,omitempty"`
	Status            string           `gorm:"not null;default:'pending';index" json:"status"`

	PaymentMethod   string     `json:"payment_method"`
	ReferenceNumber string     `gorm:"index" json:"reference_number"`
	ApprovedBy      string     `json:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	PaidBy          string     `json:"paid_by"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`

	// Gateway correlation, filled when the transfer adapter settles the payment.
	TransferCode  string `json:"transfer_code"`
	TransferID    string `json:"transfer_id"`
	GatewayStatus string `json:"gateway_status"`
	FailureReason string `json:"failure_reason"`

	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
