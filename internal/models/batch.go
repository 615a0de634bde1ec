package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch statuses. draft -> approved -> completed, completed is terminal.
const (
	BatchStatusDraft     = "draft"
	BatchStatusApproved  = "approved"
	BatchStatusCompleted = "completed"
)

// PaymentBatch groups approved payments for settlement in one pass. The total
// is locked at creation time from the item snapshots and is never re-summed.
type PaymentBatch struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	BatchDate    time.Time       `gorm:"not null" json:"batch_date"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	PaymentCount int             `gorm:"not null" json:"payment_count"`
	Status       string          `gorm:"not null;default:'draft';index" json:"status"`
	Items        []BatchItem     `gorm:"foreignKey:BatchID" json:"items,omitempty"`

	CreatedBy   string     `json:"created_by"`
	ApprovedBy  string     `json:"approved_by"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ProcessedBy string     `json:"processed_by"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BatchItem snapshots one payment's amount at batch-creation time.
type BatchItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	BatchID   uint            `gorm:"not null;index" json:"batch_id"`
	PaymentID uint            `gorm:"not null;index" json:"payment_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
}
