package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payout methods supported by the transfer gateway.
const (
	PayoutMobileMoney = "mobile_money"
	PayoutBank        = "bank"
)

// Instrumentalist is owned by the roster collaborator. The payment core reads
// rates and payout details and writes back only GatewayRecipientID once a
// recipient has been provisioned at the gateway.
type Instrumentalist struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"not null" json:"name"`
	Phone          string          `json:"phone"`
	Instrument     string          `json:"instrument"`
	SkillLevel     string          `json:"skill_level"`
	PerServiceRate decimal.Decimal `gorm:"type:numeric(12,2)" json:"per_service_rate"`
	HourlyRate     decimal.Decimal `gorm:"type:numeric(12,2)" json:"hourly_rate"`
	Active         bool            `gorm:"not null;default:true" json:"active"`

	PayoutMethod      string `json:"payout_method"` // mobile_money or bank
	MomoProvider      string `json:"momo_provider"`
	MomoNumber        string `json:"momo_number"`
	MomoName          string `json:"momo_name"`
	BankName          string `json:"bank_name"`
	BankAccountNumber string `json:"bank_account_number"`
	BankAccountName   string `json:"bank_account_name"`

	GatewayRecipientID *string `gorm:"index" json:"gateway_recipient_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
