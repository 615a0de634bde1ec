package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// RecipientProfile is what the gateway needs to provision a transfer
// recipient. Type is "mobile_money" or "nuban" depending on the payout method.
type RecipientProfile struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Currency      string `json:"currency"`
}

// TransferRequest is one money-movement attempt. Reference doubles as the
// idempotency key at the provider, so a safe operator retry after a timeout
// cannot move money twice.
type TransferRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	RecipientID string          `json:"recipient"`
	Reason      string          `json:"reason"`
	Reference   string          `json:"reference"`
}

// TransferResult correlates a gateway transfer back to a payment.
type TransferResult struct {
	TransferCode string `json:"transfer_code"`
	TransferID   string `json:"transfer_id"`
	Status       string `json:"status"`
}

// TransferStatus is the read-only view returned by verification.
type TransferStatus struct {
	Status        string          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
}

// Balance is the provider account balance.
type Balance struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// TransferProvider is the external transfer gateway. Implementations must map
// timeouts and network failures to services.ErrGatewayUnavailable and explicit
// declines to services.ErrGatewayRejected.
type TransferProvider interface {
	CreateRecipient(ctx context.Context, profile RecipientProfile) (string, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	VerifyTransfer(ctx context.Context, transferCode string) (*TransferStatus, error)
	Balance(ctx context.Context) (*Balance, error)
}
