package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/addotey/musician-payments/internal/models"
	"github.com/addotey/musician-payments/internal/services"
)

// Adapter drives the transfer gateway on behalf of the ledger: provisions
// recipients, initiates transfers, and translates provider outcomes into
// ledger transitions. It never retries on its own; after a timeout the payment
// is still approved and the operator re-invokes with the same reference.
type Adapter struct {
	provider TransferProvider
	roster   services.RosterStore
	ledger   *services.LedgerService
	timeout  time.Duration
}

func NewAdapter(provider TransferProvider, roster services.RosterStore, ledger *services.LedgerService, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{provider: provider, roster: roster, ledger: ledger, timeout: timeout}
}

// EnsureRecipient returns the instrumentalist's gateway recipient id,
// provisioning one on first use. Idempotent: once the id is persisted, no
// further provider calls are made.
func (a *Adapter) EnsureRecipient(ctx context.Context, instrumentalistID uint) (string, error) {
	inst, err := a.roster.GetInstrumentalist(instrumentalistID)
	if err != nil {
		return "", err
	}
	if inst.GatewayRecipientID != nil && *inst.GatewayRecipientID != "" {
		return *inst.GatewayRecipientID, nil
	}

	profile, err := payoutProfile(inst)
	if err != nil {
		return "", err
	}

	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	recipientID, err := a.provider.CreateRecipient(cctx, profile)
	if err != nil {
		return "", err
	}
	if err := a.roster.SaveRecipientID(inst.ID, recipientID); err != nil {
		return "", err
	}
	return recipientID, nil
}

// payoutProfile validates profile completeness and maps it to the gateway's
// recipient shape.
func payoutProfile(inst *models.Instrumentalist) (RecipientProfile, error) {
	switch inst.PayoutMethod {
	case models.PayoutMobileMoney:
		if inst.MomoProvider == "" || inst.MomoNumber == "" || inst.MomoName == "" {
			return RecipientProfile{}, fmt.Errorf("instrumentalist %d mobile-money profile incomplete: %w",
				inst.ID, services.ErrIncompletePayoutProfile)
		}
		return RecipientProfile{
			Type:          "mobile_money",
			Name:          inst.MomoName,
			AccountNumber: inst.MomoNumber,
			BankCode:      strings.ToUpper(inst.MomoProvider),
			Currency:      "GHS",
		}, nil
	case models.PayoutBank:
		if inst.BankName == "" || inst.BankAccountNumber == "" || inst.BankAccountName == "" {
			return RecipientProfile{}, fmt.Errorf("instrumentalist %d bank profile incomplete: %w",
				inst.ID, services.ErrIncompletePayoutProfile)
		}
		return RecipientProfile{
			Type:          "nuban",
			Name:          inst.BankAccountName,
			AccountNumber: inst.BankAccountNumber,
			BankCode:      inst.BankName,
			Currency:      "GHS",
		}, nil
	}
	return RecipientProfile{}, fmt.Errorf("instrumentalist %d has no payout method: %w",
		inst.ID, services.ErrIncompletePayoutProfile)
}

// InitiateTransfer settles one approved payment through the gateway.
// Provider success records the correlation fields and marks the payment paid;
// an explicit decline marks it failed; a timeout changes nothing.
func (a *Adapter) InitiateTransfer(ctx context.Context, paymentID uint, initiatedBy string) (*TransferResult, error) {
	payment, err := a.ledger.Get(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusApproved {
		return nil, fmt.Errorf("payment %d is %s, not approved: %w",
			payment.ID, payment.Status, services.ErrInvalidTransition)
	}

	recipientID, err := a.EnsureRecipient(ctx, payment.InstrumentalistID)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	result, err := a.provider.InitiateTransfer(cctx, TransferRequest{
		Amount:      payment.Amount,
		RecipientID: recipientID,
		Reason:      fmt.Sprintf("Instrumentalist payment %s", payment.ReferenceNumber),
		Reference:   payment.ReferenceNumber,
	})
	if err != nil {
		if errors.Is(err, services.ErrGatewayRejected) {
			if ferr := a.ledger.MarkFailed(payment.ID, err.Error()); ferr != nil {
				return nil, fmt.Errorf("record gateway rejection: %v (original: %w)", ferr, err)
			}
		}
		// Unavailable: the payment stays approved for an operator retry.
		return nil, err
	}

	err = a.ledger.MarkPaid(payment.ID, services.MarkPaidInput{
		Method:        "gateway_transfer",
		PaidBy:        initiatedBy,
		PaymentDate:   time.Now(),
		TransferCode:  result.TransferCode,
		TransferID:    result.TransferID,
		GatewayStatus: result.Status,
	})
	if err != nil {
		// Money moved but the ledger write lost a race; surface loudly so
		// reconciliation picks it up rather than hiding the transfer.
		return result, fmt.Errorf("transfer %s sent but ledger update failed: %w", result.TransferCode, err)
	}
	return result, nil
}

// VerifyTransfer is a read-only status probe; reconciliation against the
// ledger is an explicit operator step, never automatic.
func (a *Adapter) VerifyTransfer(ctx context.Context, transferCode string) (*TransferStatus, error) {
	if strings.TrimSpace(transferCode) == "" {
		return nil, fmt.Errorf("transfer code is required: %w", services.ErrValidation)
	}
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.provider.VerifyTransfer(cctx, transferCode)
}

// Balance is a pre-flight check before bulk processing; the core never blocks
// a batch on it.
func (a *Adapter) Balance(ctx context.Context) (*Balance, error) {
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.provider.Balance(cctx)
}
