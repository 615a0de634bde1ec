package services

import "errors"

// Error kinds surfaced by the payment core. Handlers translate these into
// HTTP statuses; wrap them with %w so callers can errors.Is against the kind.
var (
	// ErrDuplicatePayment: a payment already exists for the
	// (instrumentalist, service) pair, whatever its status.
	ErrDuplicatePayment = errors.New("duplicate_payment")

	// ErrNotFound: no row matched the id (and, for guarded transitions,
	// the required current status).
	ErrNotFound = errors.New("not_found")

	// ErrInvalidTransition: the row exists but is not in the status the
	// operation requires.
	ErrInvalidTransition = errors.New("invalid_transition")

	// ErrIncompleteBatchSet: batch creation referenced ids that are missing,
	// not approved, or already claimed by an open batch.
	ErrIncompleteBatchSet = errors.New("incomplete_batch_set")

	// ErrIncompletePayoutProfile: recipient provisioning requires a complete
	// mobile-money or bank profile.
	ErrIncompletePayoutProfile = errors.New("incomplete_payout_profile")

	// ErrGatewayUnavailable: timeout or network failure talking to the
	// transfer gateway. The payment stays approved.
	ErrGatewayUnavailable = errors.New("gateway_unavailable")

	// ErrGatewayRejected: the gateway explicitly declined the request.
	ErrGatewayRejected = errors.New("gateway_rejected")

	// ErrValidation: malformed input, rejected before any transaction opens.
	ErrValidation = errors.New("validation_failed")
)
