package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/addotey/musician-payments/internal/models"
)

// LedgerService owns the lifecycle of individual payments. Every guarded
// transition is a conditional UPDATE ... WHERE id=? AND status=? with the
// affected-row count checked; that, plus the composite unique index on
// (instrumentalist_id, service_id), is the whole concurrency story.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService { return &LedgerService{DB: db} }

type CreatePaymentInput struct {
	InstrumentalistID uint
	ServiceID         uint
	Amount            decimal.Decimal
	PaymentType       string
	HoursWorked       *decimal.Decimal
	Notes             string
}

func validPaymentType(t string) bool {
	switch t {
	case models.PaymentTypePerService, models.PaymentTypeHourly, models.PaymentTypeFixedAmount:
		return true
	}
	return false
}

// Create inserts a new pending payment. Rejects the pair duplicate before the
// transaction opens; the unique index backstops concurrent creators.
func (s *LedgerService) Create(in CreatePaymentInput) (*models.Payment, error) {
	if in.InstrumentalistID == 0 || in.ServiceID == 0 {
		return nil, fmt.Errorf("instrumentalist_id and service_id are required: %w", ErrValidation)
	}
	if !validPaymentType(in.PaymentType) {
		return nil, fmt.Errorf("unknown payment type %q: %w", in.PaymentType, ErrValidation)
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative: %w", ErrValidation)
	}
	if in.PaymentType == models.PaymentTypeHourly && in.HoursWorked == nil {
		return nil, fmt.Errorf("hours_worked is required for hourly payments: %w", ErrValidation)
	}

	var count int64
	if err := s.DB.Model(&models.Payment{}).
		Where("instrumentalist_id = ? AND service_id = ?", in.InstrumentalistID, in.ServiceID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("payment exists for instrumentalist %d service %d: %w",
			in.InstrumentalistID, in.ServiceID, ErrDuplicatePayment)
	}

	p := models.Payment{
		InstrumentalistID: in.InstrumentalistID,
		ServiceID:         in.ServiceID,
		Amount:            in.Amount.Round(2),
		PaymentType:       in.PaymentType,
		HoursWorked:       in.HoursWorked,
		Status:            models.PaymentStatusPending,
		ReferenceNumber:   "PAY-" + strings.ToUpper(uuid.NewString()[:12]),
		Notes:             in.Notes,
	}
	if err := s.DB.Create(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("payment exists for instrumentalist %d service %d: %w",
				in.InstrumentalistID, in.ServiceID, ErrDuplicatePayment)
		}
		return nil, err
	}
	return &p, nil
}

// Get loads a payment by id.
func (s *LedgerService) Get(id uint) (*models.Payment, error) {
	var p models.Payment
	if err := s.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// ListFilter narrows List; zero values mean "no filter".
type ListFilter struct {
	Status            string
	InstrumentalistID uint
	From, To          time.Time
	Limit             int
}

func (s *LedgerService) List(f ListFilter) ([]models.Payment, error) {
	q := s.DB.Model(&models.Payment{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.InstrumentalistID != 0 {
		q = q.Where("instrumentalist_id = ?", f.InstrumentalistID)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var out []models.Payment
	if err := q.Order("id desc").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// appendNoteExpr appends a note onto the existing notes column in the same
// conditional update, so the transition and the note land atomically.
func appendNoteExpr(note string) any {
	return gorm.Expr("CASE WHEN notes IS NULL OR notes = '' THEN ? ELSE notes || ' | ' || ? END", note, note)
}

// Approve moves pending -> approved. Zero affected rows means the payment is
// missing or no longer pending; both report ErrNotFound per the ledger
// contract (the caller lost the race or used a stale id).
func (s *LedgerService) Approve(id uint, approvedBy, note string) error {
	if id == 0 || strings.TrimSpace(approvedBy) == "" {
		return fmt.Errorf("payment id and approved_by are required: %w", ErrValidation)
	}
	now := time.Now()
	updates := map[string]any{
		"status":      models.PaymentStatusApproved,
		"approved_by": approvedBy,
		"approved_at": &now,
	}
	if note != "" {
		updates["notes"] = appendNoteExpr(note)
	}
	res := s.DB.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("approve payment %d: no pending row: %w", id, ErrNotFound)
	}
	return nil
}

// MarkPaidInput carries payment metadata for the paid transition. The gateway
// fields are set only when the transfer adapter is the one settling.
type MarkPaidInput struct {
	Method        string
	Reference     string
	PaidBy        string
	PaymentDate   time.Time
	TransferCode  string
	TransferID    string
	GatewayStatus string
}

// MarkPaid moves approved -> paid. Fails with ErrInvalidTransition when the
// row exists in any other status, ErrNotFound when there is no row at all.
func (s *LedgerService) MarkPaid(id uint, in MarkPaidInput) error {
	if id == 0 || strings.TrimSpace(in.PaidBy) == "" {
		return fmt.Errorf("payment id and paid_by are required: %w", ErrValidation)
	}
	when := in.PaymentDate
	if when.IsZero() {
		when = time.Now()
	}
	updates := map[string]any{
		"status":         models.PaymentStatusPaid,
		"payment_method": in.Method,
		"paid_by":        in.PaidBy,
		"paid_at":        &when,
	}
	if in.Reference != "" {
		updates["reference_number"] = in.Reference
	}
	if in.TransferCode != "" {
		updates["transfer_code"] = in.TransferCode
	}
	if in.TransferID != "" {
		updates["transfer_id"] = in.TransferID
	}
	if in.GatewayStatus != "" {
		updates["gateway_status"] = in.GatewayStatus
	}
	res := s.DB.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusApproved).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.transitionFailure(id, "mark paid")
	}
	return nil
}

// MarkFailed moves approved -> failed and records the reason. A failed payment
// is never retried in place; retry means a fresh payment row.
func (s *LedgerService) MarkFailed(id uint, reason string) error {
	if id == 0 {
		return fmt.Errorf("payment id is required: %w", ErrValidation)
	}
	res := s.DB.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusApproved).
		Updates(map[string]any{
			"status":         models.PaymentStatusFailed,
			"failure_reason": reason,
			"gateway_status": "failed",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.transitionFailure(id, "mark failed")
	}
	return nil
}

// transitionFailure disambiguates a zero-affected-rows conditional update.
func (s *LedgerService) transitionFailure(id uint, op string) error {
	var count int64
	if err := s.DB.Model(&models.Payment{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%s payment %d: %w", op, id, ErrNotFound)
	}
	return fmt.Errorf("%s payment %d: not approved: %w", op, id, ErrInvalidTransition)
}

// BulkItemError reports one id that could not be settled during BulkMarkPaid.
type BulkItemError struct {
	PaymentID uint   `json:"payment_id"`
	Error     string `json:"error"`
}

// BulkMarkPaid applies MarkPaid per id independently: one bad id never rolls
// back the others. Distinct from batch processing, which is all-or-nothing.
func (s *LedgerService) BulkMarkPaid(ids []uint, method, reference, paidBy string, paymentDate time.Time) (int, []BulkItemError) {
	processed := 0
	var failures []BulkItemError
	for _, id := range ids {
		err := s.MarkPaid(id, MarkPaidInput{
			Method:      method,
			Reference:   reference,
			PaidBy:      paidBy,
			PaymentDate: paymentDate,
		})
		if err != nil {
			failures = append(failures, BulkItemError{PaymentID: id, Error: err.Error()})
			continue
		}
		processed++
	}
	return processed, failures
}
