package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/addotey/musician-payments/internal/models"
)

// BatchService groups approved payments into batches and settles them
// together. Creation and processing are single transactions: either the batch
// row plus every item lands, or nothing does.
type BatchService struct {
	DB *gorm.DB
}

func NewBatchService(db *gorm.DB) *BatchService { return &BatchService{DB: db} }

// CreateBatch snapshots the current amounts of the listed payments. Every id
// must resolve to an approved payment that is not already claimed by a draft
// or approved batch, otherwise the whole operation fails and persists nothing.
func (s *BatchService) CreateBatch(name string, paymentIDs []uint, createdBy, notes string) (*models.PaymentBatch, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("batch name is required: %w", ErrValidation)
	}
	ids := dedupeIDs(paymentIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one payment id is required: %w", ErrValidation)
	}

	var batch *models.PaymentBatch
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var payments []models.Payment
		if err := tx.Where("id IN ? AND status = ?", ids, models.PaymentStatusApproved).
			Find(&payments).Error; err != nil {
			return err
		}
		if len(payments) != len(ids) {
			return fmt.Errorf("%d of %d payments missing or not approved: %w",
				len(ids)-len(payments), len(ids), ErrIncompleteBatchSet)
		}

		// A payment may sit in at most one open batch.
		var claimed int64
		if err := tx.Model(&models.BatchItem{}).
			Joins("JOIN payment_batches ON payment_batches.id = batch_items.batch_id").
			Where("batch_items.payment_id IN ? AND payment_batches.status <> ?",
				ids, models.BatchStatusCompleted).
			Count(&claimed).Error; err != nil {
			return err
		}
		if claimed > 0 {
			return fmt.Errorf("%d payments already in an open batch: %w", claimed, ErrIncompleteBatchSet)
		}

		total := decimal.Zero
		items := make([]models.BatchItem, 0, len(payments))
		for _, p := range payments {
			total = total.Add(p.Amount)
			items = append(items, models.BatchItem{PaymentID: p.ID, Amount: p.Amount})
		}
		b := models.PaymentBatch{
			Name:         name,
			BatchDate:    time.Now().Truncate(24 * time.Hour),
			TotalAmount:  total.Round(2),
			PaymentCount: len(payments),
			Status:       models.BatchStatusDraft,
			CreatedBy:    createdBy,
			Notes:        notes,
		}
		if err := tx.Create(&b).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].BatchID = b.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		b.Items = items
		batch = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// Get loads a batch with its item snapshots.
func (s *BatchService) Get(id uint) (*models.PaymentBatch, error) {
	var b models.PaymentBatch
	if err := s.DB.Preload("Items").First(&b, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("batch %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (s *BatchService) List(status string, limit int) ([]models.PaymentBatch, error) {
	q := s.DB.Model(&models.PaymentBatch{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.PaymentBatch
	if err := q.Order("id desc").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveBatch moves draft -> approved.
func (s *BatchService) ApproveBatch(id uint, approvedBy string) error {
	if id == 0 || strings.TrimSpace(approvedBy) == "" {
		return fmt.Errorf("batch id and approved_by are required: %w", ErrValidation)
	}
	now := time.Now()
	res := s.DB.Model(&models.PaymentBatch{}).
		Where("id = ? AND status = ?", id, models.BatchStatusDraft).
		Updates(map[string]any{
			"status":      models.BatchStatusApproved,
			"approved_by": approvedBy,
			"approved_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.transitionFailure(id, "approve")
	}
	return nil
}

// ProcessBatch moves approved -> completed and marks every member payment paid
// with the same method, date, and actor. All-or-nothing: if any member is no
// longer approved (for example settled out-of-band via bulk mark-paid), the
// whole transaction rolls back and the batch stays approved.
func (s *BatchService) ProcessBatch(id uint, method, paidBy string, paymentDate time.Time) (int, error) {
	if id == 0 || strings.TrimSpace(paidBy) == "" {
		return 0, fmt.Errorf("batch id and paid_by are required: %w", ErrValidation)
	}
	when := paymentDate
	if when.IsZero() {
		when = time.Now()
	}
	updated := 0
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.PaymentBatch{}).
			Where("id = ? AND status = ?", id, models.BatchStatusApproved).
			Updates(map[string]any{
				"status":       models.BatchStatusCompleted,
				"processed_by": paidBy,
				"processed_at": &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return s.txTransitionFailure(tx, id, "process")
		}

		var itemIDs []uint
		if err := tx.Model(&models.BatchItem{}).Where("batch_id = ?", id).
			Pluck("payment_id", &itemIDs).Error; err != nil {
			return err
		}
		pay := tx.Model(&models.Payment{}).
			Where("id IN ? AND status = ?", itemIDs, models.PaymentStatusApproved).
			Updates(map[string]any{
				"status":         models.PaymentStatusPaid,
				"payment_method": method,
				"paid_by":        paidBy,
				"paid_at":        &when,
			})
		if pay.Error != nil {
			return pay.Error
		}
		if int(pay.RowsAffected) != len(itemIDs) {
			return fmt.Errorf("only %d of %d member payments still approved: %w",
				pay.RowsAffected, len(itemIDs), ErrInvalidTransition)
		}
		updated = int(pay.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (s *BatchService) transitionFailure(id uint, op string) error {
	return s.txTransitionFailure(s.DB, id, op)
}

func (s *BatchService) txTransitionFailure(tx *gorm.DB, id uint, op string) error {
	var count int64
	if err := tx.Model(&models.PaymentBatch{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%s batch %d: %w", op, id, ErrNotFound)
	}
	return fmt.Errorf("%s batch %d: wrong status: %w", op, id, ErrInvalidTransition)
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
