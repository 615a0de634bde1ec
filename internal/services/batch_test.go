package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/addotey/musician-payments/internal/models"
)

// seedApprovedPayments creates n approved payments, one per fresh service.
func seedApprovedPayments(t *testing.T, db *gorm.DB, ledger *LedgerService, inst models.Instrumentalist, amounts ...string) []uint {
	t.Helper()
	var ids []uint
	for i, amount := range amounts {
		svc := models.Service{ServiceDate: time.Date(2026, 7, 1+i, 0, 0, 0, 0, time.UTC), ServiceType: "sunday_first"}
		if err := db.Create(&svc).Error; err != nil {
			t.Fatalf("service: %v", err)
		}
		p := mustCreatePayment(t, ledger, inst.ID, svc.ID, amount)
		if err := ledger.Approve(p.ID, "treasurer", ""); err != nil {
			t.Fatalf("approve: %v", err)
		}
		ids = append(ids, p.ID)
	}
	return ids
}

func TestCreateBatchLocksTotals(t *testing.T) {
	db := setupTestDB(t)
	inst := seedInstrumentalist(t, db)
	ledger := NewLedgerService(db)
	batches := NewBatchService(db)
	ids := seedApprovedPayments(t, db, ledger, inst, "50.00", "30.00")

	b, err := batches.CreateBatch("July settlement", ids, "treasurer", "")
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if !b.TotalAmount.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("expected total 80.00, got %s", b.TotalAmount)
	}
	if b.PaymentCount != 2 || len(b.Items) != 2 {
		t.Fatalf("expected 2 items, got count=%d items=%d", b.PaymentCount, len(b.Items))
	}
	if b.Status != models.BatchStatusDraft {
		t.Fatalf("expected draft, got %s", b.Status)
	}

	// Editing a member payment afterwards must not move the locked total.
	db.Model(&models.Payment{}).Where("id = ?", ids[0]).Update("amount", decimal.NewFromInt(999))
	got, err := batches.Get(b.ID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if !got.TotalAmount.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("total silently changed: %s", got.TotalAmount)
	}
}

func TestCreateBatchRejectsNonApprovedMembers(t *testing.T) {
	db := setupTestDB(t)
	inst := seedInstrumentalist(t, db)
	ledger := NewLedgerService(db)
	batches := NewBatchService(db)
	ids := seedApprovedPayments(t, db, ledger, inst, "50.00")

	// A pending payment alongside an approved one poisons the whole set.
	svc := models.Service{ServiceDate: time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC), ServiceType: "midweek"}
	if err := db.Create(&svc).Error; err != nil {
		t.Fatalf("service: %v", err)
	}
	pending := mustCreatePayment(t, ledger, inst.ID, svc.ID, "30.00")

	_, err := batches.CreateBatch("bad set", append(ids, pending.ID), "treasurer", "")
	if !errors.Is(err, ErrIncompleteBatchSet) {
		t.Fatalf("expected ErrIncompleteBatchSet, got %v", err)
	}

	var batchCount, itemCount int64
	db.Model(&models.PaymentBatch{}).Count(&batchCount)
	db.Model(&models.BatchItem{}).Count(&itemCount)
	if batchCount != 0 || itemCount != 0 {
		t.Fatalf("partial batch persisted: batches=%d items=%d", batchCount, itemCount)
	}

	// Unknown ids poison the set the same way.
	if _, err := batches.CreateBatch("ghost", []uint{ids[0], 9999}, "treasurer", ""); !errors.Is(err, ErrIncompleteBatchSet) {
		t.Fatalf("expected ErrIncompleteBatchSet, got %v", err)
	}
}

func TestCreateBatchRejectsPaymentInOpenBatch(t *testing.T) {
	db := setupTestDB(t)
	inst := seedInstrumentalist(t, db)
	ledger := NewLedgerService(db)
	batches := NewBatchService(db)
	ids := seedApprovedPayments(t, db, ledger, inst, "50.00", "30.00")

	if _, err := batches.CreateBatch("first", ids[:1], "treasurer", ""); err != nil {
		t.Fatalf("create first batch: %v", err)
	}
	// ids[0] now sits in a draft batch and cannot join another.
	if _, err := batches.CreateBatch("second", ids, "treasurer", ""); !errors.Is(err, ErrIncompleteBatchSet) {
		t.Fatalf("expected ErrIncompleteBatchSet, got %v", err)
	}
	// The remaining payment is still free.
	if _, err := batches.CreateBatch("second", ids[1:], "treasurer", ""); err != nil {
		t.Fatalf("create second batch: %v", err)
	}
}

func TestApproveBatchTransitions(t *testing.T) {
	db := setupTestDB(t)
	inst := seedInstrumentalist(t, db)
	ledger := NewLedgerService(db)
	batches := NewBatchService(db)
	ids := seedApprovedPayments(t, db, ledger, inst, "50.00")
	b, err := batches.CreateBatch("July", ids, "treasurer", "")
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	if err := batches.ApproveBatch(b.ID, "chairman"); err != nil {
		t.Fatalf("approve batch: %v", err)
	}
	if err := batches.ApproveBatch(b.ID, "chairman"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on re-approve, got %v", err)
	}
	if err := batches.ApproveBatch(9999, "chairman"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProcessBatchAllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	inst := seedInstrumentalist(t, db)
	ledger := NewLedgerService(db)
	batches := NewBatchService(db)
	ids := seedApprovedPayments(t, db, ledger, inst, "50.00", "30.00", "20.00")
	b, err := batches.CreateBatch("July", ids, "treasurer", "")
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	// Draft batches cannot be processed.
	if _, err := batches.ProcessBatch(b.ID, "momo", "treasurer", time.Time{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on draft, got %v", err)
	}

	if err := batches.ApproveBatch(b.ID, "chairman"); err != nil {
		t.Fatalf("approve batch: %v", err)
	}
	when := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	updated, err := batches.ProcessBatch(b.ID, "momo", "treasurer", when)
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if updated != 3 {
		t.Fatalf("expected 3 payments updated, got %d", updated)
	}

	var payments []models.Payment
	db.Where("id IN ?", ids).Find(&payments)
	for _, p := range payments {
		if p.Status != models.PaymentStatusPaid || p.PaidBy != "treasurer" || p.PaidAt == nil || !p.PaidAt.Equal(when) {
			t.Fatalf("member payment not settled uniformly: %+v", p)
		}
	}
	var got models.PaymentBatch
	db.First(&got, b.ID)
	if got.Status != models.BatchStatusCompleted || got.ProcessedAt == nil {
		t.Fatalf("batch not completed: %+v", got)
	}

	// Completed is terminal.
	if _, err := batches.ProcessBatch(b.ID, "momo", "treasurer", when); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on completed, got %v", err)
	}
}

func TestProcessBatchRollsBackWhenMemberSettledElsewhere(t *testing.T) {
	db := setupTestDB(t)
	inst := seedInstrumentalist(t, db)
	ledger := NewLedgerService(db)
	batches := NewBatchService(db)
	ids := seedApprovedPayments(t, db, ledger, inst, "50.00", "30.00")
	b, err := batches.CreateBatch("July", ids, "treasurer", "")
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if err := batches.ApproveBatch(b.ID, "chairman"); err != nil {
		t.Fatalf("approve batch: %v", err)
	}

	// One member gets settled out-of-band via the independent bulk path.
	processed, itemErrors := ledger.BulkMarkPaid(ids[:1], "cash", "OOB-1", "assistant", time.Now())
	if processed != 1 || len(itemErrors) != 0 {
		t.Fatalf("bulk settle: processed=%d errors=%+v", processed, itemErrors)
	}

	if _, err := batches.ProcessBatch(b.ID, "momo", "treasurer", time.Time{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// Whole transaction rolled back: batch still approved, second payment untouched.
	var got models.PaymentBatch
	db.First(&got, b.ID)
	if got.Status != models.BatchStatusApproved {
		t.Fatalf("batch status changed despite rollback: %s", got.Status)
	}
	var second models.Payment
	db.First(&second, ids[1])
	if second.Status != models.PaymentStatusApproved {
		t.Fatalf("member payment changed despite rollback: %s", second.Status)
	}
}
