package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/addotey/musician-payments/internal/models"
)

// ReportingService exposes the read-only aggregations the report-rendering
// collaborators consume. No write access to payments or batches.
type ReportingService struct {
	DB *gorm.DB
}

func NewReportingService(db *gorm.DB) *ReportingService { return &ReportingService{DB: db} }

// PendingSummary lists payments awaiting approval and their total.
type PendingSummary struct {
	Payments []models.Payment `json:"payments"`
	Total    decimal.Decimal  `json:"total"`
	Count    int              `json:"count"`
}

func (s *ReportingService) Pending() (*PendingSummary, error) {
	var payments []models.Payment
	if err := s.DB.Where("status = ?", models.PaymentStatusPending).
		Order("created_at asc").Find(&payments).Error; err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return &PendingSummary{Payments: payments, Total: total, Count: len(payments)}, nil
}

// StatusSummary is one row of a monthly summary, grouped by status.
type StatusSummary struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// MonthlySummary groups the month's payments by status.
func (s *ReportingService) MonthlySummary(year int, month time.Month) ([]StatusSummary, error) {
	if year < 2000 || year > 2200 {
		return nil, fmt.Errorf("implausible year %d: %w", year, ErrValidation)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	var rows []StatusSummary
	err := s.DB.Model(&models.Payment{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("created_at >= ? AND created_at < ?", start, end).
		Group("status").Order("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// InstrumentalistHistory lists one musician's payments, newest first.
func (s *ReportingService) InstrumentalistHistory(instrumentalistID uint, limit int) ([]models.Payment, error) {
	if instrumentalistID == 0 {
		return nil, fmt.Errorf("instrumentalist id is required: %w", ErrValidation)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []models.Payment
	err := s.DB.Where("instrumentalist_id = ?", instrumentalistID).
		Order("created_at desc").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
