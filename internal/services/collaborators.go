package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/addotey/musician-payments/internal/models"
)

// RosterStore is the roster collaborator as seen by the payment core: fetch an
// instrumentalist and persist the gateway recipient id, nothing else.
type RosterStore interface {
	GetInstrumentalist(id uint) (*models.Instrumentalist, error)
	SaveRecipientID(id uint, recipientID string) error
}

// ServiceDirectory resolves (date, type) to a service id, creating the row if
// the scheduling collaborator has not registered it yet.
type ServiceDirectory interface {
	FindOrCreateService(date time.Time, serviceType string) (uint, error)
}

// GormRosterStore reads the instrumentalists table directly. In deployments
// where the roster lives elsewhere this is the piece to swap out.
type GormRosterStore struct {
	DB *gorm.DB
}

func NewGormRosterStore(db *gorm.DB) *GormRosterStore { return &GormRosterStore{DB: db} }

func (s *GormRosterStore) GetInstrumentalist(id uint) (*models.Instrumentalist, error) {
	var inst models.Instrumentalist
	if err := s.DB.First(&inst, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("instrumentalist %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &inst, nil
}

func (s *GormRosterStore) SaveRecipientID(id uint, recipientID string) error {
	res := s.DB.Model(&models.Instrumentalist{}).Where("id = ?", id).
		Update("gateway_recipient_id", recipientID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("instrumentalist %d: %w", id, ErrNotFound)
	}
	return nil
}

// GormServiceDirectory backs ServiceDirectory with the services table.
type GormServiceDirectory struct {
	DB *gorm.DB
}

func NewGormServiceDirectory(db *gorm.DB) *GormServiceDirectory {
	return &GormServiceDirectory{DB: db}
}

func (s *GormServiceDirectory) FindOrCreateService(date time.Time, serviceType string) (uint, error) {
	day := date.Truncate(24 * time.Hour)
	var svc models.Service
	err := s.DB.Where("service_date = ? AND service_type = ?", day, serviceType).First(&svc).Error
	if err == nil {
		return svc.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	svc = models.Service{ServiceDate: day, ServiceType: serviceType}
	if err := s.DB.Create(&svc).Error; err != nil {
		return 0, err
	}
	return svc.ID, nil
}
