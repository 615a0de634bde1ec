package models

import "time"

// Service is a dated event payments attach to. Owned by the scheduling
// collaborator; the core resolves one via ServiceDirectory and stores the id.
type Service struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ServiceDate time.Time `gorm:"not null;index" json:"service_date"`
	ServiceType string    `gorm:"not null" json:"service_type"` // ex: sunday_first, midweek, special
	CreatedAt   time.Time `json:"created_at"`
}
