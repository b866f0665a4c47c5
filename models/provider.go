package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProviderPending  = "PENDING"
	ProviderApproved = "APPROVED"
	ProviderRejected = "REJECTED"
)

// Provider is an organisation that collects intake submissions. It can only
// sign in and publish forms once an admin has approved it.
type Provider struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"size:255" json:"name"`
	Email           string         `gorm:"size:150;index" json:"email"`
	Status          string         `gorm:"size:32;index;default:PENDING" json:"status"`
	ReviewedBy      *uint          `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
