package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RoleProvider = "provider"
	RolePatient  = "patient"
)

type User struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	FullName   string         `gorm:"size:255" json:"full_name"`
	Email      string         `gorm:"uniqueIndex;size:150" json:"email"`
	Password   string         `gorm:"size:255" json:"-"` // bcrypt hash
	Role       string         `gorm:"size:32;index" json:"role"`
	ProviderID *uint          `gorm:"index" json:"provider_id,omitempty"`
	Provider   *Provider      `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
