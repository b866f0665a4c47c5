package models

import (
	"time"

	"gorm.io/gorm"
)

type Form struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	ProviderID            uint           `gorm:"index;not null" json:"provider_id"`
	Title                 string         `gorm:"size:255" json:"title"`
	Description           string         `gorm:"type:text" json:"description"`
	ShortCode             string         `gorm:"size:16;uniqueIndex" json:"short_code"`
	ConsentDurationMonths int            `json:"consent_duration_months"` // 0 = no expiry
	GracePeriodDays       int            `json:"grace_period_days"`
	AutoRenew             bool           `gorm:"default:false" json:"auto_renew"`
	Published             bool           `gorm:"default:false;index" json:"published"`
	Fields                []FormField    `gorm:"foreignKey:FormID" json:"fields"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

type FormField struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FormID    uint      `gorm:"index;not null" json:"form_id"`
	Label     string    `gorm:"size:255" json:"label"`
	Type      string    `gorm:"size:32" json:"type"`
	Required  bool      `json:"required"`
	Position  int       `gorm:"index" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
