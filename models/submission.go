package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"chkin-backend/consent"
)

type Submission struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FormID    uint           `gorm:"index;not null" json:"form_id"`
	Form      Form           `gorm:"foreignKey:FormID" json:"-"`
	PatientID uint           `gorm:"index;not null" json:"patient_id"`
	Answers   datatypes.JSON `json:"answers"`

	ConsentGiven       bool       `gorm:"default:false" json:"consent_given"`
	ConsentAt          *time.Time `json:"consent_at"`
	ConsentExpiresAt   *time.Time `gorm:"index" json:"consent_expires_at"`
	ConsentWithdrawnAt *time.Time `json:"consent_withdrawn_at"`
	GracePeriodDays    int        `json:"grace_period_days"`

	RenewalHistory datatypes.JSONSlice[consent.RenewalHistoryEntry] `json:"renewal_history"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ConsentRecord returns the fields the consent engine evaluates.
func (s *Submission) ConsentRecord() consent.Record {
	grace := s.GracePeriodDays
	return consent.Record{
		ConsentGiven:       s.ConsentGiven,
		ConsentAt:          s.ConsentAt,
		ConsentExpiresAt:   s.ConsentExpiresAt,
		ConsentWithdrawnAt: s.ConsentWithdrawnAt,
		GracePeriodDays:    &grace,
	}
}
