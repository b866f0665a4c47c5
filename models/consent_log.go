package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	ConsentActionGranted   = "granted"
	ConsentActionWithdrawn = "withdrawn"
	ConsentActionRenewed   = "renewed"
	ConsentActionAccessed  = "accessed"
	ConsentActionDenied    = "denied"
)

var ErrConsentLogImmutable = errors.New("consent logs are append-only")

// ConsentLog is the audit trail of consent changes and data access decisions.
type ConsentLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"index" json:"submission_id"`
	ActorID      *uint     `gorm:"index" json:"actor_id"`
	ActorRole    string    `gorm:"size:32" json:"actor_role"`
	Action       string    `gorm:"size:32;index" json:"action"`
	Status       string    `gorm:"size:32" json:"status"`
	Detail       string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (c *ConsentLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrConsentLogImmutable
}

func (c *ConsentLog) BeforeDelete(tx *gorm.DB) error {
	return ErrConsentLogImmutable
}
