package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"chkin-backend/models"
)

// ConsentLogService writes and reads the consent audit trail.
type ConsentLogService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewConsentLogService(db *gorm.DB) *ConsentLogService {
	return &ConsentLogService{DB: db, Now: utcNow}
}

// Log appends an entry. Pass a transaction as tx to make the entry part of
// it, or nil to use the service's connection.
func (s *ConsentLogService) Log(tx *gorm.DB, entry *models.ConsentLog) error {
	if entry == nil {
		return gorm.ErrInvalidData
	}
	if tx == nil {
		tx = s.DB
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.Now()
	}
	return tx.Create(entry).Error
}

type ConsentLogFilter struct {
	SubmissionID *uint
	Action       string
	Limit        int
}

// List returns audit entries newest first.
func (s *ConsentLogService) List(f ConsentLogFilter) ([]models.ConsentLog, error) {
	q := s.DB.Order("id desc")
	if f.SubmissionID != nil {
		q = q.Where("submission_id = ?", *f.SubmissionID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var out []models.ConsentLog
	if err := q.Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list consent logs: %w", err)
	}
	return out, nil
}
