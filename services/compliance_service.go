package services

import (
	"fmt"

	"gorm.io/gorm"

	"chkin-backend/consent"
	"chkin-backend/models"
)

// ComplianceSummary is the admin overview of consent across all submissions.
// Statuses are computed at read time; nothing here is stored.
type ComplianceSummary struct {
	TotalSubmissions int                     `json:"total_submissions"`
	ByStatus         map[consent.Status]int  `json:"by_status"`
	ByUrgency        map[consent.Urgency]int `json:"by_urgency"`
	AccessibleCount  int                     `json:"accessible"`
	PendingProviders int64                   `json:"pending_providers"`
}

type ComplianceService struct {
	DB      *gorm.DB
	Consent *ConsentService
}

func NewComplianceService(db *gorm.DB, consentSvc *ConsentService) *ComplianceService {
	return &ComplianceService{DB: db, Consent: consentSvc}
}

func (s *ComplianceService) Summary(actor Actor) (ComplianceSummary, error) {
	if !actor.IsAdmin() {
		return ComplianceSummary{}, ErrForbidden
	}
	summary := ComplianceSummary{
		ByStatus:  make(map[consent.Status]int, len(consent.AllStatuses)),
		ByUrgency: map[consent.Urgency]int{},
	}
	for _, st := range consent.AllStatuses {
		summary.ByStatus[st] = 0
	}

	var batch []models.Submission
	err := s.DB.Model(&models.Submission{}).
		Select("id", "consent_given", "consent_at", "consent_expires_at", "consent_withdrawn_at", "grace_period_days").
		FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				res := s.Consent.Evaluate(&batch[i])
				summary.TotalSubmissions++
				summary.ByStatus[res.Status]++
				summary.ByUrgency[res.RenewalUrgency]++
				if res.IsAccessible {
					summary.AccessibleCount++
				}
			}
			return nil
		}).Error
	if err != nil {
		return ComplianceSummary{}, fmt.Errorf("compliance summary: %w", err)
	}

	if err := s.DB.Model(&models.Provider{}).Where("status = ?", models.ProviderPending).Count(&summary.PendingProviders).Error; err != nil {
		return ComplianceSummary{}, fmt.Errorf("count pending providers: %w", err)
	}
	return summary, nil
}
