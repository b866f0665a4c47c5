package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"chkin-backend/consent"
	"chkin-backend/logger"
	"chkin-backend/metrics"
	"chkin-backend/models"
)

const autoRenewBatchSize = 200

// ConsentService applies consent changes to submissions and answers access
// questions with the consent engine.
type ConsentService struct {
	DB              *gorm.DB
	Policy          consent.Policy
	Logs            *ConsentLogService
	Log             *logger.Logger
	Now             func() time.Time
	AutoRenewMonths int
}

func NewConsentService(db *gorm.DB, policy consent.Policy, logs *ConsentLogService, log *logger.Logger) *ConsentService {
	return &ConsentService{
		DB:              db,
		Policy:          policy,
		Logs:            logs,
		Log:             log,
		Now:             utcNow,
		AutoRenewMonths: 12,
	}
}

// ConsentView is a submission's consent status as shown to callers.
type ConsentView struct {
	SubmissionID   uint                          `json:"submission_id"`
	Consent        consent.Result                `json:"consent"`
	Badge          consent.Badge                 `json:"badge"`
	RenewalHistory []consent.RenewalHistoryEntry `json:"renewal_history"`
}

// Evaluate computes the consent status of sub at the service's current time.
func (s *ConsentService) Evaluate(sub *models.Submission) consent.Result {
	return s.Policy.Status(sub.ConsentRecord(), s.Now())
}

func (s *ConsentService) view(sub *models.Submission) ConsentView {
	res := s.Evaluate(sub)
	history := []consent.RenewalHistoryEntry(sub.RenewalHistory)
	if history == nil {
		history = []consent.RenewalHistoryEntry{}
	}
	return ConsentView{
		SubmissionID:   sub.ID,
		Consent:        res,
		Badge:          consent.BadgeFor(res.Status),
		RenewalHistory: history,
	}
}

// load fetches a submission the actor is allowed to see: its patient, a user
// of the provider owning the form, or an admin.
func (s *ConsentService) load(db *gorm.DB, actor Actor, id uint) (models.Submission, error) {
	var sub models.Submission
	if err := db.Preload("Form").First(&sub, id).Error; err != nil {
		return models.Submission{}, notFound("load submission", err)
	}
	switch {
	case actor.IsAdmin():
	case actor.IsPatient() && sub.PatientID == actor.UserID:
	case actor.OwnsProvider(sub.Form.ProviderID):
	default:
		return models.Submission{}, ErrForbidden
	}
	return sub, nil
}

func (s *ConsentService) Status(actor Actor, id uint) (ConsentView, error) {
	sub, err := s.load(s.DB, actor, id)
	if err != nil {
		return ConsentView{}, err
	}
	v := s.view(&sub)
	metrics.ObserveConsentStatus(string(v.Consent.Status))
	return v, nil
}

func (s *ConsentService) audit(tx *gorm.DB, actor Actor, sub *models.Submission, action string, status consent.Status, detail string) error {
	entry := models.ConsentLog{
		SubmissionID: sub.ID,
		ActorID:      actor.userIDPtr(),
		ActorRole:    actor.Role,
		Action:       action,
		Status:       string(status),
		Detail:       detail,
	}
	if actor.Role == "" {
		entry.ActorRole = "system"
	}
	if err := s.Logs.Log(tx, &entry); err != nil {
		return fmt.Errorf("write consent log: %w", err)
	}
	return nil
}

// Withdraw revokes the patient's consent on a submission. Withdrawal is
// permanent: the timestamp is only ever set once.
func (s *ConsentService) Withdraw(actor Actor, id uint) (ConsentView, error) {
	if !actor.IsPatient() {
		return ConsentView{}, ErrForbidden
	}
	now := s.Now()
	var sub models.Submission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if sub, err = s.load(tx, actor, id); err != nil {
			return err
		}
		if !sub.ConsentGiven || sub.ConsentAt == nil {
			return fmt.Errorf("consent was never given: %w", ErrConflict)
		}
		if sub.ConsentWithdrawnAt != nil {
			return ErrAlreadyWithdrawn
		}
		res := tx.Model(&models.Submission{}).
			Where("id = ? AND consent_withdrawn_at IS NULL", sub.ID).
			Update("consent_withdrawn_at", now)
		if res.Error != nil {
			return fmt.Errorf("withdraw consent: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyWithdrawn
		}
		sub.ConsentWithdrawnAt = &now
		return s.audit(tx, actor, &sub, models.ConsentActionWithdrawn, consent.StatusWithdrawn, "")
	})
	if err != nil {
		return ConsentView{}, err
	}

	metrics.ObserveConsentEvent(models.ConsentActionWithdrawn)
	s.Log.Consent(models.ConsentActionWithdrawn, sub.ID, string(consent.StatusWithdrawn), logrus.Fields{"actor_id": actor.UserID})
	return s.view(&sub), nil
}

// Renew extends a submission's consent. The patient or the owning provider
// may renew; months <= 0 uses the form's configured duration.
func (s *ConsentService) Renew(actor Actor, id uint, months int) (ConsentView, error) {
	var by consent.RenewedBy
	switch {
	case actor.IsPatient():
		by = consent.RenewedByPatient
	case actor.IsProvider():
		by = consent.RenewedByProvider
	default:
		return ConsentView{}, ErrForbidden
	}

	var sub models.Submission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if sub, err = s.load(tx, actor, id); err != nil {
			return err
		}
		return s.renew(tx, actor, &sub, months, by)
	})
	if err != nil {
		return ConsentView{}, err
	}
	metrics.ObserveConsentEvent(models.ConsentActionRenewed)
	return s.view(&sub), nil
}

func (s *ConsentService) renew(tx *gorm.DB, actor Actor, sub *models.Submission, months int, by consent.RenewedBy) error {
	if months <= 0 {
		months = sub.Form.ConsentDurationMonths
	}
	if months <= 0 {
		return fmt.Errorf("no renewal duration configured: %w", ErrInvalidInput)
	}

	now := s.Now()
	before := s.Policy.Status(sub.ConsentRecord(), now)
	if !before.CanRenew || sub.ConsentExpiresAt == nil {
		return fmt.Errorf("consent is %s: %w", before.Status, ErrNotRenewable)
	}

	previous := *sub.ConsentExpiresAt
	next := consent.CalculateRenewalExpiry(previous, months)
	if !next.After(now) {
		// long expired: extending from the old expiry would still be in the past
		next = consent.CalculateExpiry(now, months)
	}
	entry, err := consent.RecordRenewal(&previous, next, by, months, now)
	if err != nil {
		return err
	}
	history := make(datatypes.JSONSlice[consent.RenewalHistoryEntry], 0, len(sub.RenewalHistory)+1)
	history = append(history, sub.RenewalHistory...)
	history = append(history, entry)

	res := tx.Model(&models.Submission{}).
		Where("id = ? AND consent_withdrawn_at IS NULL AND consent_expires_at = ?", sub.ID, previous).
		Updates(map[string]interface{}{
			"consent_expires_at": next,
			"renewal_history":    history,
		})
	if res.Error != nil {
		return fmt.Errorf("renew consent: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("submission changed concurrently: %w", ErrConflict)
	}

	sub.ConsentExpiresAt = &next
	sub.RenewalHistory = history
	after := s.Policy.Status(sub.ConsentRecord(), now)
	detail := fmt.Sprintf("by %s: %s -> %s (%d months)", by,
		previous.Format(time.RFC3339), next.Format(time.RFC3339), months)
	if err := s.audit(tx, actor, sub, models.ConsentActionRenewed, after.Status, detail); err != nil {
		return err
	}

	s.Log.Consent(models.ConsentActionRenewed, sub.ID, string(after.Status), logrus.Fields{
		"renewed_by":      by,
		"new_expires_at":  next,
		"duration_months": months,
	})
	return nil
}

// AccessSubmission returns a submission's answers to the provider that owns
// its form, but only while consent allows it. Every attempt is audited.
func (s *ConsentService) AccessSubmission(actor Actor, id uint) (models.Submission, ConsentView, error) {
	if !actor.IsProvider() && !actor.IsAdmin() {
		return models.Submission{}, ConsentView{}, ErrForbidden
	}
	sub, err := s.load(s.DB, actor, id)
	if err != nil {
		return models.Submission{}, ConsentView{}, err
	}

	v := s.view(&sub)
	metrics.ObserveConsentStatus(string(v.Consent.Status))
	action := models.ConsentActionAccessed
	if !v.Consent.IsAccessible {
		action = models.ConsentActionDenied
	}
	if err := s.audit(nil, actor, &sub, action, v.Consent.Status, ""); err != nil {
		return models.Submission{}, ConsentView{}, err
	}
	metrics.ObserveConsentEvent(action)
	if !v.Consent.IsAccessible {
		s.Log.Consent(action, sub.ID, string(v.Consent.Status), logrus.Fields{"actor_id": actor.UserID})
		return models.Submission{}, v, ErrConsentInactive
	}
	return sub, v, nil
}

// AutoRenewDue renews every submission on an auto-renewing form whose
// consent is EXPIRING or in GRACE. It returns how many were renewed.
func (s *ConsentService) AutoRenewDue(ctx context.Context) (int, error) {
	now := s.Now()
	horizon := now.AddDate(0, 0, s.Policy.ExpiringWindowDays)
	system := Actor{}

	var candidates []models.Submission
	renewed := 0
	err := s.DB.WithContext(ctx).
		Preload("Form").
		Joins("JOIN forms ON forms.id = submissions.form_id AND forms.deleted_at IS NULL").
		Where("forms.auto_renew = ?", true).
		Where("submissions.consent_given = ? AND submissions.consent_withdrawn_at IS NULL", true).
		Where("submissions.consent_expires_at IS NOT NULL AND submissions.consent_expires_at <= ?", horizon).
		FindInBatches(&candidates, autoRenewBatchSize, func(batch *gorm.DB, _ int) error {
			for i := range candidates {
				if err := ctx.Err(); err != nil {
					return err
				}
				sub := &candidates[i]
				st := s.Policy.Status(sub.ConsentRecord(), now).Status
				if st != consent.StatusExpiring && st != consent.StatusGrace {
					continue
				}
				months := sub.Form.ConsentDurationMonths
				if months <= 0 {
					months = s.AutoRenewMonths
				}
				err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
					return s.renew(tx, system, sub, months, consent.RenewedByAuto)
				})
				if err != nil {
					s.Log.WithComponent("auto-renew").WithError(err).
						WithField("submission_id", sub.ID).Warn("auto renewal failed")
					continue
				}
				metrics.ObserveConsentEvent(models.ConsentActionRenewed)
				renewed++
			}
			return nil
		}).Error
	if err != nil {
		return renewed, fmt.Errorf("auto renew: %w", err)
	}
	return renewed, nil
}
