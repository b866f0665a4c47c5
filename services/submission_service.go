package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"chkin-backend/consent"
	"chkin-backend/metrics"
	"chkin-backend/models"
)

// SubmissionService stores patients' answers to published forms.
type SubmissionService struct {
	DB      *gorm.DB
	Forms   *FormService
	Consent *ConsentService
	Now     func() time.Time
}

func NewSubmissionService(db *gorm.DB, forms *FormService, consentSvc *ConsentService) *SubmissionService {
	return &SubmissionService{DB: db, Forms: forms, Consent: consentSvc, Now: utcNow}
}

// SubmissionInput carries answers keyed by form field ID.
type SubmissionInput struct {
	Answers      map[string]interface{}
	ConsentGiven bool
}

type SubmissionView struct {
	models.Submission
	FormTitle string      `json:"form_title"`
	Consent   ConsentView `json:"consent_status"`
}

func missingRequired(fields []models.FormField, answers map[string]interface{}) []string {
	var missing []string
	for _, f := range fields {
		if !f.Required {
			continue
		}
		v, ok := answers[strconv.FormatUint(uint64(f.ID), 10)]
		if !ok || v == nil {
			missing = append(missing, f.Label)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, f.Label)
		}
	}
	return missing
}

// Submit records a patient's answers to the published form behind code.
// Giving consent stamps the consent time and derives the expiry from the
// form's configured duration.
func (s *SubmissionService) Submit(actor Actor, code string, in SubmissionInput) (SubmissionView, error) {
	if !actor.IsPatient() {
		return SubmissionView{}, ErrForbidden
	}
	form, err := s.Forms.GetPublished(code)
	if err != nil {
		return SubmissionView{}, err
	}
	if missing := missingRequired(form.Fields, in.Answers); len(missing) > 0 {
		return SubmissionView{}, fmt.Errorf("missing required fields %s: %w", strings.Join(missing, ", "), ErrInvalidInput)
	}
	answers, err := json.Marshal(in.Answers)
	if err != nil {
		return SubmissionView{}, fmt.Errorf("encode answers: %w", err)
	}

	now := s.Now()
	sub := models.Submission{
		FormID:          form.ID,
		Form:            form,
		PatientID:       actor.UserID,
		Answers:         datatypes.JSON(answers),
		ConsentGiven:    in.ConsentGiven,
		GracePeriodDays: form.GracePeriodDays,
	}
	if in.ConsentGiven {
		sub.ConsentAt = &now
		if form.ConsentDurationMonths > 0 {
			exp := consent.CalculateExpiry(now, form.ConsentDurationMonths)
			sub.ConsentExpiresAt = &exp
		}
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Form").Create(&sub).Error; err != nil {
			return fmt.Errorf("create submission: %w", err)
		}
		if !sub.ConsentGiven {
			return nil
		}
		status := s.Consent.Policy.Status(sub.ConsentRecord(), now).Status
		return s.Consent.audit(tx, actor, &sub, models.ConsentActionGranted, status, "")
	})
	if err != nil {
		return SubmissionView{}, err
	}
	if sub.ConsentGiven {
		metrics.ObserveConsentEvent(models.ConsentActionGranted)
	}
	return SubmissionView{Submission: sub, FormTitle: form.Title, Consent: s.Consent.view(&sub)}, nil
}

// ListForPatient returns the caller's own submissions with live consent status.
func (s *SubmissionService) ListForPatient(actor Actor) ([]SubmissionView, error) {
	if !actor.IsPatient() {
		return nil, ErrForbidden
	}
	var subs []models.Submission
	if err := s.DB.Preload("Form").Where("patient_id = ?", actor.UserID).Order("id desc").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return s.views(subs, false), nil
}

// ListForForm returns a form's submissions to its provider. Answers are left
// out; they are only served through AccessSubmission.
func (s *SubmissionService) ListForForm(actor Actor, formID uint) ([]SubmissionView, error) {
	form, err := s.Forms.Get(actor, formID)
	if err != nil {
		return nil, err
	}
	var subs []models.Submission
	if err := s.DB.Where("form_id = ?", form.ID).Order("id desc").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list form submissions: %w", err)
	}
	for i := range subs {
		subs[i].Form = form
	}
	return s.views(subs, true), nil
}

func (s *SubmissionService) views(subs []models.Submission, hideAnswers bool) []SubmissionView {
	out := make([]SubmissionView, 0, len(subs))
	for i := range subs {
		sub := subs[i]
		if hideAnswers {
			sub.Answers = nil
		}
		out = append(out, SubmissionView{Submission: sub, FormTitle: sub.Form.Title, Consent: s.Consent.view(&sub)})
	}
	return out
}
