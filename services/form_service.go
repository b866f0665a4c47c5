package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"chkin-backend/models"
	"chkin-backend/utils"
)

const shortCodeRetries = 5

var fieldTypes = map[string]bool{
	"text":      true,
	"textarea":  true,
	"number":    true,
	"date":      true,
	"select":    true,
	"checkbox":  true,
	"email":     true,
	"phone":     true,
	"signature": true,
}

// FormService manages intake forms and their fields.
type FormService struct {
	DB                     *gorm.DB
	DefaultGracePeriodDays int
}

func NewFormService(db *gorm.DB, defaultGraceDays int) *FormService {
	return &FormService{DB: db, DefaultGracePeriodDays: defaultGraceDays}
}

type FormInput struct {
	Title                 string
	Description           string
	ConsentDurationMonths *int
	GracePeriodDays       *int
	AutoRenew             *bool
	Published             *bool
}

type FieldInput struct {
	Label    string
	Type     string
	Required bool
}

func (in FormInput) validate() error {
	if in.ConsentDurationMonths != nil && (*in.ConsentDurationMonths < 0 || *in.ConsentDurationMonths > 120) {
		return fmt.Errorf("consent duration must be between 0 and 120 months: %w", ErrInvalidInput)
	}
	if in.GracePeriodDays != nil && (*in.GracePeriodDays < 0 || *in.GracePeriodDays > 365) {
		return fmt.Errorf("grace period must be between 0 and 365 days: %w", ErrInvalidInput)
	}
	return nil
}

func (in FormInput) apply(f *models.Form) {
	if t := strings.TrimSpace(in.Title); t != "" {
		f.Title = t
	}
	if in.Description != "" {
		f.Description = in.Description
	}
	if in.ConsentDurationMonths != nil {
		f.ConsentDurationMonths = *in.ConsentDurationMonths
	}
	if in.GracePeriodDays != nil {
		f.GracePeriodDays = *in.GracePeriodDays
	}
	if in.AutoRenew != nil {
		f.AutoRenew = *in.AutoRenew
	}
	if in.Published != nil {
		f.Published = *in.Published
	}
}

func isDuplicateErr(err error) bool {
	lc := strings.ToLower(err.Error())
	return strings.Contains(lc, "duplicate") || strings.Contains(lc, "unique")
}

// Create stores a new form for the caller's provider with a fresh short code.
func (s *FormService) Create(actor Actor, in FormInput) (models.Form, error) {
	if !actor.IsProvider() {
		return models.Form{}, ErrForbidden
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.Form{}, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if err := in.validate(); err != nil {
		return models.Form{}, err
	}

	form := models.Form{
		ProviderID:            *actor.ProviderID,
		ConsentDurationMonths: 12,
		GracePeriodDays:       s.DefaultGracePeriodDays,
	}
	in.apply(&form)

	var createErr error
	for attempt := 0; attempt < shortCodeRetries; attempt++ {
		code, err := utils.GenerateShortCode()
		if err != nil {
			return models.Form{}, fmt.Errorf("failed to generate short code: %w", err)
		}
		form.ID = 0
		form.ShortCode = code
		createErr = s.DB.Create(&form).Error
		if createErr == nil || !isDuplicateErr(createErr) {
			break
		}
	}
	if createErr != nil {
		return models.Form{}, fmt.Errorf("failed to create form: %w", createErr)
	}
	return form, nil
}

// ListForProvider returns the caller's forms with their fields.
func (s *FormService) ListForProvider(actor Actor) ([]models.Form, error) {
	if !actor.IsProvider() {
		return nil, ErrForbidden
	}
	var forms []models.Form
	err := s.DB.Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Where("provider_id = ?", *actor.ProviderID).
		Order("id desc").
		Find(&forms).Error
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return forms, nil
}

// Get loads a form owned by the caller's provider. Admins may load any form.
func (s *FormService) Get(actor Actor, id uint) (models.Form, error) {
	form, err := s.load(s.DB, id)
	if err != nil {
		return models.Form{}, err
	}
	if !actor.IsAdmin() && !actor.OwnsProvider(form.ProviderID) {
		return models.Form{}, ErrForbidden
	}
	return form, nil
}

func (s *FormService) load(db *gorm.DB, id uint) (models.Form, error) {
	var form models.Form
	err := db.Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		First(&form, id).Error
	if err != nil {
		return models.Form{}, notFound("get form", err)
	}
	return form, nil
}

// GetPublished resolves a published form by its short code, ignoring case
// and hyphens.
func (s *FormService) GetPublished(code string) (models.Form, error) {
	if !utils.IsValidShortCode(code) {
		return models.Form{}, fmt.Errorf("bad short code: %w", ErrNotFound)
	}
	formatted, err := utils.FormatShortCode(code)
	if err != nil {
		return models.Form{}, fmt.Errorf("bad short code: %w", ErrNotFound)
	}
	var form models.Form
	err = s.DB.Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Where("short_code = ? AND published = ?", formatted, true).
		First(&form).Error
	if err != nil {
		return models.Form{}, notFound("get published form", err)
	}
	return form, nil
}

func (s *FormService) Update(actor Actor, id uint, in FormInput) (models.Form, error) {
	if err := in.validate(); err != nil {
		return models.Form{}, err
	}
	form, err := s.Get(actor, id)
	if err != nil {
		return models.Form{}, err
	}
	in.apply(&form)
	err = s.DB.Model(&models.Form{}).Where("id = ?", form.ID).Updates(map[string]interface{}{
		"title":                   form.Title,
		"description":             form.Description,
		"consent_duration_months": form.ConsentDurationMonths,
		"grace_period_days":       form.GracePeriodDays,
		"auto_renew":              form.AutoRenew,
		"published":               form.Published,
	}).Error
	if err != nil {
		return models.Form{}, fmt.Errorf("update form: %w", err)
	}
	return form, nil
}

func (s *FormService) Delete(actor Actor, id uint) error {
	if _, err := s.Get(actor, id); err != nil {
		return err
	}
	if err := s.DB.Delete(&models.Form{}, id).Error; err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	return nil
}

// AddField appends a field after the current last position.
func (s *FormService) AddField(actor Actor, formID uint, in FieldInput) (models.FormField, error) {
	label := strings.TrimSpace(in.Label)
	typ := strings.ToLower(strings.TrimSpace(in.Type))
	if typ == "" {
		typ = "text"
	}
	if label == "" || !fieldTypes[typ] {
		return models.FormField{}, fmt.Errorf("field needs a label and a known type: %w", ErrInvalidInput)
	}
	form, err := s.Get(actor, formID)
	if err != nil {
		return models.FormField{}, err
	}

	field := models.FormField{
		FormID:   form.ID,
		Label:    label,
		Type:     typ,
		Required: in.Required,
		Position: len(form.Fields),
	}
	if n := len(form.Fields); n > 0 {
		field.Position = form.Fields[n-1].Position + 1
	}
	if err := s.DB.Create(&field).Error; err != nil {
		return models.FormField{}, fmt.Errorf("add field: %w", err)
	}
	return field, nil
}

// ReorderFields sets field positions to the order of fieldIDs. fieldIDs must
// name every field of the form exactly once.
func (s *FormService) ReorderFields(actor Actor, formID uint, fieldIDs []uint) ([]models.FormField, error) {
	form, err := s.Get(actor, formID)
	if err != nil {
		return nil, err
	}
	if err := validatePermutation(form.Fields, fieldIDs); err != nil {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for pos, id := range fieldIDs {
			res := tx.Model(&models.FormField{}).
				Where("id = ? AND form_id = ?", id, form.ID).
				Update("position", pos)
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reorder fields: %w", err)
	}

	byID := make(map[uint]models.FormField, len(form.Fields))
	for _, f := range form.Fields {
		byID[f.ID] = f
	}
	out := make([]models.FormField, 0, len(fieldIDs))
	for pos, id := range fieldIDs {
		f := byID[id]
		f.Position = pos
		out = append(out, f)
	}
	return out, nil
}

func validatePermutation(fields []models.FormField, ids []uint) error {
	if len(fields) != len(ids) {
		return fmt.Errorf("expected %d field ids, got %d: %w", len(fields), len(ids), ErrInvalidOrder)
	}
	known := make(map[uint]bool, len(fields))
	for _, f := range fields {
		known[f.ID] = true
	}
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !known[id] {
			return fmt.Errorf("field %d does not belong to the form: %w", id, ErrInvalidOrder)
		}
		if seen[id] {
			return fmt.Errorf("field %d listed twice: %w", id, ErrInvalidOrder)
		}
		seen[id] = true
	}
	return nil
}
