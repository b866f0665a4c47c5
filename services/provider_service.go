package services

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"chkin-backend/models"
)

// ProviderService manages provider registrations and their review by admins.
type ProviderService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewProviderService(db *gorm.DB) *ProviderService {
	return &ProviderService{DB: db, Now: utcNow}
}

type ProviderRegistration struct {
	OrganizationName string
	ContactName      string
	Email            string
	Password         string
}

// Register creates a PENDING provider and its first user in one transaction.
func (s *ProviderService) Register(reg ProviderRegistration) (models.Provider, error) {
	email := normalizeEmail(reg.Email)
	name := strings.TrimSpace(reg.OrganizationName)
	if name == "" || email == "" {
		return models.Provider{}, fmt.Errorf("organization name and email are required: %w", ErrInvalidInput)
	}
	hash, err := hashPassword(reg.Password)
	if err != nil {
		return models.Provider{}, err
	}
	contact := strings.TrimSpace(reg.ContactName)
	if contact == "" {
		contact = name
	}

	provider := models.Provider{Name: name, Email: email, Status: models.ProviderPending}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("email already registered: %w", ErrConflict)
		}
		if err := tx.Create(&provider).Error; err != nil {
			return err
		}
		user := models.User{
			FullName:   contact,
			Email:      email,
			Password:   hash,
			Role:       models.RoleProvider,
			ProviderID: &provider.ID,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return models.Provider{}, fmt.Errorf("register provider: %w", err)
	}
	return provider, nil
}

// List returns providers, optionally filtered by status, newest first.
func (s *ProviderService) List(status string) ([]models.Provider, error) {
	q := s.DB.Order("id desc")
	if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Provider
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return out, nil
}

func (s *ProviderService) GetByID(id uint) (models.Provider, error) {
	var p models.Provider
	if err := s.DB.First(&p, id).Error; err != nil {
		return models.Provider{}, notFound("get provider", err)
	}
	return p, nil
}

func (s *ProviderService) Approve(id uint, admin Actor) (models.Provider, error) {
	return s.review(id, admin, models.ProviderApproved, "")
}

func (s *ProviderService) Reject(id uint, admin Actor, reason string) (models.Provider, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Provider{}, fmt.Errorf("a rejection reason is required: %w", ErrInvalidInput)
	}
	return s.review(id, admin, models.ProviderRejected, reason)
}

// review moves a PENDING provider to its final status. Reviewed providers
// cannot be reviewed again.
func (s *ProviderService) review(id uint, admin Actor, status, reason string) (models.Provider, error) {
	if !admin.IsAdmin() {
		return models.Provider{}, ErrForbidden
	}
	now := s.Now()
	var provider models.Provider
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&provider, id).Error; err != nil {
			return notFound("review provider", err)
		}
		if provider.Status != models.ProviderPending {
			return fmt.Errorf("provider is %s: %w", provider.Status, ErrConflict)
		}
		res := tx.Model(&models.Provider{}).
			Where("id = ? AND status = ?", id, models.ProviderPending).
			Updates(map[string]interface{}{
				"status":           status,
				"reviewed_by":      admin.UserID,
				"reviewed_at":      now,
				"rejection_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("provider changed concurrently: %w", ErrConflict)
		}
		return nil
	})
	if err != nil {
		return models.Provider{}, err
	}

	reviewer := admin.UserID
	provider.Status = status
	provider.ReviewedBy = &reviewer
	provider.ReviewedAt = &now
	provider.RejectionReason = reason
	return provider, nil
}
