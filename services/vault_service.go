package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chkin-backend/models"
)

var vaultCategories = map[string]bool{
	"personal":   true,
	"contact":    true,
	"insurance":  true,
	"medical":    true,
	"medication": true,
	"allergy":    true,
	"emergency":  true,
	"document":   true,
}

// VaultService manages the personal data patients keep for reuse.
type VaultService struct {
	DB *gorm.DB
}

func NewVaultService(db *gorm.DB) *VaultService {
	return &VaultService{DB: db}
}

func (s *VaultService) List(actor Actor, category string) ([]models.VaultItem, error) {
	if !actor.IsPatient() {
		return nil, ErrForbidden
	}
	q := s.DB.Where("patient_id = ?", actor.UserID)
	if c := strings.ToLower(strings.TrimSpace(category)); c != "" {
		q = q.Where("category = ?", c)
	}
	var items []models.VaultItem
	if err := q.Order("category asc, label asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list vault: %w", err)
	}
	return items, nil
}

// Put creates or replaces the item identified by (category, label).
func (s *VaultService) Put(actor Actor, category, label string, data json.RawMessage) (models.VaultItem, error) {
	if !actor.IsPatient() {
		return models.VaultItem{}, ErrForbidden
	}
	category = strings.ToLower(strings.TrimSpace(category))
	label = strings.TrimSpace(label)
	if !vaultCategories[category] || label == "" {
		return models.VaultItem{}, fmt.Errorf("vault item needs a known category and a label: %w", ErrInvalidInput)
	}
	if len(data) == 0 || !json.Valid(data) {
		return models.VaultItem{}, fmt.Errorf("vault data must be valid JSON: %w", ErrInvalidInput)
	}

	item := models.VaultItem{
		PatientID: actor.UserID,
		Category:  category,
		Label:     label,
		Data:      datatypes.JSON(data),
	}
	var stored models.VaultItem
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "patient_id"}, {Name: "category"}, {Name: "label"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).Create(&item).Error
		if err != nil {
			return err
		}
		// the insert id is unreliable when the row already existed
		return tx.Where("patient_id = ? AND category = ? AND label = ?", item.PatientID, item.Category, item.Label).
			First(&stored).Error
	})
	if err != nil {
		return models.VaultItem{}, fmt.Errorf("save vault item: %w", err)
	}
	return stored, nil
}

func (s *VaultService) Delete(actor Actor, id uint) error {
	if !actor.IsPatient() {
		return ErrForbidden
	}
	res := s.DB.Where("id = ? AND patient_id = ?", id, actor.UserID).Delete(&models.VaultItem{})
	if res.Error != nil {
		return fmt.Errorf("delete vault item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete vault item: %w", ErrNotFound)
	}
	return nil
}
