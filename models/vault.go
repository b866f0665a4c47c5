package models

import (
	"time"

	"gorm.io/datatypes"
)

// VaultItem is one piece of personal or medical data a patient keeps for
// reuse across intake forms.
type VaultItem struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PatientID uint           `gorm:"uniqueIndex:uidx_vault_patient_label;not null" json:"patient_id"`
	Category  string         `gorm:"size:64;uniqueIndex:uidx_vault_patient_label" json:"category"`
	Label     string         `gorm:"size:128;uniqueIndex:uidx_vault_patient_label" json:"label"`
	Data      datatypes.JSON `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
