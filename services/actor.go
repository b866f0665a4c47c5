package services

import (
	"time"

	"chkin-backend/models"
)

// Actor is the authenticated caller of a service method.
type Actor struct {
	UserID     uint
	Role       string
	ProviderID *uint
}

func (a Actor) IsAdmin() bool    { return a.Role == models.RoleAdmin }
func (a Actor) IsPatient() bool  { return a.Role == models.RolePatient }
func (a Actor) IsProvider() bool { return a.Role == models.RoleProvider && a.ProviderID != nil }

// OwnsProvider reports whether a is a user of provider providerID.
func (a Actor) OwnsProvider(providerID uint) bool {
	return a.IsProvider() && *a.ProviderID == providerID
}

func (a Actor) userIDPtr() *uint {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}

func utcNow() time.Time { return time.Now().UTC() }
