package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid_input")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrProviderNotActive  = errors.New("provider_not_approved")
	ErrNotRenewable       = errors.New("consent_not_renewable")
	ErrAlreadyWithdrawn   = errors.New("consent_already_withdrawn")
	ErrConsentInactive    = errors.New("consent_not_accessible")
	ErrInvalidOrder       = errors.New("invalid_field_order")
)

// notFound maps gorm's record-not-found onto ErrNotFound and wraps anything
// else with the operation name.
func notFound(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
