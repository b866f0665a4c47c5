package consent

import (
	"fmt"
	"time"
)

type RenewedBy string

const (
	RenewedByAuto     RenewedBy = "auto"
	RenewedByPatient  RenewedBy = "patient"
	RenewedByProvider RenewedBy = "provider"
)

func (r RenewedBy) Valid() bool {
	switch r {
	case RenewedByAuto, RenewedByPatient, RenewedByProvider:
		return true
	}
	return false
}

// RenewalHistoryEntry is one append-only line of a submission's renewal history.
type RenewalHistoryEntry struct {
	RenewedAt         time.Time  `json:"renewedAt"`
	PreviousExpiresAt *time.Time `json:"previousExpiresAt"`
	NewExpiresAt      time.Time  `json:"newExpiresAt"`
	RenewedBy         RenewedBy  `json:"renewedBy"`
	DurationMonths    int        `json:"durationMonths"`
}

// CalculateExpiry adds durationMonths calendar months to consentAt. A day of
// month that overflows the target month rolls forward, so Jan 31 + 1 month
// is Mar 3 in a non-leap year.
func CalculateExpiry(consentAt time.Time, durationMonths int) time.Time {
	return consentAt.AddDate(0, durationMonths, 0)
}

// CalculateRenewalExpiry extends from the current expiry rather than from
// the renewal moment, so early renewals never shorten the consent.
func CalculateRenewalExpiry(currentExpiresAt time.Time, durationMonths int) time.Time {
	return CalculateExpiry(currentExpiresAt, durationMonths)
}

// RecordRenewal builds the history entry for a renewal. Persisting it is up
// to the caller.
func RecordRenewal(previousExpiresAt *time.Time, newExpiresAt time.Time, renewedBy RenewedBy, durationMonths int, now time.Time) (RenewalHistoryEntry, error) {
	if !renewedBy.Valid() {
		return RenewalHistoryEntry{}, fmt.Errorf("unknown renewal source %q", renewedBy)
	}
	var prev *time.Time
	if previousExpiresAt != nil {
		t := *previousExpiresAt
		prev = &t
	}
	return RenewalHistoryEntry{
		RenewedAt:         now,
		PreviousExpiresAt: prev,
		NewExpiresAt:      newExpiresAt,
		RenewedBy:         renewedBy,
		DurationMonths:    durationMonths,
	}, nil
}
