// Package consent derives the lifecycle status of a patient's consent from
// the dates stored on a submission. Everything here is pure: the same record
// and the same "now" always produce the same result.
package consent

import (
	"fmt"
	"math"
	"time"
)

type Status string

const (
	StatusNeverGiven Status = "NEVER_GIVEN"
	StatusWithdrawn  Status = "WITHDRAWN"
	StatusActive     Status = "ACTIVE"
	StatusExpiring   Status = "EXPIRING"
	StatusGrace      Status = "GRACE"
	StatusExpired    Status = "EXPIRED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusNeverGiven,
	StatusWithdrawn,
	StatusActive,
	StatusExpiring,
	StatusGrace,
	StatusExpired,
}

type Urgency string

const (
	UrgencyNone     Urgency = "none"
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

const (
	DefaultGracePeriodDays    = 30
	DefaultExpiringWindowDays = 30

	dayDuration = 24 * time.Hour
)

// Record is the consent-bearing part of a submission.
type Record struct {
	ConsentGiven       bool
	ConsentAt          *time.Time
	ConsentExpiresAt   *time.Time
	ConsentWithdrawnAt *time.Time
	// nil means DefaultGracePeriodDays of the policy in use.
	GracePeriodDays *int
}

type Result struct {
	Status            Status     `json:"status"`
	IsAccessible      bool       `json:"isAccessible"`
	Message           string     `json:"message"`
	DaysRemaining     *int       `json:"daysRemaining"`
	ExpiresAt         *time.Time `json:"expiresAt"`
	GracePeriodEndsAt *time.Time `json:"gracePeriodEndsAt"`
	CanRenew          bool       `json:"canRenew"`
	RenewalUrgency    Urgency    `json:"renewalUrgency"`
}

// Policy holds the two tunables of the status computation. They are
// independent: a provider's grace period does not widen the warning window.
type Policy struct {
	ExpiringWindowDays     int
	DefaultGracePeriodDays int
}

var DefaultPolicy = Policy{
	ExpiringWindowDays:     DefaultExpiringWindowDays,
	DefaultGracePeriodDays: DefaultGracePeriodDays,
}

// CalculateStatus evaluates rec at now using DefaultPolicy.
func CalculateStatus(rec Record, now time.Time) Result {
	return DefaultPolicy.Status(rec, now)
}

// Status evaluates rec at now. Rules are checked in order and the first
// match wins.
func (p Policy) Status(rec Record, now time.Time) Result {
	if !rec.ConsentGiven || rec.ConsentAt == nil {
		return Result{
			Status:         StatusNeverGiven,
			Message:        "Consent has not been given",
			RenewalUrgency: UrgencyNone,
		}
	}

	if rec.ConsentWithdrawnAt != nil {
		return Result{
			Status:         StatusWithdrawn,
			Message:        fmt.Sprintf("Consent withdrawn on %s", formatDate(*rec.ConsentWithdrawnAt)),
			RenewalUrgency: UrgencyNone,
		}
	}

	if rec.ConsentExpiresAt == nil {
		return Result{
			Status:         StatusActive,
			IsAccessible:   true,
			Message:        "Consent active (no expiry set)",
			RenewalUrgency: UrgencyNone,
		}
	}

	expiresAt := *rec.ConsentExpiresAt
	graceEndsAt := expiresAt.AddDate(0, 0, p.gracePeriodDays(rec))
	days := DaysUntil(expiresAt, now)

	res := Result{
		DaysRemaining:     &days,
		ExpiresAt:         &expiresAt,
		GracePeriodEndsAt: &graceEndsAt,
		CanRenew:          true,
	}

	switch {
	case now.After(graceEndsAt):
		res.Status = StatusExpired
		res.RenewalUrgency = UrgencyCritical
		res.Message = fmt.Sprintf("Consent expired on %s", formatDate(expiresAt))
	case now.After(expiresAt):
		res.Status = StatusGrace
		res.IsAccessible = true
		res.RenewalUrgency = UrgencyCritical
		res.Message = fmt.Sprintf("Consent expired %s ago, grace period ends %s",
			pluralDays(-days), formatDate(graceEndsAt))
	case days <= p.expiringWindowDays():
		res.Status = StatusExpiring
		res.IsAccessible = true
		res.RenewalUrgency = expiringUrgency(days)
		res.Message = fmt.Sprintf("Consent expires in %s", pluralDays(days))
	default:
		res.Status = StatusActive
		res.IsAccessible = true
		res.RenewalUrgency = UrgencyNone
		res.Message = fmt.Sprintf("Consent active until %s", formatDate(expiresAt))
	}
	return res
}

// DaysUntil returns the signed ceiling of (t - now) in whole days.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(float64(t.Sub(now)) / float64(dayDuration)))
}

func (p Policy) gracePeriodDays(rec Record) int {
	days := p.DefaultGracePeriodDays
	if rec.GracePeriodDays != nil {
		days = *rec.GracePeriodDays
	}
	if days < 0 {
		return 0
	}
	return days
}

func (p Policy) expiringWindowDays() int {
	if p.ExpiringWindowDays < 0 {
		return 0
	}
	return p.ExpiringWindowDays
}

func expiringUrgency(days int) Urgency {
	switch {
	case days <= 7:
		return UrgencyHigh
	case days <= 14:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
