package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"chkin-backend/consent"
	"chkin-backend/logger"
	"chkin-backend/models"
)

const (
	consentEventsMetric      = "chkin_consent_events_total"
	consentEvaluationsMetric = "chkin_consent_evaluations_total"
)

var submissionColumns = []string{
	"id", "form_id", "patient_id", "consent_given", "consent_at",
	"consent_expires_at", "consent_withdrawn_at", "grace_period_days",
}

type ConsentServiceTestSuite struct {
	suite.Suite
	db   *gorm.DB
	mock sqlmock.Sqlmock
	svc  *ConsentService
	now  time.Time

	patient  Actor
	provider Actor
}

func TestConsentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ConsentServiceTestSuite))
}

func (s *ConsentServiceTestSuite) SetupTest() {
	s.db, s.mock = newMockDB(s.T())
	s.now = day(2024, time.June, 15)

	logs := NewConsentLogService(s.db)
	logs.Now = fixedClock(s.now)
	s.svc = NewConsentService(s.db, consent.DefaultPolicy, logs, logger.Discard())
	s.svc.Now = fixedClock(s.now)

	s.patient = Actor{UserID: 11, Role: "patient"}
	s.provider = Actor{UserID: 21, Role: "provider", ProviderID: uintPtr(3)}
}

func (s *ConsentServiceTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

// expectSubmission queues the submission lookup and its form preload.
func (s *ConsentServiceTestSuite) expectSubmission(expiresAt, withdrawnAt interface{}, durationMonths int) {
	consentAt := day(2024, time.January, 1)
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `submissions`")).
		WillReturnRows(sqlmock.NewRows(submissionColumns).
			AddRow(7, 5, 11, true, consentAt, expiresAt, withdrawnAt, 30))
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `forms`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "provider_id", "title", "consent_duration_months", "grace_period_days", "auto_renew"}).
			AddRow(5, 3, "Intake", durationMonths, 30, false))
}

func (s *ConsentServiceTestSuite) TestStatusForPatient() {
	s.expectSubmission(day(2024, time.July, 1), nil, 6)
	before := counterValue(s.T(), consentEvaluationsMetric, "status", string(consent.StatusExpiring))

	v, err := s.svc.Status(s.patient, 7)
	s.Require().NoError(err)
	s.Equal(consent.StatusExpiring, v.Consent.Status)
	s.Equal(16, *v.Consent.DaysRemaining)
	s.Equal(consent.BadgeFor(consent.StatusExpiring), v.Badge)
	s.NotNil(v.RenewalHistory)
	s.Equal(before+1, counterValue(s.T(), consentEvaluationsMetric, "status", string(consent.StatusExpiring)))
}

func (s *ConsentServiceTestSuite) TestStatusForbiddenForOtherPatient() {
	s.expectSubmission(day(2024, time.July, 1), nil, 6)

	_, err := s.svc.Status(Actor{UserID: 99, Role: "patient"}, 7)
	s.ErrorIs(err, ErrForbidden)
}

func (s *ConsentServiceTestSuite) TestStatusNotFound() {
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `submissions`")).
		WillReturnRows(sqlmock.NewRows(submissionColumns))

	_, err := s.svc.Status(s.patient, 7)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ConsentServiceTestSuite) TestWithdraw() {
	s.mock.ExpectBegin()
	s.expectSubmission(day(2024, time.July, 1), nil, 6)
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE `submissions` SET `consent_withdrawn_at`=?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `consent_logs`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()
	before := counterValue(s.T(), consentEventsMetric, "action", models.ConsentActionWithdrawn)

	v, err := s.svc.Withdraw(s.patient, 7)
	s.Require().NoError(err)
	s.Equal(before+1, counterValue(s.T(), consentEventsMetric, "action", models.ConsentActionWithdrawn))
	s.Equal(consent.StatusWithdrawn, v.Consent.Status)
	s.False(v.Consent.IsAccessible)
	s.False(v.Consent.CanRenew)
}

func (s *ConsentServiceTestSuite) TestWithdrawIsPermanent() {
	s.mock.ExpectBegin()
	s.expectSubmission(day(2024, time.July, 1), day(2024, time.March, 1), 6)
	s.mock.ExpectRollback()

	_, err := s.svc.Withdraw(s.patient, 7)
	s.ErrorIs(err, ErrAlreadyWithdrawn)
}

func (s *ConsentServiceTestSuite) TestWithdrawLostRace() {
	s.mock.ExpectBegin()
	s.expectSubmission(day(2024, time.July, 1), nil, 6)
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE `submissions`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	_, err := s.svc.Withdraw(s.patient, 7)
	s.ErrorIs(err, ErrAlreadyWithdrawn)
}

func (s *ConsentServiceTestSuite) TestWithdrawFailedCommitIsNotCounted() {
	s.mock.ExpectBegin()
	s.expectSubmission(day(2024, time.July, 1), nil, 6)
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE `submissions`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `consent_logs`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit().WillReturnError(errors.New("connection reset"))
	before := counterValue(s.T(), consentEventsMetric, "action", models.ConsentActionWithdrawn)

	_, err := s.svc.Withdraw(s.patient, 7)
	s.Error(err)
	s.Equal(before, counterValue(s.T(), consentEventsMetric, "action", models.ConsentActionWithdrawn))
}

func (s *ConsentServiceTestSuite) TestWithdrawOnlyByPatient() {
	_, err := s.svc.Withdraw(s.provider, 7)
	s.ErrorIs(err, ErrForbidden)
}

func (s *ConsentServiceTestSuite) TestRenewAnchorsOnCurrentExpiry() {
	s.mock.ExpectBegin()
	s.expectSubmission(day(2024, time.July, 1), nil, 6)
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE `submissions` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `consent_logs`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	v, err := s.svc.Renew(s.provider, 7, 0)
	s.Require().NoError(err)
	s.Equal(consent.StatusActive, v.Consent.Status)
	s.Equal(day(2025, time.January, 1), *v.Consent.ExpiresAt)
	s.Require().Len(v.RenewalHistory, 1)

	entry := v.RenewalHistory[0]
	s.Equal(consent.RenewedByProvider, entry.RenewedBy)
	s.Equal(day(2024, time.July, 1), *entry.PreviousExpiresAt)
	s.Equal(s.now, entry.RenewedAt)
	s.Equal(6, entry.DurationMonths)
}

func (s *ConsentServiceTestSuite) TestRenewLongExpiredStartsFromNow() {
	s.mock.ExpectBegin()
	s.expectSubmission(day(2023, time.January, 1), nil, 6)
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE `submissions` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `consent_logs`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	v, err := s.svc.Renew(s.patient, 7, 3)
	s.Require().NoError(err)
	s.Equal(day(2024, time.September, 15), *v.Consent.ExpiresAt)
	s.Equal(consent.RenewedByPatient, v.RenewalHistory[0].RenewedBy)
}

func (s *ConsentServiceTestSuite) TestRenewRejectsWithdrawn() {
	s.mock.ExpectBegin()
	s.expectSubmission(day(2024, time.July, 1), day(2024, time.March, 1), 6)
	s.mock.ExpectRollback()

	_, err := s.svc.Renew(s.patient, 7, 6)
	s.ErrorIs(err, ErrNotRenewable)
}

func (s *ConsentServiceTestSuite) TestRenewRejectsPerpetual() {
	s.mock.ExpectBegin()
	s.expectSubmission(nil, nil, 6)
	s.mock.ExpectRollback()

	_, err := s.svc.Renew(s.patient, 7, 6)
	s.ErrorIs(err, ErrNotRenewable)
}

func (s *ConsentServiceTestSuite) TestRenewNotAllowedForAdmin() {
	_, err := s.svc.Renew(Actor{UserID: 1, Role: "admin"}, 7, 6)
	s.ErrorIs(err, ErrForbidden)
}

func (s *ConsentServiceTestSuite) TestAccessAllowedDuringGrace() {
	s.svc.Now = fixedClock(day(2024, time.July, 10))
	s.expectSubmission(day(2024, time.July, 1), nil, 6)
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `consent_logs`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	sub, v, err := s.svc.AccessSubmission(s.provider, 7)
	s.Require().NoError(err)
	s.Equal(uint(7), sub.ID)
	s.Equal(consent.StatusGrace, v.Consent.Status)
	s.Equal(-9, *v.Consent.DaysRemaining)
}

func (s *ConsentServiceTestSuite) TestAccessDeniedWhenExpired() {
	s.svc.Now = fixedClock(day(2024, time.August, 5))
	s.expectSubmission(day(2024, time.July, 1), nil, 6)
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `consent_logs`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	_, v, err := s.svc.AccessSubmission(s.provider, 7)
	s.ErrorIs(err, ErrConsentInactive)
	s.Equal(consent.StatusExpired, v.Consent.Status)
}

func (s *ConsentServiceTestSuite) TestAccessForbiddenForOtherProvider() {
	s.expectSubmission(day(2024, time.July, 1), nil, 6)

	_, _, err := s.svc.AccessSubmission(Actor{UserID: 30, Role: "provider", ProviderID: uintPtr(4)}, 7)
	s.ErrorIs(err, ErrForbidden)
}

func (s *ConsentServiceTestSuite) TestAutoRenewDueNothingToDo() {
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(sqlmock.NewRows(submissionColumns))

	n, err := s.svc.AutoRenewDue(context.Background())
	s.Require().NoError(err)
	s.Zero(n)
}

// expectAutoRenewCandidates queues the sweep query and the preload of their
// shared auto-renewing form. rows are (id, expires_at) pairs.
func (s *ConsentServiceTestSuite) expectAutoRenewCandidates(durationMonths int, rows ...[2]interface{}) {
	consentAt := day(2023, time.December, 1)
	candidates := sqlmock.NewRows(submissionColumns)
	for _, r := range rows {
		candidates.AddRow(r[0], 5, 11, true, consentAt, r[1], nil, 30)
	}
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT")).WillReturnRows(candidates)
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `forms`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "provider_id", "title", "consent_duration_months", "grace_period_days", "auto_renew"}).
			AddRow(5, 3, "Intake", durationMonths, 30, true))
}

func (s *ConsentServiceTestSuite) expectAutoRenewal(id uint, previous, next time.Time) {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE `submissions` SET")).
		WithArgs(timeArg(next), containsArg(`"renewedBy":"auto"`), sqlmock.AnyArg(), id, timeArg(previous)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `consent_logs`")).
		WithArgs(id, nil, "system", models.ConsentActionRenewed, string(consent.StatusActive), containsArg("by auto"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()
}

func (s *ConsentServiceTestSuite) TestAutoRenewDueRenewsExpiringAndGrace() {
	s.expectAutoRenewCandidates(6,
		[2]interface{}{7, day(2024, time.July, 1)},     // EXPIRING
		[2]interface{}{8, day(2024, time.June, 1)},     // GRACE
		[2]interface{}{9, day(2024, time.December, 1)}, // ACTIVE
		[2]interface{}{10, day(2024, time.January, 1)}, // EXPIRED
	)
	s.expectAutoRenewal(7, day(2024, time.July, 1), day(2025, time.January, 1))
	s.expectAutoRenewal(8, day(2024, time.June, 1), day(2024, time.December, 1))
	before := counterValue(s.T(), consentEventsMetric, "action", models.ConsentActionRenewed)

	n, err := s.svc.AutoRenewDue(context.Background())
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Equal(before+2, counterValue(s.T(), consentEventsMetric, "action", models.ConsentActionRenewed))
}

func (s *ConsentServiceTestSuite) TestAutoRenewDueContinuesAfterFailure() {
	s.expectAutoRenewCandidates(6,
		[2]interface{}{7, day(2024, time.July, 1)},
		[2]interface{}{8, day(2024, time.June, 1)},
	)
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE `submissions` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()
	s.expectAutoRenewal(8, day(2024, time.June, 1), day(2024, time.December, 1))

	n, err := s.svc.AutoRenewDue(context.Background())
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *ConsentServiceTestSuite) TestAutoRenewDueFallsBackToConfiguredMonths() {
	s.svc.AutoRenewMonths = 3
	s.expectAutoRenewCandidates(0, [2]interface{}{7, day(2024, time.July, 1)})
	s.expectAutoRenewal(7, day(2024, time.July, 1), day(2024, time.October, 1))

	n, err := s.svc.AutoRenewDue(context.Background())
	s.Require().NoError(err)
	s.Equal(1, n)
}
