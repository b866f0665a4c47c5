package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chkin-backend/models"
)

var providerColumns = []string{"id", "name", "email", "status"}

func TestApproveProvider(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProviderService(db)
	svc.Now = fixedClock(day(2024, time.May, 1))
	admin := Actor{UserID: 1, Role: models.RoleAdmin}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `providers`")).
		WillReturnRows(sqlmock.NewRows(providerColumns).AddRow(3, "Northside Clinic", "ops@northside.test", models.ProviderPending))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `providers` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := svc.Approve(3, admin)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderApproved, p.Status)
	assert.Equal(t, uint(1), *p.ReviewedBy)
	assert.Equal(t, day(2024, time.May, 1), *p.ReviewedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveProviderOnlyFromPending(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProviderService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `providers`")).
		WillReturnRows(sqlmock.NewRows(providerColumns).AddRow(3, "Northside Clinic", "ops@northside.test", models.ProviderRejected))
	mock.ExpectRollback()

	_, err := svc.Approve(3, Actor{UserID: 1, Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewProviderGuards(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProviderService(db)

	_, err := svc.Approve(3, Actor{UserID: 2, Role: models.RolePatient})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Reject(3, Actor{UserID: 1, Role: models.RoleAdmin}, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterProviderRejectsTakenEmail(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProviderService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.Register(ProviderRegistration{
		OrganizationName: "Northside Clinic",
		Email:            "ops@northside.test",
		Password:         "correct horse battery",
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
