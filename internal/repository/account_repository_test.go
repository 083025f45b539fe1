package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
)

var accountRowColumns = []string{"id", "display_name", "email", "password_hash", "role", "approval_status", "rejection_reason", "approved_at", "created_at", "updated_at"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindByEmailIgnoresCase(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(accountRowColumns).
		AddRow("0f8fad5b-d9cb-469f-a165-70867728950e", "Ada", "ada@x.com", "hash", "student", "pending", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("ADA@x.com").
		WillReturnRows(rows)

	account, err := repo.FindByEmail(context.Background(), "ADA@x.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@x.com", account.Email)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.Equal(t, models.StatusPending, account.ApprovalStatus)
	assert.Nil(t, account.RejectionReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery("FROM accounts WHERE LOWER").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFindByIDRejectsNonUUIDWithoutQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDWrapsDriverErrors(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery("FROM accounts WHERE id = \\$1").WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByID(context.Background(), "0f8fad5b-d9cb-469f-a165-70867728950e")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateAccount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec("INSERT INTO accounts").WillReturnResult(sqlmock.NewResult(1, 1))

	account := models.NewStudentAccount("", "Ada", "ada@x.com", "hash")
	require.NoError(t, repo.Create(context.Background(), account))
	assert.NotEmpty(t, account.ID)
	assert.False(t, account.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec("INSERT INTO accounts").WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.Create(context.Background(), models.NewStudentAccount("", "Ada", "ada@x.com", "hash"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestSaveUpdatesApprovalFieldsOnly(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET approval_status = ?, rejection_reason = ?, approved_at = ?, updated_at = ? WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	account := models.NewStudentAccount("0f8fad5b-d9cb-469f-a165-70867728950e", "Ada", "ada@x.com", "hash")
	student, _ := account.Student()
	student.Approve(time.Now())
	require.NoError(t, repo.Save(context.Background(), account))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMissingAccount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec("UPDATE accounts").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), models.NewStudentAccount("0f8fad5b-d9cb-469f-a165-70867728950e", "Ada", "ada@x.com", "hash"))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(accountRowColumns).
		AddRow("0f8fad5b-d9cb-469f-a165-70867728950e", "Ada", "ada@x.com", "hash", "student", "pending", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE role = $1 AND approval_status = $2 ORDER BY created_at ASC")).
		WithArgs("student", "pending").
		WillReturnRows(rows)

	accounts, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Ada", accounts[0].DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
