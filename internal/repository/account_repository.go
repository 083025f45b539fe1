package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/student-portal-api/internal/models"
)

const (
	accountColumns  = `id, display_name, email, password_hash, role, approval_status, rejection_reason, approved_at, created_at, updated_at`
	uniqueViolation = "23505"
)

// AccountRepository persists accounts in PostgreSQL.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByEmail returns an account by email, ignoring case.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return &account, nil
}

// FindByID returns an account by identifier. Identifiers that are not UUIDs
// cannot exist and are reported as sql.ErrNoRows.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &account, nil
}

// Create inserts a new account. Email uniqueness is enforced by the
// accounts_email_lower_key index and surfaces as ErrDuplicateEmail.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	const query = `INSERT INTO accounts (` + accountColumns + `) VALUES (:id, :display_name, :email, :password_hash, :role, :approval_status, :rejection_reason, :approved_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Save writes the approval fields of an account. No other column is ever
// updated after creation. Returns sql.ErrNoRows when the account is gone.
func (r *AccountRepository) Save(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now().UTC()
	const query = `UPDATE accounts SET approval_status = :approval_status, rejection_reason = :rejection_reason, approved_at = :approved_at, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, account)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save account rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListPending returns student accounts awaiting approval, oldest first.
func (r *AccountRepository) ListPending(ctx context.Context) ([]models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE role = $1 AND approval_status = $2 ORDER BY created_at ASC`
	accounts := []models.Account{}
	if err := r.db.SelectContext(ctx, &accounts, query, models.RoleStudent, models.StatusPending); err != nil {
		return nil, fmt.Errorf("list pending accounts: %w", err)
	}
	return accounts, nil
}

// Ping reports whether the database is reachable.
func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
