package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// MemoryAccountRepository keeps accounts in process memory. It backs the
// memory store driver and tests.
type MemoryAccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Account
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryAccountRepository creates an empty in-memory store.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// FindByEmail returns a copy of the account registered under email.
func (r *MemoryAccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r.byID[id].Clone(), nil
}

// FindByID returns a copy of the account with the given id.
func (r *MemoryAccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return account.Clone(), nil
}

// Create stores a copy of account, rejecting duplicate emails.
func (r *MemoryAccountRepository) Create(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.NormalizeEmail(account.Email)
	if _, exists := r.byEmail[key]; exists {
		return ErrDuplicateEmail
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := r.now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	r.byID[account.ID] = account.Clone()
	r.byEmail[key] = account.ID
	return nil
}

// Save overwrites the approval fields of a stored account.
func (r *MemoryAccountRepository) Save(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[account.ID]
	if !ok {
		return sql.ErrNoRows
	}
	account.UpdatedAt = r.now().UTC()
	updated := account.Clone()

	stored.ApprovalStatus = updated.ApprovalStatus
	stored.RejectionReason = updated.RejectionReason
	stored.ApprovedAt = updated.ApprovedAt
	stored.UpdatedAt = updated.UpdatedAt
	return nil
}

// ListPending returns copies of pending student accounts, oldest first.
func (r *MemoryAccountRepository) ListPending(ctx context.Context) ([]models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := []models.Account{}
	for _, account := range r.byID {
		if account.Role == models.RoleStudent && account.ApprovalStatus == models.StatusPending {
			accounts = append(accounts, *account.Clone())
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// Delete removes an account. Account removal is an operator action outside
// the approval workflow.
func (r *MemoryAccountRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(r.byEmail, models.NormalizeEmail(account.Email))
	delete(r.byID, id)
	return nil
}

// Len returns the number of stored accounts.
func (r *MemoryAccountRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Ping always succeeds.
func (r *MemoryAccountRepository) Ping(ctx context.Context) error {
	return nil
}
