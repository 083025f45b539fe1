package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is fixed when an account is created.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ApprovalStatus classifies whether a student may sign in.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// Account is the stored login identity. Role, identity and secret never
// change after creation; approval fields change only through StudentAccount.
type Account struct {
	ID              string         `db:"id"`
	DisplayName     string         `db:"display_name"`
	Email           string         `db:"email"`
	PasswordHash    string         `db:"password_hash"`
	Role            Role           `db:"role"`
	ApprovalStatus  ApprovalStatus `db:"approval_status"`
	RejectionReason *string        `db:"rejection_reason"`
	ApprovedAt      *time.Time     `db:"approved_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewStudentAccount builds a self-registered account awaiting approval.
func NewStudentAccount(id, displayName, email, passwordHash string) *Account {
	return &Account{
		ID:             id,
		DisplayName:    strings.TrimSpace(displayName),
		Email:          NormalizeEmail(email),
		PasswordHash:   passwordHash,
		Role:           RoleStudent,
		ApprovalStatus: StatusPending,
	}
}

// NewAdminAccount builds a pre-approved administrator account.
func NewAdminAccount(id, displayName, email, passwordHash string, now time.Time) *Account {
	approvedAt := now.UTC()
	return &Account{
		ID:             id,
		DisplayName:    strings.TrimSpace(displayName),
		Email:          NormalizeEmail(email),
		PasswordHash:   passwordHash,
		Role:           RoleAdmin,
		ApprovalStatus: StatusApproved,
		ApprovedAt:     &approvedAt,
	}
}

// Student returns the student view of the account when its role allows it.
func (a *Account) Student() (*StudentAccount, bool) {
	if a == nil || a.Role != RoleStudent {
		return nil, false
	}
	return &StudentAccount{account: a}, true
}

// Admin returns the administrator view of the account when its role allows it.
func (a *Account) Admin() (*AdminAccount, bool) {
	if a == nil || a.Role != RoleAdmin {
		return nil, false
	}
	return &AdminAccount{account: a}, true
}

// Validate checks the approval field invariants.
func (a *Account) Validate() error {
	switch a.Role {
	case RoleStudent, RoleAdmin:
	default:
		return fmt.Errorf("account %s: unknown role %q", a.ID, a.Role)
	}
	switch a.ApprovalStatus {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return fmt.Errorf("account %s: unknown approval status %q", a.ID, a.ApprovalStatus)
	}
	if (a.ApprovalStatus == StatusRejected) != (a.RejectionReason != nil) {
		return fmt.Errorf("account %s: rejection reason must be set iff rejected", a.ID)
	}
	if (a.ApprovalStatus == StatusApproved) != (a.ApprovedAt != nil) {
		return fmt.Errorf("account %s: approved_at must be set iff approved", a.ID)
	}
	if a.Role == RoleAdmin && a.ApprovalStatus != StatusApproved {
		return fmt.Errorf("account %s: admin accounts are always approved", a.ID)
	}
	return nil
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.RejectionReason != nil {
		reason := *a.RejectionReason
		c.RejectionReason = &reason
	}
	if a.ApprovedAt != nil {
		at := *a.ApprovedAt
		c.ApprovedAt = &at
	}
	return &c
}

// View projects the account without secret material.
func (a *Account) View() AccountView {
	return AccountView{
		ID:              a.ID,
		Name:            a.DisplayName,
		Email:           a.Email,
		Role:            a.Role,
		ApprovalStatus:  a.ApprovalStatus,
		RejectionReason: a.RejectionReason,
		ApprovedAt:      a.ApprovedAt,
	}
}

// PendingView projects the account for the approval queue.
func (a *Account) PendingView() PendingAccount {
	return PendingAccount{
		ID:        a.ID,
		Name:      a.DisplayName,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}

// StudentAccount is an account holding the student role. Approval
// transitions are only defined on this type.
type StudentAccount struct {
	account *Account
}

// Approve marks the student approved, clearing any rejection reason.
// Approving again re-stamps ApprovedAt.
func (s *StudentAccount) Approve(now time.Time) {
	at := now.UTC()
	s.account.ApprovalStatus = StatusApproved
	s.account.RejectionReason = nil
	s.account.ApprovedAt = &at
}

// Reject marks the student rejected. The trimmed reason is stored, empty
// when none was given.
func (s *StudentAccount) Reject(reason string) {
	trimmed := strings.TrimSpace(reason)
	s.account.ApprovalStatus = StatusRejected
	s.account.RejectionReason = &trimmed
	s.account.ApprovedAt = nil
}

// AdminAccount is an account holding the admin role.
type AdminAccount struct {
	account *Account
}

// ID returns the administrator's account id.
func (a *AdminAccount) ID() string { return a.account.ID }

// AccountView is the public projection returned to callers.
type AccountView struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Role            Role           `json:"role"`
	ApprovalStatus  ApprovalStatus `json:"approval_status"`
	RejectionReason *string        `json:"rejection_reason"`
	ApprovedAt      *time.Time     `json:"approved_at"`
}

// PendingAccount is an entry of the approval queue.
type PendingAccount struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
