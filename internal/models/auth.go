package models

import "time"

// RegisterRequest is the self-registration payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterAdminRequest is the privileged enrollment payload.
type RegisterAdminRequest struct {
	Name       string `json:"name" validate:"required,notblank"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	InviteCode string `json:"invite_code" validate:"required"`
}

// LoginRequest holds credentials for authenticating an account.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
}

// RejectRequest carries the optional rejection rationale. Reason is decoded
// loosely so that a non-string value rejects without a rationale.
type RejectRequest struct {
	Reason interface{} `json:"reason" swaggertype:"string"`
}

// ReasonText returns the rationale when it was sent as a string.
func (r RejectRequest) ReasonText() string {
	reason, _ := r.Reason.(string)
	return reason
}
