package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/token"
)

type tokenVerifier interface {
	Parse(raw string) (string, error)
}

type accountFinder interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

// AuthorizationGate resolves bearer tokens to account ids and checks
// administrator privileges against the store on every call.
type AuthorizationGate struct {
	tokens tokenVerifier
	repo   accountFinder
	logger *zap.Logger
}

// NewAuthorizationGate constructs an AuthorizationGate.
func NewAuthorizationGate(tokens tokenVerifier, repo accountFinder, logger *zap.Logger) *AuthorizationGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorizationGate{tokens: tokens, repo: repo, logger: logger}
}

// Authenticate verifies raw and returns the account id it names.
func (g *AuthorizationGate) Authenticate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "missing access token")
	}

	subject, err := g.tokens.Parse(raw)
	if err != nil {
		if errors.Is(err, token.ErrMissingSecret) {
			g.logger.Error("token signing secret is not configured")
			return "", appErrors.Wrap(err, appErrors.ErrMisconfigured.Code, appErrors.ErrMisconfigured.Status, appErrors.ErrMisconfigured.Message)
		}
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token")
	}
	return subject, nil
}

// AuthorizeAdmin loads the account and returns it as an administrator.
// A token for an account that no longer exists is unauthorized.
func (g *AuthorizationGate) AuthorizeAdmin(ctx context.Context, accountID string) (*models.AdminAccount, error) {
	account, err := g.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load account")
	}

	admin, ok := account.Admin()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin access required")
	}
	return admin, nil
}
