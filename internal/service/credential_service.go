package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/token"
)

type accountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	Save(ctx context.Context, account *models.Account) error
	ListPending(ctx context.Context) ([]models.Account, error)
}

type secretHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

type tokenIssuer interface {
	Sign(subject string) (string, time.Time, error)
	TTL() time.Duration
}

// CredentialConfig holds operator secrets used by the credential service.
type CredentialConfig struct {
	AdminInviteCode string
}

// CredentialService registers accounts, checks credentials and issues tokens.
type CredentialService struct {
	repo      accountRepository
	hasher    secretHasher
	tokens    tokenIssuer
	throttle  *LoginThrottle
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	config    CredentialConfig
	now       func() time.Time
}

// NewCredentialService constructs a CredentialService. throttle and metrics may be nil.
func NewCredentialService(repo accountRepository, hasher secretHasher, tokens tokenIssuer, throttle *LoginThrottle, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, config CredentialConfig) *CredentialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &CredentialService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		throttle:  throttle,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Register creates a pending student account.
func (s *CredentialService) Register(ctx context.Context, req models.RegisterRequest) (*models.AccountView, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}

	hash, err := s.prepareAccount(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	account := models.NewStudentAccount(uuid.NewString(), req.Name, req.Email, hash)
	return s.create(ctx, account)
}

// RegisterPrivileged creates a pre-approved admin account when the invite
// code matches the configured one. A missing configured code rejects every
// attempt.
func (s *CredentialService) RegisterPrivileged(ctx context.Context, req models.RegisterAdminRequest) (*models.AccountView, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid admin registration payload")
	}

	if s.config.AdminInviteCode == "" {
		s.logger.Error("admin enrollment attempted without a configured invite code")
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin enrollment is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(req.InviteCode), []byte(s.config.AdminInviteCode)) != 1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidInviteCode, "invalid invite code")
	}

	hash, err := s.prepareAccount(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	account := models.NewAdminAccount(uuid.NewString(), req.Name, req.Email, hash, s.now())
	return s.create(ctx, account)
}

// prepareAccount checks the email is free and derives the secret hash.
func (s *CredentialService) prepareAccount(ctx context.Context, email, secret string) (string, error) {
	if _, err := s.repo.FindByEmail(ctx, models.NormalizeEmail(email)); err == nil {
		return "", appErrors.Clone(appErrors.ErrEmailTaken, "email already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", appErrors.Internal(err, "failed to check email uniqueness")
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return "", appErrors.Internal(err, "failed to hash password")
	}
	return hash, nil
}

func (s *CredentialService) create(ctx context.Context, account *models.Account) (*models.AccountView, error) {
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, appErrors.Clone(appErrors.ErrEmailTaken, "email already in use")
		}
		return nil, appErrors.Internal(err, "failed to create account")
	}

	s.metrics.ObserveRegistration(string(account.Role))
	s.logger.Info("account registered",
		zap.String("account_id", account.ID),
		zap.String("role", string(account.Role)),
		zap.String("approval_status", string(account.ApprovalStatus)),
	)

	view := account.View()
	return &view, nil
}

// Login verifies credentials and issues a bearer token for approved accounts.
// Unknown emails and wrong passwords yield the same error.
func (s *CredentialService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}
	email := models.NormalizeEmail(req.Email)

	if err := s.throttle.Allow(ctx, email); err != nil {
		s.observeLogin(req, LoginOutcomeThrottled, nil)
		return nil, err
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.observeLogin(req, LoginOutcomeError, nil)
		return nil, appErrors.Internal(err, "failed to fetch account")
	}

	storedHash := ""
	if account != nil {
		storedHash = account.PasswordHash
	}
	if !s.hasher.Verify(req.Password, storedHash) || account == nil {
		s.throttle.RecordFailure(ctx, email)
		s.observeLogin(req, LoginOutcomeInvalidCredentials, nil)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
	}
	s.throttle.Reset(ctx, email)

	switch account.ApprovalStatus {
	case models.StatusApproved:
	case models.StatusPending:
		s.observeLogin(req, LoginOutcomePending, account)
		return nil, appErrors.Clone(appErrors.ErrAccountPending, "account pending approval")
	case models.StatusRejected:
		s.observeLogin(req, LoginOutcomeRejected, account)
		rejected := appErrors.Clone(appErrors.ErrAccountRejected, "account rejected")
		if account.RejectionReason != nil && *account.RejectionReason != "" {
			rejected = appErrors.WithDetails(rejected, map[string]string{"reason": *account.RejectionReason})
		}
		return nil, rejected
	default:
		s.observeLogin(req, LoginOutcomeError, account)
		return nil, appErrors.Internal(nil, "account has an unknown approval status")
	}

	signed, issuedAt, err := s.tokens.Sign(account.ID)
	if err != nil {
		s.observeLogin(req, LoginOutcomeError, account)
		if errors.Is(err, token.ErrMissingSecret) {
			s.logger.Error("token signing secret is not configured")
			return nil, appErrors.Wrap(err, appErrors.ErrMisconfigured.Code, appErrors.ErrMisconfigured.Status, appErrors.ErrMisconfigured.Message)
		}
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	s.observeLogin(req, LoginOutcomeSuccess, account)
	return &models.LoginResponse{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		IssuedAt:  issuedAt,
	}, nil
}

// observeLogin counts the attempt and records who made it. The email is left
// out so failed guesses do not end up in the logs.
func (s *CredentialService) observeLogin(req models.LoginRequest, outcome string, account *models.Account) {
	s.metrics.ObserveLogin(outcome)

	fields := []zap.Field{
		zap.String("outcome", outcome),
		zap.String("ip", req.IP),
		zap.String("user_agent", req.UserAgent),
	}
	if account != nil {
		fields = append(fields, zap.String("account_id", account.ID))
	}
	if outcome == LoginOutcomeSuccess {
		s.logger.Info("login attempt", fields...)
		return
	}
	s.logger.Warn("login attempt", fields...)
}

// WhoAmI returns the current projection of the account named by a token.
func (s *CredentialService) WhoAmI(ctx context.Context, accountID string) (*models.AccountView, error) {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Internal(err, "failed to load account")
	}
	view := account.View()
	return &view, nil
}
