package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/pkg/config"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type attemptCounter interface {
	Count(ctx context.Context, key string) (int64, error)
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

// LoginThrottle blocks logins for an email after too many failures within a
// window. Keys are hashed emails and are counted the same whether or not an
// account exists. Counter errors fail open. A nil or disabled throttle allows
// everything.
type LoginThrottle struct {
	counter attemptCounter
	config  config.ThrottleConfig
	logger  *zap.Logger
}

// NewLoginThrottle constructs a LoginThrottle.
func NewLoginThrottle(counter attemptCounter, cfg config.ThrottleConfig, logger *zap.Logger) *LoginThrottle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginThrottle{counter: counter, config: cfg, logger: logger}
}

func (t *LoginThrottle) active() bool {
	return t != nil && t.config.Enabled && t.counter != nil && t.config.MaxAttempts > 0
}

func throttleKey(email string) string {
	sum := sha256.Sum256([]byte(models.NormalizeEmail(email)))
	return hex.EncodeToString(sum[:])
}

// Allow returns TOO_MANY_ATTEMPTS once the failure budget for email is spent.
func (t *LoginThrottle) Allow(ctx context.Context, email string) error {
	if !t.active() {
		return nil
	}
	n, err := t.counter.Count(ctx, throttleKey(email))
	if err != nil {
		t.logger.Warn("login throttle unavailable", zap.Error(err))
		return nil
	}
	if n >= int64(t.config.MaxAttempts) {
		return appErrors.Clone(appErrors.ErrTooManyAttempts, "too many failed login attempts, try again later")
	}
	return nil
}

// RecordFailure counts one failed login for email.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) {
	if !t.active() {
		return
	}
	if _, err := t.counter.Increment(ctx, throttleKey(email), t.config.Window); err != nil {
		t.logger.Warn("failed to record login failure", zap.Error(err))
	}
}

// Reset clears failures for email after a successful credential check.
func (t *LoginThrottle) Reset(ctx context.Context, email string) {
	if !t.active() {
		return
	}
	if err := t.counter.Reset(ctx, throttleKey(email)); err != nil {
		t.logger.Warn("failed to reset login failures", zap.Error(err))
	}
}
