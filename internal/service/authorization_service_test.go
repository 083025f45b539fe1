package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/token"
)

type failingFinder struct{ err error }

func (f failingFinder) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return nil, f.err
}

func TestAuthenticate(t *testing.T) {
	signer := token.NewSigner("secret", time.Hour, "student-portal-test")
	gate := NewAuthorizationGate(signer, repository.NewMemoryAccountRepository(), zap.NewNop())

	raw, _, err := signer.Sign("account-1")
	require.NoError(t, err)

	subject, err := gate.Authenticate(raw)
	require.NoError(t, err)
	assert.Equal(t, "account-1", subject)

	_, err = gate.Authenticate("")
	requireCode(t, err, appErrors.ErrUnauthorized)

	_, err = gate.Authenticate("not.a.token")
	requireCode(t, err, appErrors.ErrUnauthorized)

	other := token.NewSigner("other-secret", time.Hour, "student-portal-test")
	forged, _, err := other.Sign("account-1")
	require.NoError(t, err)
	_, err = gate.Authenticate(forged)
	requireCode(t, err, appErrors.ErrUnauthorized)
}

func TestAuthenticateWithoutSecret(t *testing.T) {
	gate := NewAuthorizationGate(token.NewSigner("", time.Hour, "x"), repository.NewMemoryAccountRepository(), zap.NewNop())
	_, err := gate.Authenticate("anything")
	requireCode(t, err, appErrors.ErrMisconfigured)
}

func TestAuthorizeAdmin(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryAccountRepository()
	gate := NewAuthorizationGate(token.NewSigner("secret", time.Hour, "x"), repo, zap.NewNop())

	admin := models.NewAdminAccount("", "Root", "root@example.com", "h", time.Now())
	require.NoError(t, repo.Create(ctx, admin))
	student := models.NewStudentAccount("", "Ada", "ada@example.com", "h")
	require.NoError(t, repo.Create(ctx, student))

	got, err := gate.AuthorizeAdmin(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID())

	_, err = gate.AuthorizeAdmin(ctx, student.ID)
	requireCode(t, err, appErrors.ErrForbidden)

	require.NoError(t, repo.Delete(ctx, admin.ID))
	_, err = gate.AuthorizeAdmin(ctx, admin.ID)
	requireCode(t, err, appErrors.ErrUnauthorized)
}

func TestAuthorizeAdminStoreFailure(t *testing.T) {
	gate := NewAuthorizationGate(token.NewSigner("secret", time.Hour, "x"), failingFinder{err: errors.New("connection reset")}, zap.NewNop())
	_, err := gate.AuthorizeAdmin(context.Background(), "id")
	requireCode(t, err, appErrors.ErrInternal)
}
