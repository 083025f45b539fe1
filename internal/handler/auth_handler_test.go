package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type credentialServiceMock struct {
	registered *models.RegisterRequest
	loginReq   *models.LoginRequest
	whoAmIID   string
	err        error
}

func (m *credentialServiceMock) Register(ctx context.Context, req models.RegisterRequest) (*models.AccountView, error) {
	m.registered = &req
	if m.err != nil {
		return nil, m.err
	}
	return &models.AccountView{ID: "acc-1", Name: req.Name, Email: req.Email, Role: models.RoleStudent, ApprovalStatus: models.StatusPending}, nil
}

func (m *credentialServiceMock) RegisterPrivileged(ctx context.Context, req models.RegisterAdminRequest) (*models.AccountView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.AccountView{ID: "adm-1", Name: req.Name, Email: req.Email, Role: models.RoleAdmin, ApprovalStatus: models.StatusApproved}, nil
}

func (m *credentialServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.loginReq = &req
	if m.err != nil {
		return nil, m.err
	}
	return &models.LoginResponse{Token: "t", TokenType: "Bearer", ExpiresIn: 60}, nil
}

func (m *credentialServiceMock) WhoAmI(ctx context.Context, accountID string) (*models.AccountView, error) {
	m.whoAmIID = accountID
	if m.err != nil {
		return nil, m.err
	}
	return &models.AccountView{ID: accountID}, nil
}

func newJSONContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestAuthHandlerRegisterCreated(t *testing.T) {
	svc := &credentialServiceMock{}
	handler := NewAuthHandler(svc)
	c, w := newJSONContext(http.MethodPost, "/auth/register", []byte(`{"name":"Ada","email":"ada@example.com","password":"hunter22"}`))

	handler.Register(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.registered)
	assert.Equal(t, "ada@example.com", svc.registered.Email)

	var view models.AccountView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &view))
	assert.Equal(t, "acc-1", view.ID)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandlerRegisterInvalidBody(t *testing.T) {
	svc := &credentialServiceMock{}
	handler := NewAuthHandler(svc)
	c, w := newJSONContext(http.MethodPost, "/auth/register", []byte(`not-json`))

	handler.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.registered)
}

func TestAuthHandlerRegisterConflict(t *testing.T) {
	handler := NewAuthHandler(&credentialServiceMock{err: appErrors.ErrEmailTaken})
	c, w := newJSONContext(http.MethodPost, "/auth/register", []byte(`{"name":"Ada","email":"ada@example.com","password":"hunter22"}`))

	handler.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, appErrors.ErrEmailTaken.Code, decodeEnvelope(t, w).Error.Code)
}

func TestAuthHandlerLoginPassesClientMetadata(t *testing.T) {
	svc := &credentialServiceMock{}
	handler := NewAuthHandler(svc)
	c, w := newJSONContext(http.MethodPost, "/auth/login", []byte(`{"email":"ada@example.com","password":"hunter22"}`))
	c.Request.Header.Set("User-Agent", "test-agent")

	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.loginReq)
	assert.Equal(t, "test-agent", svc.loginReq.UserAgent)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestAuthHandlerLoginInternalErrorHidesCause(t *testing.T) {
	handler := NewAuthHandler(&credentialServiceMock{err: appErrors.Internal(errors.New("pq: connection refused"), "failed to fetch account")})
	c, w := newJSONContext(http.MethodPost, "/auth/login", []byte(`{"email":"ada@example.com","password":"hunter22"}`))

	handler.Login(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Len(t, c.Errors, 1)
}

func TestAuthHandlerMe(t *testing.T) {
	svc := &credentialServiceMock{}
	handler := NewAuthHandler(svc)

	c, w := newJSONContext(http.MethodGet, "/auth/me", nil)
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newJSONContext(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextAccountIDKey, "acc-9")
	handler.Me(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acc-9", svc.whoAmIID)
}
