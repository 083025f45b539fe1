// Package server assembles the HTTP router from configured services.
package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/handler"
	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/pkg/config"
	"github.com/noah-isme/student-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/student-portal-api/pkg/password"
	"github.com/noah-isme/student-portal-api/pkg/token"
)

// AccountStore is the persistence contract shared by the PostgreSQL and
// in-memory repositories.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	Save(ctx context.Context, account *models.Account) error
	ListPending(ctx context.Context) ([]models.Account, error)
	Ping(ctx context.Context) error
}

// AttemptCounter counts failed logins for the throttle.
type AttemptCounter interface {
	Count(ctx context.Context, key string) (int64, error)
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

// Dependencies carries everything the router needs.
type Dependencies struct {
	Config      *config.Config
	Logger      *zap.Logger
	Credentials *service.CredentialService
	Gate        *service.AuthorizationGate
	Approvals   *service.ApprovalService
	Metrics     *service.MetricsService
	ReadyChecks map[string]handler.PingFunc
}

// NewDependencies builds the services on top of store. counter may be nil,
// in which case the login throttle is inactive.
func NewDependencies(cfg *config.Config, store AccountStore, counter AttemptCounter, logr *zap.Logger) *Dependencies {
	if logr == nil {
		logr = zap.NewNop()
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	signer := token.NewSigner(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer)
	hasher := password.NewBcrypt(cfg.Auth.BcryptCost)

	var throttle *service.LoginThrottle
	if counter != nil && cfg.Throttle.Enabled {
		throttle = service.NewLoginThrottle(counter, cfg.Throttle, logr.Named("throttle"))
	}

	credentials := service.NewCredentialService(store, hasher, signer, throttle, service.NewValidator(), metrics, logr.Named("credentials"), service.CredentialConfig{
		AdminInviteCode: cfg.Auth.AdminInviteCode,
	})

	return &Dependencies{
		Config:      cfg,
		Logger:      logr,
		Credentials: credentials,
		Gate:        service.NewAuthorizationGate(signer, store, logr.Named("gate")),
		Approvals:   service.NewApprovalService(store, metrics, logr.Named("approvals")),
		Metrics:     metrics,
		ReadyChecks: map[string]handler.PingFunc{"store": store.Ping},
	}
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(deps *Dependencies) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(deps.Metrics))

	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.ReadyChecks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if deps.Metrics != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(deps.Credentials)
	adminHandler := handler.NewAdminHandler(deps.Approvals)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/register-admin", authHandler.RegisterAdmin)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(deps.Gate), authHandler.Me)

	admin := api.Group("/admin", middleware.JWT(deps.Gate), middleware.RequireAdmin(deps.Gate))
	admin.GET("/students/pending", adminHandler.ListPending)
	admin.GET("/students/pending/export", adminHandler.ExportPending)
	admin.POST("/students/:id/approve", adminHandler.Approve)
	admin.POST("/students/:id/reject", adminHandler.Reject)

	return r
}
