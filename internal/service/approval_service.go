package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/export"
)

type approvalRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
	ListPending(ctx context.Context) ([]models.Account, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// Export formats accepted by ExportPending.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportResult is a rendered approval queue ready to be sent as a download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ApprovalService moves student accounts through the approval lifecycle on
// behalf of an administrator.
type ApprovalService struct {
	repo      approvalRepository
	renderers map[string]datasetRenderer
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewApprovalService constructs an ApprovalService with CSV and PDF exporters.
func NewApprovalService(repo approvalRepository, metrics *MetricsService, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		repo: repo,
		renderers: map[string]datasetRenderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// ListPending returns student accounts awaiting a decision, oldest first.
func (s *ApprovalService) ListPending(ctx context.Context) ([]models.PendingAccount, error) {
	accounts, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list pending accounts")
	}
	result := make([]models.PendingAccount, 0, len(accounts))
	for i := range accounts {
		result = append(result, accounts[i].PendingView())
	}
	return result, nil
}

// Approve marks the student approved. Approving an approved student
// refreshes its approval time.
func (s *ApprovalService) Approve(ctx context.Context, actor *models.AdminAccount, targetID string) (*models.AccountView, error) {
	return s.transition(ctx, actor, targetID, "approve", func(student *models.StudentAccount) {
		student.Approve(s.now())
	})
}

// Reject marks the student rejected with an optional reason.
func (s *ApprovalService) Reject(ctx context.Context, actor *models.AdminAccount, targetID, reason string) (*models.AccountView, error) {
	return s.transition(ctx, actor, targetID, "reject", func(student *models.StudentAccount) {
		student.Reject(reason)
	})
}

func (s *ApprovalService) transition(ctx context.Context, actor *models.AdminAccount, targetID, action string, apply func(*models.StudentAccount)) (*models.AccountView, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin access required")
	}

	account, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Internal(err, "failed to load account")
	}

	student, ok := account.Student()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, fmt.Sprintf("only students can be %sd", action))
	}

	previous := account.ApprovalStatus
	apply(student)

	if err := s.repo.Save(ctx, account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Internal(err, "failed to update account")
	}

	s.metrics.ObserveApprovalTransition(string(account.ApprovalStatus))
	s.logger.Info("approval status changed",
		zap.String("actor_id", actor.ID()),
		zap.String("account_id", account.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(account.ApprovalStatus)),
	)

	view := account.View()
	return &view, nil
}

// ExportPending renders the approval queue as a CSV or PDF document.
func (s *ApprovalService) ExportPending(ctx context.Context, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unsupported export format"), map[string]string{"format": "oneof=csv pdf"})
	}

	pending, err := s.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:   "Pending Student Accounts",
		Headers: []string{"ID", "Name", "Email", "Registered At"},
		Rows:    make([]map[string]string, 0, len(pending)),
	}
	for _, p := range pending {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":            p.ID,
			"Name":          p.Name,
			"Email":         p.Email,
			"Registered At": p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("pending-students-%s.%s", s.now().UTC().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
