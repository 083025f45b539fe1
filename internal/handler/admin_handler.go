package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

type approvalService interface {
	ListPending(ctx context.Context) ([]models.PendingAccount, error)
	Approve(ctx context.Context, actor *models.AdminAccount, targetID string) (*models.AccountView, error)
	Reject(ctx context.Context, actor *models.AdminAccount, targetID, reason string) (*models.AccountView, error)
	ExportPending(ctx context.Context, format string) (*service.ExportResult, error)
}

// AdminHandler exposes the student approval workflow.
type AdminHandler struct {
	service approvalService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc approvalService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// ListPending godoc
// @Summary List pending students
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/students/pending [get]
func (h *AdminHandler) ListPending(c *gin.Context) {
	pending, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pending, map[string]interface{}{"total": len(pending)})
}

// ExportPending godoc
// @Summary Export pending students
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/students/pending/export [get]
func (h *AdminHandler) ExportPending(c *gin.Context) {
	result, err := h.service.ExportPending(c.Request.Context(), c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

// Approve godoc
// @Summary Approve student
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/students/{id}/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	actor, ok := adminFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	view, err := h.service.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Reject godoc
// @Summary Reject student
// @Description The request body and its reason are optional.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param payload body models.RejectRequest false "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/students/{id}/reject [post]
func (h *AdminHandler) Reject(c *gin.Context) {
	actor, ok := adminFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	var req models.RejectRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rejection payload"))
			return
		}
	}

	view, err := h.service.Reject(c.Request.Context(), actor, c.Param("id"), req.ReasonText())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}
