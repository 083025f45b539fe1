package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

// ContextAdminKey is the gin context key storing the authorized *models.AdminAccount.
const ContextAdminKey = "currentAdmin"

type adminAuthorizer interface {
	AuthorizeAdmin(ctx context.Context, accountID string) (*models.AdminAccount, error)
}

// RequireAdmin admits only accounts whose stored role is admin. It must run
// after JWT.
func RequireAdmin(gate adminAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString(ContextAccountIDKey)
		if accountID == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		admin, err := gate.AuthorizeAdmin(c.Request.Context(), accountID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, admin)
		c.Next()
	}
}
