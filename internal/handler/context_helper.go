package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
)

func accountIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(middleware.ContextAccountIDKey)
	return id, id != ""
}

func adminFromContext(c *gin.Context) (*models.AdminAccount, bool) {
	value, exists := c.Get(middleware.ContextAdminKey)
	if !exists {
		return nil, false
	}
	admin, ok := value.(*models.AdminAccount)
	return admin, ok && admin != nil
}
