package middleware

import (
	"net/http"

	"muni-hris/internal/rbac"
	"muni-hris/internal/shared/apperror"
	"muni-hris/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RBACService is the narrow contract this middleware needs; any service with
// a matching Enforce method fits.
type RBACService interface {
	Enforce(req rbac.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeID := c.GetString(ContextEmployeeID)
		if employeeID == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "Missing auth context", nil)
			c.Abort()
			return
		}

		allowed, err := service.Enforce(rbac.EnforceRequest{
			EmployeeID: employeeID,
			Resource:   resource,
			Action:     action,
		})
		if err != nil {
			response.Error(c, http.StatusInternalServerError, apperror.CodeInternalError, "Authorization check failed", nil)
			c.Abort()
			return
		}
		if !allowed {
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden,
				"You do not have permission to access this resource",
				map[string]any{"required": resource + ":" + action},
			)
			c.Abort()
			return
		}

		c.Next()
	}
}
