package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kinmel-dev/kinmel-backend/internal/app/service"
	apperrors "github.com/kinmel-dev/kinmel-backend/internal/errors"
)

// CourierAuthMiddleware authenticates courier requests via bearer tokens.
type CourierAuthMiddleware struct {
	authService service.CourierAuthService
}

func NewCourierAuthMiddleware(authService service.CourierAuthService) *CourierAuthMiddleware {
	return &CourierAuthMiddleware{authService: authService}
}

// Authenticate validates the token and stores the courier id in the context.
func (m *CourierAuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			apperrors.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}

		claims, err := m.authService.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			apperrors.RespondWithError(c, 401, apperrors.AuthTokenInvalid, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("courier_id", claims.CourierID)
		c.Next()
	}
}

// GetCourierID returns the authenticated courier id from the context.
func GetCourierID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("courier_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
