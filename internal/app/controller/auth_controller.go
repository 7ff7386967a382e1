package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kinmel-dev/kinmel-backend/internal/app/service"
	apperrors "github.com/kinmel-dev/kinmel-backend/internal/errors"
	"github.com/kinmel-dev/kinmel-backend/internal/middleware"
)

type AuthController struct {
	authService service.CourierAuthService
}

func NewAuthController(authService service.CourierAuthService) *AuthController {
	return &AuthController{authService: authService}
}

type courierLoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a courier and issues a bearer token.
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req courierLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "phone and password are required")
		return
	}

	token, courier, err := ctrl.authService.Login(req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "invalid phone or password")
		case errors.Is(err, service.ErrCourierInactive):
			apperrors.Forbidden(c, apperrors.CourierInactive, "courier account is deactivated")
		default:
			log.Error("Courier login failed", err)
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"courier": gin.H{
			"id":    courier.ID,
			"name":  courier.Name,
			"phone": courier.Phone,
		},
	})
}
