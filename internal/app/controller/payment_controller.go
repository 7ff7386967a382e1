package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kinmel-dev/kinmel-backend/internal/app/service"
	apperrors "github.com/kinmel-dev/kinmel-backend/internal/errors"
	"github.com/kinmel-dev/kinmel-backend/internal/middleware"
	"github.com/kinmel-dev/kinmel-backend/pkg/payment/esewa"
	"github.com/kinmel-dev/kinmel-backend/pkg/payment/khalti"
)

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// Initiate starts a payment for the order through its selected gateway.
func (ctrl *PaymentController) Initiate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, err := parseID(c.Param("orderID"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid order id")
		return
	}

	result, err := ctrl.paymentService.InitiatePayment(c.Request.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "order not found")
		case errors.Is(err, service.ErrDuplicateEvent):
			apperrors.Conflict(c, apperrors.PaymentAlreadyCompleted, "order is already paid")
		case errors.Is(err, service.ErrUnknownGateway):
			apperrors.BadRequest(c, apperrors.PaymentUnknownGateway, "unsupported payment method")
		case errors.Is(err, service.ErrGatewayUnavailable):
			log.Error("Payment gateway unavailable during initiation", err, map[string]interface{}{"order_id": orderID})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayUnavailable, "payment gateway is unavailable")
		default:
			log.Error("Payment initiation failed", err, map[string]interface{}{"order_id": orderID})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Webhook handles gateway notifications. Responses follow the gateway
// contract: plain 200 "OK" acknowledges, anything else is retried by the
// sender. A duplicate event acknowledges too.
func (ctrl *PaymentController) Webhook(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	gateway := c.Param("gateway")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "unreadable body")
		return
	}

	err = ctrl.paymentService.HandleWebhook(c.Request.Context(), gateway, body)
	switch {
	case err == nil, errors.Is(err, service.ErrDuplicateEvent):
		c.String(http.StatusOK, "OK")
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrPaymentNotFound):
		c.String(http.StatusNotFound, "payment not found")
	case errors.Is(err, service.ErrUnknownGateway),
		errors.Is(err, service.ErrWebhookUnsupported),
		errors.Is(err, service.ErrAmountMismatch),
		errors.Is(err, service.ErrVerificationFailed),
		errors.Is(err, esewa.ErrInvalidSignature),
		errors.Is(err, esewa.ErrInvalidCallbackData),
		errors.Is(err, khalti.ErrInvalidRequest):
		log.Warn("Webhook rejected", map[string]interface{}{"gateway": gateway, "reason": err.Error()})
		c.String(http.StatusBadRequest, err.Error())
	default:
		log.Error("Webhook processing failed", err, map[string]interface{}{"gateway": gateway})
		c.String(http.StatusInternalServerError, "ERROR")
	}
}

// ESewaSuccess handles the success redirect carrying the signed data envelope.
func (ctrl *PaymentController) ESewaSuccess(c *gin.Context) {
	ctrl.handleReturn(c, service.GatewayESewa, map[string]string{
		"data": pickParam(c, "data"),
	})
}

// ESewaFailure handles the failure/cancel redirect.
func (ctrl *PaymentController) ESewaFailure(c *gin.Context) {
	ctrl.handleFailure(c, service.GatewayESewa, map[string]string{})
}

// KhaltiReturn handles the return redirect; the pidx is verified via lookup.
func (ctrl *PaymentController) KhaltiReturn(c *gin.Context) {
	ctrl.handleReturn(c, service.GatewayKhalti, map[string]string{
		"pidx": pickParam(c, "pidx"),
	})
}

// KhaltiFailure handles the failure redirect. The pidx, when present, is
// still verified so a paid order cannot be cancelled by hitting this URL.
func (ctrl *PaymentController) KhaltiFailure(c *gin.Context) {
	params := map[string]string{}
	if pidx := pickParam(c, "pidx"); pidx != "" {
		params["pidx"] = pidx
	}
	ctrl.handleFailure(c, service.GatewayKhalti, params)
}

type statusRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// CheckStatus polls the gateway for a pending payment and reconciles.
func (ctrl *PaymentController) CheckStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "order_id is required")
		return
	}

	record, err := ctrl.paymentService.CheckStatus(c.Request.Context(), req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "order not found")
		case errors.Is(err, service.ErrPaymentNotPending):
			apperrors.NotFound(c, apperrors.PaymentNotFound, "no payment to check for this order")
		case errors.Is(err, service.ErrGatewayUnavailable):
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayUnavailable, "payment gateway is unavailable")
		default:
			log.Error("Payment status check failed", err, map[string]interface{}{"order_id": req.OrderID})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

func (ctrl *PaymentController) handleReturn(c *gin.Context, gateway string, params map[string]string) {
	log := middleware.GetLoggerFromContext(c)

	orderID, err := parseID(c.Param("orderID"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid order id")
		return
	}

	err = ctrl.paymentService.ReconcileSuccess(c.Request.Context(), gateway, orderID, params)
	switch {
	case err == nil, errors.Is(err, service.ErrDuplicateEvent):
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "payment confirmed"})
	case errors.Is(err, service.ErrOrderNotFound):
		apperrors.NotFound(c, apperrors.OrderNotFound, "order not found")
	case errors.Is(err, service.ErrAmountMismatch):
		apperrors.BadRequest(c, apperrors.PaymentAmountMismatch, "payment amount does not match the order")
	case errors.Is(err, esewa.ErrInvalidSignature):
		apperrors.BadRequest(c, apperrors.PaymentVerificationFailed, "signature verification failed")
	case errors.Is(err, esewa.ErrInvalidCallbackData), errors.Is(err, khalti.ErrInvalidRequest):
		apperrors.BadRequest(c, apperrors.PaymentInvalidCallbackData, "invalid callback data")
	case errors.Is(err, service.ErrGatewayUnavailable):
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayUnavailable, "payment gateway is unavailable")
	default:
		log.Error("Payment return handling failed", err, map[string]interface{}{"gateway": gateway, "order_id": orderID})
		apperrors.InternalError(c, "")
	}
}

func (ctrl *PaymentController) handleFailure(c *gin.Context, gateway string, params map[string]string) {
	log := middleware.GetLoggerFromContext(c)

	orderID, err := parseID(c.Param("orderID"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid order id")
		return
	}

	err = ctrl.paymentService.ReconcileFailure(c.Request.Context(), gateway, orderID, params)
	switch {
	case err == nil, errors.Is(err, service.ErrDuplicateEvent):
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "payment failure recorded"})
	case errors.Is(err, service.ErrOrderNotFound):
		apperrors.NotFound(c, apperrors.OrderNotFound, "order not found")
	default:
		log.Error("Payment failure handling failed", err, map[string]interface{}{"gateway": gateway, "order_id": orderID})
		apperrors.InternalError(c, "")
	}
}

// pickParam reads a value from the query string or the posted form.
func pickParam(c *gin.Context, name string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return c.PostForm(name)
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
