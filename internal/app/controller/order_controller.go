package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kinmel-dev/kinmel-backend/internal/app/repository"
	"github.com/kinmel-dev/kinmel-backend/internal/cache"
	apperrors "github.com/kinmel-dev/kinmel-backend/internal/errors"
	"github.com/kinmel-dev/kinmel-backend/internal/middleware"
	"gorm.io/gorm"
)

// OrderController serves customer-facing order tracking reads.
type OrderController struct {
	orderRepo     repository.OrderRepository
	activityRepo  repository.ActivityRepository
	locationRepo  repository.LocationRepository
	locationCache *cache.LocationCache
}

func NewOrderController(
	orderRepo repository.OrderRepository,
	activityRepo repository.ActivityRepository,
	locationRepo repository.LocationRepository,
	locationCache *cache.LocationCache,
) *OrderController {
	return &OrderController{
		orderRepo:     orderRepo,
		activityRepo:  activityRepo,
		locationRepo:  locationRepo,
		locationCache: locationCache,
	}
}

// GetStatus returns the order's current status and payment state.
func (ctrl *OrderController) GetStatus(c *gin.Context) {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid order id")
		return
	}

	order, err := ctrl.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "order not found")
			return
		}
		middleware.GetLoggerFromContext(c).Error("Failed to load order", err, map[string]interface{}{"order_id": orderID})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":       order.ID,
		"invoice":        order.Invoice,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"delivered_at":   order.DeliveredAt,
	})
}

// GetActivities returns the append-only activity trail for the order.
func (ctrl *OrderController) GetActivities(c *gin.Context) {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid order id")
		return
	}

	activities, err := ctrl.activityRepo.ListByOrder(orderID)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to load activities", err, map[string]interface{}{"order_id": orderID})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "activities": activities})
}

// GetLocation returns the courier's latest known position for the order,
// served from cache when fresh.
func (ctrl *OrderController) GetLocation(c *gin.Context) {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid order id")
		return
	}

	if ctrl.locationCache != nil {
		if location, err := ctrl.locationCache.GetLatest(c.Request.Context(), orderID); err == nil {
			c.JSON(http.StatusOK, gin.H{"order_id": orderID, "location": location, "cached": true})
			return
		}
	}

	location, err := ctrl.locationRepo.LatestByOrder(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "no location reported for this order")
			return
		}
		middleware.GetLoggerFromContext(c).Error("Failed to load location", err, map[string]interface{}{"order_id": orderID})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "location": location, "cached": false})
}
