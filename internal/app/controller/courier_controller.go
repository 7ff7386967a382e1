package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kinmel-dev/kinmel-backend/internal/app/service"
	"github.com/kinmel-dev/kinmel-backend/internal/middleware"
	"github.com/kinmel-dev/kinmel-backend/internal/storage"
)

// CourierController exposes the fulfillment actions. Requests are
// form-encoded; every response is {success, message}. HTTP 400 is reserved
// for malformed input, business rejections answer 200 with success=false.
type CourierController struct {
	courierService    service.CourierService
	settlementService service.SettlementService
	proofStore        storage.ProofStore
}

func NewCourierController(
	courierService service.CourierService,
	settlementService service.SettlementService,
	proofStore storage.ProofStore,
) *CourierController {
	return &CourierController{
		courierService:    courierService,
		settlementService: settlementService,
		proofStore:        proofStore,
	}
}

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func respondRejected(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "message": message})
}

func respondMalformed(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

// rejectionMessage maps workflow errors to courier-facing messages. A nil
// return means the error is not a business rejection.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return "order not found"
	case errors.Is(err, service.ErrUnauthorizedCourier):
		return "you are not assigned to this order"
	case errors.Is(err, service.ErrInvalidTransition):
		return "this action is not allowed in the order's current status"
	case errors.Is(err, service.ErrStaleState):
		return "the order changed, please refresh and retry"
	case errors.Is(err, service.ErrScanCodeMismatch):
		return "scanned code does not match this order"
	case errors.Is(err, service.ErrNotCashOnDelivery):
		return "this order is not cash on delivery"
	default:
		return ""
	}
}

func (ctrl *CourierController) respond(c *gin.Context, err error, successMsg string) {
	if err == nil {
		respondSuccess(c, successMsg)
		return
	}
	if msg := rejectionMessage(err); msg != "" {
		respondRejected(c, msg)
		return
	}
	log := middleware.GetLoggerFromContext(c)
	log.Error("Courier action failed", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
}

func (ctrl *CourierController) courierAndOrder(c *gin.Context) (uint, uint, bool) {
	courierID, ok := middleware.GetCourierID(c)
	if !ok {
		respondMalformed(c, "missing courier identity")
		return 0, 0, false
	}
	orderID, err := strconv.ParseUint(c.PostForm("order_id"), 10, 32)
	if err != nil || orderID == 0 {
		respondMalformed(c, "order_id is required")
		return 0, 0, false
	}
	return courierID, uint(orderID), true
}

// saveProof uploads an optional proof image. Upload failures are logged and
// never block the workflow action.
func (ctrl *CourierController) saveProof(c *gin.Context, folder string) string {
	file, err := c.FormFile("proof")
	if err != nil || ctrl.proofStore == nil {
		return ""
	}

	src, err := file.Open()
	if err != nil {
		return ""
	}
	defer src.Close()

	url, err := ctrl.proofStore.Save(c.Request.Context(), folder, file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		log := middleware.GetLoggerFromContext(c)
		log.Warn("Proof upload failed", map[string]interface{}{
			"folder": folder,
			"error":  err.Error(),
		})
		return ""
	}
	return url
}

// ListOrders returns the courier's assigned orders.
func (ctrl *CourierController) ListOrders(c *gin.Context) {
	courierID, ok := middleware.GetCourierID(c)
	if !ok {
		respondMalformed(c, "missing courier identity")
		return
	}

	orders, err := ctrl.courierService.ListOrders(courierID)
	if err != nil {
		ctrl.respond(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

// GetOrder returns one assigned order with its items.
func (ctrl *CourierController) GetOrder(c *gin.Context) {
	courierID, ok := middleware.GetCourierID(c)
	if !ok {
		respondMalformed(c, "missing courier identity")
		return
	}
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		respondMalformed(c, "invalid order id")
		return
	}

	order, err := ctrl.courierService.GetOrder(courierID, orderID)
	if err != nil {
		ctrl.respond(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (ctrl *CourierController) ConfirmPickup(c *gin.Context) {
	courierID, orderID, ok := ctrl.courierAndOrder(c)
	if !ok {
		return
	}
	proofPath := ctrl.saveProof(c, "pickup-proofs")
	err := ctrl.courierService.ConfirmPickup(courierID, orderID, c.PostForm("scan_code"), proofPath)
	ctrl.respond(c, err, "pickup confirmed")
}

func (ctrl *CourierController) MarkInTransit(c *gin.Context) {
	courierID, orderID, ok := ctrl.courierAndOrder(c)
	if !ok {
		return
	}
	err := ctrl.courierService.MarkInTransit(courierID, orderID)
	ctrl.respond(c, err, "order marked in transit")
}

func (ctrl *CourierController) AttemptDelivery(c *gin.Context) {
	courierID, orderID, ok := ctrl.courierAndOrder(c)
	if !ok {
		return
	}
	err := ctrl.courierService.AttemptDelivery(courierID, orderID, c.PostForm("reason"))
	ctrl.respond(c, err, "delivery attempt recorded")
}

func (ctrl *CourierController) ConfirmDelivery(c *gin.Context) {
	courierID, orderID, ok := ctrl.courierAndOrder(c)
	if !ok {
		return
	}
	proofPath := ctrl.saveProof(c, "delivery-proofs")
	err := ctrl.courierService.ConfirmDelivery(courierID, orderID, proofPath)
	ctrl.respond(c, err, "delivery confirmed")
}

func (ctrl *CourierController) AcceptReturn(c *gin.Context) {
	courierID, orderID, ok := ctrl.courierAndOrder(c)
	if !ok {
		return
	}
	err := ctrl.courierService.AcceptReturn(courierID, orderID)
	ctrl.respond(c, err, "return pickup confirmed")
}

func (ctrl *CourierController) UpdateReturnTransit(c *gin.Context) {
	courierID, orderID, ok := ctrl.courierAndOrder(c)
	if !ok {
		return
	}
	err := ctrl.courierService.UpdateReturnTransit(courierID, orderID)
	ctrl.respond(c, err, "return marked in transit")
}

func (ctrl *CourierController) CompleteReturn(c *gin.Context) {
	courierID, orderID, ok := ctrl.courierAndOrder(c)
	if !ok {
		return
	}
	err := ctrl.courierService.CompleteReturn(courierID, orderID)
	ctrl.respond(c, err, "return completed, refund started")
}

func (ctrl *CourierController) CollectCOD(c *gin.Context) {
	courierID, orderID, ok := ctrl.courierAndOrder(c)
	if !ok {
		return
	}
	amount, err := strconv.ParseFloat(c.PostForm("amount"), 64)
	if err != nil || amount < 0 {
		respondMalformed(c, "amount is required")
		return
	}

	err = ctrl.courierService.CollectCOD(courierID, orderID, amount, c.PostForm("notes"))
	ctrl.respond(c, err, "cash collection recorded")
}

func (ctrl *CourierController) UpdateLocation(c *gin.Context) {
	courierID, orderID, ok := ctrl.courierAndOrder(c)
	if !ok {
		return
	}
	latitude, latErr := strconv.ParseFloat(c.PostForm("latitude"), 64)
	longitude, lngErr := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if latErr != nil || lngErr != nil {
		respondMalformed(c, "latitude and longitude are required")
		return
	}

	err := ctrl.courierService.UpdateLocation(c.Request.Context(), courierID, orderID, latitude, longitude, c.PostForm("address"))
	ctrl.respond(c, err, "location updated")
}

// Settlements returns the courier's collection summary for a date range.
// Dates are inclusive start, exclusive end; both default to today.
func (ctrl *CourierController) Settlements(c *gin.Context) {
	courierID, ok := middleware.GetCourierID(c)
	if !ok {
		respondMalformed(c, "missing courier identity")
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	from := today
	to := today.Add(24 * time.Hour)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondMalformed(c, "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondMalformed(c, "to must be YYYY-MM-DD")
			return
		}
		to = parsed.Add(24 * time.Hour)
	}

	summary, err := ctrl.settlementService.Summary(courierID, from, to)
	if err != nil {
		ctrl.respond(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}
