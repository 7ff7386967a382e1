package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kinmel-dev/kinmel-backend/config"
	"github.com/kinmel-dev/kinmel-backend/internal/app/controller"
	"github.com/kinmel-dev/kinmel-backend/internal/middleware"
)

type Router struct {
	authController    *controller.AuthController
	paymentController *controller.PaymentController
	courierController *controller.CourierController
	orderController   *controller.OrderController
	courierAuth       *middleware.CourierAuthMiddleware
	config            *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	paymentController *controller.PaymentController,
	courierController *controller.CourierController,
	orderController *controller.OrderController,
	courierAuth *middleware.CourierAuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:    authController,
		paymentController: paymentController,
		courierController: courierController,
		orderController:   orderController,
		courierAuth:       courierAuth,
		config:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "KINMEL API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		{
			payments.POST("/:gateway/initiate/:orderID", r.paymentController.Initiate)
			payments.POST("/:gateway/webhook", r.paymentController.Webhook)
			payments.POST("/:gateway/status", r.paymentController.CheckStatus)

			payments.GET("/esewa/success/:orderID", r.paymentController.ESewaSuccess)
			payments.POST("/esewa/success/:orderID", r.paymentController.ESewaSuccess)
			payments.GET("/esewa/failure/:orderID", r.paymentController.ESewaFailure)
			payments.POST("/esewa/failure/:orderID", r.paymentController.ESewaFailure)

			payments.GET("/khalti/return/:orderID", r.paymentController.KhaltiReturn)
			payments.GET("/khalti/failure/:orderID", r.paymentController.KhaltiFailure)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("/:id/status", r.orderController.GetStatus)
			orders.GET("/:id/activities", r.orderController.GetActivities)
			orders.GET("/:id/location", r.orderController.GetLocation)
		}

		courier := v1.Group("/courier")
		{
			courier.POST("/login", r.authController.Login)

			authed := courier.Group("", r.courierAuth.Authenticate())
			{
				authed.GET("/orders", r.courierController.ListOrders)
				authed.GET("/orders/:id", r.courierController.GetOrder)
				authed.POST("/orders/pickup", r.courierController.ConfirmPickup)
				authed.POST("/orders/transit", r.courierController.MarkInTransit)
				authed.POST("/orders/attempt", r.courierController.AttemptDelivery)
				authed.POST("/orders/deliver", r.courierController.ConfirmDelivery)
				authed.POST("/orders/return/accept", r.courierController.AcceptReturn)
				authed.POST("/orders/return/transit", r.courierController.UpdateReturnTransit)
				authed.POST("/orders/return/complete", r.courierController.CompleteReturn)
				authed.POST("/orders/cod", r.courierController.CollectCOD)
				authed.POST("/orders/location", r.courierController.UpdateLocation)
				authed.GET("/settlements", r.courierController.Settlements)
			}
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origins[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
