package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kinmel-dev/kinmel-backend/config"
	"github.com/kinmel-dev/kinmel-backend/internal/app/controller"
	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/internal/app/repository"
	"github.com/kinmel-dev/kinmel-backend/internal/app/service"
	"github.com/kinmel-dev/kinmel-backend/internal/cache"
	"github.com/kinmel-dev/kinmel-backend/internal/db"
	"github.com/kinmel-dev/kinmel-backend/internal/middleware"
	"github.com/kinmel-dev/kinmel-backend/internal/router"
	"github.com/kinmel-dev/kinmel-backend/internal/scheduler"
	"github.com/kinmel-dev/kinmel-backend/internal/storage"
	"github.com/kinmel-dev/kinmel-backend/pkg/logger"
	"github.com/kinmel-dev/kinmel-backend/pkg/payment/esewa"
	"github.com/kinmel-dev/kinmel-backend/pkg/payment/khalti"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting KINMEL Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis for the tracking cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	locationCache := cache.NewLocationCache(redisClient)

	// Gateway clients
	esewaClient, err := esewa.NewClient(esewa.Config{
		MerchantCode: cfg.Payment.ESewa.Merchant(),
		Secret:       cfg.Payment.ESewa.Secret(),
		PaymentURL:   cfg.Payment.ESewa.PaymentURL(),
		StatusURL:    cfg.Payment.ESewa.StatusURL(),
		SuccessURL:   cfg.Payment.ESewa.SuccessURL,
		FailureURL:   cfg.Payment.ESewa.FailureURL,
	})
	if err != nil {
		logger.Fatal("Failed to create eSewa client", err)
	}

	khaltiClient, err := khalti.NewClient(khalti.Config{
		Secret:     cfg.Payment.Khalti.Secret(),
		BaseURL:    cfg.Payment.Khalti.BaseURL(),
		ReturnURL:  cfg.Payment.Khalti.ReturnURL,
		WebsiteURL: cfg.Payment.Khalti.WebsiteURL,
	})
	if err != nil {
		logger.Fatal("Failed to create Khalti client", err)
	}

	// Repositories
	orderRepo := repository.NewOrderRepository(db.GetDB())
	paymentRepo := repository.NewPaymentRepository(db.GetDB())
	activityRepo := repository.NewActivityRepository(db.GetDB())
	settlementRepo := repository.NewSettlementRepository(db.GetDB())
	locationRepo := repository.NewLocationRepository(db.GetDB())
	courierRepo := repository.NewCourierRepository(db.GetDB())

	// Gateway registry
	registry := service.NewGatewayRegistry()
	registry.Register(model.PaymentMethodCOD, service.NewCODAdapter())
	registry.Register(model.PaymentMethodESewa, service.NewESewaAdapter(esewaClient))
	registry.Register(model.PaymentMethodKhalti, service.NewKhaltiAdapter(khaltiClient))

	// Services
	machine := service.NewStateMachine(orderRepo, activityRepo)
	notifier := service.NewLogNotifier()
	paymentService := service.NewPaymentService(
		orderRepo,
		paymentRepo,
		activityRepo,
		registry,
		machine,
		notifier,
		service.NewLogStockRestorer(),
		db.GetDB(),
	)
	courierService := service.NewCourierService(
		orderRepo,
		activityRepo,
		settlementRepo,
		locationRepo,
		machine,
		notifier,
		service.NewLogReferralEarner(),
		service.NewLogBalanceReleaser(),
		service.NewLogRefundProcessor(),
		locationCache,
		db.GetDB(),
	)
	settlementService := service.NewSettlementService(orderRepo, settlementRepo, courierRepo)
	authService := service.NewCourierAuthService(courierRepo, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Proof storage
	proofStore := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Controllers
	authController := controller.NewAuthController(authService)
	paymentController := controller.NewPaymentController(paymentService)
	courierController := controller.NewCourierController(courierService, settlementService, proofStore)
	orderController := controller.NewOrderController(orderRepo, activityRepo, locationRepo, locationCache)

	// Middleware
	courierAuth := middleware.NewCourierAuthMiddleware(authService)

	// Nightly settlement audit
	settlementScheduler := scheduler.NewSettlementScheduler(settlementService)
	if err := settlementScheduler.Start(); err != nil {
		logger.Error("Failed to start settlement scheduler", err)
	}
	defer settlementScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		paymentController,
		courierController,
		orderController,
		courierAuth,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
