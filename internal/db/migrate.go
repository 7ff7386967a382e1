package db

import (
	"fmt"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	appLogger "github.com/kinmel-dev/kinmel-backend/pkg/logger"
)

// Migrate runs schema migrations for all models.
func Migrate() error {
	appLogger.Info("Running database migrations")

	err := DB.AutoMigrate(
		&model.Order{},
		&model.OrderItem{},
		&model.OrderActivity{},
		&model.PaymentRecord{},
		&model.Courier{},
		&model.CourierSettlement{},
		&model.CourierLocation{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	appLogger.Info("Database migrations completed")
	return nil
}
