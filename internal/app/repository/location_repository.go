package repository

import (
	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"gorm.io/gorm"
)

type LocationRepository interface {
	Insert(location *model.CourierLocation) error
	LatestByOrder(orderID uint) (*model.CourierLocation, error)
}

type locationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Insert(location *model.CourierLocation) error {
	return r.db.Create(location).Error
}

func (r *locationRepository) LatestByOrder(orderID uint) (*model.CourierLocation, error) {
	var location model.CourierLocation
	err := r.db.
		Where("order_id = ?", orderID).
		Order("created_at DESC, id DESC").
		First(&location).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}
