package repository

import (
	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"gorm.io/gorm"
)

type CourierRepository interface {
	Create(courier *model.Courier) error
	FindByID(courierID uint) (*model.Courier, error)
	FindByPhone(phone string) (*model.Courier, error)
	ListActive() ([]model.Courier, error)
}

type courierRepository struct {
	db *gorm.DB
}

func NewCourierRepository(db *gorm.DB) CourierRepository {
	return &courierRepository{db: db}
}

func (r *courierRepository) Create(courier *model.Courier) error {
	return r.db.Create(courier).Error
}

func (r *courierRepository) FindByID(courierID uint) (*model.Courier, error) {
	var courier model.Courier
	if err := r.db.First(&courier, courierID).Error; err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *courierRepository) FindByPhone(phone string) (*model.Courier, error) {
	var courier model.Courier
	if err := r.db.Where("phone = ?", phone).First(&courier).Error; err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *courierRepository) ListActive() ([]model.Courier, error) {
	var couriers []model.Courier
	err := r.db.Where("active = ?", true).Find(&couriers).Error
	return couriers, err
}
