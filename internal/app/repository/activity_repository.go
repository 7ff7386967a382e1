package repository

import (
	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Append(tx *gorm.DB, activity *model.OrderActivity) error
	HasAction(tx *gorm.DB, orderID uint, action string) (bool, error)
	ListByOrder(orderID uint) ([]model.OrderActivity, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(tx *gorm.DB, activity *model.OrderActivity) error {
	return tx.Create(activity).Error
}

// HasAction runs inside the writing transaction so idempotency checks see
// uncommitted rows from the same request.
func (r *activityRepository) HasAction(tx *gorm.DB, orderID uint, action string) (bool, error) {
	var count int64
	err := tx.Model(&model.OrderActivity{}).
		Where("order_id = ? AND action = ?", orderID, action).
		Count(&count).Error
	return count > 0, err
}

func (r *activityRepository) ListByOrder(orderID uint) ([]model.OrderActivity, error) {
	var activities []model.OrderActivity
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&activities).Error
	return activities, err
}
