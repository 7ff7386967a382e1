package repository

import (
	"time"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettlementRepository interface {
	GetByOrderID(tx *gorm.DB, orderID uint) (*model.CourierSettlement, error)
	Create(tx *gorm.DB, settlement *model.CourierSettlement) error
	UpdateFields(tx *gorm.DB, settlementID uint, fields map[string]interface{}) error
	SumCollected(courierID uint, from, to time.Time) (float64, error)
	ListByCourier(courierID uint, from, to time.Time) ([]model.CourierSettlement, error)
}

type settlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) GetByOrderID(tx *gorm.DB, orderID uint) (*model.CourierSettlement, error) {
	var settlement model.CourierSettlement
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&settlement).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *settlementRepository) Create(tx *gorm.DB, settlement *model.CourierSettlement) error {
	return tx.Create(settlement).Error
}

func (r *settlementRepository) UpdateFields(tx *gorm.DB, settlementID uint, fields map[string]interface{}) error {
	return tx.Model(&model.CourierSettlement{}).Where("id = ?", settlementID).Updates(fields).Error
}

// SumCollected aggregates the cash a courier reported in [from, to).
func (r *settlementRepository) SumCollected(courierID uint, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.Model(&model.CourierSettlement{}).
		Select("COALESCE(SUM(cod_amount), 0)").
		Where("courier_id = ?", courierID).
		Where("status = ?", model.SettlementCollected).
		Where("collected_at >= ? AND collected_at < ?", from, to).
		Scan(&total).Error
	return total, err
}

func (r *settlementRepository) ListByCourier(courierID uint, from, to time.Time) ([]model.CourierSettlement, error) {
	var settlements []model.CourierSettlement
	err := r.db.
		Where("courier_id = ?", courierID).
		Where("status = ?", model.SettlementCollected).
		Where("collected_at >= ? AND collected_at < ?", from, to).
		Order("collected_at ASC").
		Find(&settlements).Error
	return settlements, err
}
