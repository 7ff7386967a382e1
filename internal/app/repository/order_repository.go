package repository

import (
	"time"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(orderID uint) (*model.Order, error)
	FindByInvoice(invoice string) (*model.Order, error)
	FindByCourier(courierID uint) ([]model.Order, error)
	FindByIDForUpdate(tx *gorm.DB, orderID uint) (*model.Order, error)

	// UpdateStatusCAS writes the status only if the current row still holds
	// from. Returns the number of rows affected: 0 means the row moved under
	// us (or does not exist) and the caller must re-read to decide.
	UpdateStatusCAS(tx *gorm.DB, orderID uint, from, to model.OrderStatus) (int64, error)

	UpdateFields(tx *gorm.DB, orderID uint, fields map[string]interface{}) error
	SumDeliveredCODTotals(courierID uint, from, to time.Time) (float64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *model.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) FindByID(orderID uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.Preload("OrderItems").First(&order, orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByInvoice(invoice string) (*model.Order, error) {
	var order model.Order
	if err := r.db.Preload("OrderItems").Where("invoice = ?", invoice).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByCourier(courierID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.
		Where("courier_id = ?", courierID).
		Order("updated_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) FindByIDForUpdate(tx *gorm.DB, orderID uint) (*model.Order, error) {
	var order model.Order
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("OrderItems").
		First(&order, orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatusCAS(tx *gorm.DB, orderID uint, from, to model.OrderStatus) (int64, error) {
	result := tx.Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *orderRepository) UpdateFields(tx *gorm.DB, orderID uint, fields map[string]interface{}) error {
	return tx.Model(&model.Order{}).Where("id = ?", orderID).Updates(fields).Error
}

// SumDeliveredCODTotals derives the expected COD cash for a courier directly
// from the orders table. Settlement aggregation is checked against this.
func (r *orderRepository) SumDeliveredCODTotals(courierID uint, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.Model(&model.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("courier_id = ?", courierID).
		Where("payment_method_id = ?", model.PaymentMethodCOD).
		Where("status = ?", model.OrderStatusDelivered).
		Where("delivered_at >= ? AND delivered_at < ?", from, to).
		Scan(&total).Error
	return total, err
}
