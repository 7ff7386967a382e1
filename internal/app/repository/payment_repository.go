package repository

import (
	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository interface {
	Create(tx *gorm.DB, record *model.PaymentRecord) error
	FindByID(recordID uint) (*model.PaymentRecord, error)
	FindByOrderID(orderID uint) ([]model.PaymentRecord, error)
	FindByTransactionRef(gateway, ref string) (*model.PaymentRecord, error)
	FindPendingByOrder(tx *gorm.DB, orderID uint) (*model.PaymentRecord, error)
	FindCompletedByOrder(tx *gorm.DB, orderID uint) (*model.PaymentRecord, error)
	UpdateFields(tx *gorm.DB, recordID uint, fields map[string]interface{}) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(tx *gorm.DB, record *model.PaymentRecord) error {
	return tx.Create(record).Error
}

func (r *paymentRepository) FindByID(recordID uint) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	if err := r.db.First(&record, recordID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRepository) FindByOrderID(orderID uint) ([]model.PaymentRecord, error) {
	var records []model.PaymentRecord
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").Find(&records).Error
	return records, err
}

func (r *paymentRepository) FindByTransactionRef(gateway, ref string) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	err := r.db.Where("gateway = ? AND transaction_ref = ?", gateway, ref).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindPendingByOrder locks and returns the most recent pending record for the
// order, so reconciliation mutates exactly one attempt.
func (r *paymentRepository) FindPendingByOrder(tx *gorm.DB, orderID uint) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ? AND status = ?", orderID, model.PaymentRecordPending).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRepository) FindCompletedByOrder(tx *gorm.DB, orderID uint) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	err := tx.
		Where("order_id = ? AND status = ?", orderID, model.PaymentRecordCompleted).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateFields never touches completed records; the guard enforces the
// immutability of a finished payment at the data layer.
func (r *paymentRepository) UpdateFields(tx *gorm.DB, recordID uint, fields map[string]interface{}) error {
	return tx.Model(&model.PaymentRecord{}).
		Where("id = ? AND status <> ?", recordID, model.PaymentRecordCompleted).
		Updates(fields).Error
}
