package model

import (
	"time"
)

type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
	PaymentRecordCancelled PaymentRecordStatus = "cancelled"
)

// PaymentRecord is one gateway attempt for an order. At most one record per
// order may ever reach completed; a completed record is never mutated again.
type PaymentRecord struct {
	ID             uint                `gorm:"primarykey" json:"id"`
	OrderID        uint                `gorm:"not null;index" json:"order_id"`
	UserID         uint                `gorm:"not null;index" json:"user_id"`
	Gateway        string              `gorm:"type:varchar(20);not null;index" json:"gateway"`
	TransactionRef string              `gorm:"type:varchar(100);index:idx_payment_gateway_ref" json:"transaction_ref"`
	ReferenceID    string              `gorm:"type:varchar(100)" json:"reference_id,omitempty"`
	Amount         float64             `gorm:"not null" json:"amount"`
	Status         PaymentRecordStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	RawResponse    string              `gorm:"type:text" json:"-"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}
