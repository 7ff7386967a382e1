package model

import (
	"time"
)

// Activity action tags written by the workflow and reconciliation layers.
const (
	ActivityPickupConfirmed   = "pickup_confirmed"
	ActivityInTransit         = "in_transit"
	ActivityDeliveryAttempted = "delivery_attempted"
	ActivityDelivered         = "delivered"
	ActivityReturnPickedUp    = "return_picked_up"
	ActivityReturnInTransit   = "return_in_transit"
	ActivityReturned          = "returned"
	ActivityCancelled         = "cancelled"
	ActivityCODCollected      = "cod_collected"
	ActivityLocationUpdated   = "location_updated"
	ActivityPaymentConfirmed  = "payment_confirmed"
	ActivityPaymentFailed     = "payment_failed"
	ActivityStatusChanged     = "status_changed"
)

const ActorSystem = "system"

// OrderActivity is the append-only audit trail of an order. Rows are never
// updated or deleted; idempotency checks read this table inside the writing
// transaction.
type OrderActivity struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Action    string    `gorm:"type:varchar(40);not null;index" json:"action"`
	Actor     string    `gorm:"type:varchar(40);not null" json:"actor"`
	Payload   string    `gorm:"type:text" json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderActivity) TableName() string {
	return "order_activities"
}
