package model

import (
	"time"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusConfirmed         OrderStatus = "confirmed"
	OrderStatusProcessing        OrderStatus = "processing"
	OrderStatusShipped           OrderStatus = "shipped"
	OrderStatusReadyForPickup    OrderStatus = "ready_for_pickup"
	OrderStatusPickedUp          OrderStatus = "picked_up"
	OrderStatusInTransit         OrderStatus = "in_transit"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusDeliveryAttempted OrderStatus = "delivery_attempted"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusReturnRequested   OrderStatus = "return_requested"
	OrderStatusReturnPickedUp    OrderStatus = "return_picked_up"
	OrderStatusReturnInTransit   OrderStatus = "return_in_transit"
	OrderStatusReturned          OrderStatus = "returned"

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"

	RefundStatusNone       = "none"
	RefundStatusProcessing = "processing"
)

// Payment method ids as seeded in payment_methods. COD has no external
// gateway; the wallet methods map to adapters by these ids.
const (
	PaymentMethodCOD    uint = 1
	PaymentMethodESewa  uint = 2
	PaymentMethodKhalti uint = 3
)

type Order struct {
	ID              uint          `gorm:"primarykey" json:"id"`
	Invoice         string        `gorm:"type:varchar(40);uniqueIndex;not null" json:"invoice"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	Status          OrderStatus   `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	PaymentMethodID uint          `gorm:"not null;default:1" json:"payment_method_id"`
	CourierID       *uint         `gorm:"index" json:"courier_id,omitempty"`
	CustomerName    string        `gorm:"type:varchar(120)" json:"customer_name"`
	CustomerPhone   string        `gorm:"type:varchar(20)" json:"customer_phone"`
	ShippingAddress string        `gorm:"type:text" json:"shipping_address"`
	TotalAmount     float64       `gorm:"not null" json:"total_amount"`
	DiscountAmount  float64       `json:"discount_amount"`
	DeliveryFee     float64       `json:"delivery_fee"`
	ServiceCharge   float64       `json:"service_charge"`
	TaxRate         float64       `gorm:"default:13" json:"tax_rate"`
	RefundStatus    string        `gorm:"type:varchar(20);default:'none'" json:"refund_status"`
	DeliveredAt     *time.Time    `json:"delivered_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Courier    *Courier    `gorm:"foreignKey:CourierID" json:"courier,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// IsCOD reports whether payment is collected by the courier at the door.
func (o *Order) IsCOD() bool {
	return o.PaymentMethodID == PaymentMethodCOD
}

// Subtotal is the item-derived amount before discount, tax and fees.
func (o *Order) Subtotal() float64 {
	var sum float64
	for _, item := range o.OrderItems {
		sum += item.Price * float64(item.Quantity)
	}
	return sum
}

type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Name      string    `gorm:"type:varchar(200)" json:"name"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Price     float64   `gorm:"not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
