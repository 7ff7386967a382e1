package model

import (
	"fmt"
	"time"
)

type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementCollected SettlementStatus = "collected"
)

type Courier struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Name         string    `gorm:"type:varchar(120);not null" json:"name"`
	Phone        string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	Active       bool      `gorm:"default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Courier) TableName() string {
	return "couriers"
}

// ActorString is the actor recorded in order activities for this courier.
func (c *Courier) ActorString() string {
	return CourierActor(c.ID)
}

func CourierActor(courierID uint) string {
	return fmt.Sprintf("courier_%d", courierID)
}

// CourierSettlement tracks cash collected by a courier for a COD order.
// One row per order; repeated collection reports update the same row.
type CourierSettlement struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	CourierID   uint             `gorm:"not null;index" json:"courier_id"`
	OrderID     uint             `gorm:"not null;uniqueIndex" json:"order_id"`
	CODAmount   float64          `gorm:"not null" json:"cod_amount"`
	Status      SettlementStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Notes       string           `gorm:"type:text" json:"notes,omitempty"`
	CollectedAt *time.Time       `json:"collected_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (CourierSettlement) TableName() string {
	return "courier_settlements"
}

// CourierLocation is one position ping while an order is out for delivery.
type CourierLocation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CourierID uint      `gorm:"not null;index" json:"courier_id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	Address   string    `gorm:"type:varchar(255)" json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (CourierLocation) TableName() string {
	return "courier_locations"
}
