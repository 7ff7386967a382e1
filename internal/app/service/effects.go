package service

import (
	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/pkg/logger"
	"gorm.io/gorm"
)

// Effect is a side effect scheduled by a transition and executed after the
// transaction commits. A failing effect is logged and never rolls back the
// already-committed status change.
type Effect struct {
	Name string
	Run  func() error
}

// RunEffects executes post-commit effects in order, logging failures.
func RunEffects(orderID uint, effects []Effect) {
	for _, effect := range effects {
		if err := effect.Run(); err != nil {
			logger.Error("Post-commit effect failed", err, map[string]interface{}{
				"order_id": orderID,
				"effect":   effect.Name,
			})
		}
	}
}

// Notifier informs the customer about a status change.
type Notifier interface {
	NotifyStatusChange(orderID uint, oldStatus, newStatus model.OrderStatus) error
}

// ReferralEarner credits referral earnings after a delivered order.
type ReferralEarner interface {
	ProcessEarning(orderID uint) error
}

// BalanceReleaser releases the seller's held balance after delivery.
type BalanceReleaser interface {
	ReleaseForOrder(orderID uint) error
}

// RefundProcessor kicks off the refund workflow for a completed return.
type RefundProcessor interface {
	StartRefund(orderID uint) error
}

// StockRestorer puts reserved stock back when an order is cancelled. Unlike
// the other collaborators it runs inside the cancelling transaction.
type StockRestorer interface {
	RestoreForOrder(tx *gorm.DB, orderID uint) error
}

// Logging implementations used until the real integrations are wired in.

type logNotifier struct{}

func NewLogNotifier() Notifier { return &logNotifier{} }

func (n *logNotifier) NotifyStatusChange(orderID uint, oldStatus, newStatus model.OrderStatus) error {
	logger.Info("Order status notification", map[string]interface{}{
		"order_id": orderID,
		"from":     oldStatus,
		"to":       newStatus,
	})
	return nil
}

type logReferralEarner struct{}

func NewLogReferralEarner() ReferralEarner { return &logReferralEarner{} }

func (e *logReferralEarner) ProcessEarning(orderID uint) error {
	logger.Info("Referral earning processed", map[string]interface{}{"order_id": orderID})
	return nil
}

type logBalanceReleaser struct{}

func NewLogBalanceReleaser() BalanceReleaser { return &logBalanceReleaser{} }

func (b *logBalanceReleaser) ReleaseForOrder(orderID uint) error {
	logger.Info("Seller balance released", map[string]interface{}{"order_id": orderID})
	return nil
}

type logRefundProcessor struct{}

func NewLogRefundProcessor() RefundProcessor { return &logRefundProcessor{} }

func (r *logRefundProcessor) StartRefund(orderID uint) error {
	logger.Info("Refund processing started", map[string]interface{}{"order_id": orderID})
	return nil
}

type logStockRestorer struct{}

func NewLogStockRestorer() StockRestorer { return &logStockRestorer{} }

func (s *logStockRestorer) RestoreForOrder(tx *gorm.DB, orderID uint) error {
	logger.Info("Stock restored for cancelled order", map[string]interface{}{"order_id": orderID})
	return nil
}
