package service

import (
	"errors"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/internal/app/repository"
	"github.com/kinmel-dev/kinmel-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrStaleState        = errors.New("order status changed concurrently")
)

// Transition describes one status change request. Exactly one activity row is
// written per applied transition; Fields are extra order columns updated in
// the same statement batch.
type Transition struct {
	OrderID uint
	From    model.OrderStatus
	To      model.OrderStatus
	Actor   string
	Action  string
	Payload string
	Fields  map[string]interface{}
}

// StateMachine is the only code path that writes orders.status.
type StateMachine struct {
	orderRepo    repository.OrderRepository
	activityRepo repository.ActivityRepository
}

func NewStateMachine(orderRepo repository.OrderRepository, activityRepo repository.ActivityRepository) *StateMachine {
	return &StateMachine{
		orderRepo:    orderRepo,
		activityRepo: activityRepo,
	}
}

// Apply performs the transition inside the caller's transaction. It returns
// applied=false with a nil error when the order already reached the target
// status (a repeated request is a no-op success). ErrStaleState is returned
// when the row moved somewhere else between the caller's read and the write.
func (m *StateMachine) Apply(tx *gorm.DB, t Transition) (applied bool, err error) {
	if t.From == t.To {
		return false, nil
	}
	if !model.ValidOrderStatus(t.To) || !model.CanTransition(t.From, t.To) {
		logger.Warn("Rejected order status transition", map[string]interface{}{
			"order_id": t.OrderID,
			"from":     t.From,
			"to":       t.To,
			"actor":    t.Actor,
		})
		return false, ErrInvalidTransition
	}

	rows, err := m.orderRepo.UpdateStatusCAS(tx, t.OrderID, t.From, t.To)
	if err != nil {
		return false, err
	}
	if rows == 0 {
		// The row moved under us. Re-read to tell a duplicate request apart
		// from a genuine conflict.
		var current model.Order
		if err := tx.Select("id", "status").First(&current, t.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, ErrOrderNotFound
			}
			return false, err
		}
		if current.Status == t.To {
			return false, nil
		}
		return false, ErrStaleState
	}

	if len(t.Fields) > 0 {
		if err := m.orderRepo.UpdateFields(tx, t.OrderID, t.Fields); err != nil {
			return false, err
		}
	}

	activity := &model.OrderActivity{
		OrderID: t.OrderID,
		Action:  t.Action,
		Actor:   t.Actor,
		Payload: t.Payload,
	}
	if err := m.activityRepo.Append(tx, activity); err != nil {
		return false, err
	}

	logger.Info("Order status transition applied", map[string]interface{}{
		"order_id": t.OrderID,
		"from":     t.From,
		"to":       t.To,
		"actor":    t.Actor,
		"action":   t.Action,
	})
	return true, nil
}
