package service

import (
	"testing"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/internal/app/repository"
	"github.com/kinmel-dev/kinmel-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupStateMachineTest(t *testing.T) (*StateMachine, *gorm.DB, *model.Order) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	machine := NewStateMachine(
		repository.NewOrderRepository(testDB),
		repository.NewActivityRepository(testDB),
	)

	order := &model.Order{
		Invoice:         "INV-1001",
		UserID:          1,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethodID: model.PaymentMethodCOD,
		TaxRate:         13,
	}
	require.NoError(t, testDB.Create(order).Error)

	return machine, testDB, order
}

func applyInTx(t *testing.T, testDB *gorm.DB, machine *StateMachine, tr Transition) (bool, error) {
	t.Helper()
	tx := testDB.Begin()
	applied, err := machine.Apply(tx, tr)
	if err != nil {
		tx.Rollback()
		return applied, err
	}
	require.NoError(t, tx.Commit().Error)
	return applied, nil
}

func countActivities(t *testing.T, testDB *gorm.DB, orderID uint, action string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, testDB.Model(&model.OrderActivity{}).
		Where("order_id = ? AND action = ?", orderID, action).
		Count(&count).Error)
	return count
}

func TestStateMachine_Apply_WritesStatusAndOneActivity(t *testing.T) {
	machine, testDB, order := setupStateMachineTest(t)

	applied, err := applyInTx(t, testDB, machine, Transition{
		OrderID: order.ID,
		From:    model.OrderStatusPending,
		To:      model.OrderStatusConfirmed,
		Actor:   model.ActorSystem,
		Action:  model.ActivityPaymentConfirmed,
		Payload: "txn-1",
	})
	require.NoError(t, err)
	assert.True(t, applied)

	var updated model.Order
	require.NoError(t, testDB.First(&updated, order.ID).Error)
	assert.Equal(t, model.OrderStatusConfirmed, updated.Status)
	assert.EqualValues(t, 1, countActivities(t, testDB, order.ID, model.ActivityPaymentConfirmed))
}

func TestStateMachine_Apply_RepeatedRequestIsNoOp(t *testing.T) {
	machine, testDB, order := setupStateMachineTest(t)

	tr := Transition{
		OrderID: order.ID,
		From:    model.OrderStatusPending,
		To:      model.OrderStatusConfirmed,
		Actor:   model.ActorSystem,
		Action:  model.ActivityPaymentConfirmed,
	}
	applied, err := applyInTx(t, testDB, machine, tr)
	require.NoError(t, err)
	assert.True(t, applied)

	// Same request again: the target is already reached, so this succeeds
	// without writing anything.
	applied, err = applyInTx(t, testDB, machine, tr)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.EqualValues(t, 1, countActivities(t, testDB, order.ID, model.ActivityPaymentConfirmed))
}

func TestStateMachine_Apply_InvalidTransition(t *testing.T) {
	machine, testDB, order := setupStateMachineTest(t)

	_, err := applyInTx(t, testDB, machine, Transition{
		OrderID: order.ID,
		From:    model.OrderStatusPending,
		To:      model.OrderStatusDelivered,
		Actor:   model.ActorSystem,
		Action:  model.ActivityDelivered,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var updated model.Order
	require.NoError(t, testDB.First(&updated, order.ID).Error)
	assert.Equal(t, model.OrderStatusPending, updated.Status)
	assert.EqualValues(t, 0, countActivities(t, testDB, order.ID, model.ActivityDelivered))
}

func TestStateMachine_Apply_StaleState(t *testing.T) {
	machine, testDB, order := setupStateMachineTest(t)

	// Move the order forward behind the caller's back.
	require.NoError(t, testDB.Model(&model.Order{}).
		Where("id = ?", order.ID).
		Update("status", model.OrderStatusProcessing).Error)

	_, err := applyInTx(t, testDB, machine, Transition{
		OrderID: order.ID,
		From:    model.OrderStatusPending,
		To:      model.OrderStatusCancelled,
		Actor:   model.ActorSystem,
		Action:  model.ActivityCancelled,
	})
	assert.ErrorIs(t, err, ErrStaleState)

	var updated model.Order
	require.NoError(t, testDB.First(&updated, order.ID).Error)
	assert.Equal(t, model.OrderStatusProcessing, updated.Status)
}

func TestStateMachine_Apply_SameFromAndToIsNoOp(t *testing.T) {
	machine, testDB, order := setupStateMachineTest(t)

	applied, err := applyInTx(t, testDB, machine, Transition{
		OrderID: order.ID,
		From:    model.OrderStatusPending,
		To:      model.OrderStatusPending,
		Actor:   model.ActorSystem,
		Action:  model.ActivityStatusChanged,
	})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestStateMachine_Apply_ExtraFields(t *testing.T) {
	machine, testDB, order := setupStateMachineTest(t)

	require.NoError(t, testDB.Model(&model.Order{}).
		Where("id = ?", order.ID).
		Update("status", model.OrderStatusInTransit).Error)

	applied, err := applyInTx(t, testDB, machine, Transition{
		OrderID: order.ID,
		From:    model.OrderStatusInTransit,
		To:      model.OrderStatusDelivered,
		Actor:   model.CourierActor(7),
		Action:  model.ActivityDelivered,
		Fields: map[string]interface{}{
			"payment_status": model.PaymentStatusPaid,
		},
	})
	require.NoError(t, err)
	assert.True(t, applied)

	var updated model.Order
	require.NoError(t, testDB.First(&updated, order.ID).Error)
	assert.Equal(t, model.OrderStatusDelivered, updated.Status)
	assert.Equal(t, model.PaymentStatusPaid, updated.PaymentStatus)
}
