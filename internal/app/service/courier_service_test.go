package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/internal/app/repository"
	"github.com/kinmel-dev/kinmel-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingReferralEarner struct{ orders []uint }

func (r *recordingReferralEarner) ProcessEarning(orderID uint) error {
	r.orders = append(r.orders, orderID)
	return nil
}

type recordingBalanceReleaser struct{ orders []uint }

func (r *recordingBalanceReleaser) ReleaseForOrder(orderID uint) error {
	r.orders = append(r.orders, orderID)
	return nil
}

type recordingRefundProcessor struct{ orders []uint }

func (r *recordingRefundProcessor) StartRefund(orderID uint) error {
	r.orders = append(r.orders, orderID)
	return nil
}

type courierTestEnv struct {
	db       *gorm.DB
	service  CourierService
	courier  *model.Courier
	order    *model.Order
	referral *recordingReferralEarner
	balance  *recordingBalanceReleaser
	refund   *recordingRefundProcessor
}

func setupCourierTest(t *testing.T, methodID uint, status model.OrderStatus) *courierTestEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	orderRepo := repository.NewOrderRepository(testDB)
	activityRepo := repository.NewActivityRepository(testDB)
	settlementRepo := repository.NewSettlementRepository(testDB)
	locationRepo := repository.NewLocationRepository(testDB)
	machine := NewStateMachine(orderRepo, activityRepo)

	referral := &recordingReferralEarner{}
	balance := &recordingBalanceReleaser{}
	refund := &recordingRefundProcessor{}

	svc := NewCourierService(
		orderRepo, activityRepo, settlementRepo, locationRepo,
		machine, NewLogNotifier(), referral, balance, refund,
		nil, testDB,
	)

	courier := &model.Courier{Name: "Ram", Phone: "9800000001", PasswordHash: "x", Active: true}
	require.NoError(t, testDB.Create(courier).Error)

	order := &model.Order{
		Invoice:         "INV-3001",
		UserID:          1,
		Status:          status,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethodID: methodID,
		CourierID:       &courier.ID,
		TaxRate:         13,
		OrderItems: []model.OrderItem{
			{ProductID: 1, Name: "Kettle", Price: 1000, Quantity: 1},
		},
	}
	require.NoError(t, testDB.Create(order).Error)

	return &courierTestEnv{
		db: testDB, service: svc, courier: courier, order: order,
		referral: referral, balance: balance, refund: refund,
	}
}

func (env *courierTestEnv) reloadOrder(t *testing.T) *model.Order {
	t.Helper()
	var order model.Order
	require.NoError(t, env.db.First(&order, env.order.ID).Error)
	return &order
}

func TestCourierService_ConfirmPickup(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusProcessing)

	err := env.service.ConfirmPickup(env.courier.ID, env.order.ID, "INV-3001", "")
	require.NoError(t, err)

	order := env.reloadOrder(t)
	assert.Equal(t, model.OrderStatusPickedUp, order.Status)
	assert.EqualValues(t, 1, countActivities(t, env.db, env.order.ID, model.ActivityPickupConfirmed))
}

func TestCourierService_ConfirmPickup_FromConfirmed(t *testing.T) {
	// COD checkout confirms the order immediately and no processing step runs
	// before the courier collects it, so confirmed parcels must be pickable.
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusConfirmed)

	require.NoError(t, env.service.ConfirmPickup(env.courier.ID, env.order.ID, "INV-3001", ""))
	assert.Equal(t, model.OrderStatusPickedUp, env.reloadOrder(t).Status)

	require.NoError(t, env.service.MarkInTransit(env.courier.ID, env.order.ID))
	require.NoError(t, env.service.ConfirmDelivery(env.courier.ID, env.order.ID, ""))

	order := env.reloadOrder(t)
	assert.Equal(t, model.OrderStatusDelivered, order.Status)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
}

func TestCourierService_ConfirmPickup_WithoutScanCode(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusProcessing)

	// The scan code is optional; it is only checked when supplied.
	require.NoError(t, env.service.ConfirmPickup(env.courier.ID, env.order.ID, "", ""))
	assert.Equal(t, model.OrderStatusPickedUp, env.reloadOrder(t).Status)
}

func TestCourierService_ShippedParcelDeliverable(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusShipped)

	require.NoError(t, env.service.MarkInTransit(env.courier.ID, env.order.ID))
	require.NoError(t, env.service.ConfirmDelivery(env.courier.ID, env.order.ID, ""))
	assert.Equal(t, model.OrderStatusDelivered, env.reloadOrder(t).Status)
}

func TestCourierService_ConfirmPickup_ByNumericID(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusProcessing)

	scan := strconv.FormatUint(uint64(env.order.ID), 10)
	require.NoError(t, env.service.ConfirmPickup(env.courier.ID, env.order.ID, scan, ""))
	assert.Equal(t, model.OrderStatusPickedUp, env.reloadOrder(t).Status)
}

func TestCourierService_ConfirmPickup_ScanCodeMismatch(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusProcessing)

	err := env.service.ConfirmPickup(env.courier.ID, env.order.ID, "INV-9999", "")
	assert.ErrorIs(t, err, ErrScanCodeMismatch)
	assert.Equal(t, model.OrderStatusProcessing, env.reloadOrder(t).Status)
}

func TestCourierService_ConfirmPickup_FromPendingIsInvalid(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusPending)

	err := env.service.ConfirmPickup(env.courier.ID, env.order.ID, "INV-3001", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCourierService_UnassignedCourierRejected(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusProcessing)

	other := &model.Courier{Name: "Shyam", Phone: "9800000002", PasswordHash: "x", Active: true}
	require.NoError(t, env.db.Create(other).Error)

	err := env.service.ConfirmPickup(other.ID, env.order.ID, "INV-3001", "")
	assert.ErrorIs(t, err, ErrUnauthorizedCourier)

	err = env.service.ConfirmDelivery(other.ID, env.order.ID, "")
	assert.ErrorIs(t, err, ErrUnauthorizedCourier)
}

func TestCourierService_DeliveryFlow_COD(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusProcessing)

	require.NoError(t, env.service.ConfirmPickup(env.courier.ID, env.order.ID, "INV-3001", ""))
	require.NoError(t, env.service.MarkInTransit(env.courier.ID, env.order.ID))
	require.NoError(t, env.service.ConfirmDelivery(env.courier.ID, env.order.ID, "s3://proofs/d.jpg"))

	order := env.reloadOrder(t)
	assert.Equal(t, model.OrderStatusDelivered, order.Status)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus, "COD delivery is authoritative for payment")
	require.NotNil(t, order.DeliveredAt)

	assert.Equal(t, []uint{env.order.ID}, env.referral.orders)
	assert.Equal(t, []uint{env.order.ID}, env.balance.orders)

	// Repeated confirmation of the same delivery is a no-op success.
	require.NoError(t, env.service.ConfirmDelivery(env.courier.ID, env.order.ID, ""))
	assert.EqualValues(t, 1, countActivities(t, env.db, env.order.ID, model.ActivityDelivered))
}

func TestCourierService_AttemptThenDeliver(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodESewa, model.OrderStatusProcessing)
	require.NoError(t, env.db.Model(&model.Order{}).
		Where("id = ?", env.order.ID).
		Update("payment_status", model.PaymentStatusPaid).Error)

	require.NoError(t, env.service.ConfirmPickup(env.courier.ID, env.order.ID, "INV-3001", ""))
	require.NoError(t, env.service.MarkInTransit(env.courier.ID, env.order.ID))
	require.NoError(t, env.service.AttemptDelivery(env.courier.ID, env.order.ID, "customer unreachable"))

	assert.Equal(t, model.OrderStatusDeliveryAttempted, env.reloadOrder(t).Status)

	require.NoError(t, env.service.MarkInTransit(env.courier.ID, env.order.ID))
	require.NoError(t, env.service.ConfirmDelivery(env.courier.ID, env.order.ID, ""))

	order := env.reloadOrder(t)
	assert.Equal(t, model.OrderStatusDelivered, order.Status)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
}

func TestCourierService_ReturnFlow(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodESewa, model.OrderStatusProcessing)

	require.NoError(t, env.service.ConfirmPickup(env.courier.ID, env.order.ID, "INV-3001", ""))
	require.NoError(t, env.service.MarkInTransit(env.courier.ID, env.order.ID))
	require.NoError(t, env.service.ConfirmDelivery(env.courier.ID, env.order.ID, ""))

	// The customer requests the return; couriers take over from there.
	require.NoError(t, env.db.Model(&model.Order{}).
		Where("id = ?", env.order.ID).
		Update("status", model.OrderStatusReturnRequested).Error)

	require.NoError(t, env.service.AcceptReturn(env.courier.ID, env.order.ID))
	assert.Equal(t, model.OrderStatusReturnPickedUp, env.reloadOrder(t).Status)

	require.NoError(t, env.service.UpdateReturnTransit(env.courier.ID, env.order.ID))
	assert.Equal(t, model.OrderStatusReturnInTransit, env.reloadOrder(t).Status)

	require.NoError(t, env.service.CompleteReturn(env.courier.ID, env.order.ID))

	order := env.reloadOrder(t)
	assert.Equal(t, model.OrderStatusReturned, order.Status)
	assert.Equal(t, model.RefundStatusProcessing, order.RefundStatus)
	assert.Equal(t, []uint{env.order.ID}, env.refund.orders)
}

func TestCourierService_CollectCOD_UpsertIsIdempotent(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusProcessing)

	require.NoError(t, env.service.ConfirmPickup(env.courier.ID, env.order.ID, "INV-3001", ""))
	require.NoError(t, env.service.MarkInTransit(env.courier.ID, env.order.ID))
	require.NoError(t, env.service.ConfirmDelivery(env.courier.ID, env.order.ID, ""))

	require.NoError(t, env.service.CollectCOD(env.courier.ID, env.order.ID, 1130, "evening run"))

	var settlements []model.CourierSettlement
	require.NoError(t, env.db.Where("order_id = ?", env.order.ID).Find(&settlements).Error)
	require.Len(t, settlements, 1)
	assert.Equal(t, model.SettlementCollected, settlements[0].Status)
	assert.InDelta(t, 1130, settlements[0].CODAmount, AmountTolerance)
	require.NotNil(t, settlements[0].CollectedAt)

	// A corrected report updates the same row without a second activity.
	require.NoError(t, env.service.CollectCOD(env.courier.ID, env.order.ID, 1129.99, "corrected"))

	require.NoError(t, env.db.Where("order_id = ?", env.order.ID).Find(&settlements).Error)
	require.Len(t, settlements, 1)
	assert.InDelta(t, 1129.99, settlements[0].CODAmount, 0.001)
	assert.Equal(t, "corrected", settlements[0].Notes)
	assert.EqualValues(t, 1, countActivities(t, env.db, env.order.ID, model.ActivityCODCollected))
}

func TestCourierService_CollectCOD_BeforeDelivery(t *testing.T) {
	// Cash is sometimes taken at handover, before the delivery confirmation
	// reaches the app. The settlement must not wait for the delivered status.
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusProcessing)

	require.NoError(t, env.service.ConfirmPickup(env.courier.ID, env.order.ID, "INV-3001", ""))
	require.NoError(t, env.service.MarkInTransit(env.courier.ID, env.order.ID))

	require.NoError(t, env.service.CollectCOD(env.courier.ID, env.order.ID, 1130, "paid at handover"))

	order := env.reloadOrder(t)
	assert.Equal(t, model.OrderStatusInTransit, order.Status)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)

	// The delivery confirmation still lands afterwards.
	require.NoError(t, env.service.ConfirmDelivery(env.courier.ID, env.order.ID, ""))
	order = env.reloadOrder(t)
	assert.Equal(t, model.OrderStatusDelivered, order.Status)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
	require.NotNil(t, order.DeliveredAt)
}

func TestCourierService_CollectCOD_Guards(t *testing.T) {
	prepaid := setupCourierTest(t, model.PaymentMethodKhalti, model.OrderStatusProcessing)
	require.NoError(t, prepaid.service.ConfirmPickup(prepaid.courier.ID, prepaid.order.ID, "INV-3001", ""))
	require.NoError(t, prepaid.service.ConfirmDelivery(prepaid.courier.ID, prepaid.order.ID, ""))

	err := prepaid.service.CollectCOD(prepaid.courier.ID, prepaid.order.ID, 1130, "")
	assert.ErrorIs(t, err, ErrNotCashOnDelivery)
}

func TestCourierService_UpdateLocation(t *testing.T) {
	env := setupCourierTest(t, model.PaymentMethodCOD, model.OrderStatusProcessing)

	require.NoError(t, env.service.UpdateLocation(context.Background(), env.courier.ID, env.order.ID, 27.7172, 85.3240, "Kathmandu"))
	require.NoError(t, env.service.UpdateLocation(context.Background(), env.courier.ID, env.order.ID, 27.6900, 85.3200, "Patan"))

	locationRepo := repository.NewLocationRepository(env.db)
	latest, err := locationRepo.LatestByOrder(env.order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Patan", latest.Address)
	assert.InDelta(t, 27.69, latest.Latitude, 0.0001)
}
