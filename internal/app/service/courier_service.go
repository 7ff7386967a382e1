package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/internal/app/repository"
	"github.com/kinmel-dev/kinmel-backend/internal/cache"
	"github.com/kinmel-dev/kinmel-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrUnauthorizedCourier = errors.New("courier is not assigned to this order")
	ErrScanCodeMismatch    = errors.New("scan code does not match the order")
	ErrNotCashOnDelivery   = errors.New("order is not cash on delivery")
)

// CourierService is the fulfillment workflow: every operation guards that the
// acting courier is assigned to the order, then drives the state machine.
type CourierService interface {
	ListOrders(courierID uint) ([]model.Order, error)
	GetOrder(courierID, orderID uint) (*model.Order, error)
	ConfirmPickup(courierID, orderID uint, scanCode, proofPath string) error
	MarkInTransit(courierID, orderID uint) error
	AttemptDelivery(courierID, orderID uint, reason string) error
	ConfirmDelivery(courierID, orderID uint, proofPath string) error
	AcceptReturn(courierID, orderID uint) error
	UpdateReturnTransit(courierID, orderID uint) error
	CompleteReturn(courierID, orderID uint) error
	CollectCOD(courierID, orderID uint, amount float64, notes string) error
	UpdateLocation(ctx context.Context, courierID, orderID uint, latitude, longitude float64, address string) error
}

type courierService struct {
	orderRepo      repository.OrderRepository
	activityRepo   repository.ActivityRepository
	settlementRepo repository.SettlementRepository
	locationRepo   repository.LocationRepository
	machine        *StateMachine
	notifier       Notifier
	referralEarner ReferralEarner
	balanceRelease BalanceReleaser
	refundProc     RefundProcessor
	locationCache  *cache.LocationCache
	db             *gorm.DB
}

func NewCourierService(
	orderRepo repository.OrderRepository,
	activityRepo repository.ActivityRepository,
	settlementRepo repository.SettlementRepository,
	locationRepo repository.LocationRepository,
	machine *StateMachine,
	notifier Notifier,
	referralEarner ReferralEarner,
	balanceRelease BalanceReleaser,
	refundProc RefundProcessor,
	locationCache *cache.LocationCache,
	db *gorm.DB,
) CourierService {
	return &courierService{
		orderRepo:      orderRepo,
		activityRepo:   activityRepo,
		settlementRepo: settlementRepo,
		locationRepo:   locationRepo,
		machine:        machine,
		notifier:       notifier,
		referralEarner: referralEarner,
		balanceRelease: balanceRelease,
		refundProc:     refundProc,
		locationCache:  locationCache,
		db:             db,
	}
}

func (s *courierService) ListOrders(courierID uint) ([]model.Order, error) {
	return s.orderRepo.FindByCourier(courierID)
}

func (s *courierService) GetOrder(courierID, orderID uint) (*model.Order, error) {
	return s.loadAssigned(courierID, orderID)
}

// loadAssigned fetches the order and enforces courier assignment.
func (s *courierService) loadAssigned(courierID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.CourierID == nil || *order.CourierID != courierID {
		logger.Warn("Courier acted on an unassigned order", map[string]interface{}{
			"order_id":   orderID,
			"courier_id": courierID,
		})
		return nil, ErrUnauthorizedCourier
	}
	return order, nil
}

// transition runs one guarded status change in its own transaction and fires
// the post-commit effects only when the change was actually applied.
func (s *courierService) transition(order *model.Order, courierID uint, to model.OrderStatus, action, payload string, fields map[string]interface{}, extra ...Effect) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during courier transition, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"order_id": order.ID,
			})
		}
	}()

	applied, err := s.machine.Apply(tx, Transition{
		OrderID: order.ID,
		From:    order.Status,
		To:      to,
		Actor:   model.CourierActor(courierID),
		Action:  action,
		Payload: payload,
		Fields:  fields,
	})
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	if applied {
		effects := append([]Effect{{
			Name: "notify_status_change",
			Run: func() error {
				return s.notifier.NotifyStatusChange(order.ID, order.Status, to)
			},
		}}, extra...)
		RunEffects(order.ID, effects)
	}
	return nil
}

// ConfirmPickup moves the parcel into the courier's hands. The scan code is
// optional; when supplied it must identify the order (invoice or numeric id).
func (s *courierService) ConfirmPickup(courierID, orderID uint, scanCode, proofPath string) error {
	order, err := s.loadAssigned(courierID, orderID)
	if err != nil {
		return err
	}
	if scanCode != "" && scanCode != order.Invoice && scanCode != strconv.FormatUint(uint64(order.ID), 10) {
		return ErrScanCodeMismatch
	}
	return s.transition(order, courierID, model.OrderStatusPickedUp, model.ActivityPickupConfirmed, proofPath, nil)
}

func (s *courierService) MarkInTransit(courierID, orderID uint) error {
	order, err := s.loadAssigned(courierID, orderID)
	if err != nil {
		return err
	}
	return s.transition(order, courierID, model.OrderStatusInTransit, model.ActivityInTransit, "", nil)
}

// AttemptDelivery records a failed delivery attempt as its own status so the
// parcel can be retried or returned.
func (s *courierService) AttemptDelivery(courierID, orderID uint, reason string) error {
	order, err := s.loadAssigned(courierID, orderID)
	if err != nil {
		return err
	}
	return s.transition(order, courierID, model.OrderStatusDeliveryAttempted, model.ActivityDeliveryAttempted, reason, nil)
}

// ConfirmDelivery is authoritative for COD cash: if payment is still pending
// on a COD order it becomes paid in the delivery transaction. Referral and
// seller-balance bookkeeping run best effort after commit.
func (s *courierService) ConfirmDelivery(courierID, orderID uint, proofPath string) error {
	order, err := s.loadAssigned(courierID, orderID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	fields := map[string]interface{}{
		"delivered_at": &now,
	}
	if order.IsCOD() && order.PaymentStatus == model.PaymentStatusPending {
		fields["payment_status"] = model.PaymentStatusPaid
	}

	return s.transition(order, courierID, model.OrderStatusDelivered, model.ActivityDelivered, proofPath, fields,
		Effect{Name: "referral_earning", Run: func() error { return s.referralEarner.ProcessEarning(order.ID) }},
		Effect{Name: "release_seller_balance", Run: func() error { return s.balanceRelease.ReleaseForOrder(order.ID) }},
	)
}

func (s *courierService) AcceptReturn(courierID, orderID uint) error {
	order, err := s.loadAssigned(courierID, orderID)
	if err != nil {
		return err
	}
	return s.transition(order, courierID, model.OrderStatusReturnPickedUp, model.ActivityReturnPickedUp, "", nil)
}

func (s *courierService) UpdateReturnTransit(courierID, orderID uint) error {
	order, err := s.loadAssigned(courierID, orderID)
	if err != nil {
		return err
	}
	return s.transition(order, courierID, model.OrderStatusReturnInTransit, model.ActivityReturnInTransit, "", nil)
}

// CompleteReturn closes the return leg and kicks off the refund.
func (s *courierService) CompleteReturn(courierID, orderID uint) error {
	order, err := s.loadAssigned(courierID, orderID)
	if err != nil {
		return err
	}
	fields := map[string]interface{}{
		"refund_status": model.RefundStatusProcessing,
	}
	return s.transition(order, courierID, model.OrderStatusReturned, model.ActivityReturned, "", fields,
		Effect{Name: "start_refund", Run: func() error { return s.refundProc.StartRefund(order.ID) }},
	)
}

// CollectCOD upserts the settlement row for a COD order. Cash can be reported
// at the door or filed later from the depot; repeated reports update the same
// row and never duplicate the collection activity.
func (s *courierService) CollectCOD(courierID, orderID uint, amount float64, notes string) error {
	order, err := s.loadAssigned(courierID, orderID)
	if err != nil {
		return err
	}
	if !order.IsCOD() {
		return ErrNotCashOnDelivery
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during COD collection, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"order_id": order.ID,
			})
		}
	}()

	now := time.Now().UTC()
	existing, err := s.settlementRepo.GetByOrderID(tx, order.ID)
	switch {
	case err == nil:
		if err := s.settlementRepo.UpdateFields(tx, existing.ID, map[string]interface{}{
			"cod_amount":   Round2(amount),
			"notes":        notes,
			"status":       model.SettlementCollected,
			"collected_at": &now,
		}); err != nil {
			tx.Rollback()
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		settlement := &model.CourierSettlement{
			CourierID:   courierID,
			OrderID:     order.ID,
			CODAmount:   Round2(amount),
			Status:      model.SettlementCollected,
			Notes:       notes,
			CollectedAt: &now,
		}
		if err := s.settlementRepo.Create(tx, settlement); err != nil {
			tx.Rollback()
			return err
		}
	default:
		tx.Rollback()
		return err
	}

	if order.PaymentStatus == model.PaymentStatusPending {
		if err := s.orderRepo.UpdateFields(tx, order.ID, map[string]interface{}{
			"payment_status": model.PaymentStatusPaid,
		}); err != nil {
			tx.Rollback()
			return err
		}
	}

	collected, err := s.activityRepo.HasAction(tx, order.ID, model.ActivityCODCollected)
	if err != nil {
		tx.Rollback()
		return err
	}
	if !collected {
		if err := s.activityRepo.Append(tx, &model.OrderActivity{
			OrderID: order.ID,
			Action:  model.ActivityCODCollected,
			Actor:   model.CourierActor(courierID),
			Payload: FormatAmount(amount),
		}); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	logger.Info("COD collection recorded", map[string]interface{}{
		"order_id":   order.ID,
		"courier_id": courierID,
		"amount":     Round2(amount),
	})
	return nil
}

// UpdateLocation appends a position ping and refreshes the tracking cache.
// Cache failures are logged, never surfaced to the courier.
func (s *courierService) UpdateLocation(ctx context.Context, courierID, orderID uint, latitude, longitude float64, address string) error {
	order, err := s.loadAssigned(courierID, orderID)
	if err != nil {
		return err
	}

	location := &model.CourierLocation{
		CourierID: courierID,
		OrderID:   order.ID,
		Latitude:  latitude,
		Longitude: longitude,
		Address:   address,
	}
	if err := s.locationRepo.Insert(location); err != nil {
		return err
	}

	if s.locationCache != nil {
		if err := s.locationCache.SetLatest(ctx, location); err != nil {
			logger.Warn("Failed to cache courier location", map[string]interface{}{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}
	return nil
}
