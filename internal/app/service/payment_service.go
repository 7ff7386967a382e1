package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/internal/app/repository"
	"github.com/kinmel-dev/kinmel-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound    = errors.New("payment record not found")
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrAmountMismatch     = errors.New("payment amount does not match order total")
	ErrDuplicateEvent     = errors.New("payment event already processed")
	ErrPaymentNotPending  = errors.New("order has no pending payment")
)

// PaymentService reconciles gateway events into order payment state. Every
// mutation happens inside one transaction; repeated events for an already
// completed payment surface as ErrDuplicateEvent, which callers treat as
// success.
type PaymentService interface {
	InitiatePayment(ctx context.Context, orderID uint) (*InitiationResult, error)
	ReconcileSuccess(ctx context.Context, gateway string, orderID uint, params map[string]string) error
	ReconcileFailure(ctx context.Context, gateway string, orderID uint, params map[string]string) error
	HandleWebhook(ctx context.Context, gateway string, body []byte) error
	CheckStatus(ctx context.Context, orderID uint) (*model.PaymentRecord, error)
	RecordsForOrder(orderID uint) ([]model.PaymentRecord, error)
}

type paymentService struct {
	orderRepo     repository.OrderRepository
	paymentRepo   repository.PaymentRepository
	activityRepo  repository.ActivityRepository
	registry      *GatewayRegistry
	machine       *StateMachine
	notifier      Notifier
	stockRestorer StockRestorer
	db            *gorm.DB
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	activityRepo repository.ActivityRepository,
	registry *GatewayRegistry,
	machine *StateMachine,
	notifier Notifier,
	stockRestorer StockRestorer,
	db *gorm.DB,
) PaymentService {
	return &paymentService{
		orderRepo:     orderRepo,
		paymentRepo:   paymentRepo,
		activityRepo:  activityRepo,
		registry:      registry,
		machine:       machine,
		notifier:      notifier,
		stockRestorer: stockRestorer,
		db:            db,
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, orderID uint) (*InitiationResult, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	adapter, err := s.registry.ByMethod(order.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	logger.Info("Initiating payment", map[string]interface{}{
		"order_id": order.ID,
		"invoice":  order.Invoice,
		"gateway":  adapter.Name(),
	})

	result, err := adapter.Initiate(ctx, order)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during payment initiation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"order_id": order.ID,
			})
		}
	}()

	if _, err := s.paymentRepo.FindCompletedByOrder(tx, order.ID); err == nil {
		tx.Rollback()
		return nil, ErrDuplicateEvent
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, err
	}

	record := &model.PaymentRecord{
		OrderID:        order.ID,
		UserID:         order.UserID,
		Gateway:        adapter.Name(),
		TransactionRef: result.TransactionRef,
		Amount:         ComputeTotal(order),
		Status:         model.PaymentRecordPending,
	}
	if err := s.paymentRepo.Create(tx, record); err != nil {
		tx.Rollback()
		return nil, err
	}

	var effects []Effect

	// Cash on delivery has nothing to verify later: selecting it confirms
	// the order immediately, payment stays pending until the door.
	if order.IsCOD() && order.Status == model.OrderStatusPending {
		applied, err := s.machine.Apply(tx, Transition{
			OrderID: order.ID,
			From:    order.Status,
			To:      model.OrderStatusConfirmed,
			Actor:   model.ActorSystem,
			Action:  model.ActivityStatusChanged,
			Payload: "cash on delivery selected",
		})
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if applied {
			effects = append(effects, s.notifyEffect(order.ID, order.Status, model.OrderStatusConfirmed))
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	RunEffects(order.ID, effects)
	return result, nil
}

func (s *paymentService) ReconcileSuccess(ctx context.Context, gateway string, orderID uint, params map[string]string) error {
	order, adapter, err := s.orderAndAdapter(gateway, orderID)
	if err != nil {
		return err
	}

	result, err := adapter.Verify(ctx, order, params)
	if err != nil {
		return err
	}
	return s.reconcile(order, adapter.Name(), result)
}

// ReconcileFailure handles failure redirects. The gateway is still consulted
// when the callback carries enough to verify: a forged failure hit must not
// cancel an order the gateway says was paid.
func (s *paymentService) ReconcileFailure(ctx context.Context, gateway string, orderID uint, params map[string]string) error {
	order, adapter, err := s.orderAndAdapter(gateway, orderID)
	if err != nil {
		return err
	}

	if len(params) > 0 {
		if result, err := adapter.Verify(ctx, order, params); err == nil {
			return s.reconcile(order, adapter.Name(), result)
		}
	}

	raw, _ := json.Marshal(params)
	return s.reconcileFailure(order, adapter.Name(), string(raw))
}

func (s *paymentService) HandleWebhook(ctx context.Context, gateway string, body []byte) error {
	adapter, err := s.registry.ByName(gateway)
	if err != nil {
		return err
	}

	event, err := adapter.ParseWebhook(body)
	if err != nil {
		return err
	}

	var order *model.Order
	if event.OrderID != 0 {
		order, err = s.orderRepo.FindByID(event.OrderID)
	} else {
		order, err = s.orderRepo.FindByInvoice(event.Invoice)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	result, err := adapter.Verify(ctx, order, event.Params)
	if err != nil {
		return err
	}
	return s.reconcile(order, adapter.Name(), result)
}

// CheckStatus re-queries the gateway for the order's pending payment and runs
// the answer through the same reconciliation path as a webhook.
func (s *paymentService) CheckStatus(ctx context.Context, orderID uint) (*model.PaymentRecord, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	adapter, err := s.registry.ByMethod(order.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	record, err := s.paymentRepo.FindPendingByOrder(s.db, order.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing pending: report the completed record if one exists.
			if completed, cerr := s.paymentRepo.FindCompletedByOrder(s.db, order.ID); cerr == nil {
				return completed, nil
			}
			return nil, ErrPaymentNotPending
		}
		return nil, err
	}

	params := map[string]string{
		"transaction_uuid": record.TransactionRef,
		"pidx":             record.TransactionRef,
	}
	result, err := adapter.Verify(ctx, order, params)
	if err != nil {
		return nil, err
	}

	if err := s.reconcile(order, adapter.Name(), result); err != nil && !errors.Is(err, ErrDuplicateEvent) {
		return nil, err
	}
	return s.paymentRepo.FindByID(record.ID)
}

func (s *paymentService) RecordsForOrder(orderID uint) ([]model.PaymentRecord, error) {
	return s.paymentRepo.FindByOrderID(orderID)
}

func (s *paymentService) orderAndAdapter(gateway string, orderID uint) (*model.Order, GatewayAdapter, error) {
	adapter, err := s.registry.ByName(gateway)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}
	return order, adapter, nil
}

// reconcile fuses a verification result into payment state. A result that is
// neither confirmed nor pending is a definitive failure.
func (s *paymentService) reconcile(order *model.Order, gateway string, result *VerificationResult) error {
	if result.Pending {
		logger.Info("Payment still pending at gateway", map[string]interface{}{
			"order_id": order.ID,
			"gateway":  gateway,
			"status":   result.Status,
		})
		return nil
	}
	if !result.OK {
		return s.reconcileFailure(order, gateway, result.Raw)
	}
	return s.reconcileSuccess(order, gateway, result)
}

func (s *paymentService) reconcileSuccess(order *model.Order, gateway string, result *VerificationResult) error {
	if !AmountsMatch(result.Amount, ComputeTotal(order)) {
		logger.Warn("Payment amount mismatch", map[string]interface{}{
			"order_id":        order.ID,
			"gateway":         gateway,
			"reported_amount": result.Amount,
			"expected_amount": ComputeTotal(order),
		})
		return ErrAmountMismatch
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during payment reconciliation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"order_id": order.ID,
			})
		}
	}()

	locked, err := s.orderRepo.FindByIDForUpdate(tx, order.ID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	if _, err := s.paymentRepo.FindCompletedByOrder(tx, locked.ID); err == nil {
		tx.Rollback()
		return ErrDuplicateEvent
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return err
	}

	fields := map[string]interface{}{
		"status":          model.PaymentRecordCompleted,
		"transaction_ref": result.TransactionRef,
		"reference_id":    result.ReferenceID,
		"raw_response":    result.Raw,
	}
	if pending, err := s.paymentRepo.FindPendingByOrder(tx, locked.ID); err == nil {
		if err := s.paymentRepo.UpdateFields(tx, pending.ID, fields); err != nil {
			tx.Rollback()
			return err
		}
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		// Webhook arrived before any initiation we know about.
		record := &model.PaymentRecord{
			OrderID:        locked.ID,
			UserID:         locked.UserID,
			Gateway:        gateway,
			TransactionRef: result.TransactionRef,
			ReferenceID:    result.ReferenceID,
			Amount:         result.Amount,
			Status:         model.PaymentRecordCompleted,
			RawResponse:    result.Raw,
		}
		if err := s.paymentRepo.Create(tx, record); err != nil {
			tx.Rollback()
			return err
		}
	} else {
		tx.Rollback()
		return err
	}

	if locked.PaymentStatus == model.PaymentStatusPending {
		if err := s.orderRepo.UpdateFields(tx, locked.ID, map[string]interface{}{
			"payment_status": model.PaymentStatusPaid,
		}); err != nil {
			tx.Rollback()
			return err
		}
	}

	var effects []Effect
	if locked.Status == model.OrderStatusPending {
		applied, err := s.machine.Apply(tx, Transition{
			OrderID: locked.ID,
			From:    locked.Status,
			To:      model.OrderStatusConfirmed,
			Actor:   model.ActorSystem,
			Action:  model.ActivityPaymentConfirmed,
			Payload: result.TransactionRef,
		})
		if err != nil {
			tx.Rollback()
			return err
		}
		if applied {
			effects = append(effects, s.notifyEffect(locked.ID, locked.Status, model.OrderStatusConfirmed))
		}
	} else {
		// Order already progressed (e.g. COD confirmed at initiation). Still
		// record the payment confirmation once.
		seen, err := s.activityRepo.HasAction(tx, locked.ID, model.ActivityPaymentConfirmed)
		if err != nil {
			tx.Rollback()
			return err
		}
		if !seen {
			if err := s.activityRepo.Append(tx, &model.OrderActivity{
				OrderID: locked.ID,
				Action:  model.ActivityPaymentConfirmed,
				Actor:   model.ActorSystem,
				Payload: result.TransactionRef,
			}); err != nil {
				tx.Rollback()
				return err
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	logger.Info("Payment reconciled", map[string]interface{}{
		"order_id":        order.ID,
		"gateway":         gateway,
		"transaction_ref": result.TransactionRef,
	})
	RunEffects(order.ID, effects)
	return nil
}

// reconcileFailure records a failed attempt. An order that never left pending
// is cancelled and its stock restored in the same transaction.
func (s *paymentService) reconcileFailure(order *model.Order, gateway string, raw string) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during payment failure handling, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"order_id": order.ID,
			})
		}
	}()

	locked, err := s.orderRepo.FindByIDForUpdate(tx, order.ID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	// A completed payment wins over any late failure event.
	if _, err := s.paymentRepo.FindCompletedByOrder(tx, locked.ID); err == nil {
		tx.Rollback()
		return ErrDuplicateEvent
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return err
	}

	if pending, err := s.paymentRepo.FindPendingByOrder(tx, locked.ID); err == nil {
		if err := s.paymentRepo.UpdateFields(tx, pending.ID, map[string]interface{}{
			"status":       model.PaymentRecordFailed,
			"raw_response": raw,
		}); err != nil {
			tx.Rollback()
			return err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return err
	}

	var effects []Effect
	if locked.Status == model.OrderStatusPending {
		applied, err := s.machine.Apply(tx, Transition{
			OrderID: locked.ID,
			From:    locked.Status,
			To:      model.OrderStatusCancelled,
			Actor:   model.ActorSystem,
			Action:  model.ActivityPaymentFailed,
			Payload: raw,
			Fields: map[string]interface{}{
				"payment_status": model.PaymentStatusCancelled,
			},
		})
		if err != nil {
			tx.Rollback()
			return err
		}
		if applied {
			if err := s.stockRestorer.RestoreForOrder(tx, locked.ID); err != nil {
				tx.Rollback()
				return err
			}
			effects = append(effects, s.notifyEffect(locked.ID, locked.Status, model.OrderStatusCancelled))
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	logger.Info("Payment failure recorded", map[string]interface{}{
		"order_id": order.ID,
		"gateway":  gateway,
	})
	RunEffects(order.ID, effects)
	return nil
}

func (s *paymentService) notifyEffect(orderID uint, from, to model.OrderStatus) Effect {
	return Effect{
		Name: "notify_status_change",
		Run: func() error {
			return s.notifier.NotifyStatusChange(orderID, from, to)
		},
	}
}
