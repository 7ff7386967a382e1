package service

import (
	"time"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/internal/app/repository"
	"github.com/kinmel-dev/kinmel-backend/pkg/logger"
)

// SettlementSummary compares the cash a courier reported against the COD
// totals of the orders they delivered in the same window.
type SettlementSummary struct {
	CourierID      uint                      `json:"courier_id"`
	From           time.Time                 `json:"from"`
	To             time.Time                 `json:"to"`
	CollectedTotal float64                   `json:"collected_total"`
	ExpectedTotal  float64                   `json:"expected_total"`
	Balanced       bool                      `json:"balanced"`
	Settlements    []model.CourierSettlement `json:"settlements"`
}

type SettlementService interface {
	Summary(courierID uint, from, to time.Time) (*SettlementSummary, error)
	AuditDay(day time.Time) error
}

type settlementService struct {
	orderRepo      repository.OrderRepository
	settlementRepo repository.SettlementRepository
	courierRepo    repository.CourierRepository
}

func NewSettlementService(
	orderRepo repository.OrderRepository,
	settlementRepo repository.SettlementRepository,
	courierRepo repository.CourierRepository,
) SettlementService {
	return &settlementService{
		orderRepo:      orderRepo,
		settlementRepo: settlementRepo,
		courierRepo:    courierRepo,
	}
}

func (s *settlementService) Summary(courierID uint, from, to time.Time) (*SettlementSummary, error) {
	collected, err := s.settlementRepo.SumCollected(courierID, from, to)
	if err != nil {
		return nil, err
	}

	expected, err := s.orderRepo.SumDeliveredCODTotals(courierID, from, to)
	if err != nil {
		return nil, err
	}

	settlements, err := s.settlementRepo.ListByCourier(courierID, from, to)
	if err != nil {
		return nil, err
	}

	return &SettlementSummary{
		CourierID:      courierID,
		From:           from,
		To:             to,
		CollectedTotal: Round2(collected),
		ExpectedTotal:  Round2(expected),
		Balanced:       AmountsMatch(collected, expected),
		Settlements:    settlements,
	}, nil
}

// AuditDay re-checks the collected-vs-expected equality for every active
// courier over one day and logs any discrepancy. Runs nightly.
func (s *settlementService) AuditDay(day time.Time) error {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	couriers, err := s.courierRepo.ListActive()
	if err != nil {
		return err
	}

	for _, courier := range couriers {
		summary, err := s.Summary(courier.ID, from, to)
		if err != nil {
			logger.Error("Settlement audit failed for courier", err, map[string]interface{}{
				"courier_id": courier.ID,
				"day":        from.Format("2006-01-02"),
			})
			continue
		}
		if !summary.Balanced {
			logger.Warn("Settlement discrepancy detected", map[string]interface{}{
				"courier_id":      courier.ID,
				"day":             from.Format("2006-01-02"),
				"collected_total": summary.CollectedTotal,
				"expected_total":  summary.ExpectedTotal,
			})
		}
	}
	return nil
}
