package scheduler

import (
	"time"

	"github.com/kinmel-dev/kinmel-backend/internal/app/service"
	"github.com/kinmel-dev/kinmel-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SettlementScheduler runs the nightly COD settlement audit.
type SettlementScheduler struct {
	cron              *cron.Cron
	settlementService service.SettlementService
}

func NewSettlementScheduler(settlementService service.SettlementService) *SettlementScheduler {
	return &SettlementScheduler{
		cron:              cron.New(),
		settlementService: settlementService,
	}
}

// Start registers the nightly audit for the previous day at 02:00 UTC.
func (s *SettlementScheduler) Start() error {
	_, err := s.cron.AddFunc("0 2 * * *", func() {
		day := time.Now().UTC().AddDate(0, 0, -1)
		logger.Info("Starting scheduled settlement audit", map[string]interface{}{
			"day": day.Format("2006-01-02"),
		})

		if err := s.settlementService.AuditDay(day); err != nil {
			logger.Error("Settlement audit failed", err)
			return
		}

		logger.Info("Settlement audit completed")
	})
	if err != nil {
		logger.Error("Failed to add cron job for settlement audit", err)
		return err
	}

	s.cron.Start()
	logger.Info("Settlement scheduler started (daily at 02:00 UTC)")
	return nil
}

// Stop stops the scheduler.
func (s *SettlementScheduler) Stop() {
	s.cron.Stop()
	logger.Info("Settlement scheduler stopped")
}
