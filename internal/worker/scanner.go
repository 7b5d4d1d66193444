package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/processflow/internal/repository"
	"github.com/spec-kit/processflow/internal/service"
)

// Scanner periodically raises stalled, overdue and due notifications for
// every active tenant.
type Scanner struct {
	notifications *service.NotificationService
	tenants       repository.TenantRepository
	interval      time.Duration
	logger        *zap.Logger
}

// NewScanner builds a scanner ticking every interval.
func NewScanner(notifications *service.NotificationService, tenants repository.TenantRepository, interval time.Duration, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{notifications: notifications, tenants: tenants, interval: interval, logger: logger}
}

// Run scans once immediately and then on every tick until ctx is done.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.ScanOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ScanOnce scans every active tenant and returns the notifications created.
func (s *Scanner) ScanOnce(ctx context.Context) int {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		s.logger.Error("scanner: list tenants", zap.Error(err))
		return 0
	}
	total := 0
	for _, t := range tenants {
		if !t.Active {
			continue
		}
		n, err := s.notifications.ScanOrders(ctx, t.ID)
		if err != nil {
			s.logger.Error("scanner: scan orders", zap.String("tenant_id", t.ID), zap.Error(err))
			continue
		}
		if n > 0 {
			s.logger.Info("scanner: notifications raised", zap.String("tenant_id", t.ID), zap.Int("count", n))
		}
		total += n
	}
	return total
}
