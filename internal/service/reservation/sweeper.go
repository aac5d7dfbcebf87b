package reservation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/ports"
)

// Sweeper periodically runs the expiry/activation pass. Exactly one sweeper
// runs per process; lifecycle is bound to the context passed to Run.
type Sweeper struct {
	service  ports.ReservationService
	interval time.Duration
	log      *zap.Logger
}

// NewSweeper creates a new reservation sweeper
func NewSweeper(service ports.ReservationService, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
		log:      log,
	}
}

// Run blocks, sweeping every interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Reservation sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reservation sweeper stopped")
			return
		case <-ticker.C:
			if err := s.service.SweepOnce(ctx); err != nil {
				s.log.Error("Reservation sweep failed", zap.Error(err))
			}
		}
	}
}
