// Package lock talks to the physical vehicle lock. The real channel is an
// IoT collaborator outside this core; SimulatedController reproduces its
// timing behavior for development and tests.
package lock

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/ports"
)

// SimulatedController implements ports.LockController with a randomized
// handshake latency. The caller imposes the timeout ceiling through ctx.
type SimulatedController struct {
	minLatency time.Duration
	maxLatency time.Duration
	log        *zap.Logger
}

func NewSimulatedController(log *zap.Logger) ports.LockController {
	return &SimulatedController{
		minLatency: 200 * time.Millisecond,
		maxLatency: 1200 * time.Millisecond,
		log:        log,
	}
}

func (c *SimulatedController) Unlock(ctx context.Context, serialCode string) (time.Duration, error) {
	latency := c.minLatency + time.Duration(rand.Int63n(int64(c.maxLatency-c.minLatency)))

	select {
	case <-time.After(latency):
		c.log.Debug("Lock released",
			zap.String("serial_code", serialCode),
			zap.Duration("latency", latency),
		)
		return latency, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
