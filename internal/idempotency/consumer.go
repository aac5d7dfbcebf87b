// Package idempotency suppresses duplicate deliveries of external events.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/observability/telemetry"
	"github.com/seu-repo/sigeb/internal/ports"
)

const (
	keyPrefix  = "sigeb:webhook:"
	defaultTTL = 24 * time.Hour
)

// Consumer wraps a handler with a processed-event record in the cache.
// The record is best effort: if the cache is unreachable the event is
// processed anyway, trading a possible duplicate for availability.
type Consumer struct {
	cache ports.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewConsumer creates an idempotent consumer. A non-positive ttl falls
// back to 24 hours.
func NewConsumer(cache ports.Cache, ttl time.Duration, log *zap.Logger) *Consumer {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Consumer{
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// Key derives the dedupe key: the provider's event id when present,
// otherwise the first 16 hex characters of the payload's sha256.
func Key(eventID string, payload []byte) string {
	if eventID != "" {
		return eventID
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:16]
}

// Process runs fn once per dedupe key within the TTL. Returns whether fn
// was executed; duplicates report false with a nil error.
func (c *Consumer) Process(ctx context.Context, eventID string, payload []byte, fn func(ctx context.Context) error) (bool, error) {
	key := keyPrefix + Key(eventID, payload)

	seen, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("Dedupe store read failed, processing anyway",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	if seen != "" {
		telemetry.WebhookDuplicatesTotal.Inc()
		c.log.Info("Duplicate event suppressed", zap.String("key", key))
		return false, nil
	}

	if err := fn(ctx); err != nil {
		return true, err
	}

	if err := c.cache.Set(ctx, key, "1", c.ttl); err != nil {
		c.log.Warn("Dedupe store write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	return true, nil
}
