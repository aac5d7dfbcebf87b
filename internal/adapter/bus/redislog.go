// Package bus provides the durable append-only event log backing the event
// bus, stored as one Redis list per channel.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

const (
	keyPrefix = "sigeb:log:"

	// maxHistory bounds each channel's retained history. The catch-up
	// contract only replays the most recent event, so this is headroom
	// for inspection, not a delivery guarantee.
	maxHistory = 256
)

type RedisEventLog struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisEventLog(client *redis.Client, log *zap.Logger) ports.EventLog {
	return &RedisEventLog{
		client: client,
		log:    log,
	}
}

func (l *RedisEventLog) key(channel domain.Channel) string {
	return keyPrefix + string(channel)
}

func (l *RedisEventLog) Append(ctx context.Context, evt domain.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := l.key(evt.Channel)
	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -maxHistory, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append event to %s: %w", evt.Channel, err)
	}
	return nil
}

func (l *RedisEventLog) Last(ctx context.Context, channel domain.Channel) (*domain.Event, error) {
	raw, err := l.client.LIndex(ctx, l.key(channel), -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read last event of %s: %w", channel, err)
	}

	var evt domain.Event
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &evt, nil
}

func (l *RedisEventLog) Recent(ctx context.Context, channel domain.Channel, limit int) ([]domain.Event, error) {
	if limit <= 0 || limit > maxHistory {
		limit = maxHistory
	}

	raws, err := l.client.LRange(ctx, l.key(channel), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history of %s: %w", channel, err)
	}

	events := make([]domain.Event, 0, len(raws))
	for _, raw := range raws {
		var evt domain.Event
		if err := json.Unmarshal([]byte(raw), &evt); err != nil {
			l.log.Warn("Skipping malformed event in history",
				zap.String("channel", string(channel)),
				zap.Error(err),
			)
			continue
		}
		events = append(events, evt)
	}
	return events, nil
}
