// Package eventbus implements the channel-addressed publish/subscribe
// primitive coordinating the lifecycle services. Events are appended to a
// durable per-channel log before in-process observers are notified; a new
// subscriber catches up on the single most recent event. Delivery is
// at-least-once with no acknowledgement: an observer that fails simply
// misses that notification and recovers from the log on re-subscribe.
package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/adapter/queue"
	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/observability/telemetry"
	"github.com/seu-repo/sigeb/internal/ports"
)

type subscription struct {
	id  string
	obs ports.Observer
}

// Bus implements ports.EventBus. Constructed once at process start and
// passed by reference to every service; there is no package-level instance.
type Bus struct {
	log   ports.EventLog
	relay queue.MessageQueue // optional cross-process fanout
	zl    *zap.Logger

	mu       sync.Mutex
	channels map[domain.Channel][]subscription
}

// New creates an event bus over the given durable log. relay may be nil.
func New(eventLog ports.EventLog, relay queue.MessageQueue, zl *zap.Logger) *Bus {
	return &Bus{
		log:      eventLog,
		relay:    relay,
		zl:       zl,
		channels: make(map[domain.Channel][]subscription),
	}
}

// Publish appends the event to the channel's durable log, forwards it to
// the relay, then notifies all currently registered observers. Observer
// failures are isolated per observer and never reach the caller. Successive
// publishes on one channel are FIFO; delivery order across observers of a
// single publish is unspecified.
func (b *Bus) Publish(ctx context.Context, channel domain.Channel, typ domain.EventType, data map[string]interface{}) (*domain.Event, error) {
	evt := domain.Event{
		ID:        uuid.New().String(),
		Channel:   channel,
		Type:      typ,
		Data:      data,
		CreatedAt: time.Now(),
	}

	if err := b.log.Append(ctx, evt); err != nil {
		return nil, domain.Wrap(domain.KindExternalService, "failed to append event", err)
	}

	telemetry.EventsPublishedTotal.WithLabelValues(string(channel), string(typ)).Inc()

	b.forward(evt)

	b.mu.Lock()
	subs := make([]subscription, len(b.channels[channel]))
	copy(subs, b.channels[channel])
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(s, evt)
	}

	return &evt, nil
}

// Subscribe registers an observer on the channel, immediately replays the
// most recent logged event to it (catch-up is bounded to one event by
// design), and returns the subscription id.
func (b *Bus) Subscribe(channel domain.Channel, obs ports.Observer) string {
	sub := subscription{id: uuid.New().String(), obs: obs}

	b.mu.Lock()
	b.channels[channel] = append(b.channels[channel], sub)
	b.mu.Unlock()

	last, err := b.log.Last(context.Background(), channel)
	if err != nil {
		b.zl.Warn("Failed to read channel history for replay",
			zap.String("channel", string(channel)),
			zap.Error(err),
		)
	} else if last != nil {
		b.deliver(sub, *last)
	}

	return sub.id
}

// Unsubscribe removes one observer. Returns false when the id is not
// registered on the channel.
func (b *Bus) Unsubscribe(channel domain.Channel, subscriptionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.channels[channel]
	for i, s := range subs {
		if s.id == subscriptionID {
			subs = append(subs[:i], subs[i+1:]...)
			if len(subs) == 0 {
				delete(b.channels, channel) // durable log persists independently
			} else {
				b.channels[channel] = subs
			}
			return true
		}
	}
	return false
}

// UnsubscribeAll removes every observer of the channel and returns how many
// were removed.
func (b *Bus) UnsubscribeAll(channel domain.Channel) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.channels[channel])
	delete(b.channels, channel)
	return n
}

// deliver invokes one observer, containing panics so a failing observer
// never aborts delivery to the others.
func (b *Bus) deliver(s subscription, evt domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.zl.Error("Observer panicked while handling event",
				zap.String("channel", string(evt.Channel)),
				zap.String("event_type", string(evt.Type)),
				zap.String("subscription_id", s.id),
				zap.Any("panic", r),
			)
		}
	}()
	s.obs(evt)
}

// forward pushes the event to the cross-process relay. Best effort: relay
// failures are logged, never propagated.
func (b *Bus) forward(evt domain.Event) {
	if b.relay == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		b.zl.Error("Failed to marshal event for relay", zap.Error(err))
		return
	}
	subject := "sigeb.eventos." + string(evt.Channel)
	if err := b.relay.Publish(subject, payload); err != nil {
		b.zl.Warn("Failed to relay event",
			zap.String("subject", subject),
			zap.String("event_id", evt.ID),
			zap.Error(err),
		)
	}
}
