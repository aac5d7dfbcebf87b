package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const reconnectMaxWait = 30 * time.Second

// RabbitMQQueue relays domain events through one fanout exchange per bus
// channel. Exchanges are declared lazily on first use and remembered, so
// steady-state publishing is a single basic.publish.
type RabbitMQQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	url     string

	mu        sync.RWMutex
	exchanges map[string]bool

	log *zap.Logger
}

// NewRabbitMQQueue connects to the RabbitMQ broker used as the
// cross-process event relay and starts the reconnect watcher.
func NewRabbitMQQueue(url string, log *zap.Logger) (MessageQueue, error) {
	q := &RabbitMQQueue{
		url:       url,
		exchanges: make(map[string]bool),
		log:       log,
	}
	if err := q.dial(); err != nil {
		return nil, err
	}

	go q.watchConnection()

	log.Info("Successfully connected to RabbitMQ", zap.String("url", url))
	return q, nil
}

func (q *RabbitMQQueue) dial() error {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	q.mu.Lock()
	q.conn = conn
	q.channel = ch
	// Exchange declarations do not survive a broker restart with
	// non-durable setups, so forget them and re-declare on next use.
	q.exchanges = make(map[string]bool)
	q.mu.Unlock()

	return nil
}

// ensureExchange declares the fanout exchange for a relay subject once per
// connection. Callers hold q.mu.
func (q *RabbitMQQueue) ensureExchange(subject string) error {
	if q.exchanges[subject] {
		return nil
	}
	if err := q.channel.ExchangeDeclare(subject, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: declare exchange %s: %w", subject, err)
	}
	q.exchanges[subject] = true
	return nil
}

func (q *RabbitMQQueue) Publish(subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.channel == nil {
		return fmt.Errorf("rabbitmq: channel not available")
	}
	if err := q.ensureExchange(subject); err != nil {
		return err
	}

	err := q.channel.Publish(
		subject, "", false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.New().String(),
			Timestamp:    time.Now(),
			Body:         data,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe binds an exclusive queue to the subject's exchange and pumps
// deliveries into the handler. Handler errors are logged; the relay has no
// redelivery contract beyond what the broker provides.
func (q *RabbitMQQueue) Subscribe(subject string, handler func(data []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.channel == nil {
		return fmt.Errorf("rabbitmq: channel not available")
	}
	if err := q.ensureExchange(subject); err != nil {
		return err
	}

	queue, err := q.channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: declare queue for %s: %w", subject, err)
	}
	if err := q.channel.QueueBind(queue.Name, "", subject, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: bind queue to %s: %w", subject, err)
	}

	deliveries, err := q.channel.Consume(queue.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume from %s: %w", subject, err)
	}

	go func() {
		for msg := range deliveries {
			if err := handler(msg.Body); err != nil {
				q.log.Error("Error processing relayed event",
					zap.String("subject", subject),
					zap.String("message_id", msg.MessageId),
					zap.Error(err),
				)
			}
		}
	}()

	q.log.Info("Subscribed to relay subject", zap.String("subject", subject))
	return nil
}

func (q *RabbitMQQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.channel != nil {
		q.channel.Close()
		q.channel = nil
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// watchConnection redials with capped backoff whenever the broker drops
// the connection. A clean Close ends the watcher.
func (q *RabbitMQQueue) watchConnection() {
	for {
		q.mu.RLock()
		conn := q.conn
		q.mu.RUnlock()
		if conn == nil {
			return
		}

		reason, ok := <-conn.NotifyClose(make(chan *amqp.Error))
		if !ok {
			return
		}
		q.log.Warn("RabbitMQ connection lost", zap.String("reason", reason.Reason))

		wait := time.Second
		for {
			time.Sleep(wait)
			if err := q.dial(); err != nil {
				q.log.Error("Failed to reconnect to RabbitMQ",
					zap.Duration("next_attempt_in", wait),
					zap.Error(err),
				)
				if wait *= 2; wait > reconnectMaxWait {
					wait = reconnectMaxWait
				}
				continue
			}
			q.log.Info("Successfully reconnected to RabbitMQ")
			break
		}
	}
}
