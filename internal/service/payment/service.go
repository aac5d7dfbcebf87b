package payment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/idempotency"
	"github.com/seu-repo/sigeb/internal/ports"
)

// Service drives the payment pipeline: it charges finalized trips through
// the provider and settles them from provider webhooks.
type Service struct {
	provider ports.PaymentProvider
	trips    ports.TripService
	consumer *idempotency.Consumer
	bus      ports.EventBus
	currency string
	log      *zap.Logger
}

// NewService creates a new payment service
func NewService(
	provider ports.PaymentProvider,
	trips ports.TripService,
	consumer *idempotency.Consumer,
	bus ports.EventBus,
	currency string,
	log *zap.Logger,
) *Service {
	if currency == "" {
		currency = "cop"
	}

	return &Service{
		provider: provider,
		trips:    trips,
		consumer: consumer,
		bus:      bus,
		currency: currency,
		log:      log,
	}
}

// SubscribeTrips registers the charging observer on the VIAJES channel.
// Returns the subscription id.
func (s *Service) SubscribeTrips() string {
	return s.bus.Subscribe(domain.ChannelViajes, s.handleTripEvent)
}

// handleTripEvent dispatches trip lifecycle events. The switch covers the
// closed set this channel carries; unknown types are logged.
func (s *Service) handleTripEvent(evt domain.Event) {
	switch evt.Type {
	case domain.EventViajeFinalizado:
		s.chargeTrip(evt)
	case domain.EventViajeIniciado:
		// Nothing to charge until the trip finishes.
	default:
		s.log.Warn("Unhandled event type on trips channel",
			zap.String("event_id", evt.ID),
			zap.String("type", string(evt.Type)),
		)
	}
}

// chargeTrip opens a payment intent for a finalized trip. Errors are
// logged, never propagated: the bus isolates observer failures and the
// trip stays pending for retry.
func (s *Service) chargeTrip(evt domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tripID, _ := evt.Data["trip_id"].(string)
	total, ok := evt.Data["total"].(float64)
	if tripID == "" || !ok {
		s.log.Warn("Trip event missing chargeable data",
			zap.String("event_id", evt.ID))
		return
	}
	if total <= 0 {
		s.log.Info("Trip total is zero, nothing to charge",
			zap.String("trip_id", tripID))
		return
	}

	intentID, err := s.provider.CreatePaymentIntent(ctx, total, s.currency, map[string]string{
		"trip_id": tripID,
	})
	if err != nil {
		s.log.Error("Failed to create payment intent",
			zap.String("trip_id", tripID),
			zap.Float64("total", total),
			zap.Error(err),
		)
		return
	}

	s.publish(ctx, domain.EventPagoPendiente, map[string]interface{}{
		"trip_id":   tripID,
		"intent_id": intentID,
		"amount":    total,
		"provider":  s.provider.Name(),
	})

	s.log.Info("Payment intent created",
		zap.String("trip_id", tripID),
		zap.String("intent_id", intentID),
		zap.Float64("amount", total),
	)
}

// HandleWebhook verifies, dedupes and applies a provider webhook. Side
// effects run at most once per provider event id; duplicate deliveries
// return successfully without reapplying anything.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := s.provider.VerifyWebhook(payload, signature); err != nil {
		return err
	}

	event, err := s.provider.ParseWebhook(payload)
	if err != nil {
		return err
	}

	processed, err := s.consumer.Process(ctx, event.ID, payload, func(ctx context.Context) error {
		return s.applyProviderEvent(ctx, event)
	})
	if err != nil {
		return err
	}
	if !processed {
		s.log.Info("Webhook duplicate ignored", zap.String("event_id", event.ID))
	}

	return nil
}

func (s *Service) applyProviderEvent(ctx context.Context, event *ports.ProviderEvent) error {
	tripID := event.Metadata["trip_id"]

	switch event.Type {
	case "payment_intent.succeeded":
		if tripID == "" {
			return domain.E(domain.KindValidation, "webhook missing trip_id metadata")
		}
		if err := s.trips.ChangePaymentStatus(ctx, tripID, domain.PaymentStatusPaid); err != nil {
			return fmt.Errorf("failed to mark trip paid: %w", err)
		}
		s.publish(ctx, domain.EventPagoConfirmado, map[string]interface{}{
			"trip_id":   tripID,
			"intent_id": event.IntentID,
			"amount":    event.Amount,
		})

	case "payment_intent.payment_failed":
		if tripID == "" {
			return domain.E(domain.KindValidation, "webhook missing trip_id metadata")
		}
		if err := s.trips.ChangePaymentStatus(ctx, tripID, domain.PaymentStatusFailed); err != nil {
			return fmt.Errorf("failed to mark trip failed: %w", err)
		}
		s.publish(ctx, domain.EventPagoRechazado, map[string]interface{}{
			"trip_id":   tripID,
			"intent_id": event.IntentID,
		})

	default:
		s.log.Info("Ignoring provider event type",
			zap.String("type", event.Type),
			zap.String("event_id", event.ID),
		)
	}

	return nil
}

func (s *Service) publish(ctx context.Context, typ domain.EventType, data map[string]interface{}) {
	if _, err := s.bus.Publish(ctx, domain.ChannelPagos, typ, data); err != nil {
		s.log.Warn("Failed to publish payment event",
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}
