package payment

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/idempotency"
	"github.com/seu-repo/sigeb/internal/mocks"
	"github.com/seu-repo/sigeb/internal/ports"
)

func newTestService(provider *mocks.MockPaymentProvider, trips *mocks.MockTripService, bus *mocks.MockEventBus) *Service {
	consumer := idempotency.NewConsumer(mocks.NewMockCache(), time.Hour, zap.NewNop())
	return NewService(provider, trips, consumer, bus, "cop", zap.NewNop())
}

func TestChargesFinalizedTrip(t *testing.T) {
	var chargedAmount float64
	provider := &mocks.MockPaymentProvider{
		CreatePaymentIntentFunc: func(ctx context.Context, amount float64, currency string, metadata map[string]string) (string, error) {
			chargedAmount = amount
			if metadata["trip_id"] != "trip-1" {
				t.Errorf("intent metadata trip_id = %q", metadata["trip_id"])
			}
			return "pi_123", nil
		},
	}
	bus := mocks.NewMockEventBus()
	svc := newTestService(provider, &mocks.MockTripService{}, bus)
	svc.SubscribeTrips()

	bus.Publish(context.Background(), domain.ChannelViajes, domain.EventViajeFinalizado, map[string]interface{}{
		"trip_id": "trip-1",
		"total":   20625.0,
	})

	if chargedAmount != 20625 {
		t.Errorf("charged amount = %v, expected 20625", chargedAmount)
	}

	pagos := bus.PublishedOn(domain.ChannelPagos)
	if len(pagos) != 1 || pagos[0].Type != domain.EventPagoPendiente {
		t.Fatalf("expected one pago_pendiente event, got %v", pagos)
	}
	if pagos[0].Data["intent_id"] != "pi_123" {
		t.Errorf("intent_id = %v", pagos[0].Data["intent_id"])
	}
}

func TestIgnoresTripStartEvents(t *testing.T) {
	var charged bool
	provider := &mocks.MockPaymentProvider{
		CreatePaymentIntentFunc: func(ctx context.Context, amount float64, currency string, metadata map[string]string) (string, error) {
			charged = true
			return "pi_123", nil
		},
	}
	bus := mocks.NewMockEventBus()
	svc := newTestService(provider, &mocks.MockTripService{}, bus)
	svc.SubscribeTrips()

	bus.Publish(context.Background(), domain.ChannelViajes, domain.EventViajeIniciado, map[string]interface{}{
		"trip_id": "trip-1",
	})

	if charged {
		t.Error("trip start must not create a payment intent")
	}
}

func TestSkipsTripWithZeroTotal(t *testing.T) {
	var charged bool
	provider := &mocks.MockPaymentProvider{
		CreatePaymentIntentFunc: func(ctx context.Context, amount float64, currency string, metadata map[string]string) (string, error) {
			charged = true
			return "pi_123", nil
		},
	}
	bus := mocks.NewMockEventBus()
	svc := newTestService(provider, &mocks.MockTripService{}, bus)
	svc.SubscribeTrips()

	bus.Publish(context.Background(), domain.ChannelViajes, domain.EventViajeFinalizado, map[string]interface{}{
		"trip_id": "trip-1",
		"total":   0.0,
	})

	if charged {
		t.Error("zero-total trip must not create a payment intent")
	}
	if pagos := bus.PublishedOn(domain.ChannelPagos); len(pagos) != 0 {
		t.Errorf("expected no payment events, got %v", pagos)
	}
}

func TestWebhookConfirmsPayment(t *testing.T) {
	provider := &mocks.MockPaymentProvider{
		ParseWebhookFunc: func(payload []byte) (*ports.ProviderEvent, error) {
			return &ports.ProviderEvent{
				ID:       "evt_1",
				Type:     "payment_intent.succeeded",
				IntentID: "pi_123",
				Amount:   20625,
				Metadata: map[string]string{"trip_id": "trip-1"},
			}, nil
		},
	}
	var changedTo domain.PaymentStatus
	trips := &mocks.MockTripService{
		ChangePaymentStatusFunc: func(ctx context.Context, tripID string, status domain.PaymentStatus) error {
			changedTo = status
			return nil
		},
	}
	bus := mocks.NewMockEventBus()
	svc := newTestService(provider, trips, bus)

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}
	if changedTo != domain.PaymentStatusPaid {
		t.Errorf("payment status = %s, expected paid", changedTo)
	}

	pagos := bus.PublishedOn(domain.ChannelPagos)
	if len(pagos) != 1 || pagos[0].Type != domain.EventPagoConfirmado {
		t.Fatalf("expected one pago_confirmado event, got %v", pagos)
	}
}

func TestWebhookRejectsFailedPayment(t *testing.T) {
	provider := &mocks.MockPaymentProvider{
		ParseWebhookFunc: func(payload []byte) (*ports.ProviderEvent, error) {
			return &ports.ProviderEvent{
				ID:       "evt_1",
				Type:     "payment_intent.payment_failed",
				IntentID: "pi_123",
				Metadata: map[string]string{"trip_id": "trip-1"},
			}, nil
		},
	}
	var changedTo domain.PaymentStatus
	trips := &mocks.MockTripService{
		ChangePaymentStatusFunc: func(ctx context.Context, tripID string, status domain.PaymentStatus) error {
			changedTo = status
			return nil
		},
	}
	bus := mocks.NewMockEventBus()
	svc := newTestService(provider, trips, bus)

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}
	if changedTo != domain.PaymentStatusFailed {
		t.Errorf("payment status = %s, expected failed", changedTo)
	}

	pagos := bus.PublishedOn(domain.ChannelPagos)
	if len(pagos) != 1 || pagos[0].Type != domain.EventPagoRechazado {
		t.Fatalf("expected one pago_rechazado event, got %v", pagos)
	}
}

func TestWebhookDuplicateAppliesOnce(t *testing.T) {
	provider := &mocks.MockPaymentProvider{
		ParseWebhookFunc: func(payload []byte) (*ports.ProviderEvent, error) {
			return &ports.ProviderEvent{
				ID:       "evt_1",
				Type:     "payment_intent.succeeded",
				IntentID: "pi_123",
				Metadata: map[string]string{"trip_id": "trip-1"},
			}, nil
		},
	}
	changes := 0
	trips := &mocks.MockTripService{
		ChangePaymentStatusFunc: func(ctx context.Context, tripID string, status domain.PaymentStatus) error {
			changes++
			return nil
		},
	}
	bus := mocks.NewMockEventBus()
	svc := newTestService(provider, trips, bus)

	for i := 0; i < 3; i++ {
		if err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
			t.Fatalf("delivery %d returned error: %v", i, err)
		}
	}

	if changes != 1 {
		t.Errorf("payment applied %d times, expected 1", changes)
	}
	if pagos := bus.PublishedOn(domain.ChannelPagos); len(pagos) != 1 {
		t.Errorf("published %d payment events, expected 1", len(pagos))
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	provider := &mocks.MockPaymentProvider{
		VerifyWebhookFunc: func(payload []byte, signature string) error {
			return domain.E(domain.KindUnauthorized, "invalid webhook signature")
		},
	}
	trips := &mocks.MockTripService{
		ChangePaymentStatusFunc: func(ctx context.Context, tripID string, status domain.PaymentStatus) error {
			t.Error("side effect ran despite bad signature")
			return nil
		},
	}
	svc := newTestService(provider, trips, mocks.NewMockEventBus())

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	if !domain.IsKind(err, domain.KindUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}
