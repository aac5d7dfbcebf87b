package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

// StripeProvider implements PaymentProvider for Stripe. Outbound calls run
// through a circuit breaker so a Stripe outage fails fast instead of
// stalling the event pipeline.
type StripeProvider struct {
	webhookSecret string
	breaker       *gobreaker.CircuitBreaker
	log           *zap.Logger
}

// NewStripeProvider creates a new Stripe provider
func NewStripeProvider(secretKey, webhookSecret string, log *zap.Logger) *StripeProvider {
	stripe.Key = secretKey

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &StripeProvider{
		webhookSecret: webhookSecret,
		breaker:       breaker,
		log:           log,
	}
}

// Name returns the provider name
func (p *StripeProvider) Name() string {
	return "stripe"
}

// CreatePaymentIntent creates a Stripe payment intent and returns its id.
func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (string, error) {
	// Stripe expects the amount in the currency's minor unit.
	amountCents := int64(amount * 100)

	result, err := p.breaker.Execute(func() (interface{}, error) {
		params := &stripe.PaymentIntentParams{
			Amount:   stripe.Int64(amountCents),
			Currency: stripe.String(currency),
			AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
				Enabled: stripe.Bool(true),
			},
		}
		if metadata != nil {
			params.Metadata = make(map[string]string)
			for k, v := range metadata {
				params.Metadata[k] = v
			}
		}
		return paymentintent.New(params)
	})
	if err != nil {
		return "", domain.Wrap(domain.KindExternalService, "stripe payment intent failed", err)
	}

	return result.(*stripe.PaymentIntent).ID, nil
}

// GetPaymentStatus retrieves the current status of a payment intent.
func (p *StripeProvider) GetPaymentStatus(ctx context.Context, intentID string) (string, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return paymentintent.Get(intentID, nil)
	})
	if err != nil {
		return "", domain.Wrap(domain.KindExternalService, "stripe payment lookup failed", err)
	}

	return string(result.(*stripe.PaymentIntent).Status), nil
}

// VerifyWebhook validates the Stripe webhook signature
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) error {
	if _, err := webhook.ConstructEvent(payload, signature, p.webhookSecret); err != nil {
		return domain.Wrap(domain.KindUnauthorized, "invalid webhook signature", err)
	}
	return nil
}

// ParseWebhook parses a Stripe webhook payload into a provider event
func (p *StripeProvider) ParseWebhook(payload []byte) (*ports.ProviderEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.Wrap(domain.KindValidation, "failed to parse webhook payload", err)
	}

	providerEvent := &ports.ProviderEvent{
		ID:       event.ID,
		Type:     string(event.Type),
		Metadata: make(map[string]string),
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to parse payment intent: %w", err)
		}
		providerEvent.IntentID = pi.ID
		providerEvent.Amount = float64(pi.Amount) / 100
		for k, v := range pi.Metadata {
			providerEvent.Metadata[k] = v
		}
	}

	return providerEvent, nil
}
