package ports

import (
	"context"
	"time"

	"github.com/seu-repo/sigeb/internal/domain"
)

// Observer receives events published on a channel it is subscribed to.
type Observer func(evt domain.Event)

// EventBus is the channel-addressed publish/subscribe primitive. Publish
// appends to the durable log and synchronously notifies observers;
// Subscribe replays the most recent logged event to the new observer.
type EventBus interface {
	Publish(ctx context.Context, channel domain.Channel, typ domain.EventType, data map[string]interface{}) (*domain.Event, error)
	Subscribe(channel domain.Channel, obs Observer) string
	Unsubscribe(channel domain.Channel, subscriptionID string) bool
	UnsubscribeAll(channel domain.Channel) int
}

// EventLog is the durable append-only list backing each channel.
type EventLog interface {
	Append(ctx context.Context, evt domain.Event) error
	// Last returns the most recent event on the channel, nil when empty.
	Last(ctx context.Context, channel domain.Channel) (*domain.Event, error)
	// Recent returns up to limit events, oldest first.
	Recent(ctx context.Context, channel domain.Channel, limit int) ([]domain.Event, error)
}

// Cache is a TTL key/value store (dedupe records, hot lookups).
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// LockController performs the unlock handshake with a vehicle's physical
// lock. Implementations must honor ctx cancellation; the caller bounds the
// handshake with a deadline.
type LockController interface {
	// Unlock releases the lock and returns the handshake latency.
	Unlock(ctx context.Context, serialCode string) (time.Duration, error)
}

// ReservationService owns the reservation lifecycle.
type ReservationService interface {
	Reserve(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error)
	ReserveScheduled(ctx context.Context, vehicleID, holderID string, activateAt time.Time) (*domain.Reservation, error)
	Cancel(ctx context.Context, vehicleID, holderID string) error
	// Open returns the holder's unexpired Active reservation on the
	// vehicle, without mutating it. Callers that need a precondition
	// check before side effects use this; Complete re-validates anyway.
	Open(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error)
	// Complete performs the reservation->trip handoff for an unexpired
	// Active reservation on the (vehicle, holder) pair.
	Complete(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error)
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	ListByHolder(ctx context.Context, holderID string) ([]domain.Reservation, error)
	SweepOnce(ctx context.Context) error
}

// TripService owns the trip lifecycle.
type TripService interface {
	Start(ctx context.Context, serialCode, vehicleID, holderID, endStationID string) (*domain.Trip, error)
	Finalize(ctx context.Context, tripID string) (*domain.Trip, error)
	ChangePaymentStatus(ctx context.Context, tripID string, status domain.PaymentStatus) error
	Get(ctx context.Context, id string) (*domain.Trip, error)
	ListByHolder(ctx context.Context, holderID string, limit, offset int) ([]domain.Trip, error)
}

// FleetService owns vehicle/station reads and administrative status changes.
type FleetService interface {
	GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context, status string) ([]domain.Vehicle, error)
	ListStations(ctx context.Context) ([]domain.Station, error)
	SetVehicleStatus(ctx context.Context, vehicleID string, status domain.VehicleStatus) error
}

// PaymentProvider is the payment-processor collaborator (tokenized charges
// and webhook verification; raw card details never transit this core).
type PaymentProvider interface {
	Name() string
	CreatePaymentIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (string, error)
	GetPaymentStatus(ctx context.Context, intentID string) (string, error)
	VerifyWebhook(payload []byte, signature string) error
	ParseWebhook(payload []byte) (*ProviderEvent, error)
}

// ProviderEvent is a parsed inbound payment-provider event.
type ProviderEvent struct {
	ID       string
	Type     string
	IntentID string
	Amount   float64
	Metadata map[string]string
}
