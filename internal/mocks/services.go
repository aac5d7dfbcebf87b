package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

// MockEventBus is a mock implementation of EventBus. It records every
// published event and delivers them synchronously to subscribed observers.
type MockEventBus struct {
	mu        sync.Mutex
	Published []domain.Event
	observers map[domain.Channel]map[string]ports.Observer

	PublishFunc func(ctx context.Context, channel domain.Channel, typ domain.EventType, data map[string]interface{}) (*domain.Event, error)
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		observers: make(map[domain.Channel]map[string]ports.Observer),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel domain.Channel, typ domain.EventType, data map[string]interface{}) (*domain.Event, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, channel, typ, data)
	}

	evt := domain.Event{
		ID:        uuid.New().String(),
		Channel:   channel,
		Type:      typ,
		Data:      data,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.Published = append(m.Published, evt)
	var obs []ports.Observer
	for _, o := range m.observers[channel] {
		obs = append(obs, o)
	}
	m.mu.Unlock()

	for _, o := range obs {
		o(evt)
	}
	return &evt, nil
}

func (m *MockEventBus) Subscribe(channel domain.Channel, obs ports.Observer) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	if m.observers[channel] == nil {
		m.observers[channel] = make(map[string]ports.Observer)
	}
	m.observers[channel][id] = obs
	return id
}

func (m *MockEventBus) Unsubscribe(channel domain.Channel, subscriptionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.observers[channel][subscriptionID]; !ok {
		return false
	}
	delete(m.observers[channel], subscriptionID)
	return true
}

func (m *MockEventBus) UnsubscribeAll(channel domain.Channel) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.observers[channel])
	delete(m.observers, channel)
	return n
}

// PublishedOn returns the events recorded for a channel, in publish order.
func (m *MockEventBus) PublishedOn(channel domain.Channel) []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Event
	for _, evt := range m.Published {
		if evt.Channel == channel {
			out = append(out, evt)
		}
	}
	return out
}

// MockEventLog is an in-memory mock implementation of EventLog
type MockEventLog struct {
	mu      sync.Mutex
	entries map[domain.Channel][]domain.Event

	AppendFunc func(ctx context.Context, evt domain.Event) error
}

func NewMockEventLog() *MockEventLog {
	return &MockEventLog{
		entries: make(map[domain.Channel][]domain.Event),
	}
}

func (m *MockEventLog) Append(ctx context.Context, evt domain.Event) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, evt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[evt.Channel] = append(m.entries[evt.Channel], evt)
	return nil
}

func (m *MockEventLog) Last(ctx context.Context, channel domain.Channel) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.entries[channel]
	if len(log) == 0 {
		return nil, nil
	}
	evt := log[len(log)-1]
	return &evt, nil
}

func (m *MockEventLog) Recent(ctx context.Context, channel domain.Channel, limit int) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.entries[channel]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]domain.Event, len(log))
	copy(out, log)
	return out, nil
}

// MockReservationService is a mock implementation of ReservationService
type MockReservationService struct {
	ReserveFunc          func(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error)
	ReserveScheduledFunc func(ctx context.Context, vehicleID, holderID string, activateAt time.Time) (*domain.Reservation, error)
	CancelFunc           func(ctx context.Context, vehicleID, holderID string) error
	OpenFunc             func(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error)
	CompleteFunc         func(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error)
	GetFunc              func(ctx context.Context, id string) (*domain.Reservation, error)
	ListByHolderFunc     func(ctx context.Context, holderID string) ([]domain.Reservation, error)
	SweepOnceFunc        func(ctx context.Context) error
}

func (m *MockReservationService) Reserve(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error) {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, vehicleID, holderID)
	}
	return nil, nil
}

func (m *MockReservationService) ReserveScheduled(ctx context.Context, vehicleID, holderID string, activateAt time.Time) (*domain.Reservation, error) {
	if m.ReserveScheduledFunc != nil {
		return m.ReserveScheduledFunc(ctx, vehicleID, holderID, activateAt)
	}
	return nil, nil
}

func (m *MockReservationService) Cancel(ctx context.Context, vehicleID, holderID string) error {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, vehicleID, holderID)
	}
	return nil
}

func (m *MockReservationService) Open(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, vehicleID, holderID)
	}
	return &domain.Reservation{
		ID:        "res-mock",
		VehicleID: vehicleID,
		HolderID:  holderID,
		Status:    domain.ReservationStatusActive,
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}, nil
}

func (m *MockReservationService) Complete(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, vehicleID, holderID)
	}
	return &domain.Reservation{
		ID:        "res-mock",
		VehicleID: vehicleID,
		HolderID:  holderID,
		Status:    domain.ReservationStatusCompleted,
	}, nil
}

func (m *MockReservationService) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockReservationService) ListByHolder(ctx context.Context, holderID string) ([]domain.Reservation, error) {
	if m.ListByHolderFunc != nil {
		return m.ListByHolderFunc(ctx, holderID)
	}
	return []domain.Reservation{}, nil
}

func (m *MockReservationService) SweepOnce(ctx context.Context) error {
	if m.SweepOnceFunc != nil {
		return m.SweepOnceFunc(ctx)
	}
	return nil
}

// MockTripService is a mock implementation of TripService
type MockTripService struct {
	StartFunc               func(ctx context.Context, serialCode, vehicleID, holderID, endStationID string) (*domain.Trip, error)
	FinalizeFunc            func(ctx context.Context, tripID string) (*domain.Trip, error)
	ChangePaymentStatusFunc func(ctx context.Context, tripID string, status domain.PaymentStatus) error
	GetFunc                 func(ctx context.Context, id string) (*domain.Trip, error)
	ListByHolderFunc        func(ctx context.Context, holderID string, limit, offset int) ([]domain.Trip, error)
}

func (m *MockTripService) Start(ctx context.Context, serialCode, vehicleID, holderID, endStationID string) (*domain.Trip, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, serialCode, vehicleID, holderID, endStationID)
	}
	return nil, nil
}

func (m *MockTripService) Finalize(ctx context.Context, tripID string) (*domain.Trip, error) {
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, tripID)
	}
	return nil, nil
}

func (m *MockTripService) ChangePaymentStatus(ctx context.Context, tripID string, status domain.PaymentStatus) error {
	if m.ChangePaymentStatusFunc != nil {
		return m.ChangePaymentStatusFunc(ctx, tripID, status)
	}
	return nil
}

func (m *MockTripService) Get(ctx context.Context, id string) (*domain.Trip, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockTripService) ListByHolder(ctx context.Context, holderID string, limit, offset int) ([]domain.Trip, error) {
	if m.ListByHolderFunc != nil {
		return m.ListByHolderFunc(ctx, holderID, limit, offset)
	}
	return []domain.Trip{}, nil
}

// MockLockController is a mock implementation of LockController
type MockLockController struct {
	UnlockFunc func(ctx context.Context, serialCode string) (time.Duration, error)
}

func (m *MockLockController) Unlock(ctx context.Context, serialCode string) (time.Duration, error) {
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, serialCode)
	}
	return 300 * time.Millisecond, nil
}

// MockPaymentProvider is a mock implementation of PaymentProvider
type MockPaymentProvider struct {
	NameFunc                func() string
	CreatePaymentIntentFunc func(ctx context.Context, amount float64, currency string, metadata map[string]string) (string, error)
	GetPaymentStatusFunc    func(ctx context.Context, intentID string) (string, error)
	VerifyWebhookFunc       func(payload []byte, signature string) error
	ParseWebhookFunc        func(payload []byte) (*ports.ProviderEvent, error)
}

func (m *MockPaymentProvider) Name() string {
	if m.NameFunc != nil {
		return m.NameFunc()
	}
	return "mock"
}

func (m *MockPaymentProvider) CreatePaymentIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (string, error) {
	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, amount, currency, metadata)
	}
	return "pi_mock", nil
}

func (m *MockPaymentProvider) GetPaymentStatus(ctx context.Context, intentID string) (string, error) {
	if m.GetPaymentStatusFunc != nil {
		return m.GetPaymentStatusFunc(ctx, intentID)
	}
	return "succeeded", nil
}

func (m *MockPaymentProvider) VerifyWebhook(payload []byte, signature string) error {
	if m.VerifyWebhookFunc != nil {
		return m.VerifyWebhookFunc(payload, signature)
	}
	return nil
}

func (m *MockPaymentProvider) ParseWebhook(payload []byte) (*ports.ProviderEvent, error) {
	if m.ParseWebhookFunc != nil {
		return m.ParseWebhookFunc(payload)
	}
	return &ports.ProviderEvent{}, nil
}
