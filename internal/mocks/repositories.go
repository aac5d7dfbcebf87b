package mocks

import (
	"context"
	"time"

	"github.com/seu-repo/sigeb/internal/domain"
)

// MockVehicleRepository is a mock implementation of VehicleRepository
type MockVehicleRepository struct {
	SaveFunc                func(ctx context.Context, v *domain.Vehicle) error
	FindByIDFunc            func(ctx context.Context, id string) (*domain.Vehicle, error)
	FindBySerialFunc        func(ctx context.Context, serial string) (*domain.Vehicle, error)
	FindAllFunc             func(ctx context.Context, filter map[string]interface{}) ([]domain.Vehicle, error)
	UpdateStatusGuardedFunc func(ctx context.Context, id string, expected, next domain.VehicleStatus, stationID, reservedBy *string) (bool, error)
}

func (m *MockVehicleRepository) Save(ctx context.Context, v *domain.Vehicle) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, v)
	}
	return nil
}

func (m *MockVehicleRepository) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockVehicleRepository) FindBySerial(ctx context.Context, serial string) (*domain.Vehicle, error) {
	if m.FindBySerialFunc != nil {
		return m.FindBySerialFunc(ctx, serial)
	}
	return nil, nil
}

func (m *MockVehicleRepository) FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.Vehicle, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx, filter)
	}
	return []domain.Vehicle{}, nil
}

func (m *MockVehicleRepository) UpdateStatusGuarded(ctx context.Context, id string, expected, next domain.VehicleStatus, stationID, reservedBy *string) (bool, error) {
	if m.UpdateStatusGuardedFunc != nil {
		return m.UpdateStatusGuardedFunc(ctx, id, expected, next, stationID, reservedBy)
	}
	return true, nil
}

// MockReservationRepository is a mock implementation of ReservationRepository
type MockReservationRepository struct {
	SaveFunc                       func(ctx context.Context, r *domain.Reservation) error
	FindByIDFunc                   func(ctx context.Context, id string) (*domain.Reservation, error)
	FindByHolderFunc               func(ctx context.Context, holderID string, statuses []domain.ReservationStatus) ([]domain.Reservation, error)
	FindOpenByVehicleAndHolderFunc func(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error)
	FindExpiredFunc                func(ctx context.Context, now time.Time) ([]domain.Reservation, error)
	FindDueScheduledFunc           func(ctx context.Context, now time.Time) ([]domain.Reservation, error)
}

func (m *MockReservationRepository) Save(ctx context.Context, r *domain.Reservation) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, r)
	}
	return nil
}

func (m *MockReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockReservationRepository) FindByHolder(ctx context.Context, holderID string, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	if m.FindByHolderFunc != nil {
		return m.FindByHolderFunc(ctx, holderID, statuses)
	}
	return []domain.Reservation{}, nil
}

func (m *MockReservationRepository) FindOpenByVehicleAndHolder(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error) {
	if m.FindOpenByVehicleAndHolderFunc != nil {
		return m.FindOpenByVehicleAndHolderFunc(ctx, vehicleID, holderID)
	}
	return nil, nil
}

func (m *MockReservationRepository) FindExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	if m.FindExpiredFunc != nil {
		return m.FindExpiredFunc(ctx, now)
	}
	return []domain.Reservation{}, nil
}

func (m *MockReservationRepository) FindDueScheduled(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	if m.FindDueScheduledFunc != nil {
		return m.FindDueScheduledFunc(ctx, now)
	}
	return []domain.Reservation{}, nil
}

// MockTripRepository is a mock implementation of TripRepository
type MockTripRepository struct {
	SaveFunc              func(ctx context.Context, t *domain.Trip) error
	FindByIDFunc          func(ctx context.Context, id string) (*domain.Trip, error)
	FindOpenByVehicleFunc func(ctx context.Context, vehicleID string) (*domain.Trip, error)
	FindByHolderFunc      func(ctx context.Context, holderID string, limit, offset int) ([]domain.Trip, error)
}

func (m *MockTripRepository) Save(ctx context.Context, t *domain.Trip) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, t)
	}
	return nil
}

func (m *MockTripRepository) FindByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockTripRepository) FindOpenByVehicle(ctx context.Context, vehicleID string) (*domain.Trip, error) {
	if m.FindOpenByVehicleFunc != nil {
		return m.FindOpenByVehicleFunc(ctx, vehicleID)
	}
	return nil, nil
}

func (m *MockTripRepository) FindByHolder(ctx context.Context, holderID string, limit, offset int) ([]domain.Trip, error) {
	if m.FindByHolderFunc != nil {
		return m.FindByHolderFunc(ctx, holderID, limit, offset)
	}
	return []domain.Trip{}, nil
}

// MockStationRepository is a mock implementation of StationRepository
type MockStationRepository struct {
	SaveFunc            func(ctx context.Context, s *domain.Station) error
	FindByIDFunc        func(ctx context.Context, id string) (*domain.Station, error)
	FindAllFunc         func(ctx context.Context) ([]domain.Station, error)
	AdjustAvailableFunc func(ctx context.Context, id string, delta int) error
}

func (m *MockStationRepository) Save(ctx context.Context, s *domain.Station) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, s)
	}
	return nil
}

func (m *MockStationRepository) FindByID(ctx context.Context, id string) (*domain.Station, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockStationRepository) FindAll(ctx context.Context) ([]domain.Station, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return []domain.Station{}, nil
}

func (m *MockStationRepository) AdjustAvailable(ctx context.Context, id string, delta int) error {
	if m.AdjustAvailableFunc != nil {
		return m.AdjustAvailableFunc(ctx, id, delta)
	}
	return nil
}

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	SaveFunc             func(ctx context.Context, s *domain.Subscription) error
	FindActiveByUserFunc func(ctx context.Context, userID string) (*domain.Subscription, error)
}

func (m *MockSubscriptionRepository) Save(ctx context.Context, s *domain.Subscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, s)
	}
	return nil
}

func (m *MockSubscriptionRepository) FindActiveByUser(ctx context.Context, userID string) (*domain.Subscription, error) {
	if m.FindActiveByUserFunc != nil {
		return m.FindActiveByUserFunc(ctx, userID)
	}
	return nil, nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	FindByIDFunc      func(ctx context.Context, id string) (*domain.User, error)
	CanReserveFunc    func(ctx context.Context, userID string) (bool, error)
	HasActiveTripFunc func(ctx context.Context, userID string) (bool, error)
	ActiveTripFunc    func(ctx context.Context, userID string) (*domain.Trip, error)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserRepository) CanReserve(ctx context.Context, userID string) (bool, error) {
	if m.CanReserveFunc != nil {
		return m.CanReserveFunc(ctx, userID)
	}
	return true, nil
}

func (m *MockUserRepository) HasActiveTrip(ctx context.Context, userID string) (bool, error) {
	if m.HasActiveTripFunc != nil {
		return m.HasActiveTripFunc(ctx, userID)
	}
	return false, nil
}

func (m *MockUserRepository) ActiveTrip(ctx context.Context, userID string) (*domain.Trip, error) {
	if m.ActiveTripFunc != nil {
		return m.ActiveTripFunc(ctx, userID)
	}
	return nil, nil
}
