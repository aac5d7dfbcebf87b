package ports

import (
	"context"
	"time"

	"github.com/seu-repo/sigeb/internal/domain"
)

// VehicleRepository persists fleet vehicles. UpdateStatusGuarded is the
// compare-and-swap primitive every status transition goes through: the write
// only lands when the row still carries the expected status.
type VehicleRepository interface {
	Save(ctx context.Context, v *domain.Vehicle) error
	FindByID(ctx context.Context, id string) (*domain.Vehicle, error)
	FindBySerial(ctx context.Context, serial string) (*domain.Vehicle, error)
	FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.Vehicle, error)
	// UpdateStatusGuarded sets status/station/holder only if the vehicle is
	// currently in the expected status. Returns false when the guard failed.
	UpdateStatusGuarded(ctx context.Context, id string, expected, next domain.VehicleStatus, stationID, reservedBy *string) (bool, error)
}

// ReservationRepository persists reservations.
type ReservationRepository interface {
	Save(ctx context.Context, r *domain.Reservation) error
	FindByID(ctx context.Context, id string) (*domain.Reservation, error)
	FindByHolder(ctx context.Context, holderID string, statuses []domain.ReservationStatus) ([]domain.Reservation, error)
	// FindOpenByVehicleAndHolder returns the non-terminal (Active or
	// Scheduled) reservation for the (vehicle, holder) pair, nil when absent.
	FindOpenByVehicleAndHolder(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error)
	FindExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error)
	FindDueScheduled(ctx context.Context, now time.Time) ([]domain.Reservation, error)
}

// TripRepository persists trips.
type TripRepository interface {
	Save(ctx context.Context, t *domain.Trip) error
	FindByID(ctx context.Context, id string) (*domain.Trip, error)
	FindOpenByVehicle(ctx context.Context, vehicleID string) (*domain.Trip, error)
	FindByHolder(ctx context.Context, holderID string, limit, offset int) ([]domain.Trip, error)
}

// StationRepository persists docking stations.
type StationRepository interface {
	Save(ctx context.Context, s *domain.Station) error
	FindByID(ctx context.Context, id string) (*domain.Station, error)
	FindAll(ctx context.Context) ([]domain.Station, error)
	// AdjustAvailable adds delta to the station's docked-vehicle counter.
	AdjustAvailable(ctx context.Context, id string, delta int) error
}

// SubscriptionRepository persists prepaid plans.
type SubscriptionRepository interface {
	Save(ctx context.Context, s *domain.Subscription) error
	FindActiveByUser(ctx context.Context, userID string) (*domain.Subscription, error)
}

// UserRepository wraps rider lookups and the eligibility stored procedures,
// invoked as opaque remote calls.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// CanReserve calls puede_hacer_reservas: balance and penalty checks.
	CanReserve(ctx context.Context, userID string) (bool, error)
	// HasActiveTrip calls tiene_viaje_activo.
	HasActiveTrip(ctx context.Context, userID string) (bool, error)
	// ActiveTrip calls obtener_viaje_activo, nil when none.
	ActiveTrip(ctx context.Context, userID string) (*domain.Trip, error)
}
