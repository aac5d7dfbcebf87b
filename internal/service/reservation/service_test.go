package reservation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/mocks"
)

func newTestService(
	reservations *mocks.MockReservationRepository,
	vehicles *mocks.MockVehicleRepository,
	users *mocks.MockUserRepository,
	bus *mocks.MockEventBus,
) *Service {
	return NewService(reservations, vehicles, users, bus, nil, zap.NewNop())
}

func availableVehicle(id string) *domain.Vehicle {
	station := "station-1"
	return &domain.Vehicle{
		ID:         id,
		SerialCode: "SN-" + id,
		Status:     domain.VehicleStatusAvailable,
		StationID:  &station,
	}
}

func TestReserveCreatesActiveHold(t *testing.T) {
	var saved *domain.Reservation
	reservations := &mocks.MockReservationRepository{
		SaveFunc: func(ctx context.Context, r *domain.Reservation) error {
			saved = r
			return nil
		},
	}
	vehicles := &mocks.MockVehicleRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) {
			return availableVehicle(id), nil
		},
	}
	bus := mocks.NewMockEventBus()
	svc := newTestService(reservations, vehicles, &mocks.MockUserRepository{}, bus)

	before := time.Now()
	reservation, err := svc.Reserve(context.Background(), "bike-1", "user-1")
	if err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if reservation.Status != domain.ReservationStatusActive {
		t.Errorf("expected active status, got %s", reservation.Status)
	}
	if saved == nil {
		t.Fatal("reservation was not persisted")
	}

	window := reservation.ExpiresAt.Sub(before)
	if window < 9*time.Minute || window > 11*time.Minute {
		t.Errorf("hold window = %v, expected about 10 minutes", window)
	}

	events := bus.PublishedOn(domain.ChannelReservas)
	if len(events) != 1 || events[0].Type != domain.EventBicicletaReservada {
		t.Fatalf("expected one bicicleta_reservada event, got %v", events)
	}
}

func TestReserveRejectsIneligibleHolder(t *testing.T) {
	users := &mocks.MockUserRepository{
		CanReserveFunc: func(ctx context.Context, userID string) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(&mocks.MockReservationRepository{}, &mocks.MockVehicleRepository{}, users, mocks.NewMockEventBus())

	_, err := svc.Reserve(context.Background(), "bike-1", "user-1")
	if !domain.IsKind(err, domain.KindPreconditionFailed) {
		t.Errorf("expected precondition failure, got %v", err)
	}
}

func TestReserveNamesActiveTripInRejection(t *testing.T) {
	users := &mocks.MockUserRepository{
		HasActiveTripFunc: func(ctx context.Context, userID string) (bool, error) {
			return true, nil
		},
		ActiveTripFunc: func(ctx context.Context, userID string) (*domain.Trip, error) {
			return &domain.Trip{ID: "trip-9", HolderID: userID, Status: domain.TripStatusInProgress}, nil
		},
	}
	svc := newTestService(&mocks.MockReservationRepository{}, &mocks.MockVehicleRepository{}, users, mocks.NewMockEventBus())

	_, err := svc.Reserve(context.Background(), "bike-1", "user-1")
	if !domain.IsKind(err, domain.KindPreconditionFailed) {
		t.Fatalf("expected precondition failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "trip-9") {
		t.Errorf("rejection does not name the open trip: %v", err)
	}
}

func TestReserveRejectsSecondOpenReservation(t *testing.T) {
	reservations := &mocks.MockReservationRepository{
		FindByHolderFunc: func(ctx context.Context, holderID string, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
			return []domain.Reservation{{ID: "existing"}}, nil
		},
	}
	svc := newTestService(reservations, &mocks.MockVehicleRepository{}, &mocks.MockUserRepository{}, mocks.NewMockEventBus())

	_, err := svc.Reserve(context.Background(), "bike-1", "user-1")
	if !domain.IsKind(err, domain.KindConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestReserveLosesRaceOnGuardedWrite(t *testing.T) {
	vehicles := &mocks.MockVehicleRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) {
			return availableVehicle(id), nil
		},
		UpdateStatusGuardedFunc: func(ctx context.Context, id string, expected, next domain.VehicleStatus, stationID, reservedBy *string) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(&mocks.MockReservationRepository{}, vehicles, &mocks.MockUserRepository{}, mocks.NewMockEventBus())

	_, err := svc.Reserve(context.Background(), "bike-1", "user-1")
	if !domain.IsKind(err, domain.KindConflict) {
		t.Errorf("expected conflict when guard fails, got %v", err)
	}
}

func TestReserveReleasesVehicleWhenSaveFails(t *testing.T) {
	var released bool
	vehicles := &mocks.MockVehicleRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) {
			return availableVehicle(id), nil
		},
		UpdateStatusGuardedFunc: func(ctx context.Context, id string, expected, next domain.VehicleStatus, stationID, reservedBy *string) (bool, error) {
			if next == domain.VehicleStatusAvailable {
				released = true
			}
			return true, nil
		},
	}
	reservations := &mocks.MockReservationRepository{
		SaveFunc: func(ctx context.Context, r *domain.Reservation) error {
			return errors.New("db down")
		},
	}
	svc := newTestService(reservations, vehicles, &mocks.MockUserRepository{}, mocks.NewMockEventBus())

	if _, err := svc.Reserve(context.Background(), "bike-1", "user-1"); err == nil {
		t.Fatal("expected error when save fails")
	}
	if !released {
		t.Error("vehicle was not released after failed save")
	}
}

func TestReserveScheduledRequiresFutureInstant(t *testing.T) {
	svc := newTestService(&mocks.MockReservationRepository{}, &mocks.MockVehicleRepository{}, &mocks.MockUserRepository{}, mocks.NewMockEventBus())

	_, err := svc.ReserveScheduled(context.Background(), "bike-1", "user-1", time.Now().Add(-time.Minute))
	if !domain.IsKind(err, domain.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCancelRejectsForeignHolder(t *testing.T) {
	other := "user-2"
	vehicles := &mocks.MockVehicleRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) {
			v := availableVehicle(id)
			v.Status = domain.VehicleStatusReserved
			v.ReservedBy = &other
			return v, nil
		},
	}
	svc := newTestService(&mocks.MockReservationRepository{}, vehicles, &mocks.MockUserRepository{}, mocks.NewMockEventBus())

	err := svc.Cancel(context.Background(), "bike-1", "user-1")
	if !domain.IsKind(err, domain.KindUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestCancelSurvivesMissingReservationRow(t *testing.T) {
	holder := "user-1"
	var released bool
	vehicles := &mocks.MockVehicleRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) {
			v := availableVehicle(id)
			v.Status = domain.VehicleStatusReserved
			v.ReservedBy = &holder
			return v, nil
		},
		UpdateStatusGuardedFunc: func(ctx context.Context, id string, expected, next domain.VehicleStatus, stationID, reservedBy *string) (bool, error) {
			released = next == domain.VehicleStatusAvailable
			return true, nil
		},
	}
	svc := newTestService(&mocks.MockReservationRepository{}, vehicles, &mocks.MockUserRepository{}, mocks.NewMockEventBus())

	if err := svc.Cancel(context.Background(), "bike-1", holder); err != nil {
		t.Fatalf("Cancel returned error despite missing row: %v", err)
	}
	if !released {
		t.Error("vehicle was not released")
	}
}

func TestCompleteRejectsExpiredHold(t *testing.T) {
	reservations := &mocks.MockReservationRepository{
		FindOpenByVehicleAndHolderFunc: func(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error) {
			return &domain.Reservation{
				ID:        "res-1",
				VehicleID: vehicleID,
				HolderID:  holderID,
				Status:    domain.ReservationStatusActive,
				ExpiresAt: time.Now().Add(-time.Minute),
			}, nil
		},
	}
	svc := newTestService(reservations, &mocks.MockVehicleRepository{}, &mocks.MockUserRepository{}, mocks.NewMockEventBus())

	_, err := svc.Complete(context.Background(), "bike-1", "user-1")
	if !domain.IsKind(err, domain.KindPreconditionFailed) {
		t.Errorf("expected precondition failure for expired hold, got %v", err)
	}
}

func TestOpenReturnsReservationWithoutMutating(t *testing.T) {
	var saved bool
	reservations := &mocks.MockReservationRepository{
		FindOpenByVehicleAndHolderFunc: func(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error) {
			return &domain.Reservation{
				ID:        "res-1",
				VehicleID: vehicleID,
				HolderID:  holderID,
				Status:    domain.ReservationStatusActive,
				ExpiresAt: time.Now().Add(5 * time.Minute),
			}, nil
		},
		SaveFunc: func(ctx context.Context, r *domain.Reservation) error {
			saved = true
			return nil
		},
	}
	bus := mocks.NewMockEventBus()
	svc := newTestService(reservations, &mocks.MockVehicleRepository{}, &mocks.MockUserRepository{}, bus)

	reservation, err := svc.Open(context.Background(), "bike-1", "user-1")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if reservation.Status != domain.ReservationStatusActive {
		t.Errorf("status = %s", reservation.Status)
	}
	if saved {
		t.Error("Open must not write the reservation")
	}
	if events := bus.PublishedOn(domain.ChannelReservas); len(events) != 0 {
		t.Errorf("Open must not publish events, got %v", events)
	}
}

func TestSweepOnceExpiresStaleReservation(t *testing.T) {
	// Hold placed 11 minutes ago with the default 10 minute window.
	stale := domain.Reservation{
		ID:        "res-1",
		VehicleID: "bike-1",
		HolderID:  "user-1",
		Status:    domain.ReservationStatusActive,
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-11 * time.Minute),
	}

	var savedStatus domain.ReservationStatus
	var savedReason domain.EndReason
	reservations := &mocks.MockReservationRepository{
		FindExpiredFunc: func(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
			return []domain.Reservation{stale}, nil
		},
		SaveFunc: func(ctx context.Context, r *domain.Reservation) error {
			savedStatus = r.Status
			savedReason = r.EndReason
			return nil
		},
	}
	var releasedVehicle string
	vehicles := &mocks.MockVehicleRepository{
		UpdateStatusGuardedFunc: func(ctx context.Context, id string, expected, next domain.VehicleStatus, stationID, reservedBy *string) (bool, error) {
			if expected == domain.VehicleStatusReserved && next == domain.VehicleStatusAvailable {
				releasedVehicle = id
			}
			return true, nil
		},
	}
	bus := mocks.NewMockEventBus()
	svc := newTestService(reservations, vehicles, &mocks.MockUserRepository{}, bus)

	if err := svc.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce returned error: %v", err)
	}
	if releasedVehicle != "bike-1" {
		t.Errorf("vehicle not released, got %q", releasedVehicle)
	}
	if savedStatus != domain.ReservationStatusExpired || savedReason != domain.EndReasonTimeExpiry {
		t.Errorf("saved status/reason = %s/%s", savedStatus, savedReason)
	}

	events := bus.PublishedOn(domain.ChannelReservas)
	if len(events) != 1 || events[0].Type != domain.EventReservaExpirada {
		t.Fatalf("expected one reserva_expirada event, got %v", events)
	}
}

func TestSweepOnceIsolatesPerItemFailures(t *testing.T) {
	first := domain.Reservation{ID: "res-1", VehicleID: "bike-1", Status: domain.ReservationStatusActive}
	second := domain.Reservation{ID: "res-2", VehicleID: "bike-2", Status: domain.ReservationStatusActive}

	var savedIDs []string
	reservations := &mocks.MockReservationRepository{
		FindExpiredFunc: func(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
			return []domain.Reservation{first, second}, nil
		},
		SaveFunc: func(ctx context.Context, r *domain.Reservation) error {
			if r.ID == "res-1" {
				return errors.New("write failed")
			}
			savedIDs = append(savedIDs, r.ID)
			return nil
		},
	}
	svc := newTestService(reservations, &mocks.MockVehicleRepository{}, &mocks.MockUserRepository{}, mocks.NewMockEventBus())

	if err := svc.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce returned error: %v", err)
	}
	if len(savedIDs) != 1 || savedIDs[0] != "res-2" {
		t.Errorf("second reservation not processed after first failed: %v", savedIDs)
	}
}

func TestSweepOnceActivatesDueScheduled(t *testing.T) {
	holder := "user-1"
	due := time.Now().Add(-time.Second)
	scheduled := domain.Reservation{
		ID:         "res-1",
		VehicleID:  "bike-1",
		HolderID:   holder,
		Status:     domain.ReservationStatusScheduled,
		ActivateAt: &due,
	}

	var saved *domain.Reservation
	reservations := &mocks.MockReservationRepository{
		FindDueScheduledFunc: func(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
			return []domain.Reservation{scheduled}, nil
		},
		SaveFunc: func(ctx context.Context, r *domain.Reservation) error {
			saved = r
			return nil
		},
	}
	vehicles := &mocks.MockVehicleRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) {
			return &domain.Vehicle{
				ID:         id,
				Status:     domain.VehicleStatusReserved,
				ReservedBy: &holder,
			}, nil
		},
	}
	bus := mocks.NewMockEventBus()
	svc := newTestService(reservations, vehicles, &mocks.MockUserRepository{}, bus)

	if err := svc.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce returned error: %v", err)
	}
	if saved == nil || saved.Status != domain.ReservationStatusActive {
		t.Fatalf("scheduled reservation not activated: %+v", saved)
	}
	if !saved.ExpiresAt.After(time.Now()) {
		t.Error("activated reservation has no fresh hold window")
	}

	events := bus.PublishedOn(domain.ChannelReservas)
	if len(events) != 1 || events[0].Type != domain.EventReservaActivada {
		t.Fatalf("expected one reserva_activada event, got %v", events)
	}
}

func TestSweepOnceFailsActivationWhenVehicleLost(t *testing.T) {
	due := time.Now().Add(-time.Second)
	scheduled := domain.Reservation{
		ID:         "res-1",
		VehicleID:  "bike-1",
		HolderID:   "user-1",
		Status:     domain.ReservationStatusScheduled,
		ActivateAt: &due,
	}

	var saved *domain.Reservation
	reservations := &mocks.MockReservationRepository{
		FindDueScheduledFunc: func(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
			return []domain.Reservation{scheduled}, nil
		},
		SaveFunc: func(ctx context.Context, r *domain.Reservation) error {
			saved = r
			return nil
		},
	}
	vehicles := &mocks.MockVehicleRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Vehicle, error) {
			return &domain.Vehicle{ID: id, Status: domain.VehicleStatusMaintenance}, nil
		},
	}
	bus := mocks.NewMockEventBus()
	svc := newTestService(reservations, vehicles, &mocks.MockUserRepository{}, bus)

	if err := svc.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce returned error: %v", err)
	}
	if saved == nil || saved.Status != domain.ReservationStatusFailed {
		t.Fatalf("reservation not failed: %+v", saved)
	}
	if saved.EndReason != domain.EndReasonVehicleUnavailable {
		t.Errorf("end reason = %s", saved.EndReason)
	}

	events := bus.PublishedOn(domain.ChannelReservas)
	if len(events) != 1 || events[0].Type != domain.EventReservaFallida {
		t.Fatalf("expected one reserva_fallida event, got %v", events)
	}
}
