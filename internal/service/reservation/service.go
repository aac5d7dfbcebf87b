package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/observability/telemetry"
	"github.com/seu-repo/sigeb/internal/ports"
)

// Service implements ReservationService
type Service struct {
	reservations ports.ReservationRepository
	vehicles     ports.VehicleRepository
	users        ports.UserRepository
	bus          ports.EventBus
	config       *domain.ReservationConfig
	log          *zap.Logger
}

// NewService creates a new reservation service
func NewService(
	reservations ports.ReservationRepository,
	vehicles ports.VehicleRepository,
	users ports.UserRepository,
	bus ports.EventBus,
	config *domain.ReservationConfig,
	log *zap.Logger,
) *Service {
	if config == nil {
		config = domain.DefaultReservationConfig()
	}

	return &Service{
		reservations: reservations,
		vehicles:     vehicles,
		users:        users,
		bus:          bus,
		config:       config,
		log:          log,
	}
}

// Reserve places an immediate hold on a vehicle for the holder. The hold
// expires HoldWindow after creation unless converted into a trip first.
func (s *Service) Reserve(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error) {
	if err := s.checkEligibility(ctx, holderID); err != nil {
		return nil, err
	}

	vehicle, err := s.claimVehicle(ctx, vehicleID, holderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	reservation := &domain.Reservation{
		ID:        uuid.New().String(),
		VehicleID: vehicleID,
		HolderID:  holderID,
		Status:    domain.ReservationStatusActive,
		ExpiresAt: now.Add(s.config.HoldWindow),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reservations.Save(ctx, reservation); err != nil {
		s.releaseVehicle(ctx, vehicle)
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}

	s.publish(ctx, domain.EventBicicletaReservada, map[string]interface{}{
		"reservation_id": reservation.ID,
		"vehicle_id":     vehicleID,
		"holder_id":      holderID,
		"expires_at":     reservation.ExpiresAt.Format(time.RFC3339),
	})

	s.log.Info("Reservation created",
		zap.String("reservation_id", reservation.ID),
		zap.String("vehicle_id", vehicleID),
		zap.String("holder_id", holderID),
		zap.Time("expires_at", reservation.ExpiresAt),
	)

	return reservation, nil
}

// ReserveScheduled places a hold that activates at a future instant. The
// vehicle is claimed immediately; the sweep promotes the reservation to
// Active once the due time arrives.
func (s *Service) ReserveScheduled(ctx context.Context, vehicleID, holderID string, activateAt time.Time) (*domain.Reservation, error) {
	now := time.Now()
	if !activateAt.After(now) {
		return nil, domain.E(domain.KindValidation, "activation time must be in the future")
	}

	if err := s.checkEligibility(ctx, holderID); err != nil {
		return nil, err
	}

	vehicle, err := s.claimVehicle(ctx, vehicleID, holderID)
	if err != nil {
		return nil, err
	}

	reservation := &domain.Reservation{
		ID:         uuid.New().String(),
		VehicleID:  vehicleID,
		HolderID:   holderID,
		Status:     domain.ReservationStatusScheduled,
		ActivateAt: &activateAt,
		ExpiresAt:  activateAt.Add(s.config.HoldWindow),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.reservations.Save(ctx, reservation); err != nil {
		s.releaseVehicle(ctx, vehicle)
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}

	s.publish(ctx, domain.EventReservaProgramada, map[string]interface{}{
		"reservation_id": reservation.ID,
		"vehicle_id":     vehicleID,
		"holder_id":      holderID,
		"activate_at":    activateAt.Format(time.RFC3339),
	})

	s.log.Info("Reservation scheduled",
		zap.String("reservation_id", reservation.ID),
		zap.String("vehicle_id", vehicleID),
		zap.Time("activate_at", activateAt),
	)

	return reservation, nil
}

// Cancel releases the holder's open reservation on a vehicle. Freeing the
// vehicle takes priority: a missing reservation row is logged, not fatal.
func (s *Service) Cancel(ctx context.Context, vehicleID, holderID string) error {
	vehicle, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("failed to find vehicle: %w", err)
	}
	if vehicle == nil {
		return domain.Ef(domain.KindNotFound, "vehicle not found: %s", vehicleID)
	}
	if vehicle.ReservedBy != nil && *vehicle.ReservedBy != holderID {
		return domain.E(domain.KindUnauthorized, "reservation belongs to another holder")
	}

	if vehicle.Status == domain.VehicleStatusReserved {
		released, err := s.vehicles.UpdateStatusGuarded(ctx, vehicleID,
			domain.VehicleStatusReserved, domain.VehicleStatusAvailable, vehicle.StationID, nil)
		if err != nil {
			return fmt.Errorf("failed to release vehicle: %w", err)
		}
		if !released {
			s.log.Warn("Vehicle left reserved state during cancellation",
				zap.String("vehicle_id", vehicleID))
		}
	}

	reservation, err := s.reservations.FindOpenByVehicleAndHolder(ctx, vehicleID, holderID)
	if err != nil {
		return fmt.Errorf("failed to find reservation: %w", err)
	}
	if reservation == nil {
		s.log.Warn("No open reservation found during cancellation",
			zap.String("vehicle_id", vehicleID),
			zap.String("holder_id", holderID),
		)
		return nil
	}

	reservation.Status = domain.ReservationStatusCancelled
	reservation.EndReason = domain.EndReasonUserCancel
	reservation.UpdatedAt = time.Now()

	if err := s.reservations.Save(ctx, reservation); err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	s.publish(ctx, domain.EventReservaCancelada, map[string]interface{}{
		"reservation_id": reservation.ID,
		"vehicle_id":     vehicleID,
		"holder_id":      holderID,
	})

	s.log.Info("Reservation cancelled",
		zap.String("reservation_id", reservation.ID),
		zap.String("vehicle_id", vehicleID),
	)

	return nil
}

// Open returns the holder's unexpired Active reservation on the vehicle.
// Read-only: the trip service checks this before the unlock handshake so
// a doomed start fails before anything is mutated.
func (s *Service) Open(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error) {
	reservation, err := s.reservations.FindOpenByVehicleAndHolder(ctx, vehicleID, holderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	if reservation == nil {
		return nil, domain.E(domain.KindNotFound, "no open reservation for this vehicle and holder")
	}
	if reservation.Status != domain.ReservationStatusActive {
		return nil, domain.Ef(domain.KindPreconditionFailed,
			"reservation is %s, not active", reservation.Status)
	}
	if reservation.IsExpired(time.Now()) {
		return nil, domain.E(domain.KindPreconditionFailed, "reservation hold window has expired")
	}
	return reservation, nil
}

// Complete converts the holder's unexpired Active reservation into the
// trip handoff, marking it Completed.
func (s *Service) Complete(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error) {
	reservation, err := s.Open(ctx, vehicleID, holderID)
	if err != nil {
		return nil, err
	}

	reservation.Status = domain.ReservationStatusCompleted
	reservation.EndReason = domain.EndReasonTripStart
	reservation.UpdatedAt = time.Now()

	if err := s.reservations.Save(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}

	s.publish(ctx, domain.EventReservaCompletada, map[string]interface{}{
		"reservation_id": reservation.ID,
		"vehicle_id":     vehicleID,
		"holder_id":      holderID,
	})

	return reservation, nil
}

// Get retrieves a reservation by ID
func (s *Service) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	reservation, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	if reservation == nil {
		return nil, domain.Ef(domain.KindNotFound, "reservation not found: %s", id)
	}
	return reservation, nil
}

// ListByHolder retrieves all reservations for a holder
func (s *Service) ListByHolder(ctx context.Context, holderID string) ([]domain.Reservation, error) {
	return s.reservations.FindByHolder(ctx, holderID, nil)
}

// SweepOnce runs one pass of the expiry and scheduled-activation sweep.
// Each item is processed independently; a failure is logged and the pass
// continues with the next item.
func (s *Service) SweepOnce(ctx context.Context) error {
	now := time.Now()

	expired, err := s.reservations.FindExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list expired reservations: %w", err)
	}
	for i := range expired {
		s.expireOne(ctx, &expired[i])
	}

	due, err := s.reservations.FindDueScheduled(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list due scheduled reservations: %w", err)
	}
	for i := range due {
		s.activateOne(ctx, &due[i], now)
	}

	return nil
}

func (s *Service) expireOne(ctx context.Context, r *domain.Reservation) {
	released, err := s.vehicles.UpdateStatusGuarded(ctx, r.VehicleID,
		domain.VehicleStatusReserved, domain.VehicleStatusAvailable, nil, nil)
	if err != nil {
		s.log.Error("Failed to release vehicle for expired reservation",
			zap.String("reservation_id", r.ID),
			zap.String("vehicle_id", r.VehicleID),
			zap.Error(err),
		)
		return
	}
	if !released {
		s.log.Warn("Vehicle no longer reserved at expiry",
			zap.String("reservation_id", r.ID),
			zap.String("vehicle_id", r.VehicleID),
		)
	}

	r.Status = domain.ReservationStatusExpired
	r.EndReason = domain.EndReasonTimeExpiry
	r.UpdatedAt = time.Now()

	if err := s.reservations.Save(ctx, r); err != nil {
		s.log.Error("Failed to mark reservation expired",
			zap.String("reservation_id", r.ID),
			zap.Error(err),
		)
		return
	}

	telemetry.ReservationsExpiredTotal.Inc()

	s.publish(ctx, domain.EventReservaExpirada, map[string]interface{}{
		"reservation_id": r.ID,
		"vehicle_id":     r.VehicleID,
		"holder_id":      r.HolderID,
	})

	s.log.Info("Reservation expired",
		zap.String("reservation_id", r.ID),
		zap.String("vehicle_id", r.VehicleID),
	)
}

func (s *Service) activateOne(ctx context.Context, r *domain.Reservation, now time.Time) {
	vehicle, err := s.vehicles.FindByID(ctx, r.VehicleID)
	if err != nil {
		s.log.Error("Failed to load vehicle for scheduled activation",
			zap.String("reservation_id", r.ID),
			zap.Error(err),
		)
		return
	}

	stillHeld := vehicle != nil &&
		vehicle.Status == domain.VehicleStatusReserved &&
		vehicle.ReservedBy != nil && *vehicle.ReservedBy == r.HolderID

	if !stillHeld {
		r.Status = domain.ReservationStatusFailed
		r.EndReason = domain.EndReasonVehicleUnavailable
		r.UpdatedAt = now
		if err := s.reservations.Save(ctx, r); err != nil {
			s.log.Error("Failed to mark scheduled reservation failed",
				zap.String("reservation_id", r.ID),
				zap.Error(err),
			)
			return
		}
		s.publish(ctx, domain.EventReservaFallida, map[string]interface{}{
			"reservation_id": r.ID,
			"vehicle_id":     r.VehicleID,
			"holder_id":      r.HolderID,
			"reason":         string(domain.EndReasonVehicleUnavailable),
		})
		s.log.Warn("Scheduled reservation failed activation",
			zap.String("reservation_id", r.ID),
			zap.String("vehicle_id", r.VehicleID),
		)
		return
	}

	r.Status = domain.ReservationStatusActive
	r.ExpiresAt = now.Add(s.config.HoldWindow)
	r.UpdatedAt = now

	if err := s.reservations.Save(ctx, r); err != nil {
		s.log.Error("Failed to activate scheduled reservation",
			zap.String("reservation_id", r.ID),
			zap.Error(err),
		)
		return
	}

	s.publish(ctx, domain.EventReservaActivada, map[string]interface{}{
		"reservation_id": r.ID,
		"vehicle_id":     r.VehicleID,
		"holder_id":      r.HolderID,
		"expires_at":     r.ExpiresAt.Format(time.RFC3339),
	})

	s.log.Info("Scheduled reservation activated",
		zap.String("reservation_id", r.ID),
		zap.String("vehicle_id", r.VehicleID),
		zap.Time("expires_at", r.ExpiresAt),
	)
}

// checkEligibility enforces the holder-side preconditions for any new hold.
func (s *Service) checkEligibility(ctx context.Context, holderID string) error {
	allowed, err := s.users.CanReserve(ctx, holderID)
	if err != nil {
		return domain.Wrap(domain.KindExternalService, "eligibility check failed", err)
	}
	if !allowed {
		return domain.E(domain.KindPreconditionFailed, "holder is not allowed to make reservations")
	}

	riding, err := s.users.HasActiveTrip(ctx, holderID)
	if err != nil {
		return domain.Wrap(domain.KindExternalService, "active trip check failed", err)
	}
	if riding {
		if active, lookupErr := s.users.ActiveTrip(ctx, holderID); lookupErr == nil && active != nil {
			return domain.Ef(domain.KindPreconditionFailed,
				"holder already has trip %s in progress", active.ID)
		}
		return domain.E(domain.KindPreconditionFailed, "holder already has a trip in progress")
	}

	open, err := s.reservations.FindByHolder(ctx, holderID, []domain.ReservationStatus{
		domain.ReservationStatusActive,
		domain.ReservationStatusScheduled,
	})
	if err != nil {
		return fmt.Errorf("failed to check open reservations: %w", err)
	}
	if len(open) > 0 {
		return domain.E(domain.KindConflict, "holder already has an open reservation")
	}

	return nil
}

// claimVehicle moves the vehicle Available -> Reserved with the guarded
// write. A failed guard means another request won the vehicle first.
func (s *Service) claimVehicle(ctx context.Context, vehicleID, holderID string) (*domain.Vehicle, error) {
	vehicle, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, domain.Ef(domain.KindNotFound, "vehicle not found: %s", vehicleID)
	}
	if !vehicle.CanBeReserved() {
		return nil, domain.Ef(domain.KindPreconditionFailed,
			"vehicle is %s, not available", vehicle.Status)
	}

	claimed, err := s.vehicles.UpdateStatusGuarded(ctx, vehicleID,
		domain.VehicleStatusAvailable, domain.VehicleStatusReserved, vehicle.StationID, &holderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve vehicle: %w", err)
	}
	if !claimed {
		return nil, domain.E(domain.KindConflict, "vehicle was reserved by another request")
	}

	vehicle.Status = domain.VehicleStatusReserved
	vehicle.ReservedBy = &holderID
	return vehicle, nil
}

// releaseVehicle undoes a claim after a later step failed. Best effort.
func (s *Service) releaseVehicle(ctx context.Context, vehicle *domain.Vehicle) {
	released, err := s.vehicles.UpdateStatusGuarded(ctx, vehicle.ID,
		domain.VehicleStatusReserved, domain.VehicleStatusAvailable, vehicle.StationID, nil)
	if err != nil || !released {
		s.log.Error("Failed to release vehicle after reservation rollback",
			zap.String("vehicle_id", vehicle.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) publish(ctx context.Context, typ domain.EventType, data map[string]interface{}) {
	if _, err := s.bus.Publish(ctx, domain.ChannelReservas, typ, data); err != nil {
		s.log.Warn("Failed to publish reservation event",
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}
