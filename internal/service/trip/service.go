package trip

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/fare"
	"github.com/seu-repo/sigeb/internal/observability/telemetry"
	"github.com/seu-repo/sigeb/internal/ports"
	"github.com/seu-repo/sigeb/pkg/geo"
)

// Service implements TripService
type Service struct {
	trips         ports.TripRepository
	vehicles      ports.VehicleRepository
	stations      ports.StationRepository
	subscriptions ports.SubscriptionRepository
	reservations  ports.ReservationService
	lock          ports.LockController
	calculator    *fare.Calculator
	bus           ports.EventBus
	config        *domain.TripConfig
	log           *zap.Logger
}

// NewService creates a new trip service
func NewService(
	trips ports.TripRepository,
	vehicles ports.VehicleRepository,
	stations ports.StationRepository,
	subscriptions ports.SubscriptionRepository,
	reservations ports.ReservationService,
	lock ports.LockController,
	calculator *fare.Calculator,
	bus ports.EventBus,
	config *domain.TripConfig,
	log *zap.Logger,
) *Service {
	if config == nil {
		config = domain.DefaultTripConfig()
	}
	if calculator == nil {
		calculator = fare.NewCalculator(nil)
	}

	return &Service{
		trips:         trips,
		vehicles:      vehicles,
		stations:      stations,
		subscriptions: subscriptions,
		reservations:  reservations,
		lock:          lock,
		calculator:    calculator,
		bus:           bus,
		config:        config,
		log:           log,
	}
}

// Start unlocks a vehicle and opens a trip. All preconditions, the
// reservation included, are checked before the lock handshake; a handshake
// timeout aborts with no state mutated anywhere, and a failure after the
// unlock rolls the vehicle and station back.
func (s *Service) Start(ctx context.Context, serialCode, vehicleID, holderID, endStationID string) (*domain.Trip, error) {
	vehicle, err := s.vehicles.FindBySerial(ctx, serialCode)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, domain.Ef(domain.KindNotFound, "vehicle not found by serial: %s", serialCode)
	}
	if vehicle.ID != vehicleID {
		return nil, domain.E(domain.KindValidation, "serial code does not match vehicle id")
	}
	if !vehicle.CanStartTrip() {
		return nil, domain.Ef(domain.KindPreconditionFailed,
			"vehicle is %s, cannot start trip", vehicle.Status)
	}
	if vehicle.StationID == nil {
		return nil, domain.E(domain.KindValidation, "vehicle is not docked at a station")
	}

	openTrip, err := s.trips.FindOpenByVehicle(ctx, vehicle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open trips: %w", err)
	}
	if openTrip != nil {
		return nil, domain.Ef(domain.KindConflict,
			"vehicle already has trip %s in progress", openTrip.ID)
	}

	reservation, err := s.reservations.Open(ctx, vehicle.ID, holderID)
	if err != nil {
		return nil, err
	}

	startStation, endStation, err := s.stationPair(ctx, *vehicle.StationID, endStationID)
	if err != nil {
		return nil, err
	}

	class := domain.TripClassShortHop
	if startStation.Zone != endStation.Zone {
		class = domain.TripClassLongHaul
	}

	// The handshake runs against a hard deadline. Nothing has been
	// mutated yet, so a timeout leaves the system exactly as it was.
	unlockCtx, cancel := context.WithTimeout(ctx, s.config.UnlockTimeout)
	defer cancel()

	latency, err := s.lock.Unlock(unlockCtx, serialCode)
	if err != nil {
		return nil, domain.Wrap(domain.KindTimeout, "lock release handshake failed", err)
	}

	prevStatus := vehicle.Status
	claimed, err := s.vehicles.UpdateStatusGuarded(ctx, vehicle.ID,
		prevStatus, domain.VehicleStatusInTrip, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to transition vehicle: %w", err)
	}
	if !claimed {
		return nil, domain.E(domain.KindConflict, "vehicle changed state during unlock")
	}

	decremented := true
	if err := s.stations.AdjustAvailable(ctx, startStation.ID, -1); err != nil {
		decremented = false
		s.log.Warn("Failed to decrement station availability",
			zap.String("station_id", startStation.ID),
			zap.Error(err),
		)
	}

	// Complete re-validates the reservation; a failure here means it was
	// closed between the check above and now, so the unlock is undone.
	if _, err := s.reservations.Complete(ctx, vehicle.ID, holderID); err != nil {
		s.revertUnlock(ctx, vehicle, prevStatus, startStation.ID, decremented)
		return nil, err
	}

	paymentStatus, covered := s.consumeSubscription(ctx, holderID)

	now := time.Now()
	trip := &domain.Trip{
		ID:             uuid.New().String(),
		ReservationID:  reservation.ID,
		VehicleID:      vehicle.ID,
		HolderID:       holderID,
		Class:          class,
		Status:         domain.TripStatusInProgress,
		PaymentStatus:  paymentStatus,
		StartStationID: startStation.ID,
		EndStationID:   endStation.ID,
		StartTime:      now,
		UnlockLatency:  int(latency.Milliseconds()),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.trips.Save(ctx, trip); err != nil {
		s.revertUnlock(ctx, vehicle, prevStatus, startStation.ID, decremented)
		return nil, fmt.Errorf("failed to save trip: %w", err)
	}

	telemetry.ActiveTrips.Inc()
	telemetry.TripsStartedTotal.WithLabelValues(string(class)).Inc()
	telemetry.UnlockLatency.Observe(latency.Seconds())

	s.publish(ctx, domain.ChannelViajes, domain.EventViajeIniciado, map[string]interface{}{
		"trip_id":           trip.ID,
		"vehicle_id":        vehicle.ID,
		"holder_id":         holderID,
		"class":             string(class),
		"unlock_latency_ms": trip.UnlockLatency,
		"subscribed":        covered,
	})

	s.log.Info("Trip started",
		zap.String("trip_id", trip.ID),
		zap.String("vehicle_id", vehicle.ID),
		zap.String("holder_id", holderID),
		zap.String("class", string(class)),
		zap.Duration("unlock_latency", latency),
		zap.Bool("subscribed", covered),
	)

	return trip, nil
}

// Finalize closes a trip, freezing its fare fields. Finalizing an already
// finished trip is a conflict; fare fields are never rewritten.
func (s *Service) Finalize(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to find trip: %w", err)
	}
	if trip == nil {
		return nil, domain.Ef(domain.KindNotFound, "trip not found: %s", tripID)
	}
	if trip.IsFinished() {
		return nil, domain.E(domain.KindConflict, "trip is already finished")
	}

	startStation, endStation, err := s.stationPair(ctx, trip.StartStationID, trip.EndStationID)
	if err != nil {
		return nil, err
	}
	if !startStation.HasCoordinates() || !endStation.HasCoordinates() {
		return nil, domain.E(domain.KindValidation, "station coordinates are invalid")
	}

	now := time.Now()
	trip.Minutes = fare.ElapsedMinutes(trip.StartTime, now)
	trip.DistanceKm = geo.HaversineKm(
		startStation.Latitude, startStation.Longitude,
		endStation.Latitude, endStation.Longitude,
	)

	if trip.PaymentStatus != domain.PaymentStatusSubscribed {
		quote, err := s.calculator.Quote(trip.Class, trip.Minutes)
		if err != nil {
			return nil, err
		}
		trip.Subtotal = quote.Subtotal
		trip.Overage = quote.Overage
		trip.Tax = quote.Tax
		trip.Total = quote.Total
	}

	trip.Status = domain.TripStatusFinished
	trip.EndTime = &now
	trip.UpdatedAt = now

	if err := s.trips.Save(ctx, trip); err != nil {
		return nil, fmt.Errorf("failed to save trip: %w", err)
	}

	telemetry.ActiveTrips.Dec()

	// Subscription-covered trips bypass the payment pipeline entirely.
	if trip.PaymentStatus != domain.PaymentStatusSubscribed {
		s.publish(ctx, domain.ChannelViajes, domain.EventViajeFinalizado, map[string]interface{}{
			"trip_id":     trip.ID,
			"vehicle_id":  trip.VehicleID,
			"holder_id":   trip.HolderID,
			"minutes":     trip.Minutes,
			"distance_km": trip.DistanceKm,
			"total":       trip.Total,
		})
	}

	s.publish(ctx, domain.ChannelBooking, domain.EventReservaBuscada, map[string]interface{}{
		"trip_id":    trip.ID,
		"vehicle_id": trip.VehicleID,
		"station_id": trip.EndStationID,
	})

	s.log.Info("Trip finalized",
		zap.String("trip_id", trip.ID),
		zap.Int("minutes", trip.Minutes),
		zap.Float64("distance_km", trip.DistanceKm),
		zap.Float64("total", trip.Total),
	)

	return trip, nil
}

// ChangePaymentStatus moves a trip's payment state within the closed set.
// Fare fields stay untouched; terminal payment states are immutable.
func (s *Service) ChangePaymentStatus(ctx context.Context, tripID string, status domain.PaymentStatus) error {
	if !status.Valid() {
		return domain.Ef(domain.KindValidation, "unknown payment status: %s", status)
	}

	trip, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		return fmt.Errorf("failed to find trip: %w", err)
	}
	if trip == nil {
		return domain.Ef(domain.KindNotFound, "trip not found: %s", tripID)
	}
	if trip.PaymentStatus.Terminal() {
		return domain.Ef(domain.KindConflict,
			"payment status is already terminal: %s", trip.PaymentStatus)
	}

	trip.PaymentStatus = status
	trip.UpdatedAt = time.Now()

	if err := s.trips.Save(ctx, trip); err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}

	s.log.Info("Trip payment status changed",
		zap.String("trip_id", tripID),
		zap.String("payment_status", string(status)),
	)

	return nil
}

// Get retrieves a trip by ID
func (s *Service) Get(ctx context.Context, id string) (*domain.Trip, error) {
	trip, err := s.trips.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find trip: %w", err)
	}
	if trip == nil {
		return nil, domain.Ef(domain.KindNotFound, "trip not found: %s", id)
	}
	return trip, nil
}

// ListByHolder retrieves a holder's trips, most recent first
func (s *Service) ListByHolder(ctx context.Context, holderID string, limit, offset int) ([]domain.Trip, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.trips.FindByHolder(ctx, holderID, limit, offset)
}

// consumeSubscription draws one trip credit from the holder's active plan.
// Exhaustion and expiry are recorded as side effects; any failure falls
// back to a pending (chargeable) trip.
func (s *Service) consumeSubscription(ctx context.Context, holderID string) (domain.PaymentStatus, bool) {
	sub, err := s.subscriptions.FindActiveByUser(ctx, holderID)
	if err != nil {
		s.log.Warn("Failed to look up subscription",
			zap.String("holder_id", holderID),
			zap.Error(err),
		)
		return domain.PaymentStatusPending, false
	}
	if sub == nil {
		return domain.PaymentStatusPending, false
	}

	now := time.Now()
	if !sub.Usable(now) {
		if now.After(sub.ExpiresAt) {
			sub.Status = domain.SubscriptionStatusInactive
		} else {
			sub.Status = domain.SubscriptionStatusExhausted
		}
		sub.UpdatedAt = now
		if err := s.subscriptions.Save(ctx, sub); err != nil {
			s.log.Warn("Failed to deactivate subscription",
				zap.String("subscription_id", sub.ID),
				zap.Error(err),
			)
		}
		return domain.PaymentStatusPending, false
	}

	sub.RemainingTrips--
	if sub.RemainingTrips == 0 {
		sub.Status = domain.SubscriptionStatusExhausted
	}
	sub.UpdatedAt = now

	if err := s.subscriptions.Save(ctx, sub); err != nil {
		s.log.Warn("Failed to consume subscription credit",
			zap.String("subscription_id", sub.ID),
			zap.Error(err),
		)
		return domain.PaymentStatusPending, false
	}

	return domain.PaymentStatusSubscribed, true
}

// revertUnlock undoes the vehicle transition and station decrement after a
// later Start step failed. Without this a failed handoff would strand the
// vehicle in InTrip with no open trip. Best effort; a failed restore is
// logged for the operator.
func (s *Service) revertUnlock(ctx context.Context, vehicle *domain.Vehicle, prev domain.VehicleStatus, stationID string, decremented bool) {
	restored, err := s.vehicles.UpdateStatusGuarded(ctx, vehicle.ID,
		domain.VehicleStatusInTrip, prev, vehicle.StationID, vehicle.ReservedBy)
	if err != nil || !restored {
		s.log.Error("Failed to restore vehicle after trip start rollback",
			zap.String("vehicle_id", vehicle.ID),
			zap.String("restore_status", string(prev)),
			zap.Error(err),
		)
	}

	if decremented {
		if err := s.stations.AdjustAvailable(ctx, stationID, 1); err != nil {
			s.log.Error("Failed to restore station availability after trip start rollback",
				zap.String("station_id", stationID),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) stationPair(ctx context.Context, startID, endID string) (*domain.Station, *domain.Station, error) {
	start, err := s.stations.FindByID(ctx, startID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find start station: %w", err)
	}
	if start == nil {
		return nil, nil, domain.Ef(domain.KindNotFound, "start station not found: %s", startID)
	}

	end, err := s.stations.FindByID(ctx, endID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find end station: %w", err)
	}
	if end == nil {
		return nil, nil, domain.Ef(domain.KindNotFound, "end station not found: %s", endID)
	}

	return start, end, nil
}

func (s *Service) publish(ctx context.Context, channel domain.Channel, typ domain.EventType, data map[string]interface{}) {
	if _, err := s.bus.Publish(ctx, channel, typ, data); err != nil {
		s.log.Warn("Failed to publish trip event",
			zap.String("channel", string(channel)),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}
