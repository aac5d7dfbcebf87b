package fleet

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

// Service implements FleetService. Besides the read surface it owns the
// docking pipeline: vehicles coming off a finalized trip are re-docked at
// their destination station in response to BOOKING events.
type Service struct {
	vehicles ports.VehicleRepository
	stations ports.StationRepository
	bus      ports.EventBus
	log      *zap.Logger
}

// NewService creates a new fleet service
func NewService(
	vehicles ports.VehicleRepository,
	stations ports.StationRepository,
	bus ports.EventBus,
	log *zap.Logger,
) *Service {
	return &Service{
		vehicles: vehicles,
		stations: stations,
		bus:      bus,
		log:      log,
	}
}

// SubscribeBooking registers the docking observer on the BOOKING channel.
// Returns the subscription id.
func (s *Service) SubscribeBooking() string {
	return s.bus.Subscribe(domain.ChannelBooking, s.handleBookingEvent)
}

// handleBookingEvent dispatches BOOKING events. The switch is exhaustive
// over the types this channel carries; anything else is logged.
func (s *Service) handleBookingEvent(evt domain.Event) {
	switch evt.Type {
	case domain.EventReservaBuscada:
		s.dockVehicle(evt)
	default:
		s.log.Warn("Unhandled event type on booking channel",
			zap.String("event_id", evt.ID),
			zap.String("type", string(evt.Type)),
		)
	}
}

// dockVehicle returns a vehicle to service at its trip destination. Errors
// are logged, never propagated: the bus isolates observer failures and a
// missed docking is repairable by fleet operations.
func (s *Service) dockVehicle(evt domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	vehicleID, _ := evt.Data["vehicle_id"].(string)
	stationID, _ := evt.Data["station_id"].(string)
	if vehicleID == "" || stationID == "" {
		s.log.Warn("Booking event missing vehicle or station",
			zap.String("event_id", evt.ID))
		return
	}

	docked, err := s.vehicles.UpdateStatusGuarded(ctx, vehicleID,
		domain.VehicleStatusInTrip, domain.VehicleStatusAvailable, &stationID, nil)
	if err != nil {
		s.log.Error("Failed to dock vehicle",
			zap.String("vehicle_id", vehicleID),
			zap.String("station_id", stationID),
			zap.Error(err),
		)
		return
	}
	if !docked {
		s.log.Warn("Vehicle not in trip at docking time",
			zap.String("vehicle_id", vehicleID))
		return
	}

	if err := s.stations.AdjustAvailable(ctx, stationID, 1); err != nil {
		s.log.Warn("Failed to increment station availability",
			zap.String("station_id", stationID),
			zap.Error(err),
		)
	}

	if _, err := s.bus.Publish(ctx, domain.ChannelEstaciones, domain.EventEstacionActualizada, map[string]interface{}{
		"station_id": stationID,
		"vehicle_id": vehicleID,
	}); err != nil {
		s.log.Warn("Failed to publish station update", zap.Error(err))
	}

	s.log.Info("Vehicle docked",
		zap.String("vehicle_id", vehicleID),
		zap.String("station_id", stationID),
	)
}

// GetVehicle retrieves a vehicle by ID
func (s *Service) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	vehicle, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, domain.Ef(domain.KindNotFound, "vehicle not found: %s", id)
	}
	return vehicle, nil
}

// ListVehicles retrieves vehicles, optionally filtered by status
func (s *Service) ListVehicles(ctx context.Context, status string) ([]domain.Vehicle, error) {
	filter := map[string]interface{}{}
	if status != "" {
		if !domain.VehicleStatus(status).Valid() {
			return nil, domain.Ef(domain.KindValidation, "unknown vehicle status: %s", status)
		}
		filter["status"] = status
	}
	return s.vehicles.FindAll(ctx, filter)
}

// ListStations retrieves all docking stations
func (s *Service) ListStations(ctx context.Context) ([]domain.Station, error) {
	return s.stations.FindAll(ctx)
}

// SetVehicleStatus applies an administrative status change through the
// guarded write. Maintenance moves publish on MANTENIMIENTO as well as
// the general vehicle channel.
func (s *Service) SetVehicleStatus(ctx context.Context, vehicleID string, status domain.VehicleStatus) error {
	if !status.Valid() {
		return domain.Ef(domain.KindValidation, "unknown vehicle status: %s", status)
	}

	vehicle, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("failed to find vehicle: %w", err)
	}
	if vehicle == nil {
		return domain.Ef(domain.KindNotFound, "vehicle not found: %s", vehicleID)
	}
	if vehicle.Status == status {
		return nil
	}

	changed, err := s.vehicles.UpdateStatusGuarded(ctx, vehicleID,
		vehicle.Status, status, vehicle.StationID, nil)
	if err != nil {
		return fmt.Errorf("failed to update vehicle status: %w", err)
	}
	if !changed {
		return domain.E(domain.KindConflict, "vehicle changed state concurrently")
	}

	data := map[string]interface{}{
		"vehicle_id": vehicleID,
		"status":     string(status),
	}

	if status == domain.VehicleStatusMaintenance {
		if _, err := s.bus.Publish(ctx, domain.ChannelMantenimiento, domain.EventMantenimiento, data); err != nil {
			s.log.Warn("Failed to publish maintenance event", zap.Error(err))
		}
	}
	if _, err := s.bus.Publish(ctx, domain.ChannelBicicletas, domain.EventBicicletaEstado, data); err != nil {
		s.log.Warn("Failed to publish vehicle status event", zap.Error(err))
	}

	s.log.Info("Vehicle status changed",
		zap.String("vehicle_id", vehicleID),
		zap.String("from", string(vehicle.Status)),
		zap.String("to", string(status)),
	)

	return nil
}
