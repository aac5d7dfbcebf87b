package trip

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

// Handler handles trip HTTP requests
type Handler struct {
	service ports.TripService
}

// NewHandler creates a new trip handler
func NewHandler(service ports.TripService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers trip routes
func (h *Handler) RegisterRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	trips := app.Group("/api/v1/viajes", authMiddleware)

	trips.Post("/iniciar", h.StartTrip)
	trips.Post("/:id/finalizar", h.FinalizeTrip)
	trips.Get("/", h.ListTrips)
	trips.Get("/:id", h.GetTrip)
}

// StartTripRequest represents the request body
type StartTripRequest struct {
	SerialCode   string `json:"serial_code"`
	VehicleID    string `json:"vehicle_id"`
	EndStationID string `json:"end_station_id"`
}

// StartTrip handles POST /api/v1/viajes/iniciar
func (h *Handler) StartTrip(c *fiber.Ctx) error {
	holderID := c.Locals("user_id").(string)

	var req StartTripRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.E(domain.KindValidation, "invalid request body")
	}
	if req.SerialCode == "" || req.VehicleID == "" || req.EndStationID == "" {
		return domain.E(domain.KindValidation, "serial_code, vehicle_id and end_station_id are required")
	}

	trip, err := h.service.Start(c.Context(), req.SerialCode, req.VehicleID, holderID, req.EndStationID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(trip)
}

// FinalizeTrip handles POST /api/v1/viajes/:id/finalizar
func (h *Handler) FinalizeTrip(c *fiber.Ctx) error {
	trip, err := h.service.Finalize(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(trip)
}

// GetTrip handles GET /api/v1/viajes/:id
func (h *Handler) GetTrip(c *fiber.Ctx) error {
	trip, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	holderID := c.Locals("user_id").(string)
	if trip.HolderID != holderID {
		return domain.E(domain.KindUnauthorized, "trip belongs to another holder")
	}

	return c.JSON(trip)
}

// ListTrips handles GET /api/v1/viajes
func (h *Handler) ListTrips(c *fiber.Ctx) error {
	holderID := c.Locals("user_id").(string)

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	trips, err := h.service.ListByHolder(c.Context(), holderID, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"trips": trips,
		"count": len(trips),
	})
}
