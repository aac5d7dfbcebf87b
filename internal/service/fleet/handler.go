package fleet

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

// Handler handles fleet HTTP requests
type Handler struct {
	service ports.FleetService
}

// NewHandler creates a new fleet handler
func NewHandler(service ports.FleetService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers fleet routes
func (h *Handler) RegisterRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	app.Get("/api/v1/bicicletas", h.ListVehicles)
	app.Get("/api/v1/bicicletas/:id", h.GetVehicle)
	app.Put("/api/v1/bicicletas/:id/estado", authMiddleware, h.SetVehicleStatus)
	app.Get("/api/v1/estaciones", h.ListStations)
}

// ListVehicles handles GET /api/v1/bicicletas
func (h *Handler) ListVehicles(c *fiber.Ctx) error {
	vehicles, err := h.service.ListVehicles(c.Context(), c.Query("status"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"vehicles": vehicles,
		"count":    len(vehicles),
	})
}

// GetVehicle handles GET /api/v1/bicicletas/:id
func (h *Handler) GetVehicle(c *fiber.Ctx) error {
	vehicle, err := h.service.GetVehicle(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(vehicle)
}

// SetVehicleStatusRequest represents the request body
type SetVehicleStatusRequest struct {
	Status string `json:"status"`
}

// SetVehicleStatus handles PUT /api/v1/bicicletas/:id/estado
func (h *Handler) SetVehicleStatus(c *fiber.Ctx) error {
	var req SetVehicleStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.E(domain.KindValidation, "invalid request body")
	}

	if err := h.service.SetVehicleStatus(c.Context(), c.Params("id"), domain.VehicleStatus(req.Status)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": req.Status})
}

// ListStations handles GET /api/v1/estaciones
func (h *Handler) ListStations(c *fiber.Ctx) error {
	stations, err := h.service.ListStations(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"stations": stations,
		"count":    len(stations),
	})
}
