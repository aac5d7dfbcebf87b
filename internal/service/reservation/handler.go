package reservation

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

// Handler handles reservation HTTP requests
type Handler struct {
	service ports.ReservationService
}

// NewHandler creates a new reservation handler
func NewHandler(service ports.ReservationService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers reservation routes
func (h *Handler) RegisterRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	reservations := app.Group("/api/v1/reservas", authMiddleware)

	reservations.Post("/", h.CreateReservation)
	reservations.Get("/", h.ListReservations)
	reservations.Get("/:id", h.GetReservation)
	reservations.Delete("/bicicleta/:vehicleId", h.CancelReservation)
}

// CreateReservationRequest represents the request body
type CreateReservationRequest struct {
	VehicleID  string `json:"vehicle_id"`
	ActivateAt string `json:"activate_at,omitempty"` // RFC3339; empty means reserve now
}

// CreateReservation handles POST /api/v1/reservas
func (h *Handler) CreateReservation(c *fiber.Ctx) error {
	holderID := c.Locals("user_id").(string)

	var req CreateReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.E(domain.KindValidation, "invalid request body")
	}
	if req.VehicleID == "" {
		return domain.E(domain.KindValidation, "vehicle_id is required")
	}

	var (
		reservation *domain.Reservation
		err         error
	)
	if req.ActivateAt != "" {
		activateAt, parseErr := time.Parse(time.RFC3339, req.ActivateAt)
		if parseErr != nil {
			return domain.E(domain.KindValidation, "activate_at must be RFC3339")
		}
		reservation, err = h.service.ReserveScheduled(c.Context(), req.VehicleID, holderID, activateAt)
	} else {
		reservation, err = h.service.Reserve(c.Context(), req.VehicleID, holderID)
	}
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(reservation)
}

// GetReservation handles GET /api/v1/reservas/:id
func (h *Handler) GetReservation(c *fiber.Ctx) error {
	reservation, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	holderID := c.Locals("user_id").(string)
	if reservation.HolderID != holderID {
		return domain.E(domain.KindUnauthorized, "reservation belongs to another holder")
	}

	return c.JSON(reservation)
}

// ListReservations handles GET /api/v1/reservas
func (h *Handler) ListReservations(c *fiber.Ctx) error {
	holderID := c.Locals("user_id").(string)

	reservations, err := h.service.ListByHolder(c.Context(), holderID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"reservations": reservations,
		"count":        len(reservations),
	})
}

// CancelReservation handles DELETE /api/v1/reservas/bicicleta/:vehicleId
func (h *Handler) CancelReservation(c *fiber.Ctx) error {
	holderID := c.Locals("user_id").(string)

	if err := h.service.Cancel(c.Context(), c.Params("vehicleId"), holderID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": "cancelled"})
}
