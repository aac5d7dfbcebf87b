package payment

import (
	"github.com/gofiber/fiber/v2"
)

// Handler handles payment HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers payment routes. The webhook endpoint is
// unauthenticated; the provider signature is the credential.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Post("/api/v1/webhooks/pagos", h.HandleWebhook)
}

// HandleWebhook handles POST /api/v1/webhooks/pagos
func (h *Handler) HandleWebhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")

	if err := h.service.HandleWebhook(c.Context(), c.Body(), signature); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"received": true})
}
