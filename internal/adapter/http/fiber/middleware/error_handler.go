package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/domain"
)

// statusFor maps a domain error kind to its HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindPreconditionFailed:
		return fiber.StatusUnprocessableEntity
	case domain.KindConflict:
		return fiber.StatusConflict
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindExternalService:
		return fiber.StatusBadGateway
	case domain.KindTimeout:
		return fiber.StatusGatewayTimeout
	case domain.KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler translates domain errors into structured JSON responses.
// Unclassified errors surface as 500 with the detail kept in the logs.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
		}

		kind := domain.KindOf(err)
		code := statusFor(kind)

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error",
				zap.Error(err),
				zap.String("path", c.Path()),
			)
			return c.Status(code).JSON(fiber.Map{
				"error": "internal error",
				"kind":  kind.String(),
			})
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
			"kind":  kind.String(),
		})
	}
}
