package handlers

import (
	"log"

	"planboard/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// fail maps a service error onto the right HTTP status. Unclassified
// errors are logged and surface as a generic 500 so internals never leak.
func fail(c *fiber.Ctx, err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case apperr.KindConflict:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case apperr.KindValidation:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case apperr.KindAccessDenied:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case apperr.KindPrecondition:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("❌ Internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

// badRequest is the standard malformed-body response
func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// userID pulls the authenticated user out of the request context
func userID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}
