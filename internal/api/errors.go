package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"todopro/internal/service"
)

// handleError maps service errors to responses without exposing internals.
// msgs are attached to validation failures.
func handleError(c *fiber.Ctx, err error, msgs ...service.Message) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:    "validation_error",
			Message:  "Please correct the errors below.",
			Fields:   verr.Fields,
			Messages: msgs,
		})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Not found",
		})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:    "forbidden",
			Message:  "Administrator access required",
			Messages: []service.Message{service.MsgAccessDenied()},
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Please enter a correct username and password.",
		})
	default:
		log.Printf("[api] internal error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: "Invalid request body",
	})
}

// taskID parses the :id route parameter. Malformed identifiers are treated as missing tasks.
func taskID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func notFound(c *fiber.Ctx) error {
	return handleError(c, service.ErrNotFound)
}
