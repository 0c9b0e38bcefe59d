package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// statusFor maps engine errors to HTTP statuses. Anything unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, matching.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, matching.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, matching.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, matching.ErrDuplicateSubmission),
		errors.Is(err, matching.ErrConcurrencyConflict),
		errors.Is(err, matching.ErrInvalidTransition),
		errors.Is(err, matching.ErrReportUnavailable),
		errors.Is(err, matching.ErrReportInUse):
		return fiber.StatusConflict
	case errors.Is(err, matching.ErrExternalServiceDegraded):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// writeError sends err as a dto.ErrorResponse. Server errors are logged and
// replaced by fallback so internals never reach the client.
func writeError(c *fiber.Ctx, err error, fallback string) error {
	status := statusFor(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		slog.Error(fallback, "action", c.Route().Path, "error", err, "method", c.Method())
		message = fallback
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func currentUser(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, err := middleware.UserID(c)
	return userID, err == nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	offset = c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
