package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: title is required", matching.ErrValidation), fiber.StatusBadRequest},
		{matching.ErrDuplicateSubmission, fiber.StatusConflict},
		{matching.ErrUnauthorized, fiber.StatusForbidden},
		{matching.ErrNotFound, fiber.StatusNotFound},
		{fmt.Errorf("confirm: %w", matching.ErrConcurrencyConflict), fiber.StatusConflict},
		{matching.ErrInvalidTransition, fiber.StatusConflict},
		{matching.ErrReportUnavailable, fiber.StatusConflict},
		{matching.ErrReportInUse, fiber.StatusConflict},
		{matching.ErrNoEmbedding, fiber.StatusServiceUnavailable},
		{errors.New("connection reset"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
