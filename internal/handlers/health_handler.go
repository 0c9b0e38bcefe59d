package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	ping   func() error
	policy string
	judge  string
}

// NewHealthHandler reports the database through ping and echoes the active
// scoring policy and judge chain.
func NewHealthHandler(ping func() error, policy, judge string) *HealthHandler {
	return &HealthHandler{ping: ping, policy: policy, judge: judge}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Policy:    h.policy,
		Judge:     h.judge,
	})
}
