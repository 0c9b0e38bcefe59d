package handlers

import (
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type MatchHandler struct {
	matchService *services.MatchService
}

func NewMatchHandler(matchService *services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	matches, err := h.matchService.List(c.UserContext(), userID, c.Query("status"))
	if err != nil {
		return writeError(c, err, "Failed to fetch matches")
	}
	return c.JSON(fiber.Map{"matches": matches})
}

func (h *MatchHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid match ID")
	}

	match, err := h.matchService.Get(c.UserContext(), userID, id)
	if err != nil {
		return writeError(c, err, "Failed to fetch match")
	}
	return c.JSON(match)
}

func (h *MatchHandler) Confirm(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid match ID")
	}

	var req dto.ConfirmMatchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	match, err := h.matchService.Confirm(c.UserContext(), userID, id, &req)
	if err != nil {
		return writeError(c, err, "Failed to confirm match")
	}
	return c.JSON(match)
}

func (h *MatchHandler) Reject(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid match ID")
	}

	match, err := h.matchService.Reject(c.UserContext(), userID, id)
	if err != nil {
		return writeError(c, err, "Failed to reject match")
	}
	return c.JSON(match)
}

func (h *MatchHandler) Claim(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	match, err := h.matchService.Claim(c.UserContext(), userID, &req)
	if err != nil {
		return writeError(c, err, "Failed to create claim")
	}
	return c.Status(fiber.StatusCreated).JSON(match)
}
