package handlers

import (
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	report, matches, err := h.reportService.Create(c.UserContext(), userID, &req)
	if err != nil {
		return writeError(c, err, "Failed to create report")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateReportResponse{
		Report:  *report,
		Matches: matches,
	})
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid report ID")
	}

	report, err := h.reportService.Get(c.UserContext(), userID, id)
	if err != nil {
		return writeError(c, err, "Failed to fetch report")
	}
	return c.JSON(report)
}

func (h *ReportHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	limit, offset := pagination(c)

	reports, total, err := h.reportService.ListMine(c.UserContext(), userID, c.Query("kind"), c.Query("status"), limit, offset)
	if err != nil {
		return writeError(c, err, "Failed to fetch reports")
	}

	return c.JSON(dto.ReportListResponse{
		Reports: reports,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid report ID")
	}

	if err := h.reportService.Delete(c.UserContext(), userID, id); err != nil {
		return writeError(c, err, "Failed to delete report")
	}
	return c.JSON(dto.MessageResponse{Message: "Report deleted"})
}

func (h *ReportHandler) MarkReturned(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid report ID")
	}

	report, err := h.reportService.MarkReturned(c.UserContext(), userID, id)
	if err != nil {
		return writeError(c, err, "Failed to update report")
	}
	return c.JSON(report)
}

func (h *ReportHandler) PotentialMatches(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid report ID")
	}

	candidates, err := h.reportService.PotentialMatches(c.UserContext(), userID, id)
	if err != nil {
		return writeError(c, err, "Failed to rank candidates")
	}
	return c.JSON(fiber.Map{"candidates": candidates})
}

// Rescan is admin-only.
func (h *ReportHandler) Rescan(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid report ID")
	}

	matches, err := h.reportService.Rescan(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "Failed to rescan report")
	}
	return c.JSON(fiber.Map{"matches": matches})
}
