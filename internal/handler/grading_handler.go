package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nbgrade/nbgrade-api/internal/dto"
	"github.com/nbgrade/nbgrade-api/internal/service"
	"github.com/nbgrade/nbgrade-api/internal/utils"
)

// GradingHandler handles grading runs and their history.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs a grading handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register wires grading routes.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("", h.grade)
	router.Get("", h.history)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Grade(c.Context(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
		h.logger.Error().Err(err).Msg("grading run failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade submission")
	}

	return utils.SendSuccess(c, "submission graded", result)
}

func (h *GradingHandler) history(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	runs, err := h.service.History(c.Context(), limit)
	if err != nil {
		if errors.Is(err, service.ErrHistoryUnavailable) {
			return utils.SendError(c, fiber.StatusServiceUnavailable, "grading history is not configured")
		}
		h.logger.Error().Err(err).Msg("failed to list grading runs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list grading runs")
	}

	return utils.SendSuccess(c, "grading runs retrieved", runs)
}
