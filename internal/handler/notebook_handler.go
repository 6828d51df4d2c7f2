package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nbgrade/nbgrade-api/internal/service"
	"github.com/nbgrade/nbgrade-api/internal/utils"
)

// NotebookHandler handles notebook extraction uploads.
type NotebookHandler struct {
	service service.NotebookService
	logger  zerolog.Logger
}

// NewNotebookHandler constructs a notebook handler.
func NewNotebookHandler(service service.NotebookService, logger zerolog.Logger) *NotebookHandler {
	return &NotebookHandler{
		service: service,
		logger:  logger.With().Str("component", "notebook_handler").Logger(),
	}
}

// Register wires notebook routes.
func (h *NotebookHandler) Register(router fiber.Router) {
	router.Post("/extract", h.extract)
}

func (h *NotebookHandler) extract(c *fiber.Ctx) error {
	file, err := c.FormFile("notebook")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "notebook file is required")
	}

	response, err := h.service.Extract(c.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotebookTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "notebook exceeds maximum allowed size")
		case errors.Is(err, service.ErrNotebookInvalid):
			return utils.SendError(c, fiber.StatusBadRequest, "notebook file is not a valid notebook document")
		default:
			h.logger.Error().Err(err).Msg("failed to extract notebook content")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to extract notebook content")
		}
	}

	return utils.SendSuccess(c, "notebook content extracted", response)
}
