package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nbgrade/nbgrade-api/internal/service"
	"github.com/nbgrade/nbgrade-api/internal/utils"
)

// TranscriptionHandler handles video transcription uploads.
type TranscriptionHandler struct {
	service service.TranscriptionService
	logger  zerolog.Logger
}

// NewTranscriptionHandler constructs a transcription handler.
func NewTranscriptionHandler(service service.TranscriptionService, logger zerolog.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{
		service: service,
		logger:  logger.With().Str("component", "transcription_handler").Logger(),
	}
}

// Register wires transcription routes.
func (h *TranscriptionHandler) Register(router fiber.Router) {
	router.Post("/transcribe", h.transcribe)
}

func (h *TranscriptionHandler) transcribe(c *fiber.Ctx) error {
	file, err := c.FormFile("video")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "video file is required")
	}

	response, err := h.service.Transcribe(c.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVideoTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "video exceeds maximum allowed size")
		case errors.Is(err, service.ErrVideoTypeNotAllowed):
			return utils.SendError(c, fiber.StatusBadRequest, "uploaded file is not a video")
		default:
			h.logger.Error().Err(err).Msg("failed to transcribe video")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to transcribe video")
		}
	}

	return utils.SendSuccess(c, "video transcribed", response)
}
