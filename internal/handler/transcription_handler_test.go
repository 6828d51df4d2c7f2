package handler_test

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nbgrade/nbgrade-api/internal/dto"
	"github.com/nbgrade/nbgrade-api/internal/handler"
	"github.com/nbgrade/nbgrade-api/internal/service"
)

type mockTranscriptionService struct {
	lastFilename string
	response     dto.TranscriptionResponse
	err          error
}

func (m *mockTranscriptionService) Transcribe(_ context.Context, file *multipart.FileHeader) (dto.TranscriptionResponse, error) {
	if file != nil {
		m.lastFilename = file.Filename
	}
	if m.err != nil {
		return dto.TranscriptionResponse{}, m.err
	}
	return m.response, nil
}

func newTranscriptionApp(svc service.TranscriptionService) *fiber.App {
	app := fiber.New()
	handler.NewTranscriptionHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/videos"))
	return app
}

func TestTranscriptionHandler_TranscribeSuccess(t *testing.T) {
	svc := &mockTranscriptionService{response: dto.TranscriptionResponse{
		Transcript:       "hello from the video",
		Duration:         420,
		OriginalSize:     1024,
		AudioSize:        128,
		CompressionRatio: 88,
	}}
	app := newTranscriptionApp(svc)

	req := newUploadRequest(t, "/api/v1/videos/transcribe", "video", "talk.mp4", []byte("fake video bytes"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "talk.mp4", svc.lastFilename)

	var response struct {
		Success bool                      `json:"success"`
		Data    dto.TranscriptionResponse `json:"data"`
		Message string                    `json:"message"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "video transcribed", response.Message)
	require.Equal(t, "hello from the video", response.Data.Transcript)
	require.Equal(t, 420, response.Data.Duration)
}

func TestTranscriptionHandler_TranscribeMissingFile(t *testing.T) {
	app := newTranscriptionApp(&mockTranscriptionService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/transcribe", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTranscriptionHandler_TranscribeErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "too large", err: service.ErrVideoTooLarge, statusCode: fiber.StatusRequestEntityTooLarge},
		{name: "not a video", err: service.ErrVideoTypeNotAllowed, statusCode: fiber.StatusBadRequest},
		{name: "generic", err: errors.New("whisper down"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTranscriptionApp(&mockTranscriptionService{err: tc.err})

			req := newUploadRequest(t, "/api/v1/videos/transcribe", "video", "talk.mp4", []byte("fake video bytes"))
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}
