package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/nbgrade/nbgrade-api/internal/config"
	"github.com/nbgrade/nbgrade-api/internal/router"
)

func TestRegisterExposesHealthAndMetrics(t *testing.T) {
	app := fiber.New()
	cfg := config.Config{AppName: "NBGrade API", AppEnv: "test"}
	router.Register(app, cfg, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "NBGrade API", resp.Header.Get("X-Application"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRegisterSkipsRoutesWithoutHandlers(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "NBGrade API"}, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/gradings", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
