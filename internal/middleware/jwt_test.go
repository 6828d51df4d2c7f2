package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/nbgrade/nbgrade-api/internal/middleware"
)

const testSecret = "test-secret"

func newProtectedApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/protected", middleware.JWTProtected(testSecret), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "grader-client",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTProtectedAcceptsValidToken(t *testing.T) {
	app := newProtectedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejectsMissingHeader(t *testing.T) {
	app := newProtectedApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedRejectsWrongSecret(t *testing.T) {
	app := newProtectedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedRejectsMalformedHeader(t *testing.T) {
	app := newProtectedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abcdef")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
