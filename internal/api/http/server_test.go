package http

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/forbidden", func(fiber.Ctx) error { return fiber.ErrForbidden })
	app.Get("/boom", func(fiber.Ctx) error { return errors.New("db down") })

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/forbidden", fiber.StatusForbidden, `{"error":"Forbidden"}`},
		{"/boom", fiber.StatusInternalServerError, `{"error":"internal server error"}`},
		{"/missing", fiber.StatusNotFound, `"error"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tt.path, nil))
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Contains(t, string(body), tt.body)
		})
	}
}
