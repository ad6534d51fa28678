package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cronApp(secret string) *fiber.App {
	app := fiber.New()
	app.Post("/cron", CronAuth(secret), func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestCronAuth(t *testing.T) {
	cases := map[string]struct {
		secret string
		header string
		want   int
	}{
		"valid token":    {"s3cret", "Bearer s3cret", fiber.StatusOK},
		"wrong token":    {"s3cret", "Bearer nope", fiber.StatusUnauthorized},
		"missing header": {"s3cret", "", fiber.StatusUnauthorized},
		"not bearer":     {"s3cret", "Basic s3cret", fiber.StatusUnauthorized},
		"empty secret":   {"", "Bearer anything", fiber.StatusServiceUnavailable},
		"empty bearer":   {"s3cret", "Bearer ", fiber.StatusUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			app := cronApp(tc.secret)
			req := httptest.NewRequest("POST", "/cron", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
