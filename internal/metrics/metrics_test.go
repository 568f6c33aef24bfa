package metrics

import (
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishantswami13-crypto/bms-backend/internal/apperr"
)

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/flats-details/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/flats-details/66a1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	RecordPaymentIntent(true)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	assert.Contains(t, string(body), `bms_http_requests_total{method="GET",route="/flats-details/:id",status="200"}`)
	assert.Contains(t, string(body), `bms_billing_payment_intents_total{result="ok"}`)
}

func TestMiddlewareLabelsWrappedErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(nil)})
	app.Use(Middleware())
	app.Get("/coupons/:code", func(c *fiber.Ctx) error {
		return fmt.Errorf("coupon: %w", apperr.ErrNotFound)
	})
	app.Get("/metrics", Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/coupons/NOPE", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	assert.Contains(t, string(body), `bms_http_requests_total{method="GET",route="/coupons/:code",status="404"}`)
	assert.NotContains(t, string(body), `route="/coupons/:code",status="500"`)
}
