package apperr

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{fiber.NewError(fiber.StatusForbidden, "admin only"), 403, "admin only"},
		{fmt.Errorf("flat 3A: %w", ErrConflict), 409, "flat 3A: already exists"},
		{fmt.Errorf("coupon: %w", ErrNotFound), 404, "coupon: not found"},
		{fmt.Errorf("apartment id: %w", ErrInvalidID), 400, "apartment id: invalid id"},
		{errors.New("socket closed"), 500, "internal server error"},
	}
	for _, tc := range cases {
		code, msg := Classify(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
		assert.Equal(t, tc.msg, msg)
	}
}

func TestHandlerRendersJSON(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: Handler(nil)})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("driver exploded") })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"internal server error"}`, string(body))
}
