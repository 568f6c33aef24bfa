// Package apperr holds the error kinds shared by repositories and handlers and
// the Fiber error handler that turns them into HTTP responses.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("already exists")
	ErrInvalidID = errors.New("invalid id")
)

// Handler is installed as fiber.Config.ErrorHandler. Every response body is
// {"error": message}; unknown errors are logged and hidden behind a generic message.
func Handler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, message := Classify(err)
		if code == fiber.StatusInternalServerError && log != nil {
			log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}

// Classify maps an error to an HTTP status and a client-safe message.
func Classify(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.Is(err, ErrInvalidID):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict, err.Error()
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}
