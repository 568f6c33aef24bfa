package request

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// Param returns a trimmed, unescaped path parameter. The value is copied out
// of the request buffer so it can outlive the handler.
func Param(c *fiber.Ctx, key string) string {
	raw := utils.CopyString(c.Params(key))
	if v, err := url.PathUnescape(raw); err == nil {
		raw = v
	}
	return strings.TrimSpace(raw)
}

// RequiredParam is Param that rejects empty values with 400.
func RequiredParam(c *fiber.Ctx, key string) (string, error) {
	v := Param(c, key)
	if v == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, key+" required")
	}
	return v, nil
}

// QueryInt parses an optional non-negative integer query value. ok is false
// when the key is absent or blank.
func QueryInt(c *fiber.Ctx, key string) (n int64, ok bool, err error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, false, nil
	}
	n, err = strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false, fiber.NewError(fiber.StatusBadRequest, key+" must be a non-negative integer")
	}
	return n, true, nil
}
