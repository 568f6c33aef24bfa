package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/bms-backend/internal/apperr"
	"github.com/ishantswami13-crypto/bms-backend/internal/auth"
	"github.com/ishantswami13-crypto/bms-backend/internal/users"
)

// UserLookup is the slice of the user repository the guard needs.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
}

// VerifyAdmin must run after auth.VerifyToken. It re-reads the caller's role
// on every request so demotions take effect immediately.
func VerifyAdmin(lookup UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := requireAdmin(c, lookup, "admin only"); err != nil {
			return err
		}
		return c.Next()
	}
}

// Access answers whether the caller may act on records owned by an email:
// the owner may, and so may any admin.
type Access struct {
	Lookup UserLookup
}

func NewAccess(lookup UserLookup) *Access {
	return &Access{Lookup: lookup}
}

// Allow returns nil when the token's email is owner or belongs to an admin.
func (a *Access) Allow(c *fiber.Ctx, owner string) error {
	email := auth.EmailFrom(c)
	if email != "" && strings.EqualFold(email, owner) {
		return nil
	}
	return requireAdmin(c, a.Lookup, "not your record")
}

func requireAdmin(c *fiber.Ctx, lookup UserLookup, denied string) error {
	email := auth.EmailFrom(c)
	if email == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing token")
	}

	u, err := lookup.FindByEmail(c.UserContext(), email)
	if errors.Is(err, apperr.ErrNotFound) {
		return fiber.NewError(fiber.StatusForbidden, denied)
	}
	if err != nil {
		return err
	}
	if u.EffectiveRole() != users.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, denied)
	}
	return nil
}
