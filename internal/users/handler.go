package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/bms-backend/internal/apperr"
	"github.com/ishantswami13-crypto/bms-backend/internal/audit"
	"github.com/ishantswami13-crypto/bms-backend/internal/request"
)

type Repository interface {
	CreateIfAbsent(ctx context.Context, u User) (User, bool, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, email string, from, to Role) error
}

type Handler struct {
	Repo  Repository
	Audit *audit.Log
}

func NewHandler(repo Repository, log *audit.Log) *Handler {
	return &Handler{Repo: repo, Audit: log}
}

// Create returns the stored user for an existing email (200) or inserts a
// new one with role user (201).
func (h *Handler) Create(c *fiber.Ctx) error {
	var body createUserRequest
	if err := request.Bind(c, &body); err != nil {
		return err
	}

	u, created, err := h.Repo.CreateIfAbsent(c.UserContext(), User{
		Email: body.Email,
		Name:  body.Name,
		Photo: body.Photo,
	})
	if err != nil {
		return err
	}
	if created {
		return c.Status(fiber.StatusCreated).JSON(u)
	}
	return c.JSON(u)
}

// Role responds with the bare role string, or null when the user is unknown.
func (h *Handler) Role(c *fiber.Ctx) error {
	email, err := request.RequiredParam(c, "email")
	if err != nil {
		return err
	}
	u, err := h.Repo.FindByEmail(c.UserContext(), email)
	if errors.Is(err, apperr.ErrNotFound) {
		return c.JSON(nil)
	}
	if err != nil {
		return err
	}
	return c.JSON(u.EffectiveRole())
}

func (h *Handler) List(c *fiber.Ctx) error {
	items, err := h.Repo.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// RequestMembership moves a user to pending.
func (h *Handler) RequestMembership(c *fiber.Ctx) error {
	email, err := request.RequiredParam(c, "email")
	if err != nil {
		return err
	}
	u, err := ChangeRole(c.UserContext(), h.Repo, email, RolePending)
	if err != nil {
		return roleError(err)
	}
	return c.JSON(u)
}

// SetRole lets an admin settle a pending request or revoke a membership.
func (h *Handler) SetRole(c *fiber.Ctx) error {
	email, err := request.RequiredParam(c, "email")
	if err != nil {
		return err
	}
	var body roleRequest
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	u, err := ChangeRole(c.UserContext(), h.Repo, email, body.Role)
	if err != nil {
		return roleError(err)
	}
	h.Audit.Record(c, "role_change", "user", email, map[string]any{"role": body.Role})
	return c.JSON(u)
}

// ChangeRole applies a validated role transition and returns the updated user.
func ChangeRole(ctx context.Context, repo Repository, email string, to Role) (User, error) {
	u, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("user %s: %w", email, err)
	}
	from := u.EffectiveRole()
	if !CanTransition(from, to) {
		return User{}, &TransitionError{From: from, To: to}
	}
	if err := repo.UpdateRole(ctx, email, from, to); err != nil {
		return User{}, err
	}
	u.Role = to
	return u, nil
}

func roleError(err error) error {
	var te *TransitionError
	if errors.As(err, &te) {
		return fiber.NewError(fiber.StatusConflict, te.Error())
	}
	return err
}
