package apartments

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/bms-backend/internal/audit"
	"github.com/ishantswami13-crypto/bms-backend/internal/request"
)

type Repository interface {
	Insert(ctx context.Context, a *Apartment) error
	List(ctx context.Context) ([]Apartment, error)
	ListByOwner(ctx context.Context, email string) ([]Apartment, error)
	FindByID(ctx context.Context, id string) (Apartment, error)
}

type Handler struct {
	Repo  Repository
	Audit *audit.Log
}

func NewHandler(repo Repository, log *audit.Log) *Handler {
	return &Handler{Repo: repo, Audit: log}
}

// Create handles POST /apartments/:email. Every flat starts out available.
func (h *Handler) Create(c *fiber.Ctx) error {
	email, err := request.RequiredParam(c, "email")
	if err != nil {
		return err
	}
	var body createRequest
	if err := request.Bind(c, &body); err != nil {
		return err
	}

	a := &Apartment{
		Name:          body.Name,
		Address:       body.Address,
		City:          body.City,
		Image:         body.Image,
		Owner:         Owner{Email: email, Name: body.OwnerName},
		Floors:        body.Floors,
		FlatQty:       body.FlatQty,
		AvailableFlat: body.FlatQty,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.Repo.Insert(c.UserContext(), a); err != nil {
		return err
	}
	h.Audit.Record(c, "create", "apartment", a.ID.Hex(), map[string]any{"flatQty": a.FlatQty})
	return c.Status(fiber.StatusCreated).JSON(a)
}

// ListOwned handles GET /apartments/:email.
func (h *Handler) ListOwned(c *fiber.Ctx) error {
	email, err := request.RequiredParam(c, "email")
	if err != nil {
		return err
	}
	items, err := h.Repo.ListByOwner(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// List handles the public GET /apartments used by the flat form.
func (h *Handler) List(c *fiber.Ctx) error {
	items, err := h.Repo.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := request.RequiredParam(c, "id")
	if err != nil {
		return err
	}
	a, err := h.Repo.FindByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(a)
}
