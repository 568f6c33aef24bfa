package flats

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/bms-backend/internal/apartments"
	"github.com/ishantswami13-crypto/bms-backend/internal/audit"
	"github.com/ishantswami13-crypto/bms-backend/internal/request"
)

const (
	defaultPage  = 1
	defaultLimit = 6
	maxLimit     = 100
)

type Repository interface {
	Insert(ctx context.Context, f *Flat) error
	Page(ctx context.Context, skip, limit int64) ([]Flat, int64, error)
	ListByOwner(ctx context.Context, email string) ([]Detail, error)
	Detail(ctx context.Context, id string) (Detail, error)
	SearchRent(ctx context.Context, rng RentRange) ([]Flat, error)
}

type ApartmentLookup interface {
	FindByID(ctx context.Context, id string) (apartments.Apartment, error)
}

type Handler struct {
	Repo       Repository
	Apartments ApartmentLookup
	Audit      *audit.Log
}

func NewHandler(repo Repository, apts ApartmentLookup, log *audit.Log) *Handler {
	return &Handler{Repo: repo, Apartments: apts, Audit: log}
}

// Create handles POST /flats/:email.
func (h *Handler) Create(c *fiber.Ctx) error {
	if _, err := request.RequiredParam(c, "email"); err != nil {
		return err
	}
	var body createRequest
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	body.ApartID = strings.TrimSpace(body.ApartID)
	body.Unit.FlatNo = strings.TrimSpace(body.Unit.FlatNo)

	ctx := c.UserContext()
	if _, err := h.Apartments.FindByID(ctx, body.ApartID); err != nil {
		return fmt.Errorf("apartment: %w", err)
	}

	f := &Flat{
		ApartID:   body.ApartID,
		Floor:     body.Floor,
		Unit:      body.Unit,
		Rent:      body.Rent,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Repo.Insert(ctx, f); err != nil {
		return fmt.Errorf("flat %s on floor %d: %w", f.Unit.FlatNo, f.Floor, err)
	}
	h.Audit.Record(c, "create", "flat", f.ID.Hex(), map[string]any{"apartId": f.ApartID})
	return c.Status(fiber.StatusCreated).JSON(f)
}

// List handles GET /flats?page=&limit=.
func (h *Handler) List(c *fiber.Ctx) error {
	page, _, err := request.QueryInt(c, "page")
	if err != nil {
		return err
	}
	limit, _, err := request.QueryInt(c, "limit")
	if err != nil {
		return err
	}
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page-1 > math.MaxInt64/limit {
		return fiber.NewError(fiber.StatusBadRequest, "page out of range")
	}

	items, total, err := h.Repo.Page(c.UserContext(), (page-1)*limit, limit)
	if err != nil {
		return err
	}
	return c.JSON(Page{
		Flats:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	})
}

func totalPages(total, limit int64) int64 {
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// ListOwned handles GET /flats/:email.
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

// Details handles GET /flats-details/:id.
func (h *Handler) Details(c *fiber.Ctx) error {
	id, err := request.RequiredParam(c, "id")
	if err != nil {
		return err
	}
	d, err := h.Repo.Detail(c.UserContext(), id)
	if err != nil {
		return fmt.Errorf("flat: %w", err)
	}
	return c.JSON(d)
}

// Search handles GET /searching?min=&max= as an inclusive numeric rent range.
func (h *Handler) Search(c *fiber.Ctx) error {
	lo, _, err := request.QueryInt(c, "min")
	if err != nil {
		return err
	}
	hi, hasMax, err := request.QueryInt(c, "max")
	if err != nil {
		return err
	}
	rng := RentRange{Min: lo}
	if hasMax {
		if hi < lo {
			return fiber.NewError(fiber.StatusBadRequest, "min must not exceed max")
		}
		rng.Max = &hi
	}

	items, err := h.Repo.SearchRent(c.UserContext(), rng)
	if err != nil {
		return err
	}
	return c.JSON(items)
}
