package agreements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/bms-backend/internal/apperr"
	"github.com/ishantswami13-crypto/bms-backend/internal/audit"
	"github.com/ishantswami13-crypto/bms-backend/internal/flats"
	"github.com/ishantswami13-crypto/bms-backend/internal/request"
)

type FlatLookup interface {
	FindByID(ctx context.Context, id string) (flats.Flat, error)
}

// OwnerCheck lets a caller through to records owned by an email.
type OwnerCheck interface {
	Allow(c *fiber.Ctx, owner string) error
}

type Handler struct {
	Repo    Repository
	Flats   FlatLookup
	Decider *Decider
	Owners  OwnerCheck
	Audit   *audit.Log
	now     func() time.Time
}

func NewHandler(repo Repository, fl FlatLookup, d *Decider, owners OwnerCheck, log *audit.Log) *Handler {
	return &Handler{Repo: repo, Flats: fl, Decider: d, Owners: owners, Audit: log, now: time.Now}
}

// Create handles POST /agreement-request. Placement and rent come from the
// stored flat when it can be found, otherwise from the body.
func (h *Handler) Create(c *fiber.Ctx) error {
	var body createRequest
	if err := request.Bind(c, &body); err != nil {
		return err
	}

	a := &Agreement{
		UserEmail: strings.TrimSpace(body.UserEmail),
		UserName:  strings.TrimSpace(body.UserName),
		FlatID:    strings.TrimSpace(body.FlatID),
		ApartID:   strings.TrimSpace(body.ApartID),
		Floor:     body.Floor,
		FlatNo:    strings.TrimSpace(body.FlatNo),
		Rent:      body.Rent,
		Status:    StatusPending,
		CreatedAt: h.now().UTC(),
	}

	ctx := c.UserContext()
	f, err := h.Flats.FindByID(ctx, a.FlatID)
	switch {
	case err == nil:
		a.ApartID = f.ApartID
		a.Floor = f.Floor
		a.FlatNo = f.Unit.FlatNo
		a.Rent = f.Rent
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrInvalidID):
	default:
		return err
	}

	if err := h.Repo.Insert(ctx, a); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *Handler) List(c *fiber.Ctx) error {
	items, err := h.Repo.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// ListByEmail handles GET /agreement/:email.
func (h *Handler) ListByEmail(c *fiber.Ctx) error {
	email, err := request.RequiredParam(c, "email")
	if err != nil {
		return err
	}
	if err := h.Owners.Allow(c, email); err != nil {
		return err
	}
	items, err := h.Repo.ListByEmail(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// Decide handles PATCH /agreements/:id.
func (h *Handler) Decide(c *fiber.Ctx) error {
	id, err := request.RequiredParam(c, "id")
	if err != nil {
		return err
	}
	var body decideRequest
	if err := request.Bind(c, &body); err != nil {
		return err
	}

	a, err := h.Decider.Decide(c.UserContext(), id, body.Status)
	if err != nil {
		return err
	}
	h.Audit.Record(c, string(body.Status), "agreement", id, map[string]any{"userEmail": a.UserEmail})
	return c.JSON(a)
}

// PDF handles GET /agreements/:id/pdf.
func (h *Handler) PDF(c *fiber.Ctx) error {
	id, err := request.RequiredParam(c, "id")
	if err != nil {
		return err
	}
	a, err := h.Repo.FindByID(c.UserContext(), id)
	if err != nil {
		return fmt.Errorf("agreement: %w", err)
	}
	if err := h.Owners.Allow(c, a.UserEmail); err != nil {
		return err
	}
	raw, err := RenderPDF(a, h.now())
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="bms-agreement-`+id+`.pdf"`)
	return c.Send(raw)
}
