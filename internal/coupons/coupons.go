// Package coupons stores admin-issued discount codes. Codes are kept upper
// case and are unique.
package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ishantswami13-crypto/bms-backend/internal/audit"
	"github.com/ishantswami13-crypto/bms-backend/internal/request"
	"github.com/ishantswami13-crypto/bms-backend/internal/store"
)

type Coupon struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Code        string             `bson:"code" json:"code"`
	Discount    int                `bson:"discount" json:"discount"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ExpiresAt   *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CreatedBy   string             `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type createRequest struct {
	Code        string     `json:"code" validate:"required,max=32"`
	Discount    int        `json:"discount" validate:"min=1,max=100"`
	Description string     `json:"description" validate:"max=280"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// NormalizeCode is the form codes are stored and matched in.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type Repository interface {
	Insert(ctx context.Context, cp *Coupon) error
	List(ctx context.Context) ([]Coupon, error)
	FindByCode(ctx context.Context, code string) (Coupon, error)
}

type MongoRepository struct {
	Coll    *mongo.Collection
	Timeout time.Duration
}

func NewRepository(coll *mongo.Collection, timeout time.Duration) *MongoRepository {
	return &MongoRepository{Coll: coll, Timeout: timeout}
}

// Insert relies on the unique code index; a duplicate is apperr.ErrConflict.
func (r *MongoRepository) Insert(ctx context.Context, cp *Coupon) error {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	if cp.ID.IsZero() {
		cp.ID = primitive.NewObjectID()
	}
	_, err := r.Coll.InsertOne(ctx, cp)
	return store.Translate(err)
}

func (r *MongoRepository) List(ctx context.Context) ([]Coupon, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cur, err := r.Coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []Coupon{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByCode matches the stored code exactly.
func (r *MongoRepository) FindByCode(ctx context.Context, code string) (Coupon, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var out Coupon
	if err := r.Coll.FindOne(ctx, bson.M{"code": code}).Decode(&out); err != nil {
		return Coupon{}, store.Translate(err)
	}
	return out, nil
}

type Handler struct {
	Repo  Repository
	Audit *audit.Log
	now   func() time.Time
}

func NewHandler(repo Repository, log *audit.Log) *Handler {
	return &Handler{Repo: repo, Audit: log, now: time.Now}
}

// Create handles POST /coupon/:email.
func (h *Handler) Create(c *fiber.Ctx) error {
	email, err := request.RequiredParam(c, "email")
	if err != nil {
		return err
	}
	var body createRequest
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	code := NormalizeCode(body.Code)
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code required")
	}

	cp := &Coupon{
		Code:        code,
		Discount:    body.Discount,
		Description: strings.TrimSpace(body.Description),
		ExpiresAt:   body.ExpiresAt,
		CreatedBy:   email,
		CreatedAt:   h.now().UTC(),
	}
	if err := h.Repo.Insert(c.UserContext(), cp); err != nil {
		return fmt.Errorf("coupon %s: %w", code, err)
	}
	h.Audit.Record(c, "create", "coupon", cp.ID.Hex(), map[string]any{"code": code})
	return c.Status(fiber.StatusCreated).JSON(cp)
}

// List serves both the admin and the public coupon listing.
func (h *Handler) List(c *fiber.Ctx) error {
	items, err := h.Repo.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// Get handles GET /coupons/:code. The code is not normalized. A coupon past
// its expiresAt is answered with 410 so it cannot be applied.
func (h *Handler) Get(c *fiber.Ctx) error {
	code, err := request.RequiredParam(c, "code")
	if err != nil {
		return err
	}
	cp, err := h.Repo.FindByCode(c.UserContext(), code)
	if err != nil {
		return fmt.Errorf("coupon %s: %w", code, err)
	}
	if cp.ExpiresAt != nil && !h.now().Before(*cp.ExpiresAt) {
		return fiber.NewError(fiber.StatusGone, "coupon expired")
	}
	return c.JSON(cp)
}
