package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/ishantswami13-crypto/bms-backend/internal/logging"
	"github.com/ishantswami13-crypto/bms-backend/internal/metrics"
	"github.com/ishantswami13-crypto/bms-backend/internal/money"
	"github.com/ishantswami13-crypto/bms-backend/internal/request"
)

type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string) (*PaymentIntent, error)
}

type PaymentRepository interface {
	Insert(ctx context.Context, p *Payment) error
	ListByEmail(ctx context.Context, email string) ([]Payment, error)
}

// OwnerCheck lets a caller through to payments recorded for an email.
type OwnerCheck interface {
	Allow(c *fiber.Ctx, owner string) error
}

type Handler struct {
	Provider IntentCreator
	Payments PaymentRepository
	Owners   OwnerCheck
	Currency string
	Log      logrus.FieldLogger
	now      func() time.Time
}

func NewHandler(provider IntentCreator, payments PaymentRepository, owners OwnerCheck, currency string, log logrus.FieldLogger) *Handler {
	if currency == "" {
		currency = "usd"
	}
	return &Handler{Provider: provider, Payments: payments, Owners: owners, Currency: currency, Log: log, now: time.Now}
}

type intentRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

type intentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreateIntent handles POST /create-payment-intent. amount is in major units
// of the configured currency.
func (h *Handler) CreateIntent(c *fiber.Ctx) error {
	var body intentRequest
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	minor, err := money.ToMinorUnits(body.Amount, h.Currency)
	if err != nil || minor <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be a positive number")
	}

	intent, err := h.Provider.CreatePaymentIntent(c.UserContext(), minor, h.Currency)
	metrics.RecordPaymentIntent(err == nil)
	if err != nil {
		h.logger(c).WithError(err).WithField("amount", minor).Error("create payment intent failed")
		var pe *ProviderError
		if errors.As(err, &pe) && pe.Message != "" {
			return fiber.NewError(fiber.StatusBadGateway, pe.Message)
		}
		return fiber.NewError(fiber.StatusBadGateway, "payment provider unavailable")
	}
	return c.JSON(intentResponse{ClientSecret: intent.ClientSecret})
}

type paymentRequest struct {
	Email         string  `json:"email" validate:"required,email"`
	Amount        float64 `json:"amount" validate:"gt=0"`
	Month         string  `json:"month"`
	Coupon        string  `json:"coupon"`
	TransactionID string  `json:"transactionId" validate:"required"`
}

// Record handles POST /payments.
func (h *Handler) Record(c *fiber.Ctx) error {
	var body paymentRequest
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	email := strings.TrimSpace(body.Email)
	if err := h.Owners.Allow(c, email); err != nil {
		return err
	}
	p := &Payment{
		Email:         email,
		Amount:        body.Amount,
		Month:         strings.TrimSpace(body.Month),
		Coupon:        strings.ToUpper(strings.TrimSpace(body.Coupon)),
		TransactionID: strings.TrimSpace(body.TransactionID),
		CreatedAt:     h.now().UTC(),
	}
	if err := h.Payments.Insert(c.UserContext(), p); err != nil {
		return fmt.Errorf("payment: %w", err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// History handles GET /payments/:email.
func (h *Handler) History(c *fiber.Ctx) error {
	email, err := request.RequiredParam(c, "email")
	if err != nil {
		return err
	}
	if err := h.Owners.Allow(c, email); err != nil {
		return err
	}
	items, err := h.Payments.ListByEmail(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (h *Handler) logger(c *fiber.Ctx) logrus.FieldLogger {
	if h.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return logging.FromCtx(h.Log, c)
}
