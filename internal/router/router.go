package router

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/bms-backend/internal/admin"
	"github.com/ishantswami13-crypto/bms-backend/internal/agreements"
	"github.com/ishantswami13-crypto/bms-backend/internal/apartments"
	"github.com/ishantswami13-crypto/bms-backend/internal/auth"
	"github.com/ishantswami13-crypto/bms-backend/internal/billing"
	"github.com/ishantswami13-crypto/bms-backend/internal/cities"
	"github.com/ishantswami13-crypto/bms-backend/internal/coupons"
	"github.com/ishantswami13-crypto/bms-backend/internal/flats"
	"github.com/ishantswami13-crypto/bms-backend/internal/metrics"
	"github.com/ishantswami13-crypto/bms-backend/internal/users"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	Port string

	AuthHandler      *auth.Handler
	UserHandler      *users.Handler
	CityHandler      *cities.Handler
	ApartmentHandler *apartments.Handler
	FlatHandler      *flats.Handler
	CouponHandler    *coupons.Handler
	AgreementHandler *agreements.Handler
	BillingHandler   *billing.Handler
	AdminHandler     *admin.Handler
	Store            Pinger
	AuthMW           fiber.Handler
	AdminMW          fiber.Handler
	RateLimitMW      fiber.Handler
}

func (r *Router) RegisterRoutes(app *fiber.App) {
	app.Get("/", r.home)
	app.Get("/health", r.health)
	app.Get("/metrics", metrics.Handler())

	limit := r.RateLimitMW
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}
	adminOnly := []fiber.Handler{r.AuthMW, r.AdminMW}

	if r.AuthHandler != nil {
		app.Post("/jwt", limit, r.AuthHandler.IssueToken)
	}

	if r.UserHandler != nil {
		app.Post("/users", r.UserHandler.Create)
		app.Get("/user-role/:email", r.UserHandler.Role)
		app.Get("/users/:email", append(adminOnly, r.UserHandler.List)...)
		app.Patch("/member-request/:email", r.UserHandler.RequestMembership)
		app.Patch("/users/role/:email", append(adminOnly, r.UserHandler.SetRole)...)
	}

	if r.CityHandler != nil {
		app.Get("/cities", r.CityHandler.List)
	}

	if r.ApartmentHandler != nil {
		app.Post("/apartments/:email", append(adminOnly, r.ApartmentHandler.Create)...)
		app.Get("/apartments/:email", append(adminOnly, r.ApartmentHandler.ListOwned)...)
		app.Get("/apartments", r.ApartmentHandler.List)
		app.Get("/apartment/:id", r.ApartmentHandler.Get)
	}

	if r.FlatHandler != nil {
		app.Post("/flats/:email", append(adminOnly, r.FlatHandler.Create)...)
		app.Get("/flats", r.FlatHandler.List)
		app.Get("/flats/:email", append(adminOnly, r.FlatHandler.ListOwned)...)
		app.Get("/flats-details/:id", r.FlatHandler.Details)
		app.Get("/searching", r.FlatHandler.Search)
	}

	if r.CouponHandler != nil {
		app.Post("/coupon/:email", append(adminOnly, r.CouponHandler.Create)...)
		app.Get("/coupons", append(adminOnly, r.CouponHandler.List)...)
		app.Get("/coupons-pup", r.CouponHandler.List)
		app.Get("/coupons/:code", r.CouponHandler.Get)
	}

	if r.AgreementHandler != nil {
		app.Post("/agreement-request", r.AgreementHandler.Create)
		app.Get("/agreements", append(adminOnly, r.AgreementHandler.List)...)
		app.Get("/agreement/:email", r.AuthMW, r.AgreementHandler.ListByEmail)
		app.Patch("/agreements/:id", append(adminOnly, r.AgreementHandler.Decide)...)
		app.Get("/agreements/:id/pdf", r.AuthMW, r.AgreementHandler.PDF)
	}

	if r.BillingHandler != nil {
		app.Post("/create-payment-intent", limit, r.BillingHandler.CreateIntent)
		app.Post("/payments", r.AuthMW, r.BillingHandler.Record)
		app.Get("/payments/:email", r.AuthMW, r.BillingHandler.History)
	}

	if r.AdminHandler != nil {
		app.Get("/admin-stats/:email", append(adminOnly, r.AdminHandler.Overview)...)
	}
}

func (r *Router) home(c *fiber.Ctx) error {
	c.Type("html")
	return c.SendString(fmt.Sprintf("<h1>BMS is running on port %s</h1>", html.EscapeString(r.Port)))
}

func (r *Router) health(c *fiber.Ctx) error {
	if r.Store != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := r.Store.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false, "db": "unreachable"})
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}
