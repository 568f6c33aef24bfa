package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ishantswami13-crypto/bms-backend/internal/admin"
	"github.com/ishantswami13-crypto/bms-backend/internal/agreements"
	"github.com/ishantswami13-crypto/bms-backend/internal/apartments"
	"github.com/ishantswami13-crypto/bms-backend/internal/apperr"
	"github.com/ishantswami13-crypto/bms-backend/internal/audit"
	"github.com/ishantswami13-crypto/bms-backend/internal/auth"
	"github.com/ishantswami13-crypto/bms-backend/internal/billing"
	"github.com/ishantswami13-crypto/bms-backend/internal/cities"
	"github.com/ishantswami13-crypto/bms-backend/internal/config"
	"github.com/ishantswami13-crypto/bms-backend/internal/coupons"
	"github.com/ishantswami13-crypto/bms-backend/internal/flats"
	"github.com/ishantswami13-crypto/bms-backend/internal/logging"
	"github.com/ishantswami13-crypto/bms-backend/internal/metrics"
	"github.com/ishantswami13-crypto/bms-backend/internal/router"
	"github.com/ishantswami13-crypto/bms-backend/internal/store"
	"github.com/ishantswami13-crypto/bms-backend/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	db, err := store.Connect(connectCtx, cfg.MongoConnURI(), cfg.MongoDB)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("connect mongo")
	}
	log.WithField("db", cfg.MongoDB).Info("connected to mongo")

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = db.EnsureIndexes(indexCtx)
	cancel()
	switch {
	case errors.Is(err, store.ErrRequiredIndex):
		log.WithError(err).Fatal("ensure indexes")
	case err != nil:
		log.WithError(err).Warn("ensure indexes")
	}

	app := fiber.New(fiber.Config{
		AppName:      "bms",
		ErrorHandler: apperr.Handler(log),
	})
	app.Use(recover.New())
	app.Use(router.CorsMiddleware(cfg.AllowedOrigins()))
	app.Use(logging.RequestLogger(log))
	app.Use(metrics.Middleware())

	r := buildRouter(cfg, db, log)
	r.RegisterRoutes(app)

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("listening")
		serveErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.WithError(err).Error("server stopped")
		}
	case <-ctx.Done():
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Close(closeCtx); err != nil {
		log.WithError(err).Warn("disconnect mongo")
	}
}

func buildRouter(cfg *config.Config, db *store.Store, log *logrus.Logger) *router.Router {
	timeout := cfg.DBTimeout
	auditLog := audit.New(db.Collection(store.AuditLogs), log)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	userRepo := users.NewRepository(db.Collection(store.Users), timeout)
	apartmentRepo := apartments.NewRepository(db.Collection(store.Apartments), timeout)
	flatRepo := flats.NewRepository(db.Collection(store.Flats), timeout)
	agreementRepo := agreements.NewRepository(db.Collection(store.Agreements), timeout)
	owners := admin.NewAccess(userRepo)

	decider := &agreements.Decider{
		Agreements: agreementRepo,
		Users:      userRepo,
		Inventory:  apartmentRepo,
	}
	stripe := billing.NewStripeClient(cfg.StripeSecretKey, cfg.StripeAPIBase)
	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is not set; payment intents will fail")
	}
	payments := billing.NewStore(db.Collection(store.Payments), timeout)
	billingHandler := billing.NewHandler(stripe, payments, owners, cfg.PaymentCurrency, log)

	return &router.Router{
		Port:             cfg.Port,
		AuthHandler:      auth.NewHandler(issuer),
		UserHandler:      users.NewHandler(userRepo, auditLog),
		CityHandler:      cities.NewHandler(cities.NewRepository(db.Collection(store.Cities), timeout)),
		ApartmentHandler: apartments.NewHandler(apartmentRepo, auditLog),
		FlatHandler:      flats.NewHandler(flatRepo, apartmentRepo, auditLog),
		CouponHandler:    coupons.NewHandler(coupons.NewRepository(db.Collection(store.Coupons), timeout), auditLog),
		AgreementHandler: agreements.NewHandler(agreementRepo, flatRepo, decider, owners, auditLog),
		BillingHandler:   billingHandler,
		AdminHandler:     admin.NewHandler(&admin.MongoStats{Store: db, Timeout: timeout}),
		Store:            db,
		AuthMW:           issuer.VerifyToken(),
		AdminMW:          admin.VerifyAdmin(userRepo),
		RateLimitMW:      router.RateLimit(cfg.RateLimitMax, cfg.RateLimitWindow),
	}
}
