package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tatlico/tatlico-backend/api/controllers"
	"github.com/tatlico/tatlico-backend/api/middleware"
	"github.com/tatlico/tatlico-backend/internal/auth"
	"github.com/tatlico/tatlico-backend/internal/pricerequests"
	"github.com/tatlico/tatlico-backend/internal/pricing"
	products "github.com/tatlico/tatlico-backend/internal/products"
	"github.com/tatlico/tatlico-backend/pkg/auth/session"
	"github.com/tatlico/tatlico-backend/pkg/config"
	"github.com/tatlico/tatlico-backend/pkg/db"
	"github.com/tatlico/tatlico-backend/pkg/logger"
	"github.com/tatlico/tatlico-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	Sessions        session.AccessSessionChecker
	Calculator      *pricing.Calculator
	AuthService     auth.Service
	ProductService  products.Service
	RequestService  pricerequests.Service
	DLQReader       controllers.DLQReader
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// Interface conversions below must see an untyped nil when redis is
	// absent, otherwise the middleware nil checks never fire.
	var (
		idemStore   redis.IdempotencyStore
		redisPinger redis.Pinger
	)
	if deps.Redis != nil {
		idemStore = deps.Redis
		redisPinger = deps.Redis
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	loginLimiter := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil {
		loginLimiter = middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(loginLimiter).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Post("/pricing/landed-cost", controllers.LandedCost(deps.Calculator, logg))

		r.Get("/products", controllers.ListProducts(deps.ProductService, logg))
		r.Get("/products/{productID}", controllers.GetProduct(deps.ProductService, logg))

		r.Post("/price-requests", controllers.CreatePriceRequest(deps.RequestService, logg))
		r.Post("/price-requests/bulk", controllers.BulkCreatePriceRequests(deps.RequestService, logg))
		r.Get("/price-requests", controllers.ListPriceRequests(deps.RequestService, logg))
		r.Get("/price-requests/{requestID}", controllers.GetPriceRequest(deps.RequestService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.AdminPing())

		r.Post("/users", controllers.AdminCreateUser(deps.AuthService, logg))

		r.Post("/price-requests/{requestID}/decision", controllers.DecidePriceRequest(deps.RequestService, logg))

		r.Post("/products", controllers.AdminCreateProduct(deps.ProductService, logg))
		r.Patch("/products/{productID}/prices", controllers.AdminUpdateProductPrices(deps.ProductService, logg))
		r.Post("/products/prices/bulk", controllers.AdminBulkApplyPrices(deps.ProductService, logg))

		r.Get("/outbox/dlq", controllers.AdminListDLQ(deps.DLQReader, logg))
		r.Get("/outbox/dlq/{eventID}", controllers.AdminGetDLQEvent(deps.DLQReader, logg))
	})

	return r
}
