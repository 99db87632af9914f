package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kynkyro/shaderstore-backend/api/controllers"
	"github.com/kynkyro/shaderstore-backend/api/middleware"
	cartstore "github.com/kynkyro/shaderstore-backend/internal/cart"
	"github.com/kynkyro/shaderstore-backend/internal/checkout"
	"github.com/kynkyro/shaderstore-backend/internal/orders"
	"github.com/kynkyro/shaderstore-backend/pkg/config"
	"github.com/kynkyro/shaderstore-backend/pkg/logger"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              controllers.Pinger
	Redis           controllers.Pinger
	Idempotency     middleware.IdempotencyStore
	CartStore       *cartstore.Store
	Checkout        *checkout.Orchestrator
	Orders          orders.Service
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CartSession(cfg.CartAuth, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartStore, logg))
			r.Delete("/", controllers.CartClear(deps.CartStore, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartStore, logg))
			r.Patch("/items/{id}", controllers.CartUpdateQuantity(deps.CartStore, logg))
			r.Delete("/items/{id}", controllers.CartRemoveItem(deps.CartStore, logg))
			r.Post("/open", controllers.CartSetOpen(deps.CartStore, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutStart(deps.Checkout, logg))
			r.Get("/", controllers.CheckoutCurrent(deps.Checkout, logg))
			r.Post("/shipping", controllers.CheckoutShipping(deps.Checkout, logg))
			r.Post("/billing", controllers.CheckoutBilling(deps.Checkout, logg))
			r.Post("/back", controllers.CheckoutBack(deps.Checkout, logg))
			r.With(middleware.Idempotency(deps.Idempotency, cfg.Checkout.IdempotencyTTL, logg)).
				Post("/submit", controllers.CheckoutSubmit(deps.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersHistory(deps.Orders, logg))
			r.Get("/{id}", controllers.OrdersDetail(deps.Orders, logg))
		})
	})

	return r
}
