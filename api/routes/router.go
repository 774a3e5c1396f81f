package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Barackwilliam/sokoletu/api/controllers"
	"github.com/Barackwilliam/sokoletu/api/middleware"
	cartsvc "github.com/Barackwilliam/sokoletu/internal/cart"
	checkoutsvc "github.com/Barackwilliam/sokoletu/internal/checkout"
	ordersvc "github.com/Barackwilliam/sokoletu/internal/orders"
	"github.com/Barackwilliam/sokoletu/pkg/config"
	"github.com/Barackwilliam/sokoletu/pkg/logger"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Registry *prometheus.Registry
}

// NewRouter assembles the HTTP surface of the checkout service.
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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.UserContext(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Get("/count", controllers.CartCount(deps.Cart, logg))
			r.Post("/items/{productId}", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(deps.Orders, logg))
			r.Get("/{orderNumber}", controllers.OrdersGet(deps.Orders, logg))
			r.Get("/{orderNumber}/events", controllers.OrdersEvents(deps.Orders, logg))
			r.Post("/{orderNumber}/cancel", controllers.OrdersCancel(deps.Orders, logg))
		})
	})

	return r
}
