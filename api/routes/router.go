package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradepost/api/controllers"
	"tradepost/api/middleware"
	"tradepost/internal/catalog"
	"tradepost/internal/notifications"
	"tradepost/internal/orders"
	"tradepost/internal/wallet"
	"tradepost/pkg/config"
	"tradepost/pkg/db"
	"tradepost/pkg/enums"
	"tradepost/pkg/logger"
	pkgredis "tradepost/pkg/redis"
)

// NewRouter wires every HTTP surface of the API. Order placement and order
// lookup are public storefront endpoints; everything else sits behind the
// bearer token middleware with role checks per group.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	ordersSvc orders.Service,
	catalogSvc catalog.Service,
	walletSvc wallet.Service,
	notificationsSvc notifications.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orders", controllers.CreateOrder(ordersSvc, logg))
		r.Get("/orders/{orderId}", controllers.GetOrder(ordersSvc, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
				r.Get("/orders", controllers.ListOrders(ordersSvc, logg))
				r.Patch("/orders/{orderId}/status", controllers.UpdateOrderStatus(ordersSvc, logg))
			})

			r.Route("/seller", func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleSeller), logg))
				r.Post("/products", controllers.SellerCreateProduct(catalogSvc, logg))
				r.Patch("/products/{productId}", controllers.SellerUpdateProduct(catalogSvc, logg))
				r.Get("/products", controllers.SellerListProducts(catalogSvc, logg))
				r.Post("/payouts", controllers.RequestPayout(walletSvc, logg))
				r.Get("/payouts", controllers.ListPayouts(walletSvc, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(notificationsSvc, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsSvc, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsSvc, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Post("/payouts/{payoutId}/resolve", controllers.ResolvePayout(walletSvc, logg))
	})

	return r
}
