package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grocerdash/grocerdash-backend/api/controllers"
	"github.com/grocerdash/grocerdash-backend/api/middleware"
	"github.com/grocerdash/grocerdash-backend/internal/orders"
	"github.com/grocerdash/grocerdash-backend/pkg/config"
	"github.com/grocerdash/grocerdash-backend/pkg/db"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
	"github.com/grocerdash/grocerdash-backend/pkg/logger"
	"github.com/grocerdash/grocerdash-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	ordersSvc orders.Service,
	presence controllers.DriverPresence,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbP, redisP, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/order", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.RoleCustomer)).
				Post("/", controllers.CreateOrder(ordersSvc, logg))
			r.Post("/estimate", controllers.EstimateOrder(ordersSvc, logg))
			r.Get("/", controllers.ListOrders(ordersSvc, logg))
			r.Get("/{orderId}", controllers.GetOrder(ordersSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleDeliveryPartner))
				r.Patch("/{orderId}/status", controllers.DriverUpdateStatus(ordersSvc, logg))
				r.Patch("/{orderId}/release-assignment", controllers.DriverReleaseOrder(ordersSvc, logg))
				r.Post("/{orderId}/confirm", controllers.DriverConfirmOrder(ordersSvc, logg))
				r.Post("/{orderId}/reject", controllers.DriverRejectOrder(ordersSvc, logg))
			})
		})

		r.With(middleware.RequireRole(logg, enums.RoleDeliveryPartner)).
			Patch("/driver/presence", controllers.DriverSetPresence(presence, logg))

		r.Route("/manager/orders", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))
			r.Post("/{orderId}/assign-driver", controllers.ManagerAssignDriver(ordersSvc, logg))
			r.Patch("/{orderId}/status", controllers.ManagerUpdateStatus(ordersSvc, logg))
		})
	})

	return r
}
