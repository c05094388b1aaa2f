package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/printshop-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/printshop-backend/api/controllers/webhooks"
	"github.com/angelmondragon/printshop-backend/api/middleware"
	checkoutsvc "github.com/angelmondragon/printshop-backend/internal/checkout"
	"github.com/angelmondragon/printshop-backend/internal/coupons"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/internal/payments"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/redis"
)

// Services is everything the HTTP surface dispatches to.
type Services struct {
	Checkout checkoutsvc.Service
	Orders   orders.Service
	Payments payments.Service
	Coupons  coupons.Service
	Webhooks *payments.WebhookIngestor
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]controllers.Pinger,
	idempotency redis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Site.BaseURL),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, pingers, logg))
	})
	r.Method(http.MethodGet, "/metrics", controllers.Metrics(gatherer))

	var ingestor webhookcontrollers.Ingestor
	if svc.Webhooks != nil {
		ingestor = svc.Webhooks
	}
	r.Post("/api/v1/payments/webhook", webhookcontrollers.CashfreeWebhook(ingestor, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotency, cfg.Redis.CheckoutIdempotencyTTL, logg))

		r.Post("/checkout", controllers.Checkout(svc.Checkout, logg))
		r.Post("/coupons/validate", controllers.ValidateCoupon(svc.Coupons, logg))
		r.Get("/orders", controllers.MyOrders(svc.Orders, logg))
		r.Get("/orders/verify", controllers.VerifyPayment(svc.Payments, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

			r.Get("/orders", controllers.AdminListOrders(svc.Orders, logg))
			r.Patch("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(svc.Orders, logg))
			r.Delete("/orders/{orderId}", controllers.AdminDeleteOrder(svc.Orders, logg))

			r.Get("/coupons", controllers.AdminListCoupons(svc.Coupons, logg))
			r.Post("/coupons", controllers.AdminCreateCoupon(svc.Coupons, logg))
			r.Patch("/coupons/{couponId}", controllers.AdminToggleCoupon(svc.Coupons, logg))
			r.Delete("/coupons/{couponId}", controllers.AdminDeleteCoupon(svc.Coupons, logg))
		})
	})

	return r
}
