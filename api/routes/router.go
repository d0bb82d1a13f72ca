package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kreasivisual/kreasivisual-backend/api/controllers"
	"github.com/kreasivisual/kreasivisual-backend/api/middleware"
	"github.com/kreasivisual/kreasivisual-backend/internal/auth"
	"github.com/kreasivisual/kreasivisual-backend/internal/cart"
	"github.com/kreasivisual/kreasivisual-backend/internal/chat"
	"github.com/kreasivisual/kreasivisual-backend/internal/notifications"
	"github.com/kreasivisual/kreasivisual-backend/internal/orders"
	"github.com/kreasivisual/kreasivisual-backend/internal/payments"
	"github.com/kreasivisual/kreasivisual-backend/pkg/auth/session"
	"github.com/kreasivisual/kreasivisual-backend/pkg/config"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
	"github.com/kreasivisual/kreasivisual-backend/pkg/metrics"
	"github.com/kreasivisual/kreasivisual-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         *redis.Client
	Session       session.AccessSessionChecker
	Metrics       *metrics.HTTPMetrics
	Gatherer      prometheus.Gatherer
	ReadinessDeps map[string]controllers.Pinger

	AuthService     auth.Service
	RegisterService auth.RegisterService
	CartService     cart.Service
	OrdersService   orders.Service
	PaymentsService payments.Service
	ChatService     chat.Service
	Notifications   notifications.Service
}

// NewRouter assembles the full route tree.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRate.LoginWindow,
		cfg.AuthRate.LoginIPLimit,
		cfg.AuthRate.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRate.RegisterWindow,
		cfg.AuthRate.RegisterIPLimit,
		cfg.AuthRate.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.ReadinessDeps))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/midtrans", controllers.MidtransWebhook(p.PaymentsService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).
			Post("/register", controllers.AuthRegister(p.RegisterService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, p.Session, logg)).
			Post("/logout", controllers.AuthLogout(p.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Session, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.CartService, logg))
			r.Delete("/", controllers.CartClear(p.CartService, logg))
			r.Post("/items", controllers.CartAddItem(p.CartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(p.CartService, logg))
			r.Post("/coupon", controllers.CartApplyCoupon(p.CartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(p.OrdersService, logg))
			r.Post("/", controllers.OrderCreate(p.OrdersService, logg))
			r.Get("/{orderCode}", controllers.OrderDetail(p.OrdersService, logg))
			r.Post("/{orderCode}/payment-session", controllers.PaymentSession(p.PaymentsService, logg))
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", controllers.ConversationList(p.ChatService, logg))
			r.Post("/", controllers.ConversationStart(p.ChatService, logg))
			r.Post("/order/{orderCode}", controllers.ConversationEnsureOrder(p.ChatService, logg))
			r.Get("/{conversationId}/messages", controllers.ConversationMessages(p.ChatService, logg))
			r.Post("/{conversationId}/messages", controllers.ConversationSend(p.ChatService, logg))
			r.Get("/{conversationId}/stream", controllers.ConversationStream(p.ChatService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(p.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(p.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Session, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Post("/orders/{orderCode}/status", controllers.AdminOrderStatus(p.OrdersService, logg))
	})

	return r
}
