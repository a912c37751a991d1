package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lisek75/uma-food-chatbot/pkg/health"
	"github.com/lisek75/uma-food-chatbot/pkg/middleware"
)

const serviceName = "chatbot"

// Services groups what the routes call into.
type Services struct {
	Ordering Dispatcher
	Orders   OrderTracker
	Catalog  MenuLister
}

// NewRouter creates a chi router with the webhook, REST and health routes.
func NewRouter(svc Services, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Dialogflow fulfillment
	webhookHandler := NewWebhookHandler(svc.Ordering, logger)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RecoveryWith(logger, WriteFallbackFulfillment))
		r.Post("/webhook", webhookHandler.HandleWebhook)
		r.Post("/", webhookHandler.HandleWebhook)
	})

	// REST API
	menuHandler := NewMenuHandler(svc.Catalog, logger)
	orderHandler := NewOrderHandler(svc.Orders, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/menu", menuHandler.GetMenu)
		r.Get("/orders/{orderID}", orderHandler.GetOrder)
	})

	return r
}
