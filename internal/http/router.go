package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	Cart     *CartHandler
	Payment  *PaymentHandler
	Orders   *OrdersHandler
	Shipping *ShippingHandler
	Webhooks *WebhookHandler
}

// NewRouter mounts every route behind request ids, zap access logs, panic recovery
// and OpenTelemetry spans.
func NewRouter(handlers Handlers, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", handlers.Cart.GetCart)
			r.Delete("/", handlers.Cart.ClearCart)
			r.Get("/totals", handlers.Cart.GetTotals)
			r.Post("/visibility", handlers.Cart.SetVisibility)
			r.Post("/items", handlers.Cart.AddItem)
			r.Put("/items/{variant_key}", handlers.Cart.UpdateQuantity)
			r.Delete("/items/{variant_key}", handlers.Cart.RemoveItem)
		})

		r.Route("/payment/intents", func(r chi.Router) {
			r.Post("/", handlers.Payment.CreateIntent)
			r.Get("/{intent_id}", handlers.Payment.GetIntent)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", handlers.Orders.SubmitOrder)
			r.Get("/{order_id}", handlers.Orders.GetOrderStatus)
		})

		r.Post("/shipping/estimate", handlers.Shipping.Estimate)
	})

	r.Post("/internal/webhooks/fulfillment", handlers.Webhooks.FulfillmentUpdate)

	return otelhttp.NewHandler(r, "printshop")
}
