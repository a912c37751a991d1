package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
	"github.com/lisek75/uma-food-chatbot/pkg/httputil"
)

// OrderTracker reads committed orders back from the ledger.
type OrderTracker interface {
	TrackOrder(ctx context.Context, orderID int64) (*domain.Order, error)
}

// OrderHandler handles HTTP requests for order tracking.
type OrderHandler struct {
	tracker OrderTracker
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(tracker OrderTracker, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{tracker: tracker, logger: logger}
}

// GetOrder handles GET /api/v1/orders/{orderID}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseOrderID(w, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	order, err := h.tracker.TrackOrder(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
