package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
	"github.com/lisek75/uma-food-chatbot/pkg/httputil"
)

// MenuLister lists the catalog.
type MenuLister interface {
	Menu(ctx context.Context) ([]domain.CatalogItem, error)
}

// MenuHandler serves the read-only menu.
type MenuHandler struct {
	catalog MenuLister
	logger  *slog.Logger
}

// NewMenuHandler creates a new menu handler.
func NewMenuHandler(catalog MenuLister, logger *slog.Logger) *MenuHandler {
	return &MenuHandler{catalog: catalog, logger: logger}
}

// GetMenu handles GET /api/v1/menu
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.Menu(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if items == nil {
		items = []domain.CatalogItem{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: items})
}
