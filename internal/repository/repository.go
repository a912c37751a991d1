package repository

import (
	"context"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
)

// CatalogRepository is the read-only source of menu items.
type CatalogRepository interface {
	// Lookup returns the item with exactly this name. A missing item yields
	// an error wrapping apperrors.ErrNotFound.
	Lookup(ctx context.Context, name string) (*domain.CatalogItem, error)

	// Menu lists every item ordered by item id.
	Menu(ctx context.Context) ([]domain.CatalogItem, error)
}

// LedgerRepository persists committed orders and their tracking status.
type LedgerRepository interface {
	// Commit allocates the next order id and writes every line plus an
	// in_progress tracking row in one transaction. On any failure it
	// returns the zero Receipt and nothing is written. An item missing from
	// the catalog yields an error wrapping apperrors.ErrUnknownItem; other
	// failures wrap apperrors.ErrPersistence.
	Commit(ctx context.Context, lines []domain.CartLine) (domain.Receipt, error)

	// GetStatus returns the tracking status of an order. An unknown order
	// yields an error wrapping apperrors.ErrNotFound.
	GetStatus(ctx context.Context, orderID int64) (string, error)

	// GetOrder returns an order with its lines and tracking status.
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
}
