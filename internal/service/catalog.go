package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
	"github.com/lisek75/uma-food-chatbot/internal/repository"
	"github.com/lisek75/uma-food-chatbot/pkg/breaker"
	apperrors "github.com/lisek75/uma-food-chatbot/pkg/errors"
)

// CatalogGateway is the read-only catalog as seen by the ordering flow. A
// circuit breaker guards the repository: "not found" is a healthy answer,
// while any other failure counts toward tripping and surfaces as
// CatalogUnavailable.
type CatalogGateway struct {
	repo   repository.CatalogRepository
	items  *breaker.Breaker[*domain.CatalogItem]
	menu   *breaker.Breaker[[]domain.CatalogItem]
	logger *slog.Logger
}

// NewCatalogGateway creates a catalog gateway around repo.
func NewCatalogGateway(repo repository.CatalogRepository, cfg breaker.Config, logger *slog.Logger) *CatalogGateway {
	if logger == nil {
		logger = slog.Default()
	}
	menuCfg := cfg
	menuCfg.Name = cfg.Name + "-menu"
	return &CatalogGateway{
		repo:   repo,
		items:  breaker.New[*domain.CatalogItem](cfg, isCatalogSuccess, logger),
		menu:   breaker.New[[]domain.CatalogItem](menuCfg, isCatalogSuccess, logger),
		logger: logger,
	}
}

func isCatalogSuccess(err error) bool {
	return err == nil || errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, context.Canceled)
}

// ItemExists reports whether name is on the menu.
func (g *CatalogGateway) ItemExists(ctx context.Context, name string) (bool, error) {
	_, err := g.Lookup(ctx, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Lookup returns the id and price of name. A missing item yields an error
// wrapping apperrors.ErrNotFound.
func (g *CatalogGateway) Lookup(ctx context.Context, name string) (*domain.CatalogItem, error) {
	item, err := g.items.Execute(func() (*domain.CatalogItem, error) {
		return g.repo.Lookup(ctx, name)
	})
	if err != nil {
		return nil, g.classify(ctx, "lookup", err)
	}
	return item, nil
}

// Menu lists every item on the menu.
func (g *CatalogGateway) Menu(ctx context.Context) ([]domain.CatalogItem, error) {
	items, err := g.menu.Execute(func() ([]domain.CatalogItem, error) {
		return g.repo.Menu(ctx)
	})
	if err != nil {
		return nil, g.classify(ctx, "menu", err)
	}
	return items, nil
}

// MenuNames lists the names of every item on the menu.
func (g *CatalogGateway) MenuNames(ctx context.Context) ([]string, error) {
	items, err := g.Menu(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return names, nil
}

func (g *CatalogGateway) classify(ctx context.Context, op string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	g.logger.WarnContext(ctx, "catalog unavailable",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return apperrors.CatalogUnavailable(err)
}
