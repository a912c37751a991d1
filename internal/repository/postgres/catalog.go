package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
	"github.com/lisek75/uma-food-chatbot/pkg/database"
	apperrors "github.com/lisek75/uma-food-chatbot/pkg/errors"
)

const (
	lookupItemQuery = `
		SELECT item_id, name, (price * 100)::BIGINT
		FROM food_items
		WHERE name = $1`

	menuQuery = `
		SELECT item_id, name, (price * 100)::BIGINT
		FROM food_items
		ORDER BY item_id`
)

// CatalogRepository implements repository.CatalogRepository using PostgreSQL.
type CatalogRepository struct {
	pool database.DBTX
}

// NewCatalogRepository creates a new PostgreSQL-backed catalog repository.
func NewCatalogRepository(pool database.DBTX) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// Lookup returns the catalog entry for name.
func (r *CatalogRepository) Lookup(ctx context.Context, name string) (item *domain.CatalogItem, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgreSQL, "LookupItem", lookupItemQuery)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	var it domain.CatalogItem
	err = r.pool.QueryRow(ctx, lookupItemQuery, name).Scan(&it.ID, &it.Name, &it.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("food item", name)
		}
		return nil, fmt.Errorf("lookup item %q: %w", name, err)
	}
	return &it, nil
}

// Menu lists every item ordered by item id.
func (r *CatalogRepository) Menu(ctx context.Context) (items []domain.CatalogItem, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgreSQL, "ListMenu", menuQuery)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, menuQuery)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	defer rows.Close()

	items = make([]domain.CatalogItem, 0)
	for rows.Next() {
		var it domain.CatalogItem
		if err = rows.Scan(&it.ID, &it.Name, &it.Price); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu: %w", err)
	}
	return items, nil
}
