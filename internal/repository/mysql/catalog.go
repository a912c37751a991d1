package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
	"github.com/lisek75/uma-food-chatbot/pkg/database"
	apperrors "github.com/lisek75/uma-food-chatbot/pkg/errors"
)

const (
	lookupItemQuery = `
		SELECT item_id, name, CAST(ROUND(price * 100) AS SIGNED)
		FROM food_items
		WHERE BINARY name = ?`

	menuQuery = `
		SELECT item_id, name, CAST(ROUND(price * 100) AS SIGNED)
		FROM food_items
		ORDER BY item_id`
)

// CatalogRepository implements repository.CatalogRepository on the legacy
// MySQL schema.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new MySQL-backed catalog repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Lookup returns the catalog entry for name.
func (r *CatalogRepository) Lookup(ctx context.Context, name string) (*domain.CatalogItem, error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMySQL, "LookupItem", lookupItemQuery)

	var it domain.CatalogItem
	err := r.db.QueryRowContext(ctx, lookupItemQuery, name).Scan(&it.ID, &it.Name, &it.Price)
	if errors.Is(err, sql.ErrNoRows) {
		end(nil)
		return nil, apperrors.NotFound("food item", name)
	}
	end(err)
	if err != nil {
		return nil, fmt.Errorf("lookup item %q: %w", name, err)
	}
	return &it, nil
}

// Menu lists every item ordered by item id.
func (r *CatalogRepository) Menu(ctx context.Context) (items []domain.CatalogItem, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMySQL, "ListMenu", menuQuery)
	defer func() { end(err) }()

	rows, err := r.db.QueryContext(ctx, menuQuery)
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
