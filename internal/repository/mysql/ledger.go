package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
	"github.com/lisek75/uma-food-chatbot/pkg/database"
	apperrors "github.com/lisek75/uma-food-chatbot/pkg/errors"
)

const (
	// FOR UPDATE takes next-key locks on the order_tracking primary key, so
	// a concurrent commit blocks here until this transaction ends.
	nextOrderIDQuery = `SELECT COALESCE(MAX(order_id), 0) + 1 FROM order_tracking FOR UPDATE`

	insertOrderLineQuery = `
		INSERT INTO orders (order_id, item_id, quantity, total_price)
		VALUES (?, ?, ?, ? / 100)`

	insertTrackingQuery = `INSERT INTO order_tracking (order_id, status) VALUES (?, ?)`

	orderStatusQuery = `SELECT status FROM order_tracking WHERE order_id = ?`

	orderLinesQuery = `
		SELECT o.item_id, f.name, o.quantity, CAST(ROUND(o.total_price * 100) AS SIGNED)
		FROM orders o
		JOIN food_items f ON f.item_id = o.item_id
		WHERE o.order_id = ?
		ORDER BY o.item_id`
)

// LedgerRepository implements repository.LedgerRepository using MySQL/InnoDB.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new MySQL-backed order ledger.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Commit writes the order in a single transaction.
func (r *LedgerRepository) Commit(ctx context.Context, lines []domain.CartLine) (receipt domain.Receipt, err error) {
	if len(lines) == 0 {
		return domain.Receipt{}, apperrors.MalformedInput("order has no lines")
	}

	ctx, end := database.TraceQuery(ctx, database.SystemMySQL, "CommitOrder", nextOrderIDQuery)
	defer func() { end(err) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Receipt{}, apperrors.Persistence("begin order transaction", err)
	}
	defer tx.Rollback()

	var orderID int64
	if err = tx.QueryRowContext(ctx, nextOrderIDQuery).Scan(&orderID); err != nil {
		return domain.Receipt{}, apperrors.Persistence("allocate order id", err)
	}

	var total int64
	for _, l := range lines {
		var item domain.CatalogItem
		err = tx.QueryRowContext(ctx, lookupItemQuery, l.Name).Scan(&item.ID, &item.Name, &item.Price)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.Receipt{}, apperrors.UnknownItem(l.Name)
			}
			return domain.Receipt{}, apperrors.Persistence("resolve order item", err)
		}

		line := domain.NewOrderLine(item, l.Quantity)
		if _, err = tx.ExecContext(ctx, insertOrderLineQuery, orderID, line.ItemID, line.Quantity, line.LineTotal); err != nil {
			return domain.Receipt{}, apperrors.Persistence("insert order line", err)
		}
		total += line.LineTotal
	}

	if _, err = tx.ExecContext(ctx, insertTrackingQuery, orderID, domain.OrderStatusInProgress); err != nil {
		return domain.Receipt{}, apperrors.Persistence("insert order tracking", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Receipt{}, apperrors.Persistence("commit order", err)
	}

	return domain.Receipt{OrderID: orderID, Total: total}, nil
}

// GetStatus returns the tracking status of an order.
func (r *LedgerRepository) GetStatus(ctx context.Context, orderID int64) (string, error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMySQL, "GetOrderStatus", orderStatusQuery)

	var status string
	err := r.db.QueryRowContext(ctx, orderStatusQuery, orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		end(nil)
		return "", apperrors.NotFound("order", strconv.FormatInt(orderID, 10))
	}
	end(err)
	if err != nil {
		return "", apperrors.Persistence("get order status", err)
	}
	normalized, ok := domain.NormalizeStatus(status)
	if !ok {
		return "", apperrors.Persistence("get order status", fmt.Errorf("unrecognised status %q", status))
	}
	return normalized, nil
}

// GetOrder returns an order with its lines.
func (r *LedgerRepository) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	status, err := r.GetStatus(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ctx, end := database.TraceQuery(ctx, database.SystemMySQL, "GetOrderLines", orderLinesQuery)
	lines, err := r.orderLines(ctx, orderID)
	end(err)
	if err != nil {
		return nil, err
	}

	o := &domain.Order{ID: orderID, Status: status, Lines: lines}
	o.Total = o.CalculateTotal()
	return o, nil
}

func (r *LedgerRepository) orderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, orderLinesQuery, orderID)
	if err != nil {
		return nil, apperrors.Persistence("get order lines", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ItemID, &l.ItemName, &l.Quantity, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if l.Quantity > 0 {
			l.UnitPrice = l.LineTotal / int64(l.Quantity)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return lines, nil
}

// Ping checks connectivity to the ledger database.
func (r *LedgerRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
