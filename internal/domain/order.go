package domain

import (
	"fmt"
	"strings"
)

// Order tracking status constants.
const (
	OrderStatusInProgress = "in_progress"
	OrderStatusInTransit  = "in_transit"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidStatuses returns all valid tracking statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusInProgress,
		OrderStatusInTransit,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// NormalizeStatus maps a stored tracking status onto its canonical form.
// Rows written by the legacy MySQL service spell statuses with spaces
// ("in progress"). It reports false for statuses outside ValidStatuses.
func NormalizeStatus(raw string) (string, bool) {
	status := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
	if !IsValidStatus(status) {
		return "", false
	}
	return status, true
}

// CatalogItem is a purchasable menu item. Price is in cents.
type CatalogItem struct {
	ID    int64  `json:"item_id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// OrderLine is one persisted line of a committed order. Amounts are in cents.
type OrderLine struct {
	ItemID    int64  `json:"item_id"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

// Order is a committed order as read back from the ledger.
type Order struct {
	ID     int64       `json:"order_id"`
	Status string      `json:"status"`
	Lines  []OrderLine `json:"lines"`
	Total  int64       `json:"total"`
}

// CalculateTotal sums the line totals.
func (o *Order) CalculateTotal() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.LineTotal
	}
	return total
}

// NewOrderLine resolves a cart line against its catalog entry.
func NewOrderLine(item CatalogItem, qty int) OrderLine {
	return OrderLine{
		ItemID:    item.ID,
		ItemName:  item.Name,
		Quantity:  qty,
		UnitPrice: item.Price,
		LineTotal: item.Price * int64(qty),
	}
}

// Receipt is the outcome of a successful commit. The zero Receipt means no
// order was created.
type Receipt struct {
	OrderID int64 `json:"order_id"`
	Total   int64 `json:"total"`
}

// IsZero reports whether r is the "no order" sentinel.
func (r Receipt) IsZero() bool {
	return r.OrderID == 0
}

// FormatPrice renders cents as "$12.50".
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// HumanStatus renders a tracking status for chat replies ("in progress").
func HumanStatus(status string) string {
	switch status {
	case OrderStatusInProgress:
		return "in progress"
	case OrderStatusInTransit:
		return "in transit"
	default:
		return status
	}
}
