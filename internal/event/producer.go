package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
	pkgkafka "github.com/lisek75/uma-food-chatbot/pkg/kafka"
	"github.com/lisek75/uma-food-chatbot/pkg/logger"
)

// Kafka topics for chatbot order events.
var (
	TopicOrderPlaced    = pkgkafka.Topic("order", "placed")
	TopicOrderCancelled = pkgkafka.Topic("order", "cancelled")
)

// Aggregate type constant.
const AggregateTypeOrder = "order"

// Source identifier for events originating from the chatbot.
const SourceChatbot = "uma-food-chatbot"

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID   int64           `json:"order_id"`
	SessionID string          `json:"session_id"`
	Items     []OrderItemData `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     int64           `json:"total"`
}

// OrderItemData is the item payload within order events.
type OrderItemData struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// OrderCancelledData is the payload for an order.cancelled event.
type OrderCancelledData struct {
	SessionID string          `json:"session_id"`
	Items     []OrderItemData `json:"items"`
}

// Producer publishes order events to Kafka. A nil *Producer, or one built
// without a Kafka producer, drops every event.
type Producer struct {
	kafka *pkgkafka.Producer
	log   *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, log *slog.Logger) *Producer {
	if log == nil {
		log = slog.Default()
	}
	return &Producer{
		kafka: kafka,
		log:   log,
	}
}

// Enabled reports whether events are actually sent.
func (p *Producer) Enabled() bool {
	return p != nil && p.kafka != nil
}

// PublishOrderPlaced publishes an order.placed event for a committed cart.
func (p *Producer) PublishOrderPlaced(ctx context.Context, sessionID string, receipt domain.Receipt, cart domain.Cart) error {
	if !p.Enabled() {
		return nil
	}

	data := OrderPlacedData{
		OrderID:   receipt.OrderID,
		SessionID: sessionID,
		Items:     itemData(cart),
		ItemCount: cart.ItemCount(),
		Total:     receipt.Total,
	}

	aggregateID := strconv.FormatInt(receipt.OrderID, 10)
	event, err := pkgkafka.NewEvent(TopicOrderPlaced, AggregateTypeOrder, aggregateID, origin(ctx, sessionID), data)
	if err != nil {
		return fmt.Errorf("create order.placed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderPlaced, event); err != nil {
		return fmt.Errorf("publish order.placed event: %w", err)
	}

	p.log.DebugContext(ctx, "published order.placed event",
		slog.Int64("order_id", receipt.OrderID),
		slog.Int("item_count", data.ItemCount),
	)

	return nil
}

// PublishOrderCancelled publishes an order.cancelled event for a discarded cart.
func (p *Producer) PublishOrderCancelled(ctx context.Context, sessionID string, cart domain.Cart) error {
	if !p.Enabled() {
		return nil
	}

	data := OrderCancelledData{SessionID: sessionID, Items: itemData(cart)}

	event, err := pkgkafka.NewEvent(TopicOrderCancelled, AggregateTypeOrder, sessionID, origin(ctx, sessionID), data)
	if err != nil {
		return fmt.Errorf("create order.cancelled event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCancelled, event); err != nil {
		return fmt.Errorf("publish order.cancelled event: %w", err)
	}

	p.log.DebugContext(ctx, "published order.cancelled event",
		slog.String("session_id", sessionID),
	)

	return nil
}

func origin(ctx context.Context, sessionID string) pkgkafka.Origin {
	return pkgkafka.Origin{
		Source:        SourceChatbot,
		SessionID:     sessionID,
		CorrelationID: logger.CorrelationIDFromContext(ctx),
	}
}

func itemData(cart domain.Cart) []OrderItemData {
	lines := cart.Lines()
	items := make([]OrderItemData, len(lines))
	for i, l := range lines {
		items[i] = OrderItemData{Name: l.Name, Quantity: l.Quantity}
	}
	return items
}
