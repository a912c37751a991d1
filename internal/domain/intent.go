package domain

// Intent display names routed by the webhook.
const (
	IntentNewOrder      = "new.order"
	IntentMenu          = "get.menu - context: ongoing-order"
	IntentAddItems      = "order.add - context: ongoing-order"
	IntentRemoveItems   = "order.remove - context: ongoing-order"
	IntentCompleteOrder = "order.complete - context: ongoing-order"
	IntentConfirmOrder  = "order.confirm - context: awaiting-confirmation"
	IntentCancelOrder   = "order.cancel - context: ongoing-order"
	IntentTrackOrder    = "track.order - context: ongoing-tracking"
)

// Parameter keys recognised in an event.
const (
	ParamFoodItem     = "food-item"
	ParamQuantity     = "qty"
	ParamOrderID      = "order_id"
	ParamConfirmation = "confirmation"
)

// Event is one resolved utterance delivered to the ordering state machine.
type Event struct {
	Intent     string
	SessionID  string
	Parameters map[string]any
}

// Reply is the user-facing outcome of an event.
type Reply struct {
	Text         string
	QuickReplies []string
}
