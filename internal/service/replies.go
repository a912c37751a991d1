package service

import (
	"fmt"
	"strings"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
)

// Quick-reply labels offered to the user.
const (
	QuickShowMenu      = "Show menu"
	QuickCompleteOrder = "Complete order"
	QuickConfirm       = "Yes, place order"
	QuickKeepEditing   = "No, keep editing"
	QuickCancelOrder   = "Cancel order"
	QuickNewOrder      = "New order"
	QuickTrackOrder    = "Track order"
)

const (
	textExample         = "(e.g., 2 Tuna Sushi, 1 Chirasi)"
	textSpecifyItems    = "Please specify the food item along with the quantity " + textExample + " 🍣"
	textRephraseItems   = "Please specify items and quantities " + textExample + "."
	textNoActiveOrder   = "Couldn't find an active order. Please start a new one by saying 'New Order'🍱."
	textNotUnderstood   = "Sorry, I didn't understand that request."
	textCatalogDown     = "Sorry, I can't check the menu right now. Please try again in a moment."
	textGenericFailure  = "There was an error processing the request. Please try again."
	textEmptyOrder      = "Your order is empty."
	textAskMore         = "Do you need something else?"
	textMenuUnavailable = "The menu is unavailable right now, please ask for it again in a moment."
	textOrderCancelled  = "Your order has been cancelled. Say 'New Order'🍱 whenever you want to start again."
	textAnswerYesNo     = "Please answer 'Yes' to place your order or 'No' to keep editing."
	textTrackRephrase   = "Please tell me the numeric id of the order you want to track (e.g., 41)."
	textLostSession     = "I lost track of this conversation. Please say 'New Order'🍱 to start again."
)

func reply(text string, quick ...string) domain.Reply {
	return domain.Reply{Text: strings.TrimSpace(text), QuickReplies: quick}
}

func menuText(names []string) string {
	return fmt.Sprintf("Menu 🍣: %s. Specify items and quantities %s.", strings.Join(names, ", "), textExample)
}

func cartText(cart domain.Cart) string {
	return fmt.Sprintf("So far, you have in your cart: 🍣 %s. %s", cart.Summary(), textAskMore)
}

func unavailableText(names []string) string {
	return fmt.Sprintf("Sorry, these items aren't available: 🚫%s. You can say 'Menu'🍣 to show list of items.", strings.Join(names, ", "))
}

func notInCartText(names []string) string {
	return fmt.Sprintf("Your current order does not have: %s.", strings.Join(names, ", "))
}

func removedText(names []string) string {
	return fmt.Sprintf("Removed %s from your order.", strings.Join(names, ", "))
}

func confirmPromptText(cart domain.Cart) string {
	return fmt.Sprintf("Here is your order: 🍣 %s. Shall I place it? Say 'Yes' to confirm or 'No' to keep editing.", cart.Summary())
}

func placedText(receipt domain.Receipt) string {
	return fmt.Sprintf("Awesome 🎉! We have placed your order id %d. Your order total is %s which you can pay at the time of delivery 📦.",
		receipt.OrderID, domain.FormatPrice(receipt.Total))
}

func commitFailedText() string {
	return "Sorry, I couldn't place your order right now. Your cart is saved, say 'Yes' to try again."
}

func noLongerOnMenuText(detail string) string {
	return fmt.Sprintf("Sorry, some items are no longer available (%s). Please remove them and try again.", detail)
}

func trackText(orderID int64, status string) string {
	return fmt.Sprintf("The order %d is %s.", orderID, domain.HumanStatus(status))
}

func trackMissingText(orderID int64) string {
	return fmt.Sprintf("The order %d doesn't exist.", orderID)
}

func trackFailedText(orderID int64) string {
	return fmt.Sprintf("Sorry, I couldn't look up order %d right now. Please try again.", orderID)
}

func joinSentences(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
