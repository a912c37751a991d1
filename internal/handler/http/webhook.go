package http

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
	"github.com/lisek75/uma-food-chatbot/pkg/httputil"
	"github.com/lisek75/uma-food-chatbot/pkg/logger"
	"github.com/lisek75/uma-food-chatbot/pkg/validator"
)

const (
	textUndecodable   = "Sorry, I didn't understand that request."
	textHandlerFailed = "There was an error processing the request. Please try again."
)

var sessionPattern = regexp.MustCompile(`/sessions/(.*?)/contexts/`)

// Dispatcher turns a resolved utterance into a reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.Event) domain.Reply
}

// WebhookHandler serves the Dialogflow ES fulfillment webhook.
type WebhookHandler struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(d Dispatcher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		dispatcher: d,
		logger:     logger,
	}
}

// --- Request DTOs ---

// WebhookRequest is the subset of the Dialogflow ES WebhookRequest we read.
type WebhookRequest struct {
	Session     string      `json:"session"`
	QueryResult QueryResult `json:"queryResult"`
}

// QueryResult carries the matched intent and its parameters.
type QueryResult struct {
	QueryText      string          `json:"queryText"`
	Intent         Intent          `json:"intent"`
	Parameters     map[string]any  `json:"parameters"`
	OutputContexts []OutputContext `json:"outputContexts"`
}

// Intent identifies the matched intent by display name.
type Intent struct {
	DisplayName string `json:"displayName" validate:"required"`
}

// OutputContext is an active Dialogflow context. Its name embeds the session.
type OutputContext struct {
	Name string `json:"name"`
}

// --- Response DTOs ---

// FulfillmentResponse is the webhook reply understood by Dialogflow.
type FulfillmentResponse struct {
	FulfillmentText     string               `json:"fulfillmentText"`
	FulfillmentMessages []FulfillmentMessage `json:"fulfillmentMessages"`
}

// FulfillmentMessage holds exactly one rich message.
type FulfillmentMessage struct {
	Text         *TextMessage  `json:"text,omitempty"`
	QuickReplies *QuickReplies `json:"quickReplies,omitempty"`
}

// TextMessage is a plain text message.
type TextMessage struct {
	Text []string `json:"text"`
}

// QuickReplies offers suggestion chips.
type QuickReplies struct {
	Title        string   `json:"title,omitempty"`
	QuickReplies []string `json:"quickReplies"`
}

// NewFulfillment builds the webhook body for a reply.
func NewFulfillment(reply domain.Reply) FulfillmentResponse {
	resp := FulfillmentResponse{
		FulfillmentText: reply.Text,
		FulfillmentMessages: []FulfillmentMessage{
			{Text: &TextMessage{Text: []string{reply.Text}}},
		},
	}
	if len(reply.QuickReplies) > 0 {
		resp.FulfillmentMessages = append(resp.FulfillmentMessages, FulfillmentMessage{
			QuickReplies: &QuickReplies{QuickReplies: reply.QuickReplies},
		})
	}
	return resp
}

// --- Handlers ---

// HandleWebhook handles POST /webhook. Every outcome is answered with 200 and
// a fulfillment body so the agent always has something to say.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		logger.FromContext(r.Context()).WarnContext(r.Context(), "undecodable webhook payload",
			slog.String("error", err.Error()),
		)
		writeFulfillment(w, domain.Reply{Text: textUndecodable})
		return
	}

	ev := domain.Event{
		Intent:     req.QueryResult.Intent.DisplayName,
		SessionID:  ExtractSessionID(req),
		Parameters: req.QueryResult.Parameters,
	}

	reply := h.dispatcher.Dispatch(r.Context(), ev)
	writeFulfillment(w, reply)
}

// WriteFallbackFulfillment answers with a generic failure reply. It is the
// panic responder of the webhook routes.
func WriteFallbackFulfillment(w http.ResponseWriter, _ *http.Request) {
	writeFulfillment(w, domain.Reply{Text: textHandlerFailed})
}

func writeFulfillment(w http.ResponseWriter, reply domain.Reply) {
	httputil.WriteJSON(w, http.StatusOK, NewFulfillment(reply))
}

// ExtractSessionID returns the conversation id from the first output context
// name, falling back to the last path segment of the top-level session.
func ExtractSessionID(req WebhookRequest) string {
	if len(req.QueryResult.OutputContexts) > 0 {
		if m := sessionPattern.FindStringSubmatch(req.QueryResult.OutputContexts[0].Name); m != nil && m[1] != "" {
			return m[1]
		}
	}
	if i := strings.LastIndex(req.Session, "/sessions/"); i >= 0 {
		return req.Session[i+len("/sessions/"):]
	}
	return req.Session
}
