package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
	"github.com/lisek75/uma-food-chatbot/internal/event"
	"github.com/lisek75/uma-food-chatbot/internal/repository"
	"github.com/lisek75/uma-food-chatbot/internal/session"
	apperrors "github.com/lisek75/uma-food-chatbot/pkg/errors"
	"github.com/lisek75/uma-food-chatbot/pkg/logger"
)

// Catalog is the part of the catalog gateway the ordering flow needs.
type Catalog interface {
	ItemExists(ctx context.Context, name string) (bool, error)
	MenuNames(ctx context.Context) ([]string, error)
}

type intentHandler func(ctx context.Context, ev domain.Event) (domain.Reply, error)

// OrderingService runs the per-conversation order state machine. Every
// session-scoped intent holds the session's operation lock for its whole
// read-modify-write, including catalog and ledger I/O.
type OrderingService struct {
	store    *session.Store
	catalog  Catalog
	ledger   repository.LedgerRepository
	events   *event.Producer
	logger   *slog.Logger
	handlers map[string]intentHandler
}

// NewOrderingService creates the ordering state machine.
func NewOrderingService(
	store *session.Store,
	catalog Catalog,
	ledger repository.LedgerRepository,
	events *event.Producer,
	logger *slog.Logger,
) *OrderingService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &OrderingService{
		store:   store,
		catalog: catalog,
		ledger:  ledger,
		events:  events,
		logger:  logger,
	}
	s.handlers = map[string]intentHandler{
		domain.IntentNewOrder:      s.withSession(s.start),
		domain.IntentMenu:          s.menu,
		domain.IntentAddItems:      s.withSession(s.addItems),
		domain.IntentRemoveItems:   s.withSession(s.removeItems),
		domain.IntentCompleteOrder: s.withSession(s.promptConfirm),
		domain.IntentConfirmOrder:  s.withSession(s.confirm),
		domain.IntentCancelOrder:   s.withSession(s.cancel),
		domain.IntentTrackOrder:    s.track,
	}
	return s
}

// Dispatch routes an event to its intent handler and always produces a
// reply. Errors and panics are converted into user-facing messages here.
func (s *OrderingService) Dispatch(ctx context.Context, ev domain.Event) (out domain.Reply) {
	if ev.SessionID != "" {
		ctx = logger.WithSessionID(ctx, ev.SessionID)
	}
	log := logger.WithContext(ctx, s.logger).With(slog.String("intent", ev.Intent))
	ctx = logger.NewContext(ctx, log)
	label := intentLabel(ev.Intent)

	defer func() {
		if rec := recover(); rec != nil {
			log.ErrorContext(ctx, "panic while handling intent", slog.Any("panic", rec))
			intentsHandled.WithLabelValues(label, "panic").Inc()
			out = reply(textGenericFailure)
		}
	}()

	handler, ok := s.handlers[ev.Intent]
	if !ok {
		log.InfoContext(ctx, "unrecognised intent")
		intentsHandled.WithLabelValues("unknown", "unrecognised").Inc()
		return reply(textNotUnderstood)
	}

	r, err := handler(ctx, ev)
	if err != nil {
		intentsHandled.WithLabelValues(label, outcomeFor(err)).Inc()
		return s.replyForError(ctx, err)
	}
	intentsHandled.WithLabelValues(label, "ok").Inc()
	return r
}

// withSession rejects events without a session id and serialises the
// handler against other operations on the same session.
func (s *OrderingService) withSession(h intentHandler) intentHandler {
	return func(ctx context.Context, ev domain.Event) (domain.Reply, error) {
		if ev.SessionID == "" {
			return reply(textLostSession, QuickNewOrder), nil
		}
		unlock := s.store.Lock(ev.SessionID)
		defer unlock()

		r, err := h(ctx, ev)
		logger.FromContext(ctx).DebugContext(ctx, "intent handled",
			slog.Int("active_sessions", s.store.Len()),
		)
		return r, err
	}
}

func (s *OrderingService) replyForError(ctx context.Context, err error) domain.Reply {
	log := logger.FromContext(ctx)
	switch {
	case errors.Is(err, apperrors.ErrNoActiveSession):
		return reply(textNoActiveOrder, QuickNewOrder)
	case errors.Is(err, apperrors.ErrMalformedInput):
		log.InfoContext(ctx, "malformed intent parameters", slog.String("error", err.Error()))
		return reply(textRephraseItems, QuickShowMenu)
	case errors.Is(err, apperrors.ErrCatalogUnavailable):
		return reply(textCatalogDown)
	default:
		log.ErrorContext(ctx, "intent failed", slog.String("error", err.Error()))
		return reply(textGenericFailure)
	}
}

// start opens or resumes an order.
func (s *OrderingService) start(ctx context.Context, ev domain.Event) (domain.Reply, error) {
	snap := s.store.Create(ev.SessionID)
	if !snap.Cart.IsEmpty() {
		text := joinSentences("Welcome back! You still have an order in progress.", cartText(snap.Cart))
		return reply(text, QuickShowMenu, QuickCompleteOrder, QuickCancelOrder), nil
	}

	names, err := s.catalog.MenuNames(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrCatalogUnavailable) {
			return reply(joinSentences("New order started 🍱. What can I get for you?", textMenuUnavailable), QuickShowMenu), nil
		}
		return domain.Reply{}, err
	}
	text := fmt.Sprintf("New order started 🍱. What can I get for you? Here is the menu 🍣: %s.", strings.Join(names, ", "))
	return reply(text, QuickShowMenu), nil
}

// menu lists the catalog. It does not need a session but keeps one alive.
func (s *OrderingService) menu(ctx context.Context, ev domain.Event) (domain.Reply, error) {
	names, err := s.catalog.MenuNames(ctx)
	if err != nil {
		return domain.Reply{}, err
	}
	if ev.SessionID != "" {
		s.store.Touch(ev.SessionID)
	}
	return reply(menuText(names)), nil
}

// addItems merge-adds the requested items that exist in the catalog.
func (s *OrderingService) addItems(ctx context.Context, ev domain.Event) (domain.Reply, error) {
	names, err := domain.StringList(ev.Parameters[domain.ParamFoodItem])
	if err != nil {
		return domain.Reply{}, err
	}
	qtys, err := domain.QuantityList(ev.Parameters[domain.ParamQuantity])
	if err != nil {
		return domain.Reply{}, err
	}
	if len(names) != len(qtys) {
		return domain.Reply{}, apperrors.MalformedInput(
			fmt.Sprintf("%d food items but %d quantities", len(names), len(qtys)))
	}

	if len(names) == 0 {
		snap, ok := s.store.Get(ev.SessionID)
		if !ok || snap.Cart.IsEmpty() {
			s.store.Touch(ev.SessionID)
			return reply(textSpecifyItems, QuickShowMenu), nil
		}
		s.store.Touch(ev.SessionID)
		return reply(cartText(snap.Cart), QuickShowMenu, QuickCompleteOrder), nil
	}

	var requested domain.Cart
	for i, name := range names {
		if err := requested.Add(name, qtys[i]); err != nil {
			return domain.Reply{}, err
		}
	}

	var valid []domain.CartLine
	var unavailable []string
	for _, line := range requested.Lines() {
		exists, err := s.catalog.ItemExists(ctx, line.Name)
		if err != nil {
			return domain.Reply{}, err
		}
		if exists {
			valid = append(valid, line)
		} else {
			unavailable = append(unavailable, line.Name)
		}
	}

	var unavailableMsg string
	if len(unavailable) > 0 {
		unavailableMsg = unavailableText(unavailable)
		logger.FromContext(ctx).InfoContext(ctx, "requested items not on the menu",
			slog.Any("items", unavailable),
		)
	}

	if len(valid) == 0 {
		snap, ok := s.store.Get(ev.SessionID)
		if !ok || snap.Cart.IsEmpty() {
			s.store.Touch(ev.SessionID)
			return reply(unavailableMsg, QuickShowMenu), nil
		}
		s.store.Touch(ev.SessionID)
		return reply(joinSentences(unavailableMsg, cartText(snap.Cart)), QuickShowMenu, QuickCompleteOrder), nil
	}

	snap, err := s.store.Upsert(ev.SessionID, valid)
	if err != nil {
		return domain.Reply{}, err
	}
	if snap.Stage != domain.StageBuilding {
		s.store.SetStage(ev.SessionID, domain.StageBuilding)
	}
	return reply(joinSentences(unavailableMsg, cartText(snap.Cart)), QuickShowMenu, QuickCompleteOrder), nil
}

// removeItems deletes the named items from the cart. Absent names are
// classified through the catalog before anything is removed so a catalog
// outage leaves the cart untouched.
func (s *OrderingService) removeItems(ctx context.Context, ev domain.Event) (domain.Reply, error) {
	snap, ok := s.store.Get(ev.SessionID)
	if !ok {
		return domain.Reply{}, apperrors.NoActiveSession(ev.SessionID)
	}

	names, err := domain.StringList(ev.Parameters[domain.ParamFoodItem])
	if err != nil {
		return domain.Reply{}, err
	}

	var present, notInCart, notOnMenu []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		if snap.Cart.Contains(name) {
			present = append(present, name)
			continue
		}
		exists, err := s.catalog.ItemExists(ctx, name)
		if err != nil {
			return domain.Reply{}, err
		}
		if exists {
			notInCart = append(notInCart, name)
		} else {
			notOnMenu = append(notOnMenu, name)
		}
	}

	for _, name := range present {
		s.store.RemoveItem(ev.SessionID, name)
	}
	s.store.SetStage(ev.SessionID, domain.StageBuilding)

	var parts []string
	if len(notOnMenu) > 0 {
		parts = append(parts, unavailableText(notOnMenu))
	}
	if len(notInCart) > 0 {
		parts = append(parts, notInCartText(notInCart))
	}
	if len(present) > 0 {
		parts = append(parts, removedText(present))
	}

	current, _ := s.store.Get(ev.SessionID)
	if current.Cart.IsEmpty() {
		parts = append(parts, textEmptyOrder, "Say 'Menu'🍣 to pick something else or 'Cancel order' to stop.")
		return reply(joinSentences(parts...), QuickShowMenu, QuickCancelOrder), nil
	}
	parts = append(parts, cartText(current.Cart))
	return reply(joinSentences(parts...), QuickShowMenu, QuickCompleteOrder), nil
}

// promptConfirm moves a non-empty cart to the Confirming stage.
func (s *OrderingService) promptConfirm(ctx context.Context, ev domain.Event) (domain.Reply, error) {
	snap, ok := s.store.Get(ev.SessionID)
	if !ok {
		return domain.Reply{}, apperrors.NoActiveSession(ev.SessionID)
	}
	if snap.Cart.IsEmpty() {
		s.store.SetStage(ev.SessionID, domain.StageBuilding)
		return reply(joinSentences(textEmptyOrder, "What would you like to add? You can say 'Menu'🍣 to see the list of items."),
			QuickShowMenu), nil
	}

	s.store.SetStage(ev.SessionID, domain.StageConfirming)
	return reply(confirmPromptText(snap.Cart), QuickConfirm, QuickKeepEditing), nil
}

// confirm commits the order on "yes" and returns to editing on "no".
func (s *OrderingService) confirm(ctx context.Context, ev domain.Event) (domain.Reply, error) {
	snap, ok := s.store.Get(ev.SessionID)
	if !ok {
		return domain.Reply{}, apperrors.NoActiveSession(ev.SessionID)
	}

	yes, err := domain.ParseConfirmation(ev.Parameters[domain.ParamConfirmation])
	if err != nil {
		s.store.Touch(ev.SessionID)
		return reply(textAnswerYesNo, QuickConfirm, QuickKeepEditing), nil
	}

	if !yes {
		s.store.SetStage(ev.SessionID, domain.StageBuilding)
		if snap.Cart.IsEmpty() {
			return reply(joinSentences("No problem.", textEmptyOrder), QuickShowMenu), nil
		}
		text := fmt.Sprintf("No problem, your order is unchanged: 🍣 %s. %s", snap.Cart.Summary(), textAskMore)
		return reply(text, QuickShowMenu, QuickCompleteOrder), nil
	}

	if snap.Cart.IsEmpty() {
		s.store.SetStage(ev.SessionID, domain.StageBuilding)
		return reply(joinSentences(textEmptyOrder, "Add something before placing it."), QuickShowMenu), nil
	}

	return s.commit(ctx, ev.SessionID, snap.Cart)
}

func (s *OrderingService) commit(ctx context.Context, sessionID string, cart domain.Cart) (domain.Reply, error) {
	log := logger.FromContext(ctx)

	receipt, err := s.ledger.Commit(ctx, cart.Lines())
	if err == nil && receipt.IsZero() {
		err = apperrors.Persistence("commit order", errors.New("no order id allocated"))
	}
	if err != nil {
		s.store.SetStage(sessionID, domain.StageConfirming)
		var appErr *apperrors.AppError
		if errors.Is(err, apperrors.ErrUnknownItem) && errors.As(err, &appErr) {
			orderCommits.WithLabelValues("unknown_item").Inc()
			log.WarnContext(ctx, "order commit rejected", slog.String("error", err.Error()))
			return reply(noLongerOnMenuText(appErr.Message), QuickShowMenu, QuickKeepEditing), nil
		}
		orderCommits.WithLabelValues("failed").Inc()
		log.ErrorContext(ctx, "order commit failed", slog.String("error", err.Error()))
		return reply(commitFailedText(), QuickConfirm, QuickKeepEditing), nil
	}

	s.store.Clear(sessionID)
	orderCommits.WithLabelValues("committed").Inc()
	log.InfoContext(ctx, "order placed",
		slog.Int64("order_id", receipt.OrderID),
		slog.Int64("total", receipt.Total),
		slog.Int("item_count", cart.ItemCount()),
		slog.Int("active_sessions", s.store.Len()),
	)

	if err := s.events.PublishOrderPlaced(ctx, sessionID, receipt, cart); err != nil {
		log.WarnContext(ctx, "failed to publish order placed event",
			slog.Int64("order_id", receipt.OrderID),
			slog.String("error", err.Error()),
		)
	}

	return reply(placedText(receipt), QuickTrackOrder, QuickNewOrder), nil
}

// cancel discards the session.
func (s *OrderingService) cancel(ctx context.Context, ev domain.Event) (domain.Reply, error) {
	snap, ok := s.store.Get(ev.SessionID)
	if !ok {
		return domain.Reply{}, apperrors.NoActiveSession(ev.SessionID)
	}
	s.store.Clear(ev.SessionID)

	if err := s.events.PublishOrderCancelled(ctx, ev.SessionID, snap.Cart); err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "failed to publish order cancelled event",
			slog.String("error", err.Error()),
		)
	}
	return reply(textOrderCancelled, QuickNewOrder), nil
}

// track reports the status of a committed order.
func (s *OrderingService) track(ctx context.Context, ev domain.Event) (domain.Reply, error) {
	orderID, err := domain.ParseOrderID(ev.Parameters[domain.ParamOrderID])
	if err != nil {
		return reply(textTrackRephrase), nil
	}

	status, err := s.ledger.GetStatus(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return reply(trackMissingText(orderID), QuickTrackOrder, QuickNewOrder), nil
		}
		logger.FromContext(ctx).ErrorContext(ctx, "order status lookup failed",
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
		return reply(trackFailedText(orderID), QuickTrackOrder), nil
	}
	return reply(trackText(orderID, status), QuickNewOrder), nil
}

// TrackOrder returns the full order for the REST tracking endpoint.
func (s *OrderingService) TrackOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, apperrors.MalformedInput("order id must be positive")
	}
	return s.ledger.GetOrder(ctx, orderID)
}

// ActiveSessions returns the number of live conversations.
func (s *OrderingService) ActiveSessions() int {
	return s.store.Len()
}

func intentLabel(intent string) string {
	if i := strings.IndexByte(intent, ' '); i > 0 {
		return intent[:i]
	}
	if intent == "" {
		return "unknown"
	}
	return intent
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNoActiveSession):
		return "no_active_session"
	case errors.Is(err, apperrors.ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, apperrors.ErrCatalogUnavailable):
		return "catalog_unavailable"
	case errors.Is(err, apperrors.ErrPersistence):
		return "persistence_error"
	default:
		return "error"
	}
}
