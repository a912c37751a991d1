package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
	"github.com/lisek75/uma-food-chatbot/internal/event"
	"github.com/lisek75/uma-food-chatbot/internal/session"
	apperrors "github.com/lisek75/uma-food-chatbot/pkg/errors"
	pkgkafka "github.com/lisek75/uma-food-chatbot/pkg/kafka"
)

// --- Mock Ledger ---

type mockLedgerRepository struct {
	mock.Mock
}

func (m *mockLedgerRepository) Commit(ctx context.Context, lines []domain.CartLine) (domain.Receipt, error) {
	args := m.Called(ctx, lines)
	return args.Get(0).(domain.Receipt), args.Error(1)
}

func (m *mockLedgerRepository) GetStatus(ctx context.Context, orderID int64) (string, error) {
	args := m.Called(ctx, orderID)
	return args.String(0), args.Error(1)
}

func (m *mockLedgerRepository) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// --- Test Helpers ---

type testEnv struct {
	svc     *OrderingService
	catalog *mockCatalogRepository
	ledger  *mockLedgerRepository
	writer  *fakeWriter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	catalog := new(mockCatalogRepository)
	ledger := new(mockLedgerRepository)
	writer := &fakeWriter{}
	log := newTestLogger()

	gateway := NewCatalogGateway(catalog, testBreakerConfig(t.Name()), log)
	producer := event.NewProducer(pkgkafka.NewProducerWithWriter(writer, []string{"localhost:9092"}, log), log)
	svc := NewOrderingService(session.NewStore(), gateway, ledger, producer, log)

	return &testEnv{svc: svc, catalog: catalog, ledger: ledger, writer: writer}
}

func (e *testEnv) dispatch(intent, sessionID string, params map[string]any) domain.Reply {
	return e.svc.Dispatch(context.Background(), domain.Event{
		Intent:     intent,
		SessionID:  sessionID,
		Parameters: params,
	})
}

func addParams(items []any, qtys []any) map[string]any {
	return map[string]any{domain.ParamFoodItem: items, domain.ParamQuantity: qtys}
}

func removeParams(items ...any) map[string]any {
	return map[string]any{domain.ParamFoodItem: items}
}

func confirmParams(v any) map[string]any {
	return map[string]any{domain.ParamConfirmation: v}
}

func (e *testEnv) cart(t *testing.T, sessionID string) domain.Cart {
	t.Helper()
	snap, ok := e.svc.store.Get(sessionID)
	require.True(t, ok, "session %s should exist", sessionID)
	return snap.Cart
}

// --- Scenarios ---

func TestOrdering_TunaSushiChirasiScenario(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-1"

	r := env.dispatch(domain.IntentNewOrder, sid, nil)
	assert.Contains(t, r.Text, "New order started")
	assert.Contains(t, r.Text, "Tuna Sushi, Chirasi, Salmon Nigiri")

	r = env.dispatch(domain.IntentAddItems, sid, addParams(
		[]any{"Tuna Sushi", "Chirasi"}, []any{float64(2), float64(1)}))
	assert.Contains(t, r.Text, "2 Tuna Sushi, 1 Chirasi")
	assert.Equal(t, []string{QuickShowMenu, QuickCompleteOrder}, r.QuickReplies)

	r = env.dispatch(domain.IntentCompleteOrder, sid, nil)
	assert.Contains(t, r.Text, "2 Tuna Sushi, 1 Chirasi")
	assert.Equal(t, []string{QuickConfirm, QuickKeepEditing}, r.QuickReplies)
	snap, _ := env.svc.store.Get(sid)
	assert.Equal(t, domain.StageConfirming, snap.Stage)

	want := []domain.CartLine{{Name: "Tuna Sushi", Quantity: 2}, {Name: "Chirasi", Quantity: 1}}
	env.ledger.On("Commit", mock.Anything, want).Return(domain.Receipt{OrderID: 41, Total: 4300}, nil).Once()

	r = env.dispatch(domain.IntentConfirmOrder, sid, confirmParams("true"))
	assert.Equal(t,
		"Awesome 🎉! We have placed your order id 41. Your order total is $43.00 which you can pay at the time of delivery 📦.",
		r.Text)
	assert.Equal(t, []string{QuickTrackOrder, QuickNewOrder}, r.QuickReplies)

	_, ok := env.svc.store.Get(sid)
	assert.False(t, ok, "session should be cleared after commit")
	env.ledger.AssertExpectations(t)

	require.Len(t, env.writer.msgs, 1)
	assert.Equal(t, "chatbot.order.placed", env.writer.msgs[0].Topic)
	var evt pkgkafka.Event
	require.NoError(t, json.Unmarshal(env.writer.msgs[0].Value, &evt))
	assert.Equal(t, "41", evt.AggregateID)
}

func TestOrdering_NonexistentRoll(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)

	r := env.dispatch(domain.IntentAddItems, "sess-2", addParams([]any{"Nonexistent Roll"}, []any{float64(1)}))

	assert.Contains(t, r.Text, "Nonexistent Roll")
	assert.Contains(t, r.Text, "aren't available")
	assert.Equal(t, 0, env.svc.ActiveSessions())
}

func TestOrdering_AddMixesValidAndUnavailable(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-3"

	r := env.dispatch(domain.IntentAddItems, sid, addParams(
		[]any{"Tuna Sushi", "Nonexistent Roll", "Tuna Sushi"}, []any{float64(1), float64(3), "2"}))

	assert.Contains(t, r.Text, "🚫Nonexistent Roll")
	assert.Contains(t, r.Text, "3 Tuna Sushi")
	assert.Equal(t, 3, env.cart(t, sid).Quantity("Tuna Sushi"))
	assert.False(t, env.cart(t, sid).Contains("Nonexistent Roll"))
}

func TestOrdering_AddMergesIntoExistingCart(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-4"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi", "Salmon Nigiri"}, []any{float64(2), float64(4)}))

	cart := env.cart(t, sid)
	assert.Equal(t, "3 Chirasi, 4 Salmon Nigiri", cart.Summary())
}

func TestOrdering_AddMalformed_NoMutation(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"length mismatch", addParams([]any{"Tuna Sushi", "Chirasi"}, []any{float64(1)})},
		{"fractional qty", addParams([]any{"Tuna Sushi"}, []any{1.5})},
		{"zero qty", addParams([]any{"Tuna Sushi"}, []any{float64(0)})},
		{"non-numeric qty", addParams([]any{"Tuna Sushi"}, []any{"many"})},
		{"one bad qty fails all", addParams([]any{"Tuna Sushi", "Chirasi"}, []any{float64(2), float64(-1)})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			stubMenu(env.catalog)
			const sid = "sess-5"
			env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))

			r := env.dispatch(domain.IntentAddItems, sid, tt.params)

			assert.Equal(t, textRephraseItems, r.Text)
			assert.Equal(t, "1 Chirasi", env.cart(t, sid).Summary())
		})
	}
}

func TestOrdering_AddQuantityLimit_NoMutation(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-5b"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Tuna Sushi"}, []any{"998"}))

	for _, qtys := range [][]any{
		{"9223372036854775807"},
		{"2"},
		{float64(domain.MaxLineQuantity)},
	} {
		r := env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Tuna Sushi"}, qtys))
		assert.Equal(t, textRephraseItems, r.Text, "%v", qtys)
		assert.Equal(t, 998, env.cart(t, sid).Quantity("Tuna Sushi"))
	}

	r := env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Tuna Sushi", "Tuna Sushi"}, []any{"1", "1"}))
	assert.Equal(t, textRephraseItems, r.Text)

	r = env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Tuna Sushi"}, []any{"1"}))
	assert.Contains(t, r.Text, "999 Tuna Sushi")
	assert.Equal(t, domain.MaxLineQuantity, env.cart(t, sid).Quantity("Tuna Sushi"))
}

func TestOrdering_AddNoItems_ReportsSummary(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-6"

	r := env.dispatch(domain.IntentAddItems, sid, nil)
	assert.Equal(t, textSpecifyItems, r.Text)

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	r = env.dispatch(domain.IntentAddItems, sid, addParams([]any{}, []any{}))
	assert.Contains(t, r.Text, "1 Chirasi")
}

func TestOrdering_AddCatalogDown_CartUntouched(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.On("Lookup", mock.Anything, "Chirasi").Return(menuItem("Chirasi"), nil).Once()
	env.catalog.On("Lookup", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	const sid = "sess-7"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	r := env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Tuna Sushi"}, []any{float64(2)}))

	assert.Equal(t, textCatalogDown, r.Text)
	assert.Equal(t, "1 Chirasi", env.cart(t, sid).Summary())
}

func TestOrdering_AddAfterPromptReturnsToBuilding(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-8"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	env.dispatch(domain.IntentCompleteOrder, sid, nil)
	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Tuna Sushi"}, []any{float64(1)}))

	snap, _ := env.svc.store.Get(sid)
	assert.Equal(t, domain.StageBuilding, snap.Stage)
}

func TestOrdering_SequentialAddRemoveNetEffect(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-9"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Tuna Sushi", "Chirasi"}, []any{float64(2), float64(1)}))
	env.dispatch(domain.IntentRemoveItems, sid, removeParams("Tuna Sushi"))
	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Salmon Nigiri", "Chirasi"}, []any{float64(1), float64(1)}))

	assert.Equal(t, "2 Chirasi, 1 Salmon Nigiri", env.cart(t, sid).Summary())
}

func TestOrdering_Remove_NoSession(t *testing.T) {
	env := newTestEnv(t)

	r := env.dispatch(domain.IntentRemoveItems, "ghost", removeParams("Chirasi"))

	assert.Equal(t, textNoActiveOrder, r.Text)
	assert.Equal(t, []string{QuickNewOrder}, r.QuickReplies)
	assert.Equal(t, 0, env.svc.ActiveSessions())
}

func TestOrdering_Remove_ClassifiesAbsentNames(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-10"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Tuna Sushi", "Chirasi"}, []any{float64(2), float64(1)}))
	r := env.dispatch(domain.IntentRemoveItems, sid, removeParams("Chirasi", "Salmon Nigiri", "Pizza"))

	assert.Contains(t, r.Text, "🚫Pizza")
	assert.Contains(t, r.Text, "does not have: Salmon Nigiri")
	assert.Contains(t, r.Text, "Removed Chirasi from your order.")
	assert.Contains(t, r.Text, "2 Tuna Sushi")
	assert.Equal(t, "2 Tuna Sushi", env.cart(t, sid).Summary())
}

func TestOrdering_Remove_EmptyResultKeepsSession(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-11"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	r := env.dispatch(domain.IntentRemoveItems, sid, removeParams("Chirasi"))

	assert.Contains(t, r.Text, textEmptyOrder)
	assert.Equal(t, []string{QuickShowMenu, QuickCancelOrder}, r.QuickReplies)
	assert.True(t, env.cart(t, sid).IsEmpty())
}

func TestOrdering_Remove_CatalogDownLeavesCart(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.On("Lookup", mock.Anything, "Chirasi").Return(menuItem("Chirasi"), nil).Once()
	env.catalog.On("Lookup", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	const sid = "sess-12"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	r := env.dispatch(domain.IntentRemoveItems, sid, removeParams("Chirasi", "Tuna Sushi"))

	assert.Equal(t, textCatalogDown, r.Text)
	assert.Equal(t, "1 Chirasi", env.cart(t, sid).Summary())
}

func TestOrdering_Complete_EmptyCart(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-13"

	env.dispatch(domain.IntentNewOrder, sid, nil)
	r := env.dispatch(domain.IntentCompleteOrder, sid, nil)

	assert.Contains(t, r.Text, textEmptyOrder)
	snap, _ := env.svc.store.Get(sid)
	assert.Equal(t, domain.StageBuilding, snap.Stage)
}

func TestOrdering_Complete_NoSession(t *testing.T) {
	env := newTestEnv(t)

	r := env.dispatch(domain.IntentCompleteOrder, "ghost", nil)

	assert.Equal(t, textNoActiveOrder, r.Text)
}

func TestOrdering_ConfirmNo_PreservesCart(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-14"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Tuna Sushi"}, []any{float64(2)}))
	env.dispatch(domain.IntentCompleteOrder, sid, nil)
	r := env.dispatch(domain.IntentConfirmOrder, sid, confirmParams(false))

	assert.Contains(t, r.Text, "unchanged")
	snap, ok := env.svc.store.Get(sid)
	require.True(t, ok)
	assert.Equal(t, domain.StageBuilding, snap.Stage)
	assert.Equal(t, "2 Tuna Sushi", snap.Cart.Summary())
	env.ledger.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestOrdering_ConfirmInvalidAnswer(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-15"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Tuna Sushi"}, []any{float64(2)}))
	r := env.dispatch(domain.IntentConfirmOrder, sid, confirmParams("maybe"))

	assert.Equal(t, textAnswerYesNo, r.Text)
	env.ledger.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestOrdering_ConfirmEmptyCart_SkipsLedger(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-16"

	env.dispatch(domain.IntentNewOrder, sid, nil)
	r := env.dispatch(domain.IntentConfirmOrder, sid, confirmParams(true))

	assert.Contains(t, r.Text, textEmptyOrder)
	env.ledger.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestOrdering_CommitFailure_KeepsSession(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-17"
	env.ledger.On("Commit", mock.Anything, mock.Anything).
		Return(domain.Receipt{}, apperrors.Persistence("commit order", errors.New("connection reset")))

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	env.dispatch(domain.IntentCompleteOrder, sid, nil)
	r := env.dispatch(domain.IntentConfirmOrder, sid, confirmParams(true))

	assert.Equal(t, commitFailedText(), r.Text)
	snap, ok := env.svc.store.Get(sid)
	require.True(t, ok)
	assert.Equal(t, domain.StageConfirming, snap.Stage)
	assert.Equal(t, "1 Chirasi", snap.Cart.Summary())
	assert.Empty(t, env.writer.msgs)
}

func TestOrdering_CommitWithoutOrderIDKeepsSession(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-17b"
	env.ledger.On("Commit", mock.Anything, mock.Anything).Return(domain.Receipt{}, nil)

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	r := env.dispatch(domain.IntentConfirmOrder, sid, confirmParams(true))

	assert.Equal(t, commitFailedText(), r.Text)
	assert.Equal(t, "1 Chirasi", env.cart(t, sid).Summary())
	assert.Empty(t, env.writer.msgs)
}

func TestOrdering_CommitUnknownItem(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-18"
	env.ledger.On("Commit", mock.Anything, mock.Anything).
		Return(domain.Receipt{}, apperrors.UnknownItem("Chirasi"))

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	r := env.dispatch(domain.IntentConfirmOrder, sid, confirmParams(true))

	assert.Contains(t, r.Text, "not on the menu: Chirasi")
	assert.Equal(t, "1 Chirasi", env.cart(t, sid).Summary())
}

func TestOrdering_PublishFailureDoesNotFailReply(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	env.writer.err = errors.New("broker down")
	const sid = "sess-19"
	env.ledger.On("Commit", mock.Anything, mock.Anything).Return(domain.Receipt{OrderID: 7, Total: 1900}, nil)

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	r := env.dispatch(domain.IntentConfirmOrder, sid, confirmParams(true))

	assert.Contains(t, r.Text, "order id 7")
	assert.Contains(t, r.Text, "$19.00")
}

func TestOrdering_Cancel(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-20"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	r := env.dispatch(domain.IntentCancelOrder, sid, nil)

	assert.Equal(t, textOrderCancelled, r.Text)
	_, ok := env.svc.store.Get(sid)
	assert.False(t, ok)
	require.Len(t, env.writer.msgs, 1)
	assert.Equal(t, "chatbot.order.cancelled", env.writer.msgs[0].Topic)

	r = env.dispatch(domain.IntentCancelOrder, sid, nil)
	assert.Equal(t, textNoActiveOrder, r.Text)
}

func TestOrdering_NewOrderResumesCart(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-21"

	env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(1)}))
	env.dispatch(domain.IntentCompleteOrder, sid, nil)
	r := env.dispatch(domain.IntentNewOrder, sid, nil)

	assert.Contains(t, r.Text, "Welcome back")
	assert.Contains(t, r.Text, "1 Chirasi")
	snap, _ := env.svc.store.Get(sid)
	assert.Equal(t, domain.StageBuilding, snap.Stage)
}

func TestOrdering_NewOrderMenuUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.On("Menu", mock.Anything).Return(nil, errors.New("connection refused"))

	r := env.dispatch(domain.IntentNewOrder, "sess-22", nil)

	assert.Contains(t, r.Text, "New order started")
	assert.Contains(t, r.Text, textMenuUnavailable)
	assert.Equal(t, 1, env.svc.ActiveSessions())
}

func TestOrdering_Menu(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)

	r := env.dispatch(domain.IntentMenu, "", nil)

	assert.Contains(t, r.Text, "Tuna Sushi, Chirasi, Salmon Nigiri")
}

func TestOrdering_Track(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.On("GetStatus", mock.Anything, int64(41)).Return(domain.OrderStatusInProgress, nil)
	env.ledger.On("GetStatus", mock.Anything, int64(999)).Return("", apperrors.NotFound("order", "999"))
	env.ledger.On("GetStatus", mock.Anything, int64(5)).Return("", apperrors.Persistence("get order status", errors.New("timeout")))

	tests := []struct {
		name  string
		param any
		want  string
	}{
		{"in progress", float64(41), "The order 41 is in progress."},
		{"string id", "41", "The order 41 is in progress."},
		{"unknown", float64(999), "The order 999 doesn't exist."},
		{"lookup failure", float64(5), trackFailedText(5)},
		{"not numeric", "abc", textTrackRephrase},
		{"missing", nil, textTrackRephrase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := env.dispatch(domain.IntentTrackOrder, "sess-track", map[string]any{domain.ParamOrderID: tt.param})
			assert.Equal(t, tt.want, r.Text)
		})
	}
	assert.Equal(t, 0, env.svc.ActiveSessions())
}

func TestOrdering_UnknownIntent(t *testing.T) {
	env := newTestEnv(t)

	r := env.dispatch("smalltalk.greetings", "sess-23", nil)

	assert.Equal(t, textNotUnderstood, r.Text)
}

func TestOrdering_MissingSessionID(t *testing.T) {
	env := newTestEnv(t)

	r := env.dispatch(domain.IntentAddItems, "", addParams([]any{"Chirasi"}, []any{float64(1)}))

	assert.Equal(t, textLostSession, r.Text)
	assert.Equal(t, 0, env.svc.ActiveSessions())
}

func TestOrdering_PanicBecomesReply(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.On("Lookup", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("boom")
	}).Return(nil, nil)

	r := env.dispatch(domain.IntentAddItems, "sess-24", addParams([]any{"Chirasi"}, []any{float64(1)}))

	assert.Equal(t, textGenericFailure, r.Text)

	// The session lock must have been released.
	unlock := env.svc.store.Lock("sess-24")
	unlock()
}

func TestOrdering_ConcurrentAddsSameSession(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sid = "sess-25"
	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Tuna Sushi"}, []any{float64(1)}))
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, env.cart(t, sid).Quantity("Tuna Sushi"))
}

func TestOrdering_ConcurrentSessionsAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	stubMenu(env.catalog)
	const sessions = 20

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("sess-%d", i)
			env.dispatch(domain.IntentAddItems, sid, addParams([]any{"Chirasi"}, []any{float64(i + 1)}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, sessions, env.svc.ActiveSessions())
	assert.Equal(t, 7, env.cart(t, "sess-6").Quantity("Chirasi"))
}

func TestOrdering_TrackOrder(t *testing.T) {
	env := newTestEnv(t)
	order := &domain.Order{ID: 41, Status: domain.OrderStatusDelivered, Total: 4300}
	env.ledger.On("GetOrder", mock.Anything, int64(41)).Return(order, nil)

	got, err := env.svc.TrackOrder(context.Background(), 41)
	require.NoError(t, err)
	assert.Equal(t, order, got)

	_, err = env.svc.TrackOrder(context.Background(), 0)
	assert.True(t, errors.Is(err, apperrors.ErrMalformedInput))
}
