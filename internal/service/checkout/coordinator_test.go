package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type countingCatalog struct {
	domain.CatalogRepository
	calls       int
	setStockErr map[int64]error
}

func (c *countingCatalog) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	c.calls++
	return c.CatalogRepository.GetProduct(ctx, id)
}

func (c *countingCatalog) SetStock(ctx context.Context, id int64, stock int) error {
	c.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.setStockErr[id]; err != nil {
		return err
	}
	return c.CatalogRepository.SetStock(ctx, id, stock)
}

type countingOrders struct {
	domain.OrderRepository
	calls     int
	createErr error
}

func (o *countingOrders) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	o.calls++
	if o.createErr != nil {
		return domain.Order{}, o.createErr
	}
	return o.OrderRepository.Create(ctx, order)
}

func (o *countingOrders) MarkInventoryUnreconciled(ctx context.Context, id int64) error {
	o.calls++
	return o.OrderRepository.MarkInventoryUnreconciled(ctx, id)
}

type fixture struct {
	catalog  *countingCatalog
	orders   *countingOrders
	outbox   *memory.OutboxRepository
	store    *memory.CartStore
	engine   *cart.Engine
	products []domain.Product
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("component", "test")
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	catalog := memory.NewCatalogRepository()
	black, err := catalog.CreateProduct(ctx, domain.Product{Name: "Recaro Seat Black", Price: decimal.NewFromInt(15000), Stock: 5})
	require.NoError(t, err)
	tire, err := catalog.CreateProduct(ctx, domain.Product{Name: "Car Tire 17\"", Price: decimal.RequireFromString("8000.50"), Stock: 10})
	require.NoError(t, err)

	store := memory.NewCartStore(time.Hour)
	return &fixture{
		catalog:  &countingCatalog{CatalogRepository: catalog, setStockErr: map[int64]error{}},
		orders:   &countingOrders{OrderRepository: memory.NewOrderRepository()},
		outbox:   memory.NewOutboxRepository(),
		store:    store,
		engine:   cart.NewEngine(store, testLogger()),
		products: []domain.Product{black, tire},
	}
}

func (f *fixture) coordinator(options ...Option) *Coordinator {
	options = append([]Option{WithLogger(testLogger()), WithOutbox(f.outbox)}, options...)
	return NewCoordinator(f.catalog, f.orders, f.engine, options...)
}

func (f *fixture) session(t *testing.T, ids ...int64) *cart.Session {
	t.Helper()
	ctx := context.Background()
	s, err := f.engine.Load(ctx, "session-1", cart.NewSnapshot(f.products))
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, f.engine.AddUnit(ctx, s, id))
	}
	return s
}

func validDetails() domain.CheckoutDetails {
	return domain.CheckoutDetails{
		CustomerName:  "Ivan",
		Email:         "ivan@example.com",
		Address:       "Moscow, Tverskaya 1",
		PaymentMethod: "card",
	}
}

func stockOf(t *testing.T, f *fixture, id int64) int {
	t.Helper()
	p, err := f.catalog.CatalogRepository.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCheckout_Success(t *testing.T) {
	f := newFixture(t)
	black, tire := f.products[0].ID, f.products[1].ID
	s := f.session(t, black, tire, black)

	result, err := f.coordinator().Checkout(context.Background(), s, validDetails())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, result.State)
	assert.Empty(t, result.Unreconciled)
	require.Len(t, result.Order.Items, 2)
	assert.Equal(t, "Recaro Seat Black", result.Order.Items[0].ProductName)
	assert.Equal(t, 2, result.Order.Items[0].Quantity)
	assert.Equal(t, 1, result.Order.Items[1].Quantity)
	assert.True(t, decimal.RequireFromString("38000.50").Equal(result.Order.Total), "total %s", result.Order.Total)
	assert.Equal(t, domain.OrderStatusPlaced, result.Order.Status)

	assert.Equal(t, 3, stockOf(t, f, black))
	assert.Equal(t, 9, stockOf(t, f, tire))

	assert.True(t, s.Cart.IsEmpty())
	payload, err := f.store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Nil(t, payload)

	orders, err := f.orders.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, result.Order.ID, orders[0].ID)

	pending := f.outbox.AllPending()
	require.Len(t, pending, 1)
	assert.Equal(t, domain.EventOrderPlaced, pending[0].EventType)
	assert.Equal(t, domain.AggregateOrder, pending[0].AggregateType)

	var event OrderEvent
	require.NoError(t, json.Unmarshal(pending[0].Payload, &event))
	assert.Equal(t, result.Order.ID, event.OrderID)
	assert.Len(t, event.Items, 2)
}

func TestCheckout_EmptyCartTouchesNoStore(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)

	result, err := f.coordinator(WithStockRefresh(true)).Checkout(context.Background(), s, validDetails())
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Equal(t, StateRejected, result.State)
	assert.Zero(t, f.catalog.calls)
	assert.Zero(t, f.orders.calls)
	assert.Empty(t, f.outbox.AllPending())
}

func TestCheckout_InvalidDetailsRejected(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, f.products[0].ID)

	details := validDetails()
	details.PaymentMethod = "  "

	result, err := f.coordinator().Checkout(context.Background(), s, details)
	require.ErrorIs(t, err, domain.ErrPaymentMethodRequired)
	assert.Equal(t, StateRejected, result.State)
	assert.Zero(t, f.orders.calls)
	assert.Equal(t, 1, s.Cart.Len())
}

func TestCheckout_InsufficientStockAgainstSnapshot(t *testing.T) {
	f := newFixture(t)
	black := f.products[0].ID
	s := f.session(t, black, black, black)

	stale := f.products[0]
	stale.Stock = 2
	s.Snapshot = cart.NewSnapshot([]domain.Product{stale, f.products[1]})

	result, err := f.coordinator().Checkout(context.Background(), s, validDetails())
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Recaro Seat Black", stockErr.ProductName)
	assert.Equal(t, 2, stockErr.Available)

	assert.Equal(t, StateRejected, result.State)
	assert.Zero(t, f.orders.calls)
	assert.Equal(t, 5, stockOf(t, f, black))
	assert.Equal(t, 3, s.Cart.Len())
}

func TestCheckout_ProductMissingFromSnapshot(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, f.products[1].ID)
	s.Snapshot = cart.NewSnapshot([]domain.Product{f.products[0]})

	_, err := f.coordinator().Checkout(context.Background(), s, validDetails())
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestCheckout_StockRefreshReadsCatalog(t *testing.T) {
	f := newFixture(t)
	black := f.products[0].ID
	s := f.session(t, black, black)

	require.NoError(t, f.catalog.CatalogRepository.SetStock(context.Background(), black, 1))

	_, err := f.coordinator(WithStockRefresh(true)).Checkout(context.Background(), s, validDetails())
	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.Zero(t, f.orders.calls)
}

func TestCheckout_StaleSnapshotOverwritesStock(t *testing.T) {
	f := newFixture(t)
	black := f.products[0].ID
	s := f.session(t, black)

	// Остаток изменился после загрузки снимка; без refresh списание идёт от снимка.
	require.NoError(t, f.catalog.CatalogRepository.SetStock(context.Background(), black, 2))

	_, err := f.coordinator().Checkout(context.Background(), s, validDetails())
	require.NoError(t, err)
	assert.Equal(t, 4, stockOf(t, f, black))
}

func TestCheckout_SubmissionFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	black := f.products[0].ID
	s := f.session(t, black)
	f.orders.createErr = errors.New("connection refused")

	result, err := f.coordinator().Checkout(context.Background(), s, validDetails())
	require.ErrorIs(t, err, domain.ErrOrderSubmissionFailed)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 5, stockOf(t, f, black))
	assert.Equal(t, 1, s.Cart.Len())
	assert.Empty(t, f.outbox.AllPending())

	payload, err := f.store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.NotNil(t, payload)
}

func TestCheckout_PartialStockFailureMarksOrder(t *testing.T) {
	f := newFixture(t)
	black, tire := f.products[0].ID, f.products[1].ID
	s := f.session(t, black, tire)
	f.catalog.setStockErr[black] = errors.New("deadlock detected")

	result, err := f.coordinator().Checkout(context.Background(), s, validDetails())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, result.State)
	require.Len(t, result.Unreconciled, 1)
	assert.Equal(t, black, result.Unreconciled[0].ProductID)
	assert.ErrorIs(t, result.Unreconciled[0], domain.ErrStockReconciliationFailed)
	assert.Equal(t, domain.OrderStatusInventoryUnreconciled, result.Order.Status)

	assert.Equal(t, 5, stockOf(t, f, black))
	assert.Equal(t, 9, stockOf(t, f, tire))
	assert.True(t, s.Cart.IsEmpty())

	orders, err := f.orders.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusInventoryUnreconciled, orders[0].Status)

	pending := f.outbox.AllPending()
	require.Len(t, pending, 2)
	assert.Equal(t, domain.EventOrderPlaced, pending[0].EventType)
	assert.Equal(t, domain.EventOrderInventoryUnreconciled, pending[1].EventType)
}

func TestCheckout_CancelledContextStillReducesStock(t *testing.T) {
	f := newFixture(t)
	black := f.products[0].ID
	s := f.session(t, black)

	ctx, cancel := context.WithCancel(context.Background())
	f.orders.OrderRepository = cancelAfterCreate{OrderRepository: f.orders.OrderRepository, cancel: cancel}

	_, err := f.coordinator().Checkout(ctx, s, validDetails())
	require.NoError(t, err)
	assert.Equal(t, 4, stockOf(t, f, black))
}

type cancelAfterCreate struct {
	domain.OrderRepository
	cancel context.CancelFunc
}

func (c cancelAfterCreate) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	created, err := c.OrderRepository.Create(ctx, order)
	c.cancel()
	return created, err
}

func TestCheckout_RejectsConcurrentAttemptForSameSession(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, f.products[0].ID)
	c := f.coordinator()

	c.inFlight.Store(s.ID, struct{}{})
	result, err := c.Checkout(context.Background(), s, validDetails())
	require.ErrorIs(t, err, domain.ErrCheckoutInProgress)
	assert.Equal(t, StateRejected, result.State)
	assert.Zero(t, f.orders.calls)

	c.inFlight.Delete(s.ID)
	_, err = c.Checkout(context.Background(), s, validDetails())
	require.NoError(t, err)
}

func TestCheckout_RecordsMetrics(t *testing.T) {
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	c := f.coordinator(WithMetrics(metrics.NewCheckoutMetricsWithRegisterer(reg)))

	_, err := c.Checkout(context.Background(), f.session(t), validDetails())
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	_, err = c.Checkout(context.Background(), f.session(t, f.products[0].ID), validDetails())
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "storefront_checkout_attempts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per result")

	count, err = testutil.GatherAndCount(reg, "storefront_checkout_rejections_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from, to State
		allowed  bool
	}{
		{StateIdle, StateValidating, true},
		{StateValidating, StateSubmitting, true},
		{StateValidating, StateRejected, true},
		{StateSubmitting, StateReducingStock, true},
		{StateSubmitting, StateFailed, true},
		{StateReducingStock, StateCompleted, true},
		{StateIdle, StateSubmitting, false},
		{StateValidating, StateFailed, false},
		{StateReducingStock, StateFailed, false},
		{StateCompleted, StateIdle, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransitionTo(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	for _, s := range []State{StateCompleted, StateRejected, StateFailed} {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, StateReducingStock.IsTerminal())

	m := newMachine()
	require.ErrorIs(t, m.transition(StateCompleted), ErrIllegalTransition)
	require.NoError(t, m.transition(StateValidating))
	assert.Equal(t, []State{StateIdle, StateValidating}, m.history)
}

type flakyCartStore struct {
	*memory.CartStore
	deleteErr error
	saveErr   error
}

func (s *flakyCartStore) Save(ctx context.Context, id string, payload []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.CartStore.Save(ctx, id, payload)
}

func (s *flakyCartStore) Delete(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.CartStore.Delete(ctx, id)
}

func TestCheckout_DeleteFailureDoesNotReplayOrder(t *testing.T) {
	f := newFixture(t)
	flaky := &flakyCartStore{CartStore: f.store}
	f.engine = cart.NewEngine(flaky, testLogger())
	black := f.products[0].ID
	s := f.session(t, black)
	coordinator := f.coordinator()

	flaky.deleteErr = errors.New("delete timeout")
	result, err := coordinator.Checkout(context.Background(), s, validDetails())
	require.NoError(t, err)
	assert.False(t, result.CartRetained)

	reloaded, err := f.engine.Load(context.Background(), s.ID, cart.NewSnapshot(f.products))
	require.NoError(t, err)
	assert.True(t, reloaded.Cart.IsEmpty())

	_, err = coordinator.Checkout(context.Background(), reloaded, validDetails())
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Equal(t, 4, stockOf(t, f, black))

	orders, err := f.orders.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestCheckout_ClearFailureReportsRetainedCart(t *testing.T) {
	f := newFixture(t)
	flaky := &flakyCartStore{CartStore: f.store}
	f.engine = cart.NewEngine(flaky, testLogger())
	s := f.session(t, f.products[0].ID)

	flaky.deleteErr = errors.New("delete timeout")
	flaky.saveErr = errors.New("save timeout")
	result, err := f.coordinator().Checkout(context.Background(), s, validDetails())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, result.State)
	assert.True(t, result.CartRetained)
	assert.True(t, s.Cart.IsEmpty())
}
