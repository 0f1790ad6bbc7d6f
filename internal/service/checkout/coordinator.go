package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Шаги оформления для метрик длительности.
const (
	stepValidate    = "validate"
	stepSubmit      = "submit"
	stepReduceStock = "reduce_stock"
)

// Result — итог попытки оформления.
type Result struct {
	Order domain.Order
	State State
	// Unreconciled содержит ошибки списания остатков; заказ при этом уже создан.
	Unreconciled []*ReconciliationError
	// CartRetained означает, что заказ создан, но сохранённую корзину очистить не удалось.
	CartRetained bool
}

// ReconciliationError описывает товар, остаток которого не удалось списать после создания заказа.
type ReconciliationError struct {
	ProductID   int64
	ProductName string
	Quantity    int
	Err         error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("%v for %s (qty %d): %v", domain.ErrStockReconciliationFailed, e.ProductName, e.Quantity, e.Err)
}

func (e *ReconciliationError) Unwrap() []error {
	return []error{domain.ErrStockReconciliationFailed, e.Err}
}

// Coordinator превращает корзину сессии в заказ и списывает остатки.
type Coordinator struct {
	catalog domain.CatalogRepository
	orders  domain.OrderRepository
	carts   *cart.Engine

	outbox       domain.OutboxRepository
	metrics      *metrics.CheckoutMetrics
	logger       *log.Entry
	refreshStock bool

	inFlight sync.Map
}

// NewCoordinator создаёт Coordinator.
func NewCoordinator(catalog domain.CatalogRepository, orders domain.OrderRepository, carts *cart.Engine, options ...Option) *Coordinator {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "checkout")
	}

	return &Coordinator{
		catalog:      catalog,
		orders:       orders,
		carts:        carts,
		outbox:       opts.Outbox,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		refreshStock: opts.RefreshStock,
	}
}

// Checkout оформляет заказ по корзине сессии.
//
// Ошибки до создания заказа не меняют ни хранилище, ни корзину.
// После создания заказа ошибки списания остатков не отменяют заказ:
// они возвращаются в Result.Unreconciled, а заказ помечается inventory_unreconciled.
func (c *Coordinator) Checkout(ctx context.Context, s *cart.Session, details domain.CheckoutDetails) (Result, error) {
	if _, busy := c.inFlight.LoadOrStore(s.ID, struct{}{}); busy {
		c.metrics.RecordRejection(rejectionReason(domain.ErrCheckoutInProgress))
		return Result{State: StateRejected}, domain.ErrCheckoutInProgress
	}
	defer c.inFlight.Delete(s.ID)

	started := time.Now()
	c.metrics.RecordStarted()

	logger := c.logger.WithField("session_id", s.ID)
	m := newMachine()

	result, err := c.run(ctx, s, details, m, logger)
	result.State = m.state

	switch m.state {
	case StateCompleted:
		c.metrics.RecordFinished(metrics.ResultCompleted, time.Since(started))
	case StateRejected:
		c.metrics.RecordRejection(rejectionReason(err))
		c.metrics.RecordFinished(metrics.ResultRejected, time.Since(started))
	default:
		c.metrics.RecordFinished(metrics.ResultFailed, time.Since(started))
	}
	return result, err
}

func (c *Coordinator) run(ctx context.Context, s *cart.Session, details domain.CheckoutDetails, m *machine, logger *log.Entry) (Result, error) {
	if err := m.transition(StateValidating); err != nil {
		return Result{}, err
	}

	stepStart := time.Now()
	lines, err := c.validate(ctx, s, details)
	c.metrics.RecordStepDuration(stepValidate, time.Since(stepStart))
	if err != nil {
		logger.WithError(err).Info("checkout rejected")
		return Result{}, m.fail(StateRejected, err)
	}

	if err := m.transition(StateSubmitting); err != nil {
		return Result{}, err
	}

	stepStart = time.Now()
	order, err := c.orders.Create(ctx, domain.NewOrder(details, orderItems(lines)))
	c.metrics.RecordStepDuration(stepSubmit, time.Since(stepStart))
	if err != nil {
		logger.WithError(err).Error("order submission failed")
		return Result{}, m.fail(StateFailed, fmt.Errorf("%w: %w", domain.ErrOrderSubmissionFailed, err))
	}

	logger = logger.WithField("order_id", order.ID)
	logger.WithField("total", order.Total.StringFixed(2)).Info("order placed")
	if err := m.transition(StateReducingStock); err != nil {
		return Result{Order: order}, err
	}

	// Заказ уже создан: списание не должно обрываться вместе с запросом покупателя.
	detached := context.WithoutCancel(ctx)

	stepStart = time.Now()
	unreconciled := c.reduceStock(detached, lines, logger)
	c.metrics.RecordStepDuration(stepReduceStock, time.Since(stepStart))

	c.emitEvent(detached, &order, domain.EventOrderPlaced, logger)
	if len(unreconciled) > 0 {
		if err := c.orders.MarkInventoryUnreconciled(detached, order.ID); err != nil {
			logger.WithError(err).Error("mark order inventory unreconciled failed")
		}
		order.Status = domain.OrderStatusInventoryUnreconciled
		c.emitEvent(detached, &order, domain.EventOrderInventoryUnreconciled, logger)
	}

	result := Result{Order: order, Unreconciled: unreconciled}
	if err := c.carts.Clear(detached, s); err != nil {
		logger.WithError(err).Error("clear cart after checkout failed, stored cart retained")
		s.Cart = cart.New()
		result.CartRetained = true
	}

	if err := m.transition(StateCompleted); err != nil {
		return result, err
	}
	return result, nil
}

// checkoutLine — сгруппированная позиция корзины вместе с последним известным остатком.
type checkoutLine struct {
	cart.Line
	latest domain.Product
}

func (c *Coordinator) validate(ctx context.Context, s *cart.Session, details domain.CheckoutDetails) ([]checkoutLine, error) {
	if s.Cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	lines := make([]checkoutLine, 0, s.Cart.Len())
	for line := range s.Cart.Groups() {
		latest, err := c.latestProduct(ctx, s, line.Product)
		if err != nil {
			return nil, err
		}
		if line.Quantity > latest.Stock {
			return nil, domain.NewStockError(domain.ErrInsufficientStock, latest)
		}
		lines = append(lines, checkoutLine{Line: line, latest: latest})
	}
	return lines, nil
}

// latestProduct возвращает последний известный снимок товара.
// Удалённый из каталога товар считается товаром с нулевым остатком.
func (c *Coordinator) latestProduct(ctx context.Context, s *cart.Session, unit domain.Product) (domain.Product, error) {
	if c.refreshStock {
		product, err := c.catalog.GetProduct(ctx, unit.ID)
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			unit.Stock = 0
			return unit, nil
		case err != nil:
			return domain.Product{}, fmt.Errorf("refresh stock for product %d: %w", unit.ID, err)
		}
		return product, nil
	}

	if product, ok := s.Snapshot.Product(unit.ID); ok {
		return product, nil
	}
	unit.Stock = 0
	return unit, nil
}

func (c *Coordinator) reduceStock(ctx context.Context, lines []checkoutLine, logger *log.Entry) []*ReconciliationError {
	var failures []*ReconciliationError
	for _, line := range lines {
		stock := line.latest.Stock - line.Quantity
		if err := c.catalog.SetStock(ctx, line.latest.ID, stock); err != nil {
			failure := &ReconciliationError{
				ProductID:   line.latest.ID,
				ProductName: line.latest.Name,
				Quantity:    line.Quantity,
				Err:         err,
			}
			logger.WithError(err).WithFields(log.Fields{
				"product_id": failure.ProductID,
				"quantity":   failure.Quantity,
			}).Error("stock decrement failed")
			c.metrics.RecordReconciliationFailure()
			failures = append(failures, failure)
		}
	}
	return failures
}

// OrderEvent — полезная нагрузка событий заказа в outbox.
type OrderEvent struct {
	OrderID   int64            `json:"order_id"`
	Status    string           `json:"status"`
	Total     decimal.Decimal  `json:"total"`
	Email     string           `json:"email"`
	Items     []OrderEventItem `json:"items"`
	CreatedAt time.Time        `json:"created_at"`
}

// OrderEventItem — позиция заказа в событии.
type OrderEventItem struct {
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

func (c *Coordinator) emitEvent(ctx context.Context, order *domain.Order, eventType string, logger *log.Entry) {
	if c.outbox == nil {
		return
	}

	event := OrderEvent{
		OrderID:   order.ID,
		Status:    string(order.Status),
		Total:     order.Total,
		Email:     order.Email,
		Items:     make([]OrderEventItem, 0, len(order.Items)),
		CreatedAt: order.CreatedAt,
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, OrderEventItem{
			ProductName: item.ProductName,
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.WithError(err).WithField("event", eventType).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     eventType,
		Payload:       data,
	}
	if _, err := c.outbox.Enqueue(ctx, msg); err != nil {
		logger.WithError(err).WithField("event", eventType).Error("enqueue event failed")
		return
	}
	c.metrics.RecordOutboxEvent()
}

func orderItems(lines []checkoutLine) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.OrderItem{
			ProductName: line.Product.Name,
			Price:       line.Product.Price,
			Quantity:    line.Quantity,
		})
	}
	return items
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrCheckoutInProgress):
		return "in_progress"
	case domain.IsValidation(err):
		return "invalid_details"
	default:
		return "stock_refresh_failed"
	}
}
