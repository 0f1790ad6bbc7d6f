package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu         sync.RWMutex
	items      map[int64]domain.Order
	nextID     int64
	nextItemID int64
	now        func() time.Time
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[int64]domain.Order),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create присваивает заказу и позициям идентификаторы и сохраняет копию.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errs[0]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = r.now()
	if order.Status == "" {
		order.Status = domain.OrderStatusPlaced
	}
	order.Items = slices.Clone(order.Items)
	for i := range order.Items {
		r.nextItemID++
		order.Items[i].ID = r.nextItemID
		order.Items[i].OrderID = order.ID
	}

	r.items[order.ID] = order
	return cloneOrder(order), nil
}

// List возвращает заказы от новых к старым.
func (r *orderRepositoryInMemory) List(_ context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *orderRepositoryInMemory) MarkInventoryUnreconciled(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = domain.OrderStatusInventoryUnreconciled
	r.items[id] = order
	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	order.Items = slices.Clone(order.Items)
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
