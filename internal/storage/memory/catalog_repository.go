package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// catalogRepositoryInMemory — in-memory реализация CatalogRepository.
type catalogRepositoryInMemory struct {
	mu             sync.RWMutex
	categories     map[int64]domain.Category
	products       map[int64]domain.Product
	nextCategoryID int64
	nextProductID  int64
}

// NewCatalogRepository возвращает in-memory каталог для локальной разработки и тестов.
func NewCatalogRepository() domain.CatalogRepository {
	return &catalogRepositoryInMemory{
		categories: make(map[int64]domain.Category),
		products:   make(map[int64]domain.Product),
	}
}

func (r *catalogRepositoryInMemory) ListCategories(_ context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		result = append(result, c)
	}
	slices.SortFunc(result, func(a, b domain.Category) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return result, nil
}

func (r *catalogRepositoryInMemory) CreateCategory(_ context.Context, category domain.Category) (domain.Category, error) {
	if err := category.Validate(); err != nil {
		return domain.Category{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	category.Name = strings.TrimSpace(category.Name)
	for _, existing := range r.categories {
		if existing.Name == category.Name {
			return domain.Category{}, domain.ErrCategoryExists
		}
	}
	r.nextCategoryID++
	category.ID = r.nextCategoryID
	r.categories[category.ID] = category
	return category, nil
}

// DeleteCategory удаляет категорию, если на неё не ссылается ни один товар.
func (r *catalogRepositoryInMemory) DeleteCategory(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	for _, p := range r.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			return domain.ErrCategoryInUse
		}
	}
	delete(r.categories, id)
	return nil
}

func (r *catalogRepositoryInMemory) ListProducts(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		result = append(result, r.withCategoryName(p))
	}
	slices.SortFunc(result, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })
	return result, nil
}

func (r *catalogRepositoryInMemory) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return r.withCategoryName(p), nil
}

func (r *catalogRepositoryInMemory) CreateProduct(_ context.Context, product domain.Product) (domain.Product, error) {
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkCategory(product.CategoryID); err != nil {
		return domain.Product{}, err
	}
	r.nextProductID++
	product.ID = r.nextProductID
	product.CategoryID = cloneID(product.CategoryID)
	product.CategoryName = ""
	r.products[product.ID] = product
	return r.withCategoryName(product), nil
}

func (r *catalogRepositoryInMemory) UpdateProduct(_ context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	if err := r.checkCategory(product.CategoryID); err != nil {
		return err
	}
	product.CategoryID = cloneID(product.CategoryID)
	product.CategoryName = ""
	r.products[product.ID] = product
	return nil
}

func (r *catalogRepositoryInMemory) DeleteProduct(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *catalogRepositoryInMemory) SetStock(_ context.Context, id int64, stock int) error {
	if stock < 0 {
		return domain.ErrStockNegative
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock = stock
	r.products[id] = p
	return nil
}

func (r *catalogRepositoryInMemory) checkCategory(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := r.categories[*id]; !ok {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *catalogRepositoryInMemory) withCategoryName(p domain.Product) domain.Product {
	p.CategoryID = cloneID(p.CategoryID)
	if p.CategoryID != nil {
		p.CategoryName = r.categories[*p.CategoryID].Name
	}
	return p
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

var _ domain.CatalogRepository = (*catalogRepositoryInMemory)(nil)
