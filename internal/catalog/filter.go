// Package catalog содержит выборки по снимку каталога.
package catalog

import (
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// AllCategories — значение фильтра, отключающее отбор по категории.
const AllCategories = "All Categories"

// Filter задаёт отбор товаров по названию категории и подстроке названия.
type Filter struct {
	Category string
	Query    string
}

// IsZero сообщает, что фильтр ничего не отбирает.
func (f Filter) IsZero() bool {
	return f.category() == "" && strings.TrimSpace(f.Query) == ""
}

// Match проверяет товар на соответствие фильтру. Поиск по названию без учёта регистра.
func (f Filter) Match(p domain.Product) bool {
	if category := f.category(); category != "" && p.CategoryName != category {
		return false
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), query)
}

func (f Filter) category() string {
	category := strings.TrimSpace(f.Category)
	if category == AllCategories {
		return ""
	}
	return category
}

// Apply возвращает товары, прошедшие фильтр, сохраняя исходный порядок.
func Apply(products []domain.Product, f Filter) []domain.Product {
	if f.IsZero() {
		return products
	}
	result := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			result = append(result, p)
		}
	}
	return result
}
