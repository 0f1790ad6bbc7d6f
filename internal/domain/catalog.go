package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category — раздел каталога с уникальным названием.
type Category struct {
	ID   int64
	Name string
}

// Validate проверяет обязательные поля категории.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrCategoryNameRequired
	}
	return nil
}

// Product — товар каталога.
type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Stock int
	// Image — ссылка на изображение товара.
	Image string
	// CategoryID может отсутствовать: товар без категории допустим.
	CategoryID *int64
	// CategoryName заполняется хранилищем при чтении (join с categories).
	CategoryName string
}

// Validate проверяет базовые инварианты товара.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrProductNameRequired
	}
	if p.Price.IsNegative() {
		return ErrPriceNegative
	}
	if p.Stock < 0 {
		return ErrStockNegative
	}
	return nil
}

// Equal сравнивает снимки товара поле за полем.
func (p Product) Equal(other Product) bool {
	if p.ID != other.ID ||
		p.Name != other.Name ||
		!p.Price.Equal(other.Price) ||
		p.Stock != other.Stock ||
		p.Image != other.Image ||
		p.CategoryName != other.CategoryName {
		return false
	}
	switch {
	case p.CategoryID == nil && other.CategoryID == nil:
		return true
	case p.CategoryID == nil || other.CategoryID == nil:
		return false
	default:
		return *p.CategoryID == *other.CategoryID
	}
}
