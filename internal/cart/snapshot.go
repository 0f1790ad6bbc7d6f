package cart

import (
	"slices"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Snapshot — состояние каталога на момент загрузки корзины.
// Остатки в нём могут устареть относительно хранилища.
type Snapshot struct {
	products []domain.Product
	index    map[int64]int
}

// NewSnapshot фиксирует список товаров.
func NewSnapshot(products []domain.Product) Snapshot {
	s := Snapshot{
		products: slices.Clone(products),
		index:    make(map[int64]int, len(products)),
	}
	for i, p := range s.products {
		s.index[p.ID] = i
	}
	return s
}

// Product возвращает снимок товара по идентификатору.
func (s Snapshot) Product(id int64) (domain.Product, bool) {
	i, ok := s.index[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

// Products возвращает копию всех товаров снимка.
func (s Snapshot) Products() []domain.Product {
	return slices.Clone(s.products)
}

// Len возвращает число товаров в снимке.
func (s Snapshot) Len() int {
	return len(s.products)
}

// Session — корзина покупателя вместе со снимком каталога.
// Создаётся на каждый запрос и передаётся явно.
type Session struct {
	ID       string
	Cart     *Cart
	Snapshot Snapshot
}
