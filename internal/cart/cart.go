// Package cart хранит выбор покупателя в рамках сессии и проверяет его против остатков каталога.
package cart

import (
	"iter"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Cart — упорядоченный список единиц товара. Каждая единица хранит полный снимок товара.
type Cart struct {
	units []domain.Product
}

// Line — сгруппированная строка корзины для отображения.
type Line struct {
	Product  domain.Product
	Quantity int
	// Subtotal — сумма цен единиц строки, без умножения price * quantity.
	Subtotal decimal.Decimal
}

// New создаёт корзину из списка единиц в заданном порядке.
func New(units ...domain.Product) *Cart {
	return &Cart{units: slices.Clone(units)}
}

// Clone возвращает независимую копию корзины.
func (c *Cart) Clone() *Cart {
	return &Cart{units: slices.Clone(c.units)}
}

// Len возвращает количество единиц в корзине.
func (c *Cart) Len() int {
	return len(c.units)
}

// IsEmpty сообщает, что в корзине нет ни одной единицы.
func (c *Cart) IsEmpty() bool {
	return len(c.units) == 0
}

// Units возвращает копию списка единиц.
func (c *Cart) Units() []domain.Product {
	return slices.Clone(c.units)
}

// Count возвращает число единиц товара в корзине.
func (c *Cart) Count(productID int64) int {
	n := 0
	for _, unit := range c.units {
		if unit.ID == productID {
			n++
		}
	}
	return n
}

// Add добавляет одну единицу товара в конец корзины.
func (c *Cart) Add(product domain.Product) {
	c.units = append(c.units, product)
}

// RemoveFirst удаляет первую единицу товара. Возвращает false, если товара в корзине нет.
func (c *Cart) RemoveFirst(productID int64) bool {
	idx := slices.IndexFunc(c.units, func(unit domain.Product) bool { return unit.ID == productID })
	if idx < 0 {
		return false
	}
	c.units = slices.Delete(c.units, idx, idx+1)
	return true
}

// RemoveAll удаляет все единицы товара и возвращает их количество.
func (c *Cart) RemoveAll(productID int64) int {
	before := len(c.units)
	c.units = slices.DeleteFunc(c.units, func(unit domain.Product) bool { return unit.ID == productID })
	return before - len(c.units)
}

// RemoveAt удаляет единицу по позиции в списке.
func (c *Cart) RemoveAt(index int) (domain.Product, error) {
	if index < 0 || index >= len(c.units) {
		return domain.Product{}, domain.ErrCartIndexOutOfRange
	}
	removed := c.units[index]
	c.units = slices.Delete(c.units, index, index+1)
	return removed, nil
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.units = nil
}

// Total — сумма цен всех единиц корзины.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, unit := range c.units {
		total = total.Add(unit.Price)
	}
	return total
}

// Groups выдаёт по одной строке на товар в порядке первого появления.
func (c *Cart) Groups() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		counts := make(map[int64]int)
		subtotals := make(map[int64]decimal.Decimal)
		for _, unit := range c.units {
			counts[unit.ID]++
			subtotals[unit.ID] = subtotals[unit.ID].Add(unit.Price)
		}

		seen := make(map[int64]struct{}, len(counts))
		for _, unit := range c.units {
			if _, ok := seen[unit.ID]; ok {
				continue
			}
			seen[unit.ID] = struct{}{}
			if !yield(Line{Product: unit, Quantity: counts[unit.ID], Subtotal: subtotals[unit.ID]}) {
				return
			}
		}
	}
}

// Lines собирает Groups в срез.
func (c *Cart) Lines() []Line {
	return slices.Collect(c.Groups())
}

// Equal сравнивает две корзины поединично с учётом порядка.
func (c *Cart) Equal(other *Cart) bool {
	return slices.EqualFunc(c.units, other.units, func(a, b domain.Product) bool { return a.Equal(b) })
}
