package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает состояние заказа после оформления.
type OrderStatus string

const (
	// OrderStatusPlaced — заказ создан, остатки списаны.
	OrderStatusPlaced OrderStatus = "placed"
	// OrderStatusInventoryUnreconciled — заказ создан, но часть остатков списать не удалось.
	OrderStatusInventoryUnreconciled OrderStatus = "inventory_unreconciled"
)

// OrderItem представляет одну позицию заказа.
// Название и цена копируются из каталога на момент оформления.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

// LineTotal возвращает стоимость позиции: price * quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CheckoutDetails — данные покупателя, которые вводятся при оформлении.
type CheckoutDetails struct {
	CustomerName  string
	Email         string
	Address       string
	PaymentMethod string
}

// Validate проверяет, что все поля заполнены.
func (d CheckoutDetails) Validate() error {
	switch {
	case strings.TrimSpace(d.CustomerName) == "":
		return ErrCustomerNameRequired
	case strings.TrimSpace(d.Email) == "":
		return ErrEmailRequired
	case strings.TrimSpace(d.Address) == "":
		return ErrAddressRequired
	case strings.TrimSpace(d.PaymentMethod) == "":
		return ErrPaymentMethodRequired
	}
	return nil
}

// Order агрегирует заказ и его позиции.
type Order struct {
	ID            int64
	CustomerName  string
	Email         string
	Address       string
	PaymentMethod string
	Total         decimal.Decimal
	Status        OrderStatus
	Items         []OrderItem
	// CreatedAt проставляет хранилище.
	CreatedAt time.Time
}

// NewOrder собирает заказ из данных покупателя и позиций, вычисляя итог по позициям.
func NewOrder(details CheckoutDetails, items []OrderItem) Order {
	order := Order{
		CustomerName:  details.CustomerName,
		Email:         details.Email,
		Address:       details.Address,
		PaymentMethod: details.PaymentMethod,
		Status:        OrderStatusPlaced,
		Items:         items,
	}
	order.Total = order.ItemsTotal()
	return order
}

// Details возвращает данные покупателя заказа.
func (o *Order) Details() CheckoutDetails {
	return CheckoutDetails{
		CustomerName:  o.CustomerName,
		Email:         o.Email,
		Address:       o.Address,
		PaymentMethod: o.PaymentMethod,
	}
}

// MoneyScale — число знаков после запятой у денежных колонок NUMERIC(12,2).
const MoneyScale = 2

// ItemsTotal считает сумму позиций.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ProductNames возвращает названия товаров заказа через запятую.
func (o *Order) ProductNames() string {
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		names = append(names, item.ProductName)
	}
	return strings.Join(names, ",")
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if err := o.Details().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}

	for _, item := range o.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			errs = append(errs, ErrItemNameRequired)
		}
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.Price.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}
	// Клиент считает итог во float, поэтому сверяем с точностью до копейки.
	if !o.ItemsTotal().Round(MoneyScale).Equal(o.Total.Round(MoneyScale)) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
